// Package config loads the table configuration file.
//
// The format is one "key value" pair per line. The key ends at the first
// space, tab or ':'; the value starts after any run of whitespace and ": "
// separators. Blank lines and lines starting with '#' are ignored. Keys
// must be unique and every key needs a value.
package config

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/koustreak/table-mysql/internal/service"
)

const (
	DefaultSourceExpire  = 60 * time.Second
	DefaultSourceRefresh = 1000
)

// Config is a parsed configuration file. Unrecognized keys are kept.
type Config struct {
	values map[string]string

	// SourceExpire is how long an enumeration snapshot may be served.
	SourceExpire time.Duration

	// SourceRefresh is how many fetch calls an enumeration snapshot may serve.
	SourceRefresh int
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, fmt.Sprintf("open %q", path), err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a configuration from r.
func Parse(r io.Reader) (*Config, error) {
	c := &Config{
		values:        make(map[string]string),
		SourceExpire:  DefaultSourceExpire,
		SourceRefresh: DefaultSourceRefresh,
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	lineno := 0
	for sc.Scan() {
		lineno++
		key, value, ok := splitLine(sc.Text())
		if !ok {
			continue
		}
		if value == "" {
			return nil, errs.Newf(errs.ErrKindConfiguration, "line %d: missing value for key %s", lineno, key)
		}
		if _, dup := c.values[key]; dup {
			return nil, errs.Newf(errs.ErrKindConfiguration, "line %d: duplicate key %s", lineno, key)
		}
		c.values[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "read configuration", err)
	}

	if v, ok := c.values["fetch_source_expire"]; ok {
		n, err := parseCount(v)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConfiguration, "bad value for fetch_source_expire", err)
		}
		c.SourceExpire = time.Duration(n) * time.Second
	}
	if v, ok := c.values["fetch_source_refresh"]; ok {
		n, err := parseCount(v)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConfiguration, "bad value for fetch_source_refresh", err)
		}
		c.SourceRefresh = n
	}
	if v, ok := c.values["driver"]; ok {
		switch database.Driver(v) {
		case database.DriverMySQL, database.DriverPostgres:
		default:
			return nil, errs.Newf(errs.ErrKindConfiguration, "unsupported driver %q", v)
		}
	}

	return c, nil
}

// splitLine returns ok=false for blank and comment lines.
func splitLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return "", "", false
	}

	i := strings.IndexAny(line, " \t:")
	if i < 0 {
		return line, "", true
	}
	key, rest := line[:i], line[i+1:]

	j := 0
	for j < len(rest) {
		if isSpace(rest[j]) || (rest[j] == ':' && j+1 < len(rest) && isSpace(rest[j+1])) {
			j++
			continue
		}
		break
	}
	return key, rest[j:], true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// parseCount accepts a decimal integer in [0, INT_MAX].
func parseCount(v string) (int, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid: %q", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("too small: %q", v)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("too large: %q", v)
	}
	return int(n), nil
}

// Get returns the raw value for key.
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Query returns the query text configured for svc.
func (c *Config) Query(svc service.Service) (string, bool) {
	return c.Get(svc.QueryKey())
}

// FetchQuery returns the enumeration query text.
func (c *Config) FetchQuery() (string, bool) {
	return c.Get(service.FetchQueryKey)
}

// Configured lists the services that have a query.
func (c *Config) Configured() []service.Service {
	var out []service.Service
	for _, s := range service.All() {
		if _, ok := c.Query(s); ok {
			out = append(out, s)
		}
	}
	return out
}

// Database returns the session settings.
func (c *Config) Database() *database.Config {
	driver := database.DriverMySQL
	if v, ok := c.values["driver"]; ok {
		driver = database.Driver(v)
	}
	return &database.Config{
		Driver:   driver,
		Host:     c.values["host"],
		User:     c.values["username"],
		Password: c.values["password"],
		Database: c.values["database"],
	}
}

// LogLevel returns the configured log level, "info" by default.
func (c *Config) LogLevel() string {
	if v, ok := c.values["log_level"]; ok {
		return v
	}
	return "info"
}

// StatusListen returns the status endpoint address, empty when disabled.
func (c *Config) StatusListen() string {
	return c.values["status_listen"]
}
