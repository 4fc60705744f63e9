package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/koustreak/table-mysql/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# smtpd table
host            db.example.org
username        smtpd
password:       s3cr3t
database        mail

query_alias        SELECT destination FROM virtuals WHERE email=?
query_credentials  SELECT email, password FROM credentials WHERE email=?
fetch_source       SELECT address FROM relays
fetch_source_expire 30
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	db := c.Database()
	assert.Equal(t, database.DriverMySQL, db.Driver)
	assert.Equal(t, "db.example.org", db.Host)
	assert.Equal(t, "smtpd", db.User)
	assert.Equal(t, "s3cr3t", db.Password)
	assert.Equal(t, "mail", db.Database)

	q, ok := c.Query(service.Alias)
	require.True(t, ok)
	assert.Equal(t, "SELECT destination FROM virtuals WHERE email=?", q)

	_, ok = c.Query(service.Domain)
	assert.False(t, ok)

	fq, ok := c.FetchQuery()
	require.True(t, ok)
	assert.Equal(t, "SELECT address FROM relays", fq)

	assert.Equal(t, []service.Service{service.Alias, service.Credentials}, c.Configured())
	assert.Equal(t, 30*time.Second, c.SourceExpire)
	assert.Equal(t, DefaultSourceRefresh, c.SourceRefresh)
	assert.Equal(t, "info", c.LogLevel())
	assert.Empty(t, c.StatusListen())
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{line: "", ok: false},
		{line: "   ", ok: false},
		{line: "# comment", ok: false},
		{line: "  #indented comment", ok: false},
		{line: "host localhost", key: "host", value: "localhost", ok: true},
		{line: "host\tlocalhost", key: "host", value: "localhost", ok: true},
		{line: "host:localhost", key: "host", value: "localhost", ok: true},
		{line: "host: localhost", key: "host", value: "localhost", ok: true},
		{line: "host : : localhost ", key: "host", value: "localhost", ok: true},
		{line: "host ::1", key: "host", value: "::1", ok: true},
		{line: "query_domain SELECT d FROM t WHERE d = ?", key: "query_domain", value: "SELECT d FROM t WHERE d = ?", ok: true},
		{line: "lonely", key: "lonely", value: "", ok: true},
		{line: "lonely:   ", key: "lonely", value: "", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, ok := splitLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing value", input: "host\n"},
		{name: "duplicate key", input: "host a\nhost b\n"},
		{name: "negative expire", input: "fetch_source_expire -1\n"},
		{name: "non numeric refresh", input: "fetch_source_refresh often\n"},
		{name: "refresh over INT_MAX", input: "fetch_source_refresh 2147483648\n"},
		{name: "unknown driver", input: "driver oracle\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errs.IsConfiguration(err))
		})
	}
}

func TestParseBounds(t *testing.T) {
	c, err := Parse(strings.NewReader("fetch_source_expire 0\nfetch_source_refresh 2147483647\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), c.SourceExpire)
	assert.Equal(t, 2147483647, c.SourceRefresh)
}

func TestParseExtras(t *testing.T) {
	c, err := Parse(strings.NewReader("driver postgres\nlog_level debug\nstatus_listen 127.0.0.1:9100\ncustom_key kept\n"))
	require.NoError(t, err)
	assert.Equal(t, database.DriverPostgres, c.Database().Driver)
	assert.Equal(t, "debug", c.LogLevel())
	assert.Equal(t, "127.0.0.1:9100", c.StatusListen())

	v, ok := c.Get("custom_key")
	assert.True(t, ok)
	assert.Equal(t, "kept", v)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mysql.conf")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mail", c.Database().Database)

	_, err = Load(filepath.Join(t.TempDir(), "missing.conf"))
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}
