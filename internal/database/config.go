package database

import (
	"net"
	"strconv"
	"strings"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// Config holds the settings needed to open the single table session.
type Config struct {
	// Driver is the database engine (e.g. DriverMySQL).
	Driver Driver

	// Host is a host name, host:port, or an absolute unix socket path.
	// Empty means the driver's local default.
	Host string

	User     string
	Password string
	Database string
}

// Endpoint splits Host into network, address and port for the given default
// port. A leading '/' selects a unix socket.
func (c *Config) Endpoint(defaultPort int) (network, host string, port int) {
	if strings.HasPrefix(c.Host, "/") {
		return "unix", c.Host, 0
	}
	host, port = c.Host, defaultPort
	if h, p, err := net.SplitHostPort(c.Host); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			host, port = h, n
		}
	}
	if host == "" {
		host = "localhost"
	}
	return "tcp", host, port
}
