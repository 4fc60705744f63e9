package mysql

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/table-mysql/internal/database"
)

const defaultPort = 3306

// buildConfig translates the table settings into a driver config.
func buildConfig(cfg *database.Config) *mysql.Config {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.Database

	network, host, port := cfg.Endpoint(defaultPort)
	c.Net = network
	if network == "unix" {
		c.Addr = host
	} else {
		c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
	return c
}
