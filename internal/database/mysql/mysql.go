// Package mysql opens table sessions on MySQL / MariaDB through
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
)

// Dialer implements database.Dialer for MySQL.
type Dialer struct{}

// Dial opens the session and verifies it with a ping.
func (Dialer) Dial(ctx context.Context, cfg *database.Config) (database.Session, error) {
	connector, err := mysql.NewConnector(buildConfig(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "invalid mysql settings", err)
	}
	return database.NewSQLSession(ctx, sql.OpenDB(connector), mapError)
}
