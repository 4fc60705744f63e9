// Package postgres opens table sessions on PostgreSQL through the pgx
// database/sql adapter.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/koustreak/table-mysql/internal/database"
)

// Dialer implements database.Dialer for PostgreSQL.
type Dialer struct{}

// Dial opens the session and verifies it with a ping.
func (Dialer) Dial(ctx context.Context, cfg *database.Config) (database.Session, error) {
	connCfg, err := buildConnConfig(cfg)
	if err != nil {
		return nil, err
	}
	return database.NewSQLSession(ctx, stdlib.OpenDB(*connCfg), mapError)
}
