package postgres

import (
	"github.com/jackc/pgx/v5"
	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
)

const defaultPort = 5432

// buildConnConfig starts from libpq defaults (PG* environment variables)
// and overrides whatever the table configuration sets.
func buildConnConfig(cfg *database.Config) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig("")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "invalid postgres settings", err)
	}

	if cfg.Host != "" {
		_, host, port := cfg.Endpoint(defaultPort)
		connCfg.Host = host
		if port != 0 {
			connCfg.Port = uint16(port)
		}
	}
	if cfg.User != "" {
		connCfg.User = cfg.User
	}
	if cfg.Password != "" {
		connCfg.Password = cfg.Password
	}
	if cfg.Database != "" {
		connCfg.Database = cfg.Database
	}
	return connCfg, nil
}
