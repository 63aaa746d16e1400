package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/urfave/cli/v3"
)

// SQL configures the gorm backed sqlite store.
type SQL struct {
	dsn string
}

func (c *SQL) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sqlite-dsn",
			Usage:       "sqlite database file or DSN (use :memory: for a throwaway database)",
			Destination: &c.dsn,
			Category:    "SQL",
			Sources:     cli.EnvVars("AMLCASE_SQLITE_DSN"),
			Value:       "amlcase.db",
		},
	}
}

func (c SQL) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("dsn", c.dsn),
	)
}

func (c *SQL) Configure(ctx context.Context) (*repository.SQLite, error) {
	if c.dsn == "" {
		return nil, goerr.New("sqlite-dsn is required for the sqlite backend")
	}
	return repository.NewSQLite(ctx, c.dsn)
}

func (c *SQL) DSN() string {
	return c.dsn
}
