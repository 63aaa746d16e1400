package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/urfave/cli/v3"
)

const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Repository selects and builds the case store backend.
type Repository struct {
	backend   string
	firestore Firestore
	sql       SQL
}

func (x *Repository) Flags() []cli.Flag {
	return joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "repository",
				Aliases:     []string{"r"},
				Usage:       "Case store backend [memory|sqlite|firestore]",
				Category:    "Repository",
				Destination: &x.backend,
				Sources:     cli.EnvVars("AMLCASE_REPOSITORY"),
				Value:       BackendMemory,
			},
		},
		x.firestore.Flags(),
		x.sql.Flags(),
	)
}

func (x Repository) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("backend", x.backend)}
	switch x.backend {
	case BackendFirestore:
		attrs = append(attrs, slog.Any("firestore", x.firestore))
	case BackendSQLite:
		attrs = append(attrs, slog.Any("sql", x.sql))
	}
	return slog.GroupValue(attrs...)
}

func (x *Repository) Backend() string {
	return x.backend
}

func (x *Repository) Firestore() *Firestore {
	return &x.firestore
}

func (x *Repository) SQL() *SQL {
	return &x.sql
}

func (x *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch x.backend {
	case BackendMemory, "":
		return repository.NewMemory(), nil
	case BackendSQLite:
		return x.sql.Configure(ctx)
	case BackendFirestore:
		return x.firestore.Configure(ctx)
	default:
		return nil, goerr.New("unknown repository backend", goerr.V("backend", x.backend))
	}
}

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}
