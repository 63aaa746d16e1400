package cli

import (
	"context"
	"log/slog"
	"time"

	firestoreadmin "cloud.google.com/go/firestore/apiv1/admin"
	adminpb "cloud.google.com/go/firestore/apiv1/admin/adminpb"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/cli/config"
	"github.com/secmon-lab/amlcase/pkg/repository/firestore"
	"github.com/secmon-lab/amlcase/pkg/repository/sqlite"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/iterator"
)

func cmdMigrate() *cli.Command {
	var (
		repositoryCfg config.Repository
		bigqueryCfg   config.BigQuery
		dryRun        bool
	)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create SQL tables, Firestore indexes and the BigQuery audit table",
		Flags: joinFlags(
			repositoryCfg.Flags(),
			bigqueryCfg.Flags(),
			[]cli.Flag{
				&cli.BoolFlag{
					Name:        "dry-run",
					Usage:       "Show what would be changed without applying",
					Destination: &dryRun,
				},
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			switch repositoryCfg.Backend() {
			case config.BackendSQLite:
				if err := runSQLMigrate(ctx, repositoryCfg.SQL(), dryRun); err != nil {
					return err
				}
			case config.BackendFirestore:
				if err := runFirestoreMigrate(ctx, repositoryCfg.Firestore(), dryRun); err != nil {
					return err
				}
			default:
				logging.From(ctx).Info("nothing to migrate for backend", "backend", repositoryCfg.Backend())
			}

			if bigqueryCfg.IsConfigured() {
				if err := runBigQueryMigrate(ctx, &bigqueryCfg, dryRun); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runSQLMigrate(ctx context.Context, cfg *config.SQL, dryRun bool) error {
	logger := logging.From(ctx)
	if dryRun {
		logger.Info("Dry-run mode: sqlite tables would be created or updated", "dsn", cfg.DSN())
		return nil
	}

	db, err := sqlite.New(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer safe.Close(ctx, db)

	if err := db.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to migrate sqlite schema", goerr.V("dsn", cfg.DSN()))
	}

	logger.Info("SQL migration completed successfully", "dsn", cfg.DSN())
	return nil
}

func runBigQueryMigrate(ctx context.Context, cfg *config.BigQuery, dryRun bool) error {
	if dryRun {
		logging.From(ctx).Info("Dry-run mode: BigQuery audit table would be created if missing", "bigquery", cfg)
		return nil
	}

	sink, err := cfg.Configure(ctx)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, sink)

	return sink.Migrate(ctx)
}

func runFirestoreMigrate(ctx context.Context, cfg *config.Firestore, dryRun bool) error {
	logger := logging.From(ctx)

	projectID := cfg.ProjectID()
	databaseID := cfg.DatabaseID()

	if projectID == "" {
		return goerr.New("firestore-project-id is required")
	}

	logger.Info("Starting Firestore migration",
		"project_id", projectID,
		"database_id", databaseID,
		"dry_run", dryRun,
	)

	indexConfig := defineFirestoreIndexes()

	opts := []fireconf.Option{fireconf.WithLogger(logger)}
	if dryRun {
		logger.Info("Dry-run mode: showing planned changes without applying")
		opts = append(opts, fireconf.WithDryRun(true))
	}

	client, err := fireconf.NewClient(ctx, projectID, databaseID, opts...)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to migrate indexes",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
			goerr.V("dry_run", dryRun),
		)
	}

	if !dryRun {
		if err := waitForIndexesReady(ctx, projectID, databaseID, indexConfig, logger.With("phase", "wait_ready")); err != nil {
			return goerr.Wrap(err, "indexes did not become ready",
				goerr.V("project_id", projectID),
				goerr.V("database_id", databaseID),
			)
		}
	}

	logger.Info("Migration completed successfully")
	return nil
}

// waitForIndexesReady polls the Firestore Admin API until no managed index is still building.
func waitForIndexesReady(ctx context.Context, projectID, databaseID string, cfg *fireconf.Config, logger *slog.Logger) error {
	adminClient, err := firestoreadmin.NewFirestoreAdminClient(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to create firestore admin client")
	}
	defer safe.Close(ctx, adminClient)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		allReady := true

		for _, col := range cfg.Collections {
			parent := "projects/" + projectID + "/databases/" + databaseID + "/collectionGroups/" + col.Name

			it := adminClient.ListIndexes(ctx, &adminpb.ListIndexesRequest{Parent: parent})
			for {
				idx, err := it.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to list indexes", goerr.TV(errutil.CollectionKey, col.Name))
				}

				state := idx.GetState()
				if state == adminpb.Index_CREATING || state == adminpb.Index_NEEDS_REPAIR {
					allReady = false
					logger.Info("Index not yet ready, waiting",
						"collection", col.Name,
						"index", idx.GetName(),
						"state", state.String(),
					)
				}
			}
		}

		if allReady {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// defineFirestoreIndexes covers the case list queries: soft-delete flag with
// optional status and owner equality, newest first.
func defineFirestoreIndexes() *fireconf.Config {
	createdDesc := fireconf.IndexField{Path: "CreatedAt", Order: fireconf.OrderDescending}
	asc := func(path string) fireconf.IndexField {
		return fireconf.IndexField{Path: path, Order: fireconf.OrderAscending}
	}

	caseIndexes := []fireconf.Index{
		{
			QueryScope: fireconf.QueryScopeCollection,
			Fields:     []fireconf.IndexField{asc("IsDeleted"), createdDesc},
		},
		{
			QueryScope: fireconf.QueryScopeCollection,
			Fields:     []fireconf.IndexField{asc("IsDeleted"), asc("Status"), createdDesc},
		},
		{
			QueryScope: fireconf.QueryScopeCollection,
			Fields:     []fireconf.IndexField{asc("IsDeleted"), asc("Owner"), createdDesc},
		},
		{
			QueryScope: fireconf.QueryScopeCollection,
			Fields:     []fireconf.IndexField{asc("IsDeleted"), asc("Status"), asc("Owner"), createdDesc},
		},
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name:    firestore.CaseCollection,
				Indexes: caseIndexes,
			},
		},
	}
}
