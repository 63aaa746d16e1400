package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/cli/config"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/service/csvimport"
	"github.com/secmon-lab/amlcase/pkg/usecase"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var (
		filePath      string
		tenantID      string
		userID        string
		repositoryCfg config.Repository
		sentryCfg     config.Sentry
		bigqueryCfg   config.BigQuery
	)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import monitoring alerts from a CSV file into a tenant",
		Flags: joinFlags(
			[]cli.Flag{
				&cli.StringFlag{
					Name:        "file",
					Usage:       "CSV file with externalAlertId, customerExternalId, customerName, alertType, alertDate, riskHint, description columns",
					Required:    true,
					Destination: &filePath,
				},
				&cli.StringFlag{
					Name:        "tenant-id",
					Usage:       "Tenant receiving the alerts",
					Sources:     cli.EnvVars("AMLCASE_TENANT_ID"),
					Value:       types.DefaultTenantID.String(),
					Destination: &tenantID,
				},
				&cli.StringFlag{
					Name:        "user-id",
					Usage:       "User recorded as the actor of created cases",
					Sources:     cli.EnvVars("AMLCASE_USER_ID"),
					Value:       auth.DemoAnalystID.String(),
					Destination: &userID,
				},
			},
			repositoryCfg.Flags(),
			sentryCfg.Flags(),
			bigqueryCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			id := auth.Identity{
				TenantID: types.TenantID(tenantID),
				UserID:   types.UserID(userID),
				Roles:    []string{auth.RoleComplianceAdmin},
			}
			if err := id.Validate(); err != nil {
				return err
			}

			f, err := os.Open(filepath.Clean(filePath))
			if err != nil {
				return goerr.Wrap(err, "failed to open CSV file", goerr.V("path", filePath))
			}
			defer safe.Close(ctx, f)

			rows, err := csvimport.Parse(f)
			if err != nil {
				return goerr.Wrap(err, "failed to parse CSV file", goerr.V("path", filePath))
			}

			repo, err := repositoryCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			opts := []usecase.Option{usecase.WithRepository(repo)}
			if bigqueryCfg.IsConfigured() {
				sink, err := bigqueryCfg.Configure(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, sink)
				opts = append(opts, usecase.WithAuditSink(sink))
			}

			result, err := usecase.New(opts...).ImportAlerts(ctx, id, rows)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("alerts imported",
				"path", filePath,
				"tenant_id", id.TenantID,
				"imported", result.Imported,
				"skipped", result.Skipped,
				"created_cases", result.CreatedCases)
			fmt.Fprintf(c.Root().Writer, "imported: %d, skipped: %d, created cases: %d\n",
				result.Imported, result.Skipped, result.CreatedCases)
			return nil
		},
	}
}
