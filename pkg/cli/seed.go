package cli

import (
	"context"
	"fmt"

	"github.com/secmon-lab/amlcase/pkg/cli/config"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/usecase"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var (
		repositoryCfg config.Repository
		sentryCfg     config.Sentry
		fixtureCfg    config.Fixture
	)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load demo data or a YAML fixture into the case store",
		Flags: joinFlags(
			fixtureCfg.Flags(),
			repositoryCfg.Flags(),
			sentryCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			f, err := fixtureCfg.Load()
			if err != nil {
				return err
			}

			repo, err := repositoryCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			result, err := usecase.New(usecase.WithRepository(repo)).Seed(ctx, auth.DemoAnalystID, f)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("seed completed", "fixture", fixtureCfg, "repository", repositoryCfg)
			fmt.Fprintf(c.Root().Writer, "tenants: %d (skipped %d), customers: %d, cases: %d\n",
				result.Tenants, result.SkippedTenants, result.Customers, result.Cases)
			return nil
		},
	}
}
