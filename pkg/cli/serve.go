package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/secmon-lab/amlcase/pkg/cli/config"
	server "github.com/secmon-lab/amlcase/pkg/controller/http"
	"github.com/secmon-lab/amlcase/pkg/service/evidence"
	"github.com/secmon-lab/amlcase/pkg/service/notifier"
	"github.com/secmon-lab/amlcase/pkg/usecase"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// generateBaseURL generates a browsable URL from the server address
func generateBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		if strings.HasPrefix(addr, ":") {
			return fmt.Sprintf("http://localhost%s", addr)
		}
		return fmt.Sprintf("http://%s", addr)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}

func cmdServe() *cli.Command {
	var (
		addr             string
		noAuthentication bool
		noAuthorization  bool
		enableMetrics    bool
		consoleNotify    bool
		repositoryCfg    config.Repository
		authCfg          config.Auth
		policyCfg        config.Policy
		sentryCfg        config.Sentry
		slackCfg         config.Slack
		storageCfg       config.Storage
		bigqueryCfg      config.BigQuery
		archiveCfg       config.Archive
	)

	flags := joinFlags(
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Sources:     cli.EnvVars("AMLCASE_ADDR"),
				Usage:       "Listen address (default: 127.0.0.1:8080)",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.BoolFlag{
				Name:        "no-authentication",
				Aliases:     []string{"no-authn"},
				Usage:       "Use the demo identity for requests without credentials (development only)",
				Category:    "Security",
				Sources:     cli.EnvVars("AMLCASE_NO_AUTHENTICATION"),
				Destination: &noAuthentication,
			},
			&cli.BoolFlag{
				Name:        "no-authorization",
				Aliases:     []string{"no-authz"},
				Usage:       "Disable policy-based authorization checks (development only)",
				Category:    "Security",
				Sources:     cli.EnvVars("AMLCASE_NO_AUTHORIZATION"),
				Destination: &noAuthorization,
			},
			&cli.BoolFlag{
				Name:        "enable-metrics",
				Usage:       "Expose Prometheus metrics on /metrics",
				Category:    "Observability",
				Sources:     cli.EnvVars("AMLCASE_ENABLE_METRICS"),
				Destination: &enableMetrics,
			},
			&cli.BoolFlag{
				Name:        "console-notify",
				Usage:       "Print committed case events to stdout",
				Category:    "Observability",
				Sources:     cli.EnvVars("AMLCASE_CONSOLE_NOTIFY"),
				Destination: &consoleNotify,
			},
		},
		repositoryCfg.Flags(),
		authCfg.Flags(),
		policyCfg.Flags(),
		sentryCfg.Flags(),
		slackCfg.Flags(),
		storageCfg.Flags(),
		bigqueryCfg.Flags(),
		archiveCfg.Flags(),
	)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run HTTP API server",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if slackCfg.IsConfigured() && slackCfg.CaseURL() == "" {
				generatedURL := generateBaseURL(addr)
				slackCfg.SetCaseURL(generatedURL)
				logging.Default().Warn("Case URL for Slack links is automatically set",
					"auto-generated-url", generatedURL,
					"recommendation", "For production use, please explicitly set --slack-case-url")
			}

			logging.Default().Info("starting server",
				"addr", addr,
				"noAuthentication", noAuthentication,
				"noAuthorization", noAuthorization,
				"enableMetrics", enableMetrics,
				"repository", repositoryCfg,
				"auth", authCfg,
				"policy", policyCfg,
				"sentry", sentryCfg,
				"slack", slackCfg,
				"storage", &storageCfg,
				"bigquery", bigqueryCfg,
				"archive", archiveCfg,
			)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			repo, err := repositoryCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo)

			presigner, closePresigner, err := storageCfg.Presigner(ctx)
			if err != nil {
				return err
			}
			defer closePresigner()

			ucOptions := []usecase.Option{
				usecase.WithRepository(repo),
				usecase.WithPresigner(presigner),
				usecase.WithPresignTTL(storageCfg.PresignTTL()),
				usecase.WithEvidenceRenderer(evidence.New()),
			}

			loginOptions, err := authCfg.Options()
			if err != nil {
				return err
			}
			ucOptions = append(ucOptions, loginOptions...)

			if consoleNotify {
				ucOptions = append(ucOptions, usecase.WithNotifier(notifier.NewConsole()))
			}
			if slackCfg.IsConfigured() {
				slackNotifier, err := slackCfg.Configure()
				if err != nil {
					return err
				}
				ucOptions = append(ucOptions, usecase.WithNotifier(notifier.NewAsync(slackNotifier)))
			}

			if bigqueryCfg.IsConfigured() {
				sink, err := bigqueryCfg.Configure(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, sink)
				ucOptions = append(ucOptions, usecase.WithAuditSink(sink))
			}
			if archiveCfg.IsConfigured() {
				sink, err := archiveCfg.Configure(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, sink)
				ucOptions = append(ucOptions, usecase.WithAuditSink(sink))
			}

			uc := usecase.New(ucOptions...)
			if !uc.IsLoginEnabled() {
				logging.From(ctx).Warn("login is disabled, set --jwt-secret and --login-password to enable /api/auth/login")
			}

			var serverOptions []server.Options

			policyClient, err := policyCfg.Configure()
			if err != nil {
				return err
			}
			if policyClient != nil {
				serverOptions = append(serverOptions, server.WithPolicy(policyClient))
			}

			if noAuthentication {
				logging.From(ctx).Warn("SECURITY WARNING: requests without credentials act as the demo analyst",
					"flag", "--no-authentication",
					"recommendation", "This should only be used in development environments")
				serverOptions = append(serverOptions, server.WithNoAuthentication(true))
			}
			if noAuthorization {
				logging.From(ctx).Warn("SECURITY WARNING: Authorization checks are DISABLED",
					"flag", "--no-authorization",
					"recommendation", "This should only be used in development environments")
				serverOptions = append(serverOptions, server.WithNoAuthorization(true))
			}
			if enableMetrics {
				serverOptions = append(serverOptions, server.WithMetrics(true))
			}

			httpServer := http.Server{
				Addr:              addr,
				Handler:           server.New(uc, serverOptions...),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(ctx)
			}
		},
	}
}
