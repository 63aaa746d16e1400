package config

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/amlcase/pkg/adapter/archive"
	"github.com/urfave/cli/v3"
)

// Archive configures the Cloud Storage audit archive.
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving a JSON copy of every committed event batch",
			Category:    "Archive",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("AMLCASE_ARCHIVE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object prefix for archived events",
			Category:    "Archive",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("AMLCASE_ARCHIVE_PREFIX"),
			Value:       "audit/",
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

func (x *Archive) IsConfigured() bool {
	return x.bucket != ""
}

func (x *Archive) Configure(ctx context.Context) (*archive.Archive, error) {
	a, err := archive.New(ctx, x.bucket)
	if err != nil {
		return nil, err
	}
	return a.WithPrefix(x.prefix), nil
}
