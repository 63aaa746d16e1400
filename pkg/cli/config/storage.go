package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/adapter/storage"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"google.golang.org/api/option"

	"github.com/urfave/cli/v3"
)

type Storage struct {
	bucket     string
	prefix     string
	projectID  string
	presignTTL time.Duration
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket for case attachments",
			Category:    "Storage",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("AMLCASE_STORAGE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object key prefix in the bucket",
			Category:    "Storage",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("AMLCASE_STORAGE_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "storage-project-id",
			Usage:       "Quota project for Cloud Storage",
			Category:    "Storage",
			Destination: &x.projectID,
			Sources:     cli.EnvVars("AMLCASE_STORAGE_PROJECT_ID"),
		},
		&cli.DurationFlag{
			Name:        "storage-presign-ttl",
			Usage:       "Lifetime of signed upload and download URLs",
			Category:    "Storage",
			Destination: &x.presignTTL,
			Sources:     cli.EnvVars("AMLCASE_STORAGE_PRESIGN_TTL"),
			Value:       15 * time.Minute,
		},
	}
}

func (x *Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
		slog.String("project_id", x.projectID),
		slog.Duration("presign_ttl", x.presignTTL),
	)
}

func (x *Storage) Configure(ctx context.Context) (*storage.Client, error) {
	if x.bucket == "" {
		return nil, goerr.New("storage bucket is not set")
	}

	var opts []option.ClientOption
	if x.projectID != "" {
		opts = append(opts, option.WithQuotaProject(x.projectID))
	}

	client, err := storage.New(ctx, x.bucket, x.prefix, opts...)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// Presigner returns the Cloud Storage signer, or a mock:// signer when no
// bucket is configured. The returned closer is always callable.
func (x *Storage) Presigner(ctx context.Context) (interfaces.Presigner, func(), error) {
	if !x.IsConfigured() {
		logging.From(ctx).Warn("storage bucket is not set, attachment URLs use the mock:// scheme")
		return storage.NewMock(), func() {}, nil
	}

	client, err := x.Configure(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() { client.Close(ctx) }, nil
}

func (x *Storage) Bucket() string {
	return x.bucket
}

func (x *Storage) PresignTTL() time.Duration {
	return x.presignTTL
}

func (x *Storage) IsConfigured() bool {
	return x.bucket != ""
}
