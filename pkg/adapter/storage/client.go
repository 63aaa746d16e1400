package storage

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/safe"
	"google.golang.org/api/option"
)

// Client issues V4 signed URLs for evidence objects in a Cloud Storage bucket.
type Client struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.Presigner = &Client{}

func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &Client{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (x *Client) UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return x.sign(ctx, key, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     clock.Now(ctx).Add(ttl),
	})
}

func (x *Client) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return x.sign(ctx, key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: clock.Now(ctx).Add(ttl),
	})
}

func (x *Client) sign(ctx context.Context, key string, opts *storage.SignedURLOptions) (string, error) {
	object := x.prefix + key
	url, err := x.client.Bucket(x.bucket).SignedURL(object, opts)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign object URL",
			goerr.TV(errutil.BucketKey, x.bucket),
			goerr.V("object", object),
			goerr.V("method", opts.Method),
		)
	}
	return url, nil
}

func (x *Client) Close(ctx context.Context) {
	safe.Close(ctx, x.client)
}
