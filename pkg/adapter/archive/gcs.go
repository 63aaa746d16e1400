// Package archive writes committed case events to Cloud Storage as JSON objects.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"google.golang.org/api/option"
)

// Archive stores every batch of committed events as one object.
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.AuditSink = &Archive{}

func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Archive, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client for audit archive")
	}

	return &Archive{
		client: client,
		bucket: bucket,
		prefix: "audit/",
	}, nil
}

// WithPrefix sets the object prefix for archived events.
func (r *Archive) WithPrefix(prefix string) *Archive {
	r.prefix = prefix
	return r
}

// ArchiveEvents writes events to {prefix}{tenant}/{case}/{first event}.json.
// Events of one commit always belong to one tenant.
func (r *Archive) ArchiveEvents(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	objectPath := ObjectPath(r.prefix, events)
	w := r.client.Bucket(r.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := json.NewEncoder(w).Encode(events); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode audit events",
			goerr.TV(errutil.BucketKey, r.bucket),
			goerr.V("object", objectPath),
		)
	}

	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to write audit events to GCS",
			goerr.TV(errutil.BucketKey, r.bucket),
			goerr.V("object", objectPath),
		)
	}

	return nil
}

func ObjectPath(prefix string, events []*audit.Event) string {
	first := events[0]
	return fmt.Sprintf("%s%s/%s/%s.json", prefix, first.TenantID, first.CaseID, first.ID)
}

// Close closes the underlying GCS client.
func (r *Archive) Close() error {
	return r.client.Close()
}
