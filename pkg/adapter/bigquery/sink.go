package bigquery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Inserter is the streaming insert side of a BigQuery table.
type Inserter interface {
	Put(ctx context.Context, src any) error
}

// Sink archives committed case events into a BigQuery table, one row per event.
type Sink struct {
	client   *bigquery.Client
	table    *bigquery.Table
	inserter Inserter
}

var _ interfaces.AuditSink = &Sink{}

func New(ctx context.Context, projectID, datasetID, tableID string, opts ...option.ClientOption) (*Sink, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client", goerr.V("project_id", projectID))
	}

	table := client.Dataset(datasetID).Table(tableID)
	return &Sink{
		client:   client,
		table:    table,
		inserter: table.Inserter(),
	}, nil
}

// NewWithInserter builds a sink around an existing inserter. Migrate is not available on it.
func NewWithInserter(inserter Inserter) *Sink {
	return &Sink{inserter: inserter}
}

func (x *Sink) ArchiveEvents(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]*eventRow, len(events))
	for i, ev := range events {
		rows[i] = &eventRow{event: ev}
	}

	if err := x.inserter.Put(ctx, rows); err != nil {
		return goerr.Wrap(err, "failed to insert audit events", goerr.V("count", len(rows)))
	}
	return nil
}

// Migrate creates the audit table, day-partitioned on the event time, when it does not exist.
func (x *Sink) Migrate(ctx context.Context) error {
	if x.table == nil {
		return goerr.New("sink has no table handle")
	}

	_, err := x.table.Metadata(ctx)
	if err == nil {
		logging.From(ctx).Info("audit table already exists", "table", x.table.FullyQualifiedName())
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return goerr.Wrap(err, "failed to get audit table metadata", goerr.TV(errutil.TableKey, x.table.FullyQualifiedName()))
	}

	meta := &bigquery.TableMetadata{
		Schema: Schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "at",
		},
		Clustering: &bigquery.Clustering{Fields: []string{"tenant_id", "case_id"}},
	}
	if err := x.table.Create(ctx, meta); err != nil {
		return goerr.Wrap(err, "failed to create audit table", goerr.TV(errutil.TableKey, x.table.FullyQualifiedName()))
	}

	logging.From(ctx).Info("audit table created", "table", x.table.FullyQualifiedName())
	return nil
}

func (x *Sink) Close() error {
	if x.client == nil {
		return nil
	}
	return x.client.Close()
}

// Schema is the audit table layout. Payload is kept as a JSON column.
var Schema = bigquery.Schema{
	{Name: "id", Type: bigquery.StringFieldType, Required: true},
	{Name: "tenant_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "case_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "type", Type: bigquery.StringFieldType, Required: true},
	{Name: "actor_user_id", Type: bigquery.StringFieldType},
	{Name: "at", Type: bigquery.TimestampFieldType, Required: true},
	{Name: "payload", Type: bigquery.JSONFieldType},
}

type eventRow struct {
	event *audit.Event
}

var _ bigquery.ValueSaver = &eventRow{}

// Save uses the event ID as insert ID so retried inserts are deduplicated.
func (r *eventRow) Save() (map[string]bigquery.Value, string, error) {
	payload, err := json.Marshal(r.event.Payload)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to marshal event payload", goerr.V("event_id", r.event.ID))
	}

	return map[string]bigquery.Value{
		"id":            r.event.ID.String(),
		"tenant_id":     r.event.TenantID.String(),
		"case_id":       r.event.CaseID.String(),
		"type":          string(r.event.Type),
		"actor_user_id": r.event.ActorUserID.String(),
		"at":            r.event.At,
		"payload":       string(payload),
	}, r.event.ID.String(), nil
}
