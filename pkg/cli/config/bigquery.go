package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/adapter/bigquery"
	"github.com/urfave/cli/v3"
)

// BigQuery configures the audit event sink.
type BigQuery struct {
	projectID string
	datasetID string
	tableID   string
}

func (x *BigQuery) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project-id",
			Usage:       "BigQuery project ID for the audit event table",
			Category:    "BigQuery",
			Destination: &x.projectID,
			Sources:     cli.EnvVars("AMLCASE_BIGQUERY_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset-id",
			Usage:       "BigQuery dataset ID",
			Category:    "BigQuery",
			Destination: &x.datasetID,
			Sources:     cli.EnvVars("AMLCASE_BIGQUERY_DATASET_ID"),
		},
		&cli.StringFlag{
			Name:        "bigquery-table-id",
			Usage:       "BigQuery table ID",
			Category:    "BigQuery",
			Destination: &x.tableID,
			Sources:     cli.EnvVars("AMLCASE_BIGQUERY_TABLE_ID"),
			Value:       "case_events",
		},
	}
}

func (x BigQuery) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("project_id", x.projectID),
		slog.String("dataset_id", x.datasetID),
		slog.String("table_id", x.tableID),
	)
}

func (x *BigQuery) IsConfigured() bool {
	return x.projectID != ""
}

func (x *BigQuery) Configure(ctx context.Context) (*bigquery.Sink, error) {
	if x.projectID == "" || x.datasetID == "" {
		return nil, goerr.New("bigquery project and dataset are required",
			goerr.V("project_id", x.projectID),
			goerr.V("dataset_id", x.datasetID))
	}
	return bigquery.New(ctx, x.projectID, x.datasetID, x.tableID)
}
