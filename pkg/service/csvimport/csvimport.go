// Package csvimport converts an uploaded alert CSV into import rows.
package csvimport

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
)

const (
	colExternalAlertID    = "externalalertid"
	colCustomerExternalID = "customerexternalid"
	colCustomerName       = "customername"
	colAlertType          = "alerttype"
	colAlertDate          = "alertdate"
	colRiskHint           = "riskhint"
	colDescription        = "description"
)

var ErrEmptyFile = goerr.New("CSV file is empty", goerr.T(errs.TagValidation))

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse reads a header row followed by alert rows. Header names match
// case-insensitively, unknown columns are ignored and missing ones are left
// empty. Blank lines are skipped.
func Parse(r io.Reader) ([]alert.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read CSV header", goerr.T(errs.TagValidation))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index[colExternalAlertID]; !ok {
		return nil, goerr.New("CSV header has no externalAlertId column",
			goerr.T(errs.TagValidation),
			goerr.V("header", header))
	}

	var rows []alert.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read CSV record", goerr.T(errs.TagValidation))
		}
		line, _ := reader.FieldPos(0)

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		alertDate, err := parseDate(get(colAlertDate))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid alertDate",
				goerr.T(errs.TagValidation),
				goerr.V("line", line),
				goerr.V("external_alert_id", get(colExternalAlertID)))
		}

		rows = append(rows, alert.Row{
			ExternalAlertID:    get(colExternalAlertID),
			CustomerExternalID: get(colCustomerExternalID),
			CustomerName:       get(colCustomerName),
			AlertType:          get(colAlertType),
			AlertDate:          alertDate,
			RiskHint:           get(colRiskHint),
			Description:        get(colDescription),
		})
	}

	return rows, nil
}

// parseDate accepts RFC 3339 and a few common date layouts. Values without a zone are UTC.
func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, goerr.New("alertDate is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, goerr.New("unsupported date format", goerr.V("value", v))
}
