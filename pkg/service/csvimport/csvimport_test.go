package csvimport_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/service/csvimport"
)

func TestParse(t *testing.T) {
	input := "\ufeffExternalAlertId,CUSTOMEREXTERNALID,customerName,alertType,alertDate,riskHint,description,extra\n" +
		"A-1,CUST-1001,Amina Rahman,STRUCTURING,2026-03-01T10:00:00Z,high,\"cash deposits, below threshold\",x\n" +
		"\n" +
		"A-2, CUST-1002 ,Li Wei,WIRE,2026-03-01,,,\n"

	rows, err := csvimport.Parse(strings.NewReader(input))
	gt.NoError(t, err).Required()
	gt.Equal(t, rows, []alert.Row{
		{
			ExternalAlertID:    "A-1",
			CustomerExternalID: "CUST-1001",
			CustomerName:       "Amina Rahman",
			AlertType:          "STRUCTURING",
			AlertDate:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			RiskHint:           "high",
			Description:        "cash deposits, below threshold",
		},
		{
			ExternalAlertID:    "A-2",
			CustomerExternalID: "CUST-1002",
			CustomerName:       "Li Wei",
			AlertType:          "WIRE",
			AlertDate:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})
}

func TestParseMissingColumns(t *testing.T) {
	rows, err := csvimport.Parse(strings.NewReader("externalAlertId,alertDate\nA-1,2026-03-01 08:15\n"))
	gt.NoError(t, err).Required()
	gt.A(t, rows).Length(1).At(0, func(t testing.TB, v alert.Row) {
		gt.Equal(t, v.ExternalAlertID, "A-1")
		gt.Equal(t, v.CustomerExternalID, "")
		gt.True(t, v.AlertDate.Equal(time.Date(2026, 3, 1, 8, 15, 0, 0, time.UTC)))
	})
}

func TestParseErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader(""))
		gt.True(t, errors.Is(err, csvimport.ErrEmptyFile))
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("header only", func(t *testing.T) {
		rows, err := csvimport.Parse(strings.NewReader("externalAlertId,customerExternalId\n"))
		gt.NoError(t, err)
		gt.A(t, rows).Length(0)
	})

	t.Run("no alert id column", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("customerExternalId\nCUST-1\n"))
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("externalAlertId,alertDate\nA-1,yesterday\n"))
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
		gt.Equal(t, goerr.Values(err)["line"], any(2))
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("externalAlertId,alertDate\n\"A-1,2026-03-01\n"))
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})
}
