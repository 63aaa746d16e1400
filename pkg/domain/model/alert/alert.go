package alert

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Row is one inbound alert before reconciliation.
type Row struct {
	ExternalAlertID    string    `json:"externalAlertId" yaml:"externalAlertId"`
	CustomerExternalID string    `json:"customerExternalId" yaml:"customerExternalId"`
	CustomerName       string    `json:"customerName" yaml:"customerName"`
	AlertType          string    `json:"alertType" yaml:"alertType"`
	AlertDate          time.Time `json:"alertDate" yaml:"alertDate"`
	RiskHint           string    `json:"riskHint,omitempty" yaml:"riskHint"`
	Description        string    `json:"description,omitempty" yaml:"description"`
}

func (x *Row) Validate() error {
	if strings.TrimSpace(x.ExternalAlertID) == "" {
		return goerr.New("external alert ID is required", goerr.T(errs.TagValidation))
	}
	if strings.TrimSpace(x.CustomerExternalID) == "" {
		return goerr.New("customer external ID is required",
			goerr.T(errs.TagValidation),
			goerr.V("external_alert_id", x.ExternalAlertID))
	}
	return nil
}

// ImportedAlert remembers that an external alert has been reconciled into a case.
// (TenantID, ExternalAlertID) is unique.
type ImportedAlert struct {
	ID                 types.ImportedAlertID `json:"id"`
	TenantID           types.TenantID        `json:"tenantId"`
	ExternalAlertID    string                `json:"externalAlertId"`
	CustomerExternalID string                `json:"customerExternalId"`
	AlertType          string                `json:"alertType"`
	AlertDate          time.Time             `json:"alertDate"`
	RiskHint           string                `json:"riskHint,omitempty"`
	Description        string                `json:"description,omitempty"`
	CaseID             types.CaseID          `json:"caseId"`
	ImportedAt         time.Time             `json:"importedAt"`
}

func NewImported(tenantID types.TenantID, row Row, caseID types.CaseID, now time.Time) *ImportedAlert {
	return &ImportedAlert{
		ID:                 types.NewImportedAlertID(),
		TenantID:           tenantID,
		ExternalAlertID:    row.ExternalAlertID,
		CustomerExternalID: row.CustomerExternalID,
		AlertType:          row.AlertType,
		AlertDate:          row.AlertDate,
		RiskHint:           row.RiskHint,
		Description:        row.Description,
		CaseID:             caseID,
		ImportedAt:         now,
	}
}

// ImportResult counts the outcome of one import batch.
type ImportResult struct {
	Imported     int `json:"imported"`
	Skipped      int `json:"skipped"`
	CreatedCases int `json:"createdCases"`
}
