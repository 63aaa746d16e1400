package amlcase

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Case is a unit of AML investigation.
type Case struct {
	ID         types.CaseID     `json:"id"`
	TenantID   types.TenantID   `json:"tenantId"`
	CaseNumber string           `json:"caseNumber"`
	CustomerID types.CustomerID `json:"customerId"`

	Status    types.CaseStatus `json:"status"`
	RiskLevel types.RiskLevel  `json:"riskLevel"`
	Priority  int              `json:"priority"`
	Owner     types.UserID     `json:"ownerUserId,omitempty"`

	Decision       string       `json:"decision,omitempty"`
	DecisionReason string       `json:"decisionReason,omitempty"`
	DecisionBy     types.UserID `json:"decisionBy,omitempty"`
	ApprovedBy     types.UserID `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time   `json:"approvedAt,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	SLADueAt  *time.Time `json:"slaDueAt,omitempty"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`

	Version   int  `json:"version"`
	IsDeleted bool `json:"-"`
}

// FormatCaseNumber renders the human-readable case number for the n-th case of a tenant.
func FormatCaseNumber(at time.Time, n int) string {
	return fmt.Sprintf("CAS-%s-%04d", at.UTC().Format("20060102"), n)
}

func (x *Case) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid case ID")
	}
	if err := x.TenantID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid tenant ID")
	}
	if err := x.Status.Validate(); err != nil {
		return goerr.Wrap(err, "invalid status")
	}
	if err := x.RiskLevel.Validate(); err != nil {
		return goerr.Wrap(err, "invalid risk level")
	}
	if x.CaseNumber == "" {
		return goerr.New("case number is required", goerr.V("case_id", x.ID))
	}
	if x.Version < 1 {
		return goerr.New("version must be positive", goerr.V("version", x.Version))
	}
	return nil
}

// IsOpen reports whether the case has not been closed.
func (x *Case) IsOpen() bool {
	return x.ClosedAt == nil
}

// IsOverdue reports whether an open case has passed its SLA due time.
func (x *Case) IsOverdue(now time.Time) bool {
	return x.ClosedAt == nil && x.SLADueAt != nil && x.SLADueAt.Before(now)
}

// Copy returns a deep copy. Stores hand out copies so callers cannot mutate stored state.
func (x *Case) Copy() *Case {
	if x == nil {
		return nil
	}
	c := *x
	c.ApprovedAt = copyTime(x.ApprovedAt)
	c.SLADueAt = copyTime(x.SLADueAt)
	c.ClosedAt = copyTime(x.ClosedAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
