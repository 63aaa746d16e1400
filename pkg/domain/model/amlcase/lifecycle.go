package amlcase

import (
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// NewCaseInput holds the values a new case is opened with.
type NewCaseInput struct {
	TenantID   types.TenantID
	CustomerID types.CustomerID
	CaseNumber string
	Priority   int
	RiskLevel  types.RiskLevel
	SLADueAt   time.Time
	Actor      types.UserID
	Now        time.Time
}

// Open creates a case in New status at version 1 together with its CaseCreated event.
func Open(in NewCaseInput) (*Case, *audit.Event) {
	due := in.SLADueAt
	c := &Case{
		ID:         types.NewCaseID(),
		TenantID:   in.TenantID,
		CaseNumber: in.CaseNumber,
		CustomerID: in.CustomerID,
		Status:     types.CaseStatusNew,
		RiskLevel:  in.RiskLevel,
		Priority:   in.Priority,
		CreatedAt:  in.Now,
		SLADueAt:   &due,
		Version:    1,
	}

	ev := audit.New(c.TenantID, c.ID, types.EventCaseCreated, in.Actor, in.Now).
		With("status", c.Status.String()).
		With("priority", strconv.Itoa(c.Priority)).
		With("riskLevel", c.RiskLevel.String())

	return c, ev
}

// Assign sets the owner. The user is not checked against any directory.
func (x *Case) Assign(owner, actor types.UserID, now time.Time) *audit.Event {
	old := x.Owner
	x.Owner = owner
	x.bump()

	return audit.New(x.TenantID, x.ID, types.EventAssigned, actor, now).
		With("oldOwner", old.String()).
		With("newOwner", owner.String())
}

// UpdateStatus moves the case to status. Entering Closed or Rejected stamps
// ClosedAt every time, including when the case was already closed.
func (x *Case) UpdateStatus(status types.CaseStatus, actor types.UserID, now time.Time) (*audit.Event, error) {
	if err := status.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid status", goerr.T(errs.TagValidation))
	}

	from := x.Status
	x.Status = status
	if status.IsTerminal() {
		t := now
		x.ClosedAt = &t
	}
	x.bump()

	return audit.New(x.TenantID, x.ID, types.EventStatusChanged, actor, now).
		With("from", from.String()).
		With("to", status.String()), nil
}

// SetDecision records the decision without touching the status.
func (x *Case) SetDecision(decision, reason string, risk types.RiskLevel, actor types.UserID, now time.Time) (*audit.Event, error) {
	if err := risk.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk level", goerr.T(errs.TagValidation))
	}
	if strings.TrimSpace(decision) == "" {
		return nil, goerr.New("decision is required", goerr.T(errs.TagValidation), goerr.V("case_id", x.ID))
	}

	x.Decision = decision
	x.DecisionReason = reason
	x.RiskLevel = risk
	x.DecisionBy = actor
	x.bump()

	return audit.New(x.TenantID, x.ID, types.EventDecisionSet, actor, now).
		With("decision", decision).
		With("reason", reason).
		With("riskLevel", risk.String()), nil
}

// Approve forces the Approved status regardless of whether a decision exists.
func (x *Case) Approve(actor types.UserID, now time.Time) *audit.Event {
	t := now
	x.ApprovedBy = actor
	x.ApprovedAt = &t
	x.Status = types.CaseStatusApproved
	x.bump()

	return audit.New(x.TenantID, x.ID, types.EventCaseApproved, actor, now).
		With("approvedBy", actor.String()).
		With("approvedAt", now.Format(time.RFC3339Nano))
}

// Close requires a non-blank decision and reason. The case is left untouched on failure.
func (x *Case) Close(actor types.UserID, now time.Time) (*audit.Event, error) {
	if strings.TrimSpace(x.Decision) == "" || strings.TrimSpace(x.DecisionReason) == "" {
		return nil, goerr.New("decision and reason are required before closing",
			goerr.T(errs.TagValidation),
			goerr.V("case_id", x.ID),
			goerr.V("reason", "InvalidOperation"))
	}

	t := now
	x.Status = types.CaseStatusClosed
	x.ClosedAt = &t
	x.bump()

	return audit.New(x.TenantID, x.ID, types.EventCaseClosed, actor, now).
		With("decision", x.Decision).
		With("decisionReason", x.DecisionReason), nil
}

// CheckVersion fails with a conflict when the caller's expected version differs from the loaded one.
// A zero expected version skips the check.
func (x *Case) CheckVersion(expected int) error {
	if expected == 0 || expected == x.Version {
		return nil
	}
	return goerr.Wrap(errs.ErrStaleVersion, "case was modified by another request",
		goerr.T(errs.TagConflict),
		goerr.V("case_id", x.ID),
		goerr.V("expected_version", expected),
		goerr.V("current_version", x.Version))
}

// bump is the last step of every lifecycle mutation.
func (x *Case) bump() {
	x.Version++
}
