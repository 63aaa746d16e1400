package amlcase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

var (
	now   = time.Date(2026, 2, 18, 9, 0, 0, 0, time.UTC)
	actor = types.UserIDFromUsername("analyst")
)

func openCase(t *testing.T) *amlcase.Case {
	t.Helper()
	c, ev := amlcase.Open(amlcase.NewCaseInput{
		TenantID:   types.DefaultTenantID,
		CustomerID: types.NewCustomerID(),
		CaseNumber: amlcase.FormatCaseNumber(now, 1),
		Priority:   2,
		RiskLevel:  types.RiskLevelHigh,
		SLADueAt:   now.Add(24 * time.Hour),
		Actor:      actor,
		Now:        now,
	})
	gt.Equal(t, ev.Type, types.EventCaseCreated)
	gt.Equal(t, ev.Payload["status"], "New")
	gt.Equal(t, ev.Payload["priority"], "2")
	gt.Equal(t, ev.Payload["riskLevel"], "High")
	return c
}

func TestOpen(t *testing.T) {
	c := openCase(t)
	gt.NoError(t, c.Validate())
	gt.Equal(t, c.Status, types.CaseStatusNew)
	gt.Equal(t, c.Version, 1)
	gt.Equal(t, c.CaseNumber, "CAS-20260218-0001")
	gt.True(t, c.IsOpen())
	gt.False(t, c.IsOverdue(now))
	gt.True(t, c.IsOverdue(now.Add(25*time.Hour)))
}

func TestAssign(t *testing.T) {
	c := openCase(t)
	owner := types.UserIDFromUsername("bob")

	ev := c.Assign(owner, actor, now)
	gt.Equal(t, c.Owner, owner)
	gt.Equal(t, c.Version, 2)
	gt.Equal(t, ev.Payload["oldOwner"], "")
	gt.Equal(t, ev.Payload["newOwner"], owner.String())

	ev = c.Assign(actor, actor, now)
	gt.Equal(t, ev.Payload["oldOwner"], owner.String())
	gt.Equal(t, c.Version, 3)
}

func TestUpdateStatus(t *testing.T) {
	t.Run("non-terminal status keeps closedAt empty", func(t *testing.T) {
		c := openCase(t)
		ev, err := c.UpdateStatus(types.CaseStatusEscalated, actor, now)
		gt.NoError(t, err).Required()
		gt.Equal(t, ev.Payload["from"], "New")
		gt.Equal(t, ev.Payload["to"], "Escalated")
		gt.Nil(t, c.ClosedAt)
		gt.Equal(t, c.Version, 2)
	})

	t.Run("terminal status stamps closedAt every time", func(t *testing.T) {
		c := openCase(t)
		_, err := c.UpdateStatus(types.CaseStatusRejected, actor, now)
		gt.NoError(t, err).Required()
		gt.Equal(t, *c.ClosedAt, now)

		later := now.Add(time.Hour)
		_, err = c.UpdateStatus(types.CaseStatusClosed, actor, later)
		gt.NoError(t, err).Required()
		gt.Equal(t, *c.ClosedAt, later)
		gt.Equal(t, c.Version, 3)
		gt.False(t, c.IsOverdue(now.Add(48*time.Hour)))
	})

	t.Run("unknown status is rejected without change", func(t *testing.T) {
		c := openCase(t)
		_, err := c.UpdateStatus("Archived", actor, now)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
		gt.Equal(t, c.Version, 1)
	})
}

func TestClose(t *testing.T) {
	blanks := []struct{ decision, reason string }{
		{"", ""},
		{"Escalate to FIU", ""},
		{"", "structuring pattern"},
		{"   ", "structuring pattern"},
		{"Escalate to FIU", "\t\n"},
	}
	for _, b := range blanks {
		c := openCase(t)
		c.Decision = b.decision
		c.DecisionReason = b.reason

		_, err := c.Close(actor, now)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
		gt.Equal(t, c.Status, types.CaseStatusNew)
		gt.Equal(t, c.Version, 1)
		gt.Nil(t, c.ClosedAt)
	}

	t.Run("decision then close", func(t *testing.T) {
		c := openCase(t)
		ev, err := c.SetDecision("File SAR", "structuring pattern", types.RiskLevelMedium, actor, now)
		gt.NoError(t, err).Required()
		gt.Equal(t, ev.Type, types.EventDecisionSet)
		gt.Equal(t, c.Status, types.CaseStatusNew)
		gt.Equal(t, c.RiskLevel, types.RiskLevelMedium)
		gt.Equal(t, c.DecisionBy, actor)

		ev, err = c.Close(actor, now)
		gt.NoError(t, err).Required()
		gt.Equal(t, ev.Type, types.EventCaseClosed)
		gt.Equal(t, ev.Payload["decision"], "File SAR")
		gt.Equal(t, ev.Payload["decisionReason"], "structuring pattern")
		gt.Equal(t, c.Status, types.CaseStatusClosed)
		gt.NotNil(t, c.ClosedAt)
		gt.Equal(t, c.Version, 3)
	})
}

func TestApprove(t *testing.T) {
	c := openCase(t)
	ev := c.Approve(actor, now)
	gt.Equal(t, c.Status, types.CaseStatusApproved)
	gt.Equal(t, c.ApprovedBy, actor)
	gt.Equal(t, *c.ApprovedAt, now)
	gt.Equal(t, ev.Payload["approvedBy"], actor.String())
	gt.Equal(t, c.Version, 2)
	gt.True(t, c.IsOpen())
}

func TestVersionCountsMutations(t *testing.T) {
	c := openCase(t)
	c.Assign(actor, actor, now)
	_, err := c.UpdateStatus(types.CaseStatusInReview, actor, now)
	gt.NoError(t, err)
	_, err = c.SetDecision("No action", "false positive", types.RiskLevelLow, actor, now)
	gt.NoError(t, err)
	c.Approve(actor, now)
	_, err = c.Close(actor, now)
	gt.NoError(t, err)

	gt.Equal(t, c.Version, 1+5)
}

func TestCheckVersion(t *testing.T) {
	c := openCase(t)
	gt.NoError(t, c.CheckVersion(0))
	gt.NoError(t, c.CheckVersion(1))

	err := c.CheckVersion(2)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagConflict))
}

func TestCopy(t *testing.T) {
	c := openCase(t)
	cp := c.Copy()
	*cp.SLADueAt = now
	cp.Status = types.CaseStatusClosed
	gt.Equal(t, *c.SLADueAt, now.Add(24*time.Hour))
	gt.Equal(t, c.Status, types.CaseStatusNew)
}
