package dashboard_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/dashboard"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func newCase(status types.CaseStatus, risk types.RiskLevel, owner types.UserID, created time.Time, due, closed *time.Time) *amlcase.Case {
	return &amlcase.Case{
		ID:        types.NewCaseID(),
		TenantID:  types.DefaultTenantID,
		Status:    status,
		RiskLevel: risk,
		Owner:     owner,
		CreatedAt: created,
		SLADueAt:  due,
		ClosedAt:  closed,
		Version:   1,
	}
}

func at(t time.Time) *time.Time { return &t }

func TestCompute(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	alice := types.UserIDFromUsername("alice")
	bob := types.UserIDFromUsername("bob")

	deleted := newCase(types.CaseStatusNew, types.RiskLevelHigh, alice, now, nil, nil)
	deleted.IsDeleted = true

	cases := []*amlcase.Case{
		// overdue, in review, high
		newCase(types.CaseStatusInReview, types.RiskLevelHigh, alice, now.Add(-48*time.Hour), at(now.Add(-time.Hour)), nil),
		// open, not yet due
		newCase(types.CaseStatusNew, types.RiskLevelLow, "", now.Add(-time.Hour), at(now.Add(time.Hour)), nil),
		// closed after 10h, past due but closed
		newCase(types.CaseStatusClosed, types.RiskLevelMedium, alice, now.Add(-20*time.Hour), at(now.Add(-15*time.Hour)), at(now.Add(-10*time.Hour))),
		// rejected after 5h
		newCase(types.CaseStatusRejected, types.RiskLevelHigh, bob, now.Add(-10*time.Hour), nil, at(now.Add(-5*time.Hour))),
		deleted,
	}

	s := dashboard.Compute(cases, now)

	gt.Equal(t, s.TotalCases, 4)
	gt.Equal(t, s.OpenCases, 2)
	gt.Equal(t, s.ClosedCases, 2)
	gt.Equal(t, s.OpenCases+s.ClosedCases, s.TotalCases)
	gt.Equal(t, s.OverdueCases, 1)
	gt.Equal(t, s.InReviewCases, 1)
	gt.Equal(t, s.HighRiskCases, 2)
	gt.Equal(t, s.AverageHoursToClose, 7.5)

	gt.A(t, s.ByAnalyst).Length(2).At(0, func(t testing.TB, v dashboard.Breakdown) {
		gt.Equal(t, v.Key, alice.String())
		gt.Equal(t, v.Count, 2)
	})
	gt.A(t, s.ByStatus).Length(4)
}

func TestComputeEmpty(t *testing.T) {
	s := dashboard.Compute(nil, time.Now())
	gt.Equal(t, s.TotalCases, 0)
	gt.Equal(t, s.AverageHoursToClose, 0.0)
	gt.A(t, s.ByStatus).Length(0)
}

func TestComputeRoundsAverage(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []*amlcase.Case{
		newCase(types.CaseStatusClosed, types.RiskLevelLow, "", now, nil, at(now.Add(time.Hour+20*time.Second))),
	}
	s := dashboard.Compute(cases, now)
	gt.Equal(t, s.AverageHoursToClose, 1.01)
}
