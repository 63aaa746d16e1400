package usecase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/secmon-lab/amlcase/pkg/usecase"
)

func createCase(t *testing.T, uc *usecase.UseCases, id auth.Identity, risk types.RiskLevel) *usecase.CaseView {
	t.Helper()
	v, err := uc.CreateCase(testContext(t, baseTime), id, usecase.CreateCaseInput{
		CustomerFullName: "Amina Rahman",
		Priority:         2,
		RiskLevel:        risk,
	})
	gt.NoError(t, err).Required()
	return v
}

func TestCreateCase(t *testing.T) {
	repo := repository.NewMemory()
	uc := usecase.New(usecase.WithRepository(repo))
	id := newIdentity("alice")
	ctx := testContext(t, baseTime)

	v := createCase(t, uc, id, types.RiskLevelHigh)
	gt.Equal(t, v.Status, types.CaseStatusNew)
	gt.Equal(t, v.Version, 1)
	gt.Equal(t, v.CaseNumber, "CAS-20260302-0001")
	gt.Equal(t, v.CustomerFullName, "Amina Rahman")
	gt.NotNil(t, v.SLADueAt)
	gt.True(t, v.SLADueAt.Equal(baseTime.Add(24*time.Hour)))
	gt.Nil(t, v.ClosedAt)
	gt.False(t, v.IsOverdue)

	events, err := repo.ListCaseEvents(ctx, id.TenantID, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, events).Length(1).At(0, func(t testing.TB, ev *audit.Event) {
		gt.Equal(t, ev.Type, types.EventCaseCreated)
		gt.Equal(t, ev.ActorUserID, id.UserID)
		gt.Equal(t, ev.Payload["riskLevel"], "High")
		gt.Equal(t, ev.Payload["priority"], "2")
	})

	t.Run("default SLA settings are persisted on first use", func(t *testing.T) {
		s, err := repo.GetSLASettings(ctx, id.TenantID)
		gt.NoError(t, err).Required()
		gt.NotNil(t, s)
		gt.Equal(t, s.HighHours, 24)
	})

	t.Run("case number counts tenant cases", func(t *testing.T) {
		v2 := createCase(t, uc, id, types.RiskLevelLow)
		gt.Equal(t, v2.CaseNumber, "CAS-20260302-0002")
		gt.True(t, v2.SLADueAt.Equal(baseTime.Add(72*time.Hour)))

		other := createCase(t, uc, newIdentity("bob"), types.RiskLevelLow)
		gt.Equal(t, other.CaseNumber, "CAS-20260302-0001")
	})

	t.Run("explicit due date wins", func(t *testing.T) {
		due := baseTime.Add(5 * time.Hour)
		v, err := uc.CreateCase(ctx, id, usecase.CreateCaseInput{
			CustomerFullName: "Jonas Weber",
			Priority:         1,
			RiskLevel:        types.RiskLevelHigh,
			SLADueAt:         &due,
		})
		gt.NoError(t, err).Required()
		gt.True(t, v.SLADueAt.Equal(due))
	})

	t.Run("customer name is required", func(t *testing.T) {
		_, err := uc.CreateCase(ctx, id, usecase.CreateCaseInput{RiskLevel: types.RiskLevelLow, CustomerFullName: "  "})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})

	t.Run("risk level must be known", func(t *testing.T) {
		_, err := uc.CreateCase(ctx, id, usecase.CreateCaseInput{RiskLevel: "Extreme", CustomerFullName: "X"})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})
}

func TestDecisionThenClose(t *testing.T) {
	repo := repository.NewMemory()
	uc := usecase.New(usecase.WithRepository(repo))
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelMedium)

	ctx := testContext(t, baseTime.Add(time.Hour))
	decided, err := uc.SetDecision(ctx, id, v.ID, usecase.DecisionInput{
		Decision:  "File SAR",
		Reason:    "Structuring pattern confirmed",
		RiskLevel: types.RiskLevelHigh,
	}, 1)
	gt.NoError(t, err).Required()
	gt.Equal(t, decided.Version, 2)
	gt.Equal(t, decided.Status, types.CaseStatusNew)
	gt.Equal(t, decided.RiskLevel, types.RiskLevelHigh)
	gt.Equal(t, decided.DecisionBy, id.UserID)

	ctx = testContext(t, baseTime.Add(2*time.Hour))
	closed, err := uc.CloseCase(ctx, id, v.ID, 2)
	gt.NoError(t, err).Required()
	gt.Equal(t, closed.Status, types.CaseStatusClosed)
	gt.Equal(t, closed.Version, 3)
	gt.NotNil(t, closed.ClosedAt)
	gt.True(t, closed.ClosedAt.Equal(baseTime.Add(2*time.Hour)))

	events, err := repo.ListCaseEvents(ctx, id.TenantID, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, events).Length(3)
	gt.Equal(t, events[0].Type, types.EventCaseCreated)
	gt.Equal(t, events[1].Type, types.EventDecisionSet)
	gt.Equal(t, events[2].Type, types.EventCaseClosed)
	gt.Equal(t, events[2].Payload["decision"], "File SAR")

	t.Run("timeline is newest first", func(t *testing.T) {
		timeline, err := uc.Timeline(ctx, id, v.ID)
		gt.NoError(t, err).Required()
		gt.A(t, timeline).Length(3)
		gt.Equal(t, timeline[0].Type, types.EventCaseClosed)
		gt.Equal(t, timeline[2].Type, types.EventCaseCreated)
	})

	t.Run("closed case is not overdue", func(t *testing.T) {
		later := testContext(t, baseTime.Add(30*24*time.Hour))
		got, err := uc.GetCase(later, id, v.ID)
		gt.NoError(t, err).Required()
		gt.False(t, got.IsOverdue)
	})
}

func TestCloseWithoutDecision(t *testing.T) {
	repo := repository.NewMemory()
	uc := usecase.New(usecase.WithRepository(repo))
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelLow)
	ctx := testContext(t, baseTime)

	_, err := uc.CloseCase(ctx, id, v.ID, 0)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagValidation))

	got, err := uc.GetCase(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, got.Status, types.CaseStatusNew)
	gt.Equal(t, got.Version, 1)

	events, err := repo.ListCaseEvents(ctx, id.TenantID, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, events).Length(1)
}

func TestUpdateCaseStatus(t *testing.T) {
	uc := usecase.New()
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelLow)
	ctx := testContext(t, baseTime.Add(time.Minute))

	got, err := uc.UpdateCaseStatus(ctx, id, v.ID, types.CaseStatusInReview, 0)
	gt.NoError(t, err).Required()
	gt.Equal(t, got.Status, types.CaseStatusInReview)
	gt.Nil(t, got.ClosedAt)

	got, err = uc.UpdateCaseStatus(ctx, id, v.ID, types.CaseStatusRejected, 0)
	gt.NoError(t, err).Required()
	gt.NotNil(t, got.ClosedAt)

	// re-entering a terminal state stamps closedAt again
	later := testContext(t, baseTime.Add(time.Hour))
	got, err = uc.UpdateCaseStatus(later, id, v.ID, types.CaseStatusClosed, 0)
	gt.NoError(t, err).Required()
	gt.True(t, got.ClosedAt.Equal(baseTime.Add(time.Hour)))
	gt.Equal(t, got.Version, 4)

	_, err = uc.UpdateCaseStatus(ctx, id, v.ID, "Archived", 0)
	gt.True(t, goerr.HasTag(err, errs.TagValidation))
}

func TestAssignAndApprove(t *testing.T) {
	repo := repository.NewMemory()
	uc := usecase.New(usecase.WithRepository(repo))
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelLow)
	ctx := testContext(t, baseTime)
	bob := types.UserIDFromUsername("bob")

	got, err := uc.AssignCase(ctx, id, v.ID, bob, 1)
	gt.NoError(t, err).Required()
	gt.Equal(t, got.Owner, bob)

	got, err = uc.ApproveCase(ctx, id, v.ID, 2)
	gt.NoError(t, err).Required()
	gt.Equal(t, got.Status, types.CaseStatusApproved)
	gt.Equal(t, got.ApprovedBy, id.UserID)
	gt.NotNil(t, got.ApprovedAt)
	gt.Equal(t, got.Version, 3)

	events, err := repo.ListCaseEvents(ctx, id.TenantID, v.ID)
	gt.NoError(t, err).Required()
	gt.A(t, events).Length(3).At(1, func(t testing.TB, ev *audit.Event) {
		gt.Equal(t, ev.Type, types.EventAssigned)
		gt.Equal(t, ev.Payload["oldOwner"], "")
		gt.Equal(t, ev.Payload["newOwner"], bob.String())
	})

	_, err = uc.AssignCase(ctx, id, v.ID, "not-a-user", 0)
	gt.True(t, goerr.HasTag(err, errs.TagValidation))
}

func TestExpectedVersion(t *testing.T) {
	uc := usecase.New()
	id := newIdentity("alice")
	v := createCase(t, uc, id, types.RiskLevelLow)
	ctx := testContext(t, baseTime)

	_, err := uc.UpdateCaseStatus(ctx, id, v.ID, types.CaseStatusInReview, 1)
	gt.NoError(t, err).Required()

	_, err = uc.UpdateCaseStatus(ctx, id, v.ID, types.CaseStatusEscalated, 1)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagConflict))
	gt.True(t, errors.Is(err, errs.ErrStaleVersion))

	got, err := uc.GetCase(ctx, id, v.ID)
	gt.NoError(t, err).Required()
	gt.Equal(t, got.Status, types.CaseStatusInReview)
	gt.Equal(t, got.Version, 2)
}

func TestTenantIsolation(t *testing.T) {
	uc := usecase.New()
	alice := newIdentity("alice")
	mallory := newIdentity("mallory")
	v := createCase(t, uc, alice, types.RiskLevelHigh)
	ctx := testContext(t, baseTime)

	_, err := uc.GetCase(ctx, mallory, v.ID)
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))

	_, err = uc.AssignCase(ctx, mallory, v.ID, mallory.UserID, 0)
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))

	_, err = uc.AddComment(ctx, mallory, v.ID, "hello")
	gt.True(t, goerr.HasTag(err, errs.TagNotFound))

	list, err := uc.ListCases(ctx, mallory, amlcase.Filter{})
	gt.NoError(t, err).Required()
	gt.A(t, list).Length(0)

	t.Run("identity without tenant is unauthorized", func(t *testing.T) {
		_, err := uc.GetCase(ctx, newIdentityWithoutTenant(), v.ID)
		gt.True(t, goerr.HasTag(err, errs.TagUnauthorized))
	})
}

func TestListCases(t *testing.T) {
	uc := usecase.New()
	id := newIdentity("alice")
	first := createCase(t, uc, id, types.RiskLevelHigh)

	later := testContext(t, baseTime.Add(time.Hour))
	second, err := uc.CreateCase(later, id, usecase.CreateCaseInput{
		CustomerFullName: "Jonas Weber",
		Priority:         1,
		RiskLevel:        types.RiskLevelLow,
	})
	gt.NoError(t, err).Required()

	list, err := uc.ListCases(later, id, amlcase.Filter{})
	gt.NoError(t, err).Required()
	gt.A(t, list).Length(2)
	gt.Equal(t, list[0].ID, second.ID)
	gt.Equal(t, list[0].CustomerFullName, "Jonas Weber")
	gt.Equal(t, list[1].ID, first.ID)
	gt.Equal(t, list[1].CustomerFullName, "Amina Rahman")

	// two days later only the High case (24h) is overdue
	overdueCtx := testContext(t, baseTime.Add(48*time.Hour))
	overdue, err := uc.ListCases(overdueCtx, id, amlcase.Filter{OverdueOnly: true})
	gt.NoError(t, err).Required()
	gt.A(t, overdue).Length(1).At(0, func(t testing.TB, v *usecase.CaseView) {
		gt.Equal(t, v.ID, first.ID)
		gt.True(t, v.IsOverdue)
	})

	_, err = uc.ListCases(later, id, amlcase.Filter{Status: "Unknown"})
	gt.True(t, goerr.HasTag(err, errs.TagValidation))
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	notifier := &notifierMock{err: errors.New("slack down")}
	sink := &notifierMock{}
	uc := usecase.New(usecase.WithNotifier(notifier), usecase.WithAuditSink(sink))
	id := newIdentity("alice")

	v := createCase(t, uc, id, types.RiskLevelHigh)
	_, err := uc.ApproveCase(testContext(t, baseTime), id, v.ID, 0)
	gt.NoError(t, err)

	gt.A(t, notifier.events).Length(2)
	gt.A(t, sink.events).Length(2)
	gt.Equal(t, sink.events[1].Type, types.EventCaseApproved)
}
