package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/fixture"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/repository"
	"github.com/secmon-lab/amlcase/pkg/usecase"
)

func TestSeed(t *testing.T) {
	repo := repository.NewMemory()
	notifier := &notifierMock{}
	uc := usecase.New(usecase.WithRepository(repo), usecase.WithNotifier(notifier))
	ctx := testContext(t, baseTime)

	result, err := uc.Seed(ctx, auth.DemoAnalystID, fixture.Demo())
	gt.NoError(t, err).Required()
	gt.Equal(t, *result, usecase.SeedResult{Tenants: 1, Customers: 1, Cases: 1})

	id := auth.Anonymous()
	cases, err := uc.ListCases(ctx, id, amlcase.Filter{})
	gt.NoError(t, err).Required()
	gt.A(t, cases).Length(1).At(0, func(t testing.TB, v *usecase.CaseView) {
		gt.Equal(t, v.CustomerFullName, "Amina Rahman")
		gt.Equal(t, v.Status, types.CaseStatusInReview)
		gt.Equal(t, v.RiskLevel, types.RiskLevelHigh)
		gt.Equal(t, v.Owner, auth.DemoAnalystID)
		gt.True(t, v.SLADueAt.Equal(baseTime.Add(24*time.Hour)))
	})

	cust, err := repo.FindCustomerByExternalID(ctx, types.DefaultTenantID, "CUST-1001")
	gt.NoError(t, err).Required()
	gt.Value(t, cust).NotNil().Required()
	gt.Equal(t, cust.RiskFlags, []string{"PEP"})

	timeline, err := uc.Timeline(ctx, id, cases[0].ID)
	gt.NoError(t, err).Required()
	gt.A(t, timeline).Length(4)
	gt.Equal(t, timeline[3].Type, types.EventCaseCreated)
	gt.A(t, notifier.events).Length(4)

	comments, err := uc.Comments(ctx, id, cases[0].ID)
	gt.NoError(t, err).Required()
	gt.A(t, comments).Length(1)

	t.Run("seeding twice skips the tenant", func(t *testing.T) {
		result, err := uc.Seed(ctx, auth.DemoAnalystID, fixture.Demo())
		gt.NoError(t, err).Required()
		gt.Equal(t, *result, usecase.SeedResult{SkippedTenants: 1})

		n, err := repo.CountCases(ctx, types.DefaultTenantID)
		gt.NoError(t, err).Required()
		gt.Equal(t, n, 1)
	})
}

func TestSeedCustomSLA(t *testing.T) {
	uc := usecase.New()
	ctx := testContext(t, baseTime)
	tenantID := types.NewTenantID()

	f := &fixture.Fixture{
		Tenants: []fixture.Tenant{
			{
				ID:  tenantID,
				SLA: &fixture.SLA{LowHours: 100, MediumHours: 50, HighHours: 10},
				Customers: []fixture.Customer{
					{ExternalID: "C-1", FullName: "Li Wei", Cases: []fixture.Case{
						{Status: types.CaseStatusNew, RiskLevel: types.RiskLevelLow},
						{Status: types.CaseStatusNew, RiskLevel: types.RiskLevelMedium},
					}},
					{ExternalID: "C-2", FullName: "Jonas Berg"},
				},
			},
		},
	}

	result, err := uc.Seed(ctx, auth.DemoAnalystID, f)
	gt.NoError(t, err).Required()
	gt.Equal(t, *result, usecase.SeedResult{Tenants: 1, Customers: 2, Cases: 2})

	id := newIdentity("alice")
	id.TenantID = tenantID
	s, err := uc.GetSLASettings(ctx, id)
	gt.NoError(t, err).Required()
	gt.Equal(t, s.LowHours, 100)

	cases, err := uc.ListCases(ctx, id, amlcase.Filter{})
	gt.NoError(t, err).Required()
	gt.A(t, cases).Length(2)
	gt.NotEqual(t, cases[0].CaseNumber, cases[1].CaseNumber)

	t.Run("invalid SLA hours", func(t *testing.T) {
		f.Tenants[0].ID = types.NewTenantID()
		f.Tenants[0].SLA.HighHours = 0
		_, err := uc.Seed(ctx, auth.DemoAnalystID, f)
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})
}
