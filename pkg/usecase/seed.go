package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/fixture"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

// SeedResult counts what Seed wrote.
type SeedResult struct {
	Tenants        int `json:"tenants"`
	SkippedTenants int `json:"skippedTenants"`
	Customers      int `json:"customers"`
	Cases          int `json:"cases"`
}

// Seed loads a fixture one tenant at a time. A tenant that already has cases
// is left untouched.
func (uc *UseCases) Seed(ctx context.Context, actor types.UserID, f *fixture.Fixture) (*SeedResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	result := &SeedResult{}
	for _, tenant := range f.Tenants {
		count, err := uc.repository.CountCases(ctx, tenant.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to count cases", goerr.TV(errutil.TenantIDKey, tenant.ID))
		}
		if count > 0 {
			logging.From(ctx).Info("tenant already has cases, skip seeding", "tenant_id", tenant.ID, "cases", count)
			result.SkippedTenants++
			continue
		}

		cs, cases, err := uc.seedTenant(ctx, actor, tenant)
		if err != nil {
			return nil, err
		}
		if err := uc.repository.Commit(ctx, tenant.ID, cs); err != nil {
			return nil, goerr.Wrap(err, "failed to commit seed data", goerr.TV(errutil.TenantIDKey, tenant.ID))
		}

		result.Tenants++
		result.Customers += len(cs.NewCustomers)
		result.Cases += len(cs.NewCases)

		for _, c := range cases {
			uc.publish(ctx, c.Case, c.events...)
		}
		logging.From(ctx).Info("tenant seeded",
			"tenant_id", tenant.ID,
			"customers", len(cs.NewCustomers),
			"cases", len(cs.NewCases))
	}

	return result, nil
}

type seededCase struct {
	*amlcase.Case
	events []*audit.Event
}

func (uc *UseCases) seedTenant(ctx context.Context, actor types.UserID, tenant fixture.Tenant) (*changeset.ChangeSet, []seededCase, error) {
	now := clock.Now(ctx)
	cs := changeset.New()

	settings := sla.Default(tenant.ID, now)
	if tenant.SLA != nil {
		settings.LowHours = tenant.SLA.LowHours
		settings.MediumHours = tenant.SLA.MediumHours
		settings.HighHours = tenant.SLA.HighHours
		if err := settings.Validate(); err != nil {
			return nil, nil, goerr.Wrap(err, "invalid SLA settings in fixture", goerr.TV(errutil.TenantIDKey, tenant.ID))
		}
	}
	cs.PutSLASettings(settings)

	var cases []seededCase
	for _, fc := range tenant.Customers {
		cust := customer.New(tenant.ID, fc.ExternalID, fc.FullName)
		cust.Country = fc.Country
		cust.RiskFlags = fc.RiskFlags
		cs.CreateCustomer(cust)

		for _, fcase := range fc.Cases {
			c, created := amlcase.Open(amlcase.NewCaseInput{
				TenantID:   tenant.ID,
				CustomerID: cust.ID,
				CaseNumber: amlcase.FormatCaseNumber(now, len(cases)+1),
				Priority:   fcase.Priority,
				RiskLevel:  fcase.RiskLevel,
				SLADueAt:   settings.DueAt(fcase.RiskLevel, now),
				Actor:      actor,
				Now:        now,
			})
			events := []*audit.Event{created}

			if fcase.Owner != "" {
				events = append(events, c.Assign(fcase.Owner, actor, now))
			}
			if fcase.Status != types.CaseStatusNew {
				ev, err := c.UpdateStatus(fcase.Status, actor, now)
				if err != nil {
					return nil, nil, err
				}
				events = append(events, ev)
			}
			if fcase.Comment != "" {
				cs.AddComment(amlcase.NewComment(c, actor, fcase.Comment, now))
				events = append(events, audit.New(tenant.ID, c.ID, types.EventCommentAdded, actor, now).With("text", fcase.Comment))
			}

			cs.CreateCase(c).AppendEvent(events...)
			cases = append(cases, seededCase{Case: c, events: events})
		}
	}

	return cs, cases, nil
}
