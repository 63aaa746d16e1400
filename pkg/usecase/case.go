package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/metrics"
)

// CaseView is a case joined with its customer's name.
type CaseView struct {
	*amlcase.Case
	CustomerFullName string `json:"customerFullName"`
	IsOverdue        bool   `json:"isOverdue"`
}

func newCaseView(c *amlcase.Case, cust *customer.Customer, now time.Time) *CaseView {
	v := &CaseView{Case: c, IsOverdue: c.IsOverdue(now)}
	if cust != nil {
		v.CustomerFullName = cust.FullName
	}
	return v
}

// CreateCaseInput is a manually opened case for a new customer.
type CreateCaseInput struct {
	CustomerFullName string
	Priority         int
	RiskLevel        types.RiskLevel
	// SLADueAt overrides the due date computed from the tenant's SLA settings.
	SLADueAt *time.Time
}

// DecisionInput carries the decision of SetDecision.
type DecisionInput struct {
	Decision  string
	Reason    string
	RiskLevel types.RiskLevel
}

// CreateCase opens a case together with a manually entered customer.
func (uc *UseCases) CreateCase(ctx context.Context, id auth.Identity, input CreateCaseInput) (result *CaseView, err error) {
	defer func() { metrics.ObserveOperation("create", err) }()

	if err := id.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.CustomerFullName) == "" {
		return nil, goerr.New("customer name is required", goerr.T(errs.TagValidation))
	}
	if err := input.RiskLevel.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk level", goerr.T(errs.TagValidation))
	}

	now := clock.Now(ctx)
	cs := changeset.New()

	settings, err := uc.slaSettings(ctx, id.TenantID, cs, now)
	if err != nil {
		return nil, err
	}

	count, err := uc.repository.CountCases(ctx, id.TenantID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count cases", goerr.TV(errutil.TenantIDKey, id.TenantID))
	}

	dueAt := settings.DueAt(input.RiskLevel, now)
	if input.SLADueAt != nil {
		dueAt = input.SLADueAt.UTC()
	}

	cust := customer.NewManual(id.TenantID, input.CustomerFullName)
	c, ev := amlcase.Open(amlcase.NewCaseInput{
		TenantID:   id.TenantID,
		CustomerID: cust.ID,
		CaseNumber: amlcase.FormatCaseNumber(now, count+1),
		Priority:   input.Priority,
		RiskLevel:  input.RiskLevel,
		SLADueAt:   dueAt,
		Actor:      id.UserID,
		Now:        now,
	})

	cs.CreateCustomer(cust).CreateCase(c).AppendEvent(ev)
	if err := uc.repository.Commit(ctx, id.TenantID, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to commit new case", goerr.TV(errutil.TenantIDKey, id.TenantID))
	}

	logging.From(ctx).Info("case created", "case_id", c.ID, "case_number", c.CaseNumber, "tenant_id", id.TenantID)
	uc.publish(ctx, c, ev)

	return newCaseView(c, cust, now), nil
}

// mutateCase runs one lifecycle operation as load, apply, commit.
func (uc *UseCases) mutateCase(ctx context.Context, id auth.Identity, operation string, caseID types.CaseID, expectedVersion int, apply func(c *amlcase.Case, now time.Time) (*audit.Event, error)) (result *CaseView, err error) {
	defer func() { metrics.ObserveOperation(operation, err) }()

	if err := id.Validate(); err != nil {
		return nil, err
	}

	c, err := uc.repository.GetCase(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case",
			goerr.TV(errutil.CaseIDKey, caseID),
			goerr.TV(errutil.OperationKey, operation))
	}
	if err := c.CheckVersion(expectedVersion); err != nil {
		return nil, err
	}

	now := clock.Now(ctx)
	ev, err := apply(c, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repository.Commit(ctx, id.TenantID, changeset.New().UpdateCase(c).AppendEvent(ev)); err != nil {
		return nil, goerr.Wrap(err, "failed to commit case",
			goerr.TV(errutil.CaseIDKey, caseID),
			goerr.TV(errutil.OperationKey, operation),
			goerr.TV(errutil.VersionKey, c.Version))
	}

	logging.From(ctx).Info("case updated",
		"case_id", c.ID,
		"operation", operation,
		"version", c.Version,
		"actor", id.UserID)
	uc.publish(ctx, c, ev)

	cust, err := uc.repository.GetCustomer(ctx, id.TenantID, c.CustomerID)
	if err != nil && !goerr.HasTag(err, errs.TagNotFound) {
		return nil, goerr.Wrap(err, "failed to get customer", goerr.TV(errutil.CustomerIDKey, c.CustomerID))
	}
	return newCaseView(c, cust, now), nil
}

func (uc *UseCases) AssignCase(ctx context.Context, id auth.Identity, caseID types.CaseID, owner types.UserID, expectedVersion int) (*CaseView, error) {
	if err := owner.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid owner", goerr.T(errs.TagValidation))
	}
	return uc.mutateCase(ctx, id, "assign", caseID, expectedVersion, func(c *amlcase.Case, now time.Time) (*audit.Event, error) {
		return c.Assign(owner, id.UserID, now), nil
	})
}

func (uc *UseCases) UpdateCaseStatus(ctx context.Context, id auth.Identity, caseID types.CaseID, status types.CaseStatus, expectedVersion int) (*CaseView, error) {
	return uc.mutateCase(ctx, id, "update_status", caseID, expectedVersion, func(c *amlcase.Case, now time.Time) (*audit.Event, error) {
		return c.UpdateStatus(status, id.UserID, now)
	})
}

func (uc *UseCases) SetDecision(ctx context.Context, id auth.Identity, caseID types.CaseID, input DecisionInput, expectedVersion int) (*CaseView, error) {
	return uc.mutateCase(ctx, id, "set_decision", caseID, expectedVersion, func(c *amlcase.Case, now time.Time) (*audit.Event, error) {
		return c.SetDecision(input.Decision, input.Reason, input.RiskLevel, id.UserID, now)
	})
}

func (uc *UseCases) ApproveCase(ctx context.Context, id auth.Identity, caseID types.CaseID, expectedVersion int) (*CaseView, error) {
	return uc.mutateCase(ctx, id, "approve", caseID, expectedVersion, func(c *amlcase.Case, now time.Time) (*audit.Event, error) {
		return c.Approve(id.UserID, now), nil
	})
}

func (uc *UseCases) CloseCase(ctx context.Context, id auth.Identity, caseID types.CaseID, expectedVersion int) (*CaseView, error) {
	return uc.mutateCase(ctx, id, "close", caseID, expectedVersion, func(c *amlcase.Case, now time.Time) (*audit.Event, error) {
		return c.Close(id.UserID, now)
	})
}

// GetCase returns a case of the acting tenant.
func (uc *UseCases) GetCase(ctx context.Context, id auth.Identity, caseID types.CaseID) (*CaseView, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	c, err := uc.repository.GetCase(ctx, id.TenantID, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.TV(errutil.CaseIDKey, caseID))
	}

	cust, err := uc.repository.GetCustomer(ctx, id.TenantID, c.CustomerID)
	if err != nil && !goerr.HasTag(err, errs.TagNotFound) {
		return nil, goerr.Wrap(err, "failed to get customer", goerr.TV(errutil.CustomerIDKey, c.CustomerID))
	}

	return newCaseView(c, cust, clock.Now(ctx)), nil
}

// ListCases returns cases newest first joined with customer names.
func (uc *UseCases) ListCases(ctx context.Context, id auth.Identity, filter amlcase.Filter) ([]*CaseView, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if filter.Status != "" {
		if err := filter.Status.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid status filter", goerr.T(errs.TagValidation))
		}
	}

	now := clock.Now(ctx)
	filter.Now = now

	cases, err := uc.repository.ListCases(ctx, id.TenantID, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases", goerr.TV(errutil.TenantIDKey, id.TenantID))
	}

	seen := make(map[types.CustomerID]bool)
	var customerIDs []types.CustomerID
	for _, c := range cases {
		if !seen[c.CustomerID] {
			seen[c.CustomerID] = true
			customerIDs = append(customerIDs, c.CustomerID)
		}
	}

	customers, err := uc.repository.BatchGetCustomers(ctx, id.TenantID, customerIDs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get customers", goerr.V("count", len(customerIDs)))
	}
	byID := make(map[types.CustomerID]*customer.Customer, len(customers))
	for _, cust := range customers {
		byID[cust.ID] = cust
	}

	views := make([]*CaseView, 0, len(cases))
	for _, c := range cases {
		views = append(views, newCaseView(c, byID[c.CustomerID], now))
	}
	return views, nil
}
