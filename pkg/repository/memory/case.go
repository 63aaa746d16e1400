package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func (r *Memory) GetCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) (*amlcase.Case, error) {
	r.incrementCallCount("GetCase")
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.tenant(tenantID).cases[caseID]
	if !ok || c.IsDeleted {
		return nil, r.eb.New("case not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("case_id", caseID))
	}
	return c.Copy(), nil
}

func (r *Memory) ListCases(ctx context.Context, tenantID types.TenantID, filter amlcase.Filter) ([]*amlcase.Case, error) {
	r.incrementCallCount("ListCases")
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*amlcase.Case
	for _, c := range r.tenant(tenantID).cases {
		if filter.Match(c) {
			result = append(result, c.Copy())
		}
	}
	amlcase.SortNewestFirst(result)

	if limit := filter.EffectiveLimit(); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Memory) ScanCases(ctx context.Context, tenantID types.TenantID) ([]*amlcase.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*amlcase.Case
	for _, c := range r.tenant(tenantID).cases {
		if !c.IsDeleted {
			result = append(result, c.Copy())
		}
	}
	return result, nil
}

func (r *Memory) CountCases(ctx context.Context, tenantID types.TenantID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenant(tenantID).cases), nil
}

func (r *Memory) FindOpenCaseByCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*amlcase.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *amlcase.Case
	for _, c := range r.tenant(tenantID).cases {
		if c.CustomerID != customerID || c.IsDeleted || !c.IsOpen() {
			continue
		}
		if found == nil || c.CreatedAt.After(found.CreatedAt) {
			found = c
		}
	}
	return found.Copy(), nil
}

// DeleteCase soft-deletes a case. There is no API for it; tests and fixtures use it.
func (r *Memory) DeleteCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.tenant(tenantID).cases[caseID]
	if !ok {
		return r.eb.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", caseID))
	}
	c.IsDeleted = true
	return nil
}
