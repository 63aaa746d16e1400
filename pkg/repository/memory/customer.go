package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func copyCustomer(c *customer.Customer) *customer.Customer {
	cp := *c
	cp.Identifiers = make(map[string]string, len(c.Identifiers))
	for k, v := range c.Identifiers {
		cp.Identifiers[k] = v
	}
	cp.RiskFlags = append([]string(nil), c.RiskFlags...)
	return &cp
}

func (r *Memory) GetCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.tenant(tenantID).customers[customerID]
	if !ok || c.IsDeleted {
		return nil, r.eb.New("customer not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("customer_id", customerID))
	}
	return copyCustomer(c), nil
}

func (r *Memory) BatchGetCustomers(ctx context.Context, tenantID types.TenantID, customerIDs []types.CustomerID) ([]*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store := r.tenant(tenantID)
	var result []*customer.Customer
	for _, id := range customerIDs {
		if c, ok := store.customers[id]; ok && !c.IsDeleted {
			result = append(result, copyCustomer(c))
		}
	}
	return result, nil
}

func (r *Memory) FindCustomerByExternalID(ctx context.Context, tenantID types.TenantID, externalID string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store := r.tenant(tenantID)
	id, ok := store.customerByExt[externalID]
	if !ok {
		return nil, nil
	}
	c := store.customers[id]
	if c == nil || c.IsDeleted {
		return nil, nil
	}
	return copyCustomer(c), nil
}
