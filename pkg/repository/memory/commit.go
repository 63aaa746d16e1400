package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Commit validates the whole change set against current state before touching
// anything, so a failure leaves the store unchanged.
func (r *Memory) Commit(ctx context.Context, tenantID types.TenantID, cs *changeset.ChangeSet) error {
	r.incrementCallCount("Commit")
	if err := cs.Validate(tenantID); err != nil {
		return r.eb.Wrap(err, "invalid change set")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.tenants[tenantID]
	if !ok {
		store = newTenantStore()
	}

	if err := r.check(store, cs); err != nil {
		return err
	}

	for _, c := range cs.NewCases {
		store.cases[c.ID] = c.Copy()
	}
	for _, c := range cs.UpdatedCases {
		store.cases[c.ID] = c.Copy()
	}
	for _, c := range cs.NewCustomers {
		store.customers[c.ID] = copyCustomer(c)
		store.customerByExt[c.ExternalID] = c.ID
	}
	for _, ev := range cs.Events {
		cp := *ev
		store.events[ev.CaseID] = append(store.events[ev.CaseID], &cp)
	}
	for _, c := range cs.Comments {
		cp := *c
		store.comments[c.CaseID] = append(store.comments[c.CaseID], &cp)
	}
	for _, a := range cs.Attachments {
		cp := *a
		store.attachments[a.ID] = &cp
	}
	for _, a := range cs.ImportedAlerts {
		cp := *a
		store.importedAlerts[a.ExternalAlertID] = &cp
	}
	if cs.SLASettings != nil {
		cp := *cs.SLASettings
		store.slaSettings = &cp
	}

	r.tenants[tenantID] = store
	return nil
}

func (r *Memory) check(store *tenantStore, cs *changeset.ChangeSet) error {
	for _, c := range cs.NewCases {
		if _, exists := store.cases[c.ID]; exists {
			return r.eb.New("case already exists", goerr.T(errs.TagDuplicateResource), goerr.V("case_id", c.ID))
		}
	}
	for _, c := range cs.UpdatedCases {
		stored, ok := store.cases[c.ID]
		if !ok || stored.IsDeleted {
			return r.eb.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", c.ID))
		}
		if stored.Version != c.Version-1 {
			return r.eb.Wrap(errs.ErrStaleVersion, "case version conflict",
				goerr.T(errs.TagConflict),
				goerr.V("case_id", c.ID),
				goerr.V("stored_version", stored.Version),
				goerr.V("new_version", c.Version))
		}
	}

	seenExt := map[string]struct{}{}
	for _, c := range cs.NewCustomers {
		if _, exists := store.customerByExt[c.ExternalID]; exists {
			return r.eb.New("customer external ID already exists",
				goerr.T(errs.TagDuplicateResource), goerr.V("external_id", c.ExternalID))
		}
		if _, dup := seenExt[c.ExternalID]; dup {
			return r.eb.New("customer external ID repeated in change set",
				goerr.T(errs.TagDuplicateResource), goerr.V("external_id", c.ExternalID))
		}
		seenExt[c.ExternalID] = struct{}{}
	}

	seenAlert := map[string]struct{}{}
	for _, a := range cs.ImportedAlerts {
		if _, exists := store.importedAlerts[a.ExternalAlertID]; exists {
			return r.eb.New("external alert already imported",
				goerr.T(errs.TagDuplicateResource), goerr.V("external_alert_id", a.ExternalAlertID))
		}
		if _, dup := seenAlert[a.ExternalAlertID]; dup {
			return r.eb.New("external alert repeated in change set",
				goerr.T(errs.TagDuplicateResource), goerr.V("external_alert_id", a.ExternalAlertID))
		}
		seenAlert[a.ExternalAlertID] = struct{}{}
	}
	return nil
}
