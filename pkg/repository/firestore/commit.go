package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Commit applies the change set in one transaction. All reads (case versions
// and natural key documents) happen before the first write.
func (r *Firestore) Commit(ctx context.Context, tenantID types.TenantID, cs *changeset.ChangeSet) error {
	if err := cs.Validate(tenantID); err != nil {
		return r.eb.Wrap(err, "invalid change set")
	}

	tenant := r.tenantDoc(tenantID)

	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, c := range cs.UpdatedCases {
			if err := r.checkVersion(tx, r.caseDoc(tenantID, c.ID), c); err != nil {
				return err
			}
		}

		for _, c := range cs.NewCustomers {
			snap, err := tx.Get(tenant.Collection(collectionCustomerKeys).Doc(naturalKey(c.ExternalID)))
			if err != nil && status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to read customer key", goerr.T(errs.TagDatabase))
			}
			if err == nil && snap.Exists() {
				return goerr.New("customer external ID already exists",
					goerr.T(errs.TagDuplicateResource), goerr.V("external_id", c.ExternalID))
			}
		}

		for _, a := range cs.ImportedAlerts {
			snap, err := tx.Get(tenant.Collection(collectionImportedAlerts).Doc(naturalKey(a.ExternalAlertID)))
			if err != nil && status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to read imported alert", goerr.T(errs.TagDatabase))
			}
			if err == nil && snap.Exists() {
				return goerr.New("external alert already imported",
					goerr.T(errs.TagDuplicateResource), goerr.V("external_alert_id", a.ExternalAlertID))
			}
		}

		// writes
		for _, c := range cs.NewCustomers {
			if err := tx.Create(tenant.Collection(collectionCustomers).Doc(c.ID.String()), c); err != nil {
				return goerr.Wrap(err, "failed to create customer")
			}
			if err := tx.Create(tenant.Collection(collectionCustomerKeys).Doc(naturalKey(c.ExternalID)), customerKey{CustomerID: c.ID}); err != nil {
				return goerr.Wrap(err, "failed to create customer key")
			}
		}
		for _, c := range cs.NewCases {
			if err := tx.Create(r.caseDoc(tenantID, c.ID), c); err != nil {
				return goerr.Wrap(err, "failed to create case", goerr.V("case_id", c.ID))
			}
		}
		for _, c := range cs.UpdatedCases {
			if err := tx.Set(r.caseDoc(tenantID, c.ID), c); err != nil {
				return goerr.Wrap(err, "failed to update case", goerr.V("case_id", c.ID))
			}
		}
		for _, ev := range cs.Events {
			doc := r.caseDoc(tenantID, ev.CaseID).Collection(collectionEvents).Doc(ev.ID.String())
			if err := tx.Create(doc, ev); err != nil {
				return goerr.Wrap(err, "failed to create event", goerr.V("event_id", ev.ID))
			}
		}
		for _, c := range cs.Comments {
			doc := r.caseDoc(tenantID, c.CaseID).Collection(collectionComments).Doc(c.ID.String())
			if err := tx.Create(doc, c); err != nil {
				return goerr.Wrap(err, "failed to create comment", goerr.V("comment_id", c.ID))
			}
		}
		for _, a := range cs.Attachments {
			if err := tx.Create(tenant.Collection(collectionAttachments).Doc(a.ID.String()), a); err != nil {
				return goerr.Wrap(err, "failed to create attachment", goerr.V("attachment_id", a.ID))
			}
		}
		for _, a := range cs.ImportedAlerts {
			if err := tx.Create(tenant.Collection(collectionImportedAlerts).Doc(naturalKey(a.ExternalAlertID)), a); err != nil {
				return goerr.Wrap(err, "failed to create imported alert", goerr.V("external_alert_id", a.ExternalAlertID))
			}
		}
		if cs.SLASettings != nil {
			if err := tx.Set(tenant.Collection(collectionSettings).Doc(docSLASettings), cs.SLASettings); err != nil {
				return goerr.Wrap(err, "failed to put SLA settings")
			}
		}
		return nil
	})

	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return r.eb.Wrap(err, "duplicate record in change set", goerr.T(errs.TagDuplicateResource))
		}
		if goerr.HasTag(err, errs.TagConflict) || goerr.HasTag(err, errs.TagDuplicateResource) || goerr.HasTag(err, errs.TagNotFound) {
			return r.eb.Wrap(err, "commit rejected")
		}
		return r.eb.Wrap(err, "commit failed", goerr.T(errs.TagDatabase))
	}
	return nil
}

func (r *Firestore) checkVersion(tx *firestore.Transaction, ref *firestore.DocumentRef, c *amlcase.Case) error {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", c.ID))
		}
		return goerr.Wrap(err, "failed to read case", goerr.T(errs.TagDatabase), goerr.V("case_id", c.ID))
	}

	var stored amlcase.Case
	if err := snap.DataTo(&stored); err != nil {
		return goerr.Wrap(err, "failed to decode case", goerr.T(errs.TagInternal))
	}
	if stored.IsDeleted {
		return goerr.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", c.ID))
	}
	if stored.Version != c.Version-1 {
		return goerr.Wrap(errs.ErrStaleVersion, "case version conflict",
			goerr.T(errs.TagConflict),
			goerr.V("case_id", c.ID),
			goerr.V("stored_version", stored.Version),
			goerr.V("new_version", c.Version))
	}
	return nil
}
