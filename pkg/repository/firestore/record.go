package firestore

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func readAll[T any](iter *firestore.DocumentIterator) ([]*T, error) {
	defer iter.Stop()

	var result []*T
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents", goerr.T(errs.TagDatabase))
		}

		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document", goerr.T(errs.TagInternal), goerr.V("doc_id", doc.Ref.ID))
		}
		result = append(result, &v)
	}
	return result, nil
}

func (r *Firestore) ListCaseEvents(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*audit.Event, error) {
	events, err := readAll[audit.Event](r.caseDoc(tenantID, caseID).Collection(collectionEvents).Documents(ctx))
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to list events", goerr.V("case_id", caseID))
	}
	for _, ev := range events {
		ev.At = ev.At.UTC()
	}
	audit.SortChronological(events)
	return events, nil
}

func (r *Firestore) ListComments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Comment, error) {
	comments, err := readAll[amlcase.Comment](r.caseDoc(tenantID, caseID).Collection(collectionComments).Documents(ctx))
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to list comments", goerr.V("case_id", caseID))
	}
	for _, c := range comments {
		c.At = c.At.UTC()
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].At.Equal(comments[j].At) {
			return comments[i].At.After(comments[j].At)
		}
		return comments[i].ID > comments[j].ID
	})
	return comments, nil
}

func (r *Firestore) ListAttachments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Attachment, error) {
	iter := r.tenantDoc(tenantID).Collection(collectionAttachments).
		Where("CaseID", "==", caseID.String()).
		Documents(ctx)
	attachments, err := readAll[amlcase.Attachment](iter)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to list attachments", goerr.V("case_id", caseID))
	}
	for _, a := range attachments {
		a.UploadedAt = a.UploadedAt.UTC()
	}
	sort.SliceStable(attachments, func(i, j int) bool {
		if !attachments[i].UploadedAt.Equal(attachments[j].UploadedAt) {
			return attachments[i].UploadedAt.After(attachments[j].UploadedAt)
		}
		return attachments[i].ID > attachments[j].ID
	})
	return attachments, nil
}

func (r *Firestore) GetAttachment(ctx context.Context, tenantID types.TenantID, attachmentID types.AttachmentID) (*amlcase.Attachment, error) {
	doc, err := r.tenantDoc(tenantID).Collection(collectionAttachments).Doc(attachmentID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("attachment not found",
				goerr.T(errs.TagNotFound),
				goerr.V("tenant_id", tenantID),
				goerr.V("attachment_id", attachmentID))
		}
		return nil, r.eb.Wrap(err, "failed to get attachment", goerr.T(errs.TagDatabase))
	}

	var a amlcase.Attachment
	if err := doc.DataTo(&a); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode attachment", goerr.T(errs.TagInternal))
	}
	a.UploadedAt = a.UploadedAt.UTC()
	return &a, nil
}

func (r *Firestore) GetCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*customer.Customer, error) {
	doc, err := r.tenantDoc(tenantID).Collection(collectionCustomers).Doc(customerID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("customer not found",
				goerr.T(errs.TagNotFound),
				goerr.V("tenant_id", tenantID),
				goerr.V("customer_id", customerID))
		}
		return nil, r.eb.Wrap(err, "failed to get customer", goerr.T(errs.TagDatabase))
	}

	var c customer.Customer
	if err := doc.DataTo(&c); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode customer", goerr.T(errs.TagInternal))
	}
	if c.IsDeleted {
		return nil, r.eb.New("customer not found", goerr.T(errs.TagNotFound), goerr.V("customer_id", customerID))
	}
	return &c, nil
}

func (r *Firestore) BatchGetCustomers(ctx context.Context, tenantID types.TenantID, customerIDs []types.CustomerID) ([]*customer.Customer, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	col := r.tenantDoc(tenantID).Collection(collectionCustomers)
	refs := make([]*firestore.DocumentRef, 0, len(customerIDs))
	for _, id := range customerIDs {
		refs = append(refs, col.Doc(id.String()))
	}

	docs, err := r.db.GetAll(ctx, refs)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get customers", goerr.T(errs.TagDatabase))
	}

	var result []*customer.Customer
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var c customer.Customer
		if err := doc.DataTo(&c); err != nil {
			return nil, r.eb.Wrap(err, "failed to decode customer", goerr.T(errs.TagInternal), goerr.V("doc_id", doc.Ref.ID))
		}
		if !c.IsDeleted {
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *Firestore) FindCustomerByExternalID(ctx context.Context, tenantID types.TenantID, externalID string) (*customer.Customer, error) {
	doc, err := r.tenantDoc(tenantID).Collection(collectionCustomerKeys).Doc(naturalKey(externalID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, r.eb.Wrap(err, "failed to get customer key", goerr.T(errs.TagDatabase), goerr.V("external_id", externalID))
	}

	var key customerKey
	if err := doc.DataTo(&key); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode customer key", goerr.T(errs.TagInternal))
	}

	c, err := r.GetCustomer(ctx, tenantID, key.CustomerID)
	if err != nil {
		if goerr.HasTag(err, errs.TagNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *Firestore) ImportedAlertExists(ctx context.Context, tenantID types.TenantID, externalAlertID string) (bool, error) {
	doc, err := r.tenantDoc(tenantID).Collection(collectionImportedAlerts).Doc(naturalKey(externalAlertID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, r.eb.Wrap(err, "failed to check imported alert", goerr.T(errs.TagDatabase))
	}
	return doc.Exists(), nil
}

func (r *Firestore) ListImportedAlerts(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*alert.ImportedAlert, error) {
	iter := r.tenantDoc(tenantID).Collection(collectionImportedAlerts).
		Where("CaseID", "==", caseID.String()).
		Documents(ctx)
	alerts, err := readAll[alert.ImportedAlert](iter)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to list imported alerts", goerr.V("case_id", caseID))
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].ID < alerts[j].ID
	})
	return alerts, nil
}

func (r *Firestore) GetSLASettings(ctx context.Context, tenantID types.TenantID) (*sla.Settings, error) {
	doc, err := r.tenantDoc(tenantID).Collection(collectionSettings).Doc(docSLASettings).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, r.eb.Wrap(err, "failed to get SLA settings", goerr.T(errs.TagDatabase))
	}

	var s sla.Settings
	if err := doc.DataTo(&s); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode SLA settings", goerr.T(errs.TagInternal))
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}
