package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (r *Firestore) GetCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) (*amlcase.Case, error) {
	doc, err := r.caseDoc(tenantID, caseID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("case not found",
				goerr.T(errs.TagNotFound),
				goerr.V("tenant_id", tenantID),
				goerr.V("case_id", caseID))
		}
		return nil, r.eb.Wrap(err, "failed to get case", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}

	var c amlcase.Case
	if err := doc.DataTo(&c); err != nil {
		return nil, r.eb.Wrap(err, "failed to decode case", goerr.T(errs.TagInternal), goerr.V("case_id", caseID))
	}
	if c.IsDeleted {
		return nil, r.eb.New("case not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("case_id", caseID))
	}
	return normalizeCase(&c), nil
}

func (r *Firestore) ListCases(ctx context.Context, tenantID types.TenantID, filter amlcase.Filter) ([]*amlcase.Case, error) {
	q := r.cases(tenantID).Where("IsDeleted", "==", false)
	if filter.Status != "" {
		q = q.Where("Status", "==", filter.Status.String())
	}
	if filter.Owner != "" {
		q = q.Where("Owner", "==", filter.Owner.String())
	}
	q = q.OrderBy("CreatedAt", firestore.Desc)

	// Overdue is a range over SLADueAt which cannot share an ordering with
	// CreatedAt, so it is evaluated after the query.
	if !filter.OverdueOnly {
		q = q.Limit(filter.EffectiveLimit())
	}

	cases, err := r.readCases(ctx, q.Documents(ctx))
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to list cases", goerr.V("tenant_id", tenantID))
	}

	result := make([]*amlcase.Case, 0, len(cases))
	for _, c := range cases {
		if filter.Match(c) {
			result = append(result, c)
		}
	}
	amlcase.SortNewestFirst(result)
	if limit := filter.EffectiveLimit(); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Firestore) ScanCases(ctx context.Context, tenantID types.TenantID) ([]*amlcase.Case, error) {
	iter := r.cases(tenantID).Where("IsDeleted", "==", false).Documents(ctx)
	cases, err := r.readCases(ctx, iter)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to scan cases", goerr.V("tenant_id", tenantID))
	}
	return cases, nil
}

func (r *Firestore) CountCases(ctx context.Context, tenantID types.TenantID) (int, error) {
	result, err := r.cases(tenantID).NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, r.eb.Wrap(err, "failed to count cases", goerr.T(errs.TagDatabase), goerr.V("tenant_id", tenantID))
	}
	return extractCountFromAggregationResult(result, "total")
}

func (r *Firestore) FindOpenCaseByCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*amlcase.Case, error) {
	iter := r.cases(tenantID).
		Where("CustomerID", "==", customerID.String()).
		Where("IsDeleted", "==", false).
		Where("ClosedAt", "==", nil).
		Documents(ctx)
	cases, err := r.readCases(ctx, iter)
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to find open case", goerr.V("customer_id", customerID))
	}

	var found *amlcase.Case
	for _, c := range cases {
		if found == nil || c.CreatedAt.After(found.CreatedAt) {
			found = c
		}
	}
	return found, nil
}

// DeleteCase soft-deletes a case.
func (r *Firestore) DeleteCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) error {
	_, err := r.caseDoc(tenantID, caseID).Update(ctx, []firestore.Update{{Path: "IsDeleted", Value: true}})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return r.eb.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", caseID))
		}
		return r.eb.Wrap(err, "failed to delete case", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}
	return nil
}

func (r *Firestore) readCases(ctx context.Context, iter *firestore.DocumentIterator) ([]*amlcase.Case, error) {
	defer iter.Stop()

	var result []*amlcase.Case
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases", goerr.T(errs.TagDatabase))
		}

		var c amlcase.Case
		if err := doc.DataTo(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.T(errs.TagInternal), goerr.V("doc_id", doc.Ref.ID))
		}
		result = append(result, normalizeCase(&c))
	}
	return result, nil
}

func normalizeCase(c *amlcase.Case) *amlcase.Case {
	c.CreatedAt = c.CreatedAt.UTC()
	for _, t := range []*time.Time{c.SLADueAt, c.ClosedAt, c.ApprovedAt} {
		if t != nil {
			*t = t.UTC()
		}
	}
	return c
}
