package firestore

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
)

// Firestore keeps every tenant under its own document:
//
//	tenants/{tenant}/cases/{case}
//	tenants/{tenant}/cases/{case}/events/{event}
//	tenants/{tenant}/cases/{case}/comments/{comment}
//	tenants/{tenant}/attachments/{attachment}
//	tenants/{tenant}/customers/{customer}
//	tenants/{tenant}/customer_keys/{encoded external id}
//	tenants/{tenant}/imported_alerts/{encoded external alert id}
//	tenants/{tenant}/settings/sla
type Firestore struct {
	db *firestore.Client
	eb *goerr.Builder
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.T(errs.TagDatabase))
	}

	return &Firestore{
		db: db,
		eb: goerr.NewBuilder(
			goerr.TV(errutil.RepositoryKey, "firestore"),
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		),
	}, nil
}

func (r *Firestore) Close() error {
	return r.db.Close()
}

const (
	collectionTenants        = "tenants"
	collectionCases          = "cases"
	collectionEvents         = "events"
	collectionComments       = "comments"
	collectionAttachments    = "attachments"
	collectionCustomers      = "customers"
	collectionCustomerKeys   = "customer_keys"
	collectionImportedAlerts = "imported_alerts"
	collectionSettings       = "settings"
	docSLASettings           = "sla"
)

// CaseCollection is the collection group name used by index migration.
const CaseCollection = collectionCases

func (r *Firestore) tenantDoc(tenantID types.TenantID) *firestore.DocumentRef {
	return r.db.Collection(collectionTenants).Doc(tenantID.String())
}

func (r *Firestore) cases(tenantID types.TenantID) *firestore.CollectionRef {
	return r.tenantDoc(tenantID).Collection(collectionCases)
}

func (r *Firestore) caseDoc(tenantID types.TenantID, caseID types.CaseID) *firestore.DocumentRef {
	return r.cases(tenantID).Doc(caseID.String())
}

// naturalKey turns an external identifier into a valid document ID.
func naturalKey(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}

// customerKey maps an external customer ID to the customer document ID.
type customerKey struct {
	CustomerID types.CustomerID
}

// extractCountFromAggregationResult extracts an integer count from a Firestore aggregation result.
func extractCountFromAggregationResult(result firestore.AggregationResult, alias string) (int, error) {
	countVal, ok := result[alias]
	if !ok {
		return 0, goerr.New("count alias not found in aggregation result",
			goerr.V("alias", alias),
			goerr.T(errs.TagInternal))
	}

	switch v := countVal.(type) {
	case int64:
		return int(v), nil
	case *firestorepb.Value:
		if v != nil {
			if _, okType := v.ValueType.(*firestorepb.Value_IntegerValue); okType {
				return int(v.GetIntegerValue()), nil
			}
		}
		return 0, goerr.New("count value is not an integer",
			goerr.V("alias", alias),
			goerr.T(errs.TagInternal))
	default:
		return 0, goerr.New("unexpected count value type from Firestore aggregation",
			goerr.V("type", fmt.Sprintf("%T", v)),
			goerr.V("alias", alias),
			goerr.T(errs.TagInternal))
	}
}
