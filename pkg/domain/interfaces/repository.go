package interfaces

import (
	"context"

	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Repository is the case store. Every method is scoped by tenant and
// soft-deleted cases and customers are invisible to all reads.
//
// Point lookups by ID return an error tagged errs.TagNotFound when the record
// is missing. Lookups by natural key return nil without error.
type Repository interface {
	GetCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) (*amlcase.Case, error)
	// ListCases returns matching cases newest first, at most filter.EffectiveLimit() of them.
	ListCases(ctx context.Context, tenantID types.TenantID, filter amlcase.Filter) ([]*amlcase.Case, error)
	// ScanCases returns every non-deleted case of the tenant in no particular order.
	ScanCases(ctx context.Context, tenantID types.TenantID) ([]*amlcase.Case, error)
	// CountCases counts all cases of the tenant, deleted ones included.
	CountCases(ctx context.Context, tenantID types.TenantID) (int, error)
	// FindOpenCaseByCustomer returns the newest open case of a customer.
	FindOpenCaseByCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*amlcase.Case, error)

	// ListCaseEvents returns the audit trail in chronological order.
	ListCaseEvents(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*audit.Event, error)
	// ListComments returns comments newest first.
	ListComments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Comment, error)
	// ListAttachments returns attachments newest first.
	ListAttachments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Attachment, error)
	GetAttachment(ctx context.Context, tenantID types.TenantID, attachmentID types.AttachmentID) (*amlcase.Attachment, error)

	GetCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*customer.Customer, error)
	BatchGetCustomers(ctx context.Context, tenantID types.TenantID, customerIDs []types.CustomerID) ([]*customer.Customer, error)
	FindCustomerByExternalID(ctx context.Context, tenantID types.TenantID, externalID string) (*customer.Customer, error)

	ImportedAlertExists(ctx context.Context, tenantID types.TenantID, externalAlertID string) (bool, error)
	ListImportedAlerts(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*alert.ImportedAlert, error)

	// GetSLASettings returns nil without error when the tenant has no settings yet.
	GetSLASettings(ctx context.Context, tenantID types.TenantID) (*sla.Settings, error)

	// Commit applies the change set atomically. A stale case version fails with
	// errs.TagConflict and a duplicate natural key with errs.TagDuplicateResource.
	Commit(ctx context.Context, tenantID types.TenantID, cs *changeset.ChangeSet) error

	Close() error
}
