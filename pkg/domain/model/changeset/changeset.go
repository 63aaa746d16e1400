package changeset

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// ChangeSet is the unit of an atomic commit. A repository applies every
// record or none of them.
//
// Updated cases carry their new version. The store applies an update only
// when the stored version equals Version-1.
type ChangeSet struct {
	NewCases       []*amlcase.Case
	UpdatedCases   []*amlcase.Case
	NewCustomers   []*customer.Customer
	Events         []*audit.Event
	Comments       []*amlcase.Comment
	Attachments    []*amlcase.Attachment
	ImportedAlerts []*alert.ImportedAlert
	SLASettings    *sla.Settings
}

func New() *ChangeSet {
	return &ChangeSet{}
}

func (x *ChangeSet) CreateCase(c *amlcase.Case) *ChangeSet {
	x.NewCases = append(x.NewCases, c)
	return x
}

func (x *ChangeSet) UpdateCase(c *amlcase.Case) *ChangeSet {
	x.UpdatedCases = append(x.UpdatedCases, c)
	return x
}

func (x *ChangeSet) CreateCustomer(c *customer.Customer) *ChangeSet {
	x.NewCustomers = append(x.NewCustomers, c)
	return x
}

func (x *ChangeSet) AppendEvent(ev ...*audit.Event) *ChangeSet {
	x.Events = append(x.Events, ev...)
	return x
}

func (x *ChangeSet) AddComment(c *amlcase.Comment) *ChangeSet {
	x.Comments = append(x.Comments, c)
	return x
}

func (x *ChangeSet) AddAttachment(a *amlcase.Attachment) *ChangeSet {
	x.Attachments = append(x.Attachments, a)
	return x
}

func (x *ChangeSet) RecordImportedAlert(a *alert.ImportedAlert) *ChangeSet {
	x.ImportedAlerts = append(x.ImportedAlerts, a)
	return x
}

func (x *ChangeSet) PutSLASettings(s *sla.Settings) *ChangeSet {
	x.SLASettings = s
	return x
}

func (x *ChangeSet) IsEmpty() bool {
	return len(x.NewCases) == 0 && len(x.UpdatedCases) == 0 && len(x.NewCustomers) == 0 &&
		len(x.Events) == 0 && len(x.Comments) == 0 && len(x.Attachments) == 0 &&
		len(x.ImportedAlerts) == 0 && x.SLASettings == nil
}

// Validate rejects records that belong to another tenant or carry an invalid event type.
func (x *ChangeSet) Validate(tenantID types.TenantID) error {
	check := func(kind string, got types.TenantID) error {
		if got != tenantID {
			return goerr.New("record belongs to another tenant",
				goerr.T(errs.TagForbidden),
				goerr.V("kind", kind),
				goerr.V("tenant_id", tenantID),
				goerr.V("record_tenant_id", got))
		}
		return nil
	}

	for _, c := range x.NewCases {
		if err := c.Validate(); err != nil {
			return goerr.Wrap(err, "invalid new case", goerr.T(errs.TagValidation))
		}
		if err := check("case", c.TenantID); err != nil {
			return err
		}
	}
	for _, c := range x.UpdatedCases {
		if err := c.Validate(); err != nil {
			return goerr.Wrap(err, "invalid updated case", goerr.T(errs.TagValidation))
		}
		if err := check("case", c.TenantID); err != nil {
			return err
		}
	}
	for _, c := range x.NewCustomers {
		if err := check("customer", c.TenantID); err != nil {
			return err
		}
	}
	for _, ev := range x.Events {
		if err := ev.Type.Validate(); err != nil {
			return goerr.Wrap(err, "invalid event", goerr.T(errs.TagValidation))
		}
		if err := check("event", ev.TenantID); err != nil {
			return err
		}
	}
	for _, c := range x.Comments {
		if err := check("comment", c.TenantID); err != nil {
			return err
		}
	}
	for _, a := range x.Attachments {
		if err := check("attachment", a.TenantID); err != nil {
			return err
		}
	}
	for _, a := range x.ImportedAlerts {
		if err := check("imported_alert", a.TenantID); err != nil {
			return err
		}
	}
	if x.SLASettings != nil {
		if err := check("sla_settings", x.SLASettings.TenantID); err != nil {
			return err
		}
	}
	return nil
}
