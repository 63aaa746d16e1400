package sqlite

import (
	"encoding/json"
	"time"

	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

type caseRow struct {
	ID             string     `gorm:"column:id;type:text;primaryKey"`
	TenantID       string     `gorm:"column:tenant_id;type:text;not null;index:idx_cases_tenant_created,priority:1;index:idx_cases_tenant_customer,priority:1"`
	CaseNumber     string     `gorm:"column:case_number;type:text;not null;index"`
	CustomerID     string     `gorm:"column:customer_id;type:text;not null;index:idx_cases_tenant_customer,priority:2"`
	Status         string     `gorm:"column:status;type:text;not null"`
	RiskLevel      string     `gorm:"column:risk_level;type:text;not null"`
	Priority       int        `gorm:"column:priority;not null"`
	OwnerUserID    string     `gorm:"column:owner_user_id;type:text"`
	Decision       string     `gorm:"column:decision;type:text"`
	DecisionReason string     `gorm:"column:decision_reason;type:text"`
	DecisionBy     string     `gorm:"column:decision_by;type:text"`
	ApprovedBy     string     `gorm:"column:approved_by;type:text"`
	ApprovedAt     *time.Time `gorm:"column:approved_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null;index:idx_cases_tenant_created,priority:2"`
	SLADueAt       *time.Time `gorm:"column:sla_due_at"`
	ClosedAt       *time.Time `gorm:"column:closed_at"`
	Version        int        `gorm:"column:version;not null"`
	IsDeleted      bool       `gorm:"column:is_deleted;not null;default:false"`
}

func (caseRow) TableName() string {
	return "cases"
}

type customerRow struct {
	ID          string `gorm:"column:id;type:text;primaryKey"`
	TenantID    string `gorm:"column:tenant_id;type:text;not null;uniqueIndex:idx_customers_tenant_external,priority:1"`
	ExternalID  string `gorm:"column:external_id;type:text;not null;uniqueIndex:idx_customers_tenant_external,priority:2"`
	FullName    string `gorm:"column:full_name;type:text;not null"`
	Identifiers string `gorm:"column:identifiers_json;type:text;not null;default:'{}'"`
	Country     string `gorm:"column:country;type:text"`
	RiskFlags   string `gorm:"column:risk_flags_json;type:text"`
	IsDeleted   bool   `gorm:"column:is_deleted;not null;default:false"`
}

func (customerRow) TableName() string {
	return "customers"
}

type eventRow struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	TenantID    string    `gorm:"column:tenant_id;type:text;not null;index:idx_events_tenant_case,priority:1"`
	CaseID      string    `gorm:"column:case_id;type:text;not null;index:idx_events_tenant_case,priority:2"`
	Type        string    `gorm:"column:type;type:text;not null"`
	ActorUserID string    `gorm:"column:actor_user_id;type:text;not null"`
	At          time.Time `gorm:"column:at;not null"`
	Payload     string    `gorm:"column:payload_json;type:text;not null"`
}

func (eventRow) TableName() string {
	return "case_events"
}

type commentRow struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	TenantID    string    `gorm:"column:tenant_id;type:text;not null;index:idx_comments_tenant_case,priority:1"`
	CaseID      string    `gorm:"column:case_id;type:text;not null;index:idx_comments_tenant_case,priority:2"`
	ActorUserID string    `gorm:"column:actor_user_id;type:text;not null"`
	At          time.Time `gorm:"column:at;not null"`
	Text        string    `gorm:"column:text;type:text;not null"`
}

func (commentRow) TableName() string {
	return "case_comments"
}

type attachmentRow struct {
	ID          string    `gorm:"column:id;type:text;primaryKey"`
	TenantID    string    `gorm:"column:tenant_id;type:text;not null;index:idx_attachments_tenant_case,priority:1"`
	CaseID      string    `gorm:"column:case_id;type:text;not null;index:idx_attachments_tenant_case,priority:2"`
	FileKey     string    `gorm:"column:file_key;type:text;not null"`
	FileName    string    `gorm:"column:file_name;type:text;not null"`
	ContentType string    `gorm:"column:content_type;type:text;not null"`
	Size        int64     `gorm:"column:size;not null"`
	Tags        string    `gorm:"column:tags_json;type:text"`
	SHA256      string    `gorm:"column:sha256;type:text"`
	UploadedBy  string    `gorm:"column:uploaded_by;type:text;not null"`
	UploadedAt  time.Time `gorm:"column:uploaded_at;not null"`
}

func (attachmentRow) TableName() string {
	return "attachments"
}

type importedAlertRow struct {
	ID                 string    `gorm:"column:id;type:text;primaryKey"`
	TenantID           string    `gorm:"column:tenant_id;type:text;not null;uniqueIndex:idx_imported_alerts_tenant_external,priority:1"`
	ExternalAlertID    string    `gorm:"column:external_alert_id;type:text;not null;uniqueIndex:idx_imported_alerts_tenant_external,priority:2"`
	CustomerExternalID string    `gorm:"column:customer_external_id;type:text;not null"`
	AlertType          string    `gorm:"column:alert_type;type:text;not null"`
	AlertDate          time.Time `gorm:"column:alert_date"`
	RiskHint           string    `gorm:"column:risk_hint;type:text"`
	Description        string    `gorm:"column:description;type:text"`
	CaseID             string    `gorm:"column:case_id;type:text;not null;index"`
	ImportedAt         time.Time `gorm:"column:imported_at;not null"`
}

func (importedAlertRow) TableName() string {
	return "imported_alerts"
}

type slaSettingsRow struct {
	TenantID    string    `gorm:"column:tenant_id;type:text;primaryKey"`
	LowHours    int       `gorm:"column:low_risk_hours;not null"`
	MediumHours int       `gorm:"column:medium_risk_hours;not null"`
	HighHours   int       `gorm:"column:high_risk_hours;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (slaSettingsRow) TableName() string {
	return "sla_settings"
}

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&caseRow{},
		&customerRow{},
		&eventRow{},
		&commentRow{},
		&attachmentRow{},
		&importedAlertRow{},
		&slaSettingsRow{},
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func toCaseRow(c *amlcase.Case) *caseRow {
	return &caseRow{
		ID:             c.ID.String(),
		TenantID:       c.TenantID.String(),
		CaseNumber:     c.CaseNumber,
		CustomerID:     c.CustomerID.String(),
		Status:         c.Status.String(),
		RiskLevel:      c.RiskLevel.String(),
		Priority:       c.Priority,
		OwnerUserID:    c.Owner.String(),
		Decision:       c.Decision,
		DecisionReason: c.DecisionReason,
		DecisionBy:     c.DecisionBy.String(),
		ApprovedBy:     c.ApprovedBy.String(),
		ApprovedAt:     utcPtr(c.ApprovedAt),
		CreatedAt:      c.CreatedAt.UTC(),
		SLADueAt:       utcPtr(c.SLADueAt),
		ClosedAt:       utcPtr(c.ClosedAt),
		Version:        c.Version,
		IsDeleted:      c.IsDeleted,
	}
}

func (x *caseRow) toModel() *amlcase.Case {
	return &amlcase.Case{
		ID:             types.CaseID(x.ID),
		TenantID:       types.TenantID(x.TenantID),
		CaseNumber:     x.CaseNumber,
		CustomerID:     types.CustomerID(x.CustomerID),
		Status:         types.CaseStatus(x.Status),
		RiskLevel:      types.RiskLevel(x.RiskLevel),
		Priority:       x.Priority,
		Owner:          types.UserID(x.OwnerUserID),
		Decision:       x.Decision,
		DecisionReason: x.DecisionReason,
		DecisionBy:     types.UserID(x.DecisionBy),
		ApprovedBy:     types.UserID(x.ApprovedBy),
		ApprovedAt:     utcPtr(x.ApprovedAt),
		CreatedAt:      x.CreatedAt.UTC(),
		SLADueAt:       utcPtr(x.SLADueAt),
		ClosedAt:       utcPtr(x.ClosedAt),
		Version:        x.Version,
		IsDeleted:      x.IsDeleted,
	}
}

func toCustomerRow(c *customer.Customer) (*customerRow, error) {
	identifiers, err := json.Marshal(c.Identifiers)
	if err != nil {
		return nil, err
	}
	row := &customerRow{
		ID:          c.ID.String(),
		TenantID:    c.TenantID.String(),
		ExternalID:  c.ExternalID,
		FullName:    c.FullName,
		Identifiers: string(identifiers),
		Country:     c.Country,
		IsDeleted:   c.IsDeleted,
	}
	if len(c.RiskFlags) > 0 {
		flags, err := json.Marshal(c.RiskFlags)
		if err != nil {
			return nil, err
		}
		row.RiskFlags = string(flags)
	}
	return row, nil
}

func (x *customerRow) toModel() (*customer.Customer, error) {
	c := &customer.Customer{
		ID:          types.CustomerID(x.ID),
		TenantID:    types.TenantID(x.TenantID),
		ExternalID:  x.ExternalID,
		FullName:    x.FullName,
		Identifiers: map[string]string{},
		Country:     x.Country,
		IsDeleted:   x.IsDeleted,
	}
	if x.Identifiers != "" {
		if err := json.Unmarshal([]byte(x.Identifiers), &c.Identifiers); err != nil {
			return nil, err
		}
	}
	if x.RiskFlags != "" {
		if err := json.Unmarshal([]byte(x.RiskFlags), &c.RiskFlags); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func toEventRow(ev *audit.Event) (*eventRow, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}
	return &eventRow{
		ID:          ev.ID.String(),
		TenantID:    ev.TenantID.String(),
		CaseID:      ev.CaseID.String(),
		Type:        ev.Type.String(),
		ActorUserID: ev.ActorUserID.String(),
		At:          ev.At.UTC(),
		Payload:     string(payload),
	}, nil
}

func (x *eventRow) toModel() (*audit.Event, error) {
	ev := &audit.Event{
		ID:          types.EventID(x.ID),
		TenantID:    types.TenantID(x.TenantID),
		CaseID:      types.CaseID(x.CaseID),
		Type:        types.EventType(x.Type),
		ActorUserID: types.UserID(x.ActorUserID),
		At:          x.At.UTC(),
		Payload:     map[string]string{},
	}
	if err := json.Unmarshal([]byte(x.Payload), &ev.Payload); err != nil {
		return nil, err
	}
	return ev, nil
}

func toCommentRow(c *amlcase.Comment) *commentRow {
	return &commentRow{
		ID:          c.ID.String(),
		TenantID:    c.TenantID.String(),
		CaseID:      c.CaseID.String(),
		ActorUserID: c.ActorUserID.String(),
		At:          c.At.UTC(),
		Text:        c.Text,
	}
}

func (x *commentRow) toModel() *amlcase.Comment {
	return &amlcase.Comment{
		ID:          types.CommentID(x.ID),
		TenantID:    types.TenantID(x.TenantID),
		CaseID:      types.CaseID(x.CaseID),
		ActorUserID: types.UserID(x.ActorUserID),
		At:          x.At.UTC(),
		Text:        x.Text,
	}
}

func toAttachmentRow(a *amlcase.Attachment) (*attachmentRow, error) {
	row := &attachmentRow{
		ID:          a.ID.String(),
		TenantID:    a.TenantID.String(),
		CaseID:      a.CaseID.String(),
		FileKey:     a.FileKey,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		SHA256:      a.SHA256,
		UploadedBy:  a.UploadedBy.String(),
		UploadedAt:  a.UploadedAt.UTC(),
	}
	if len(a.Tags) > 0 {
		tags, err := json.Marshal(a.Tags)
		if err != nil {
			return nil, err
		}
		row.Tags = string(tags)
	}
	return row, nil
}

func (x *attachmentRow) toModel() (*amlcase.Attachment, error) {
	a := &amlcase.Attachment{
		ID:          types.AttachmentID(x.ID),
		TenantID:    types.TenantID(x.TenantID),
		CaseID:      types.CaseID(x.CaseID),
		FileKey:     x.FileKey,
		FileName:    x.FileName,
		ContentType: x.ContentType,
		Size:        x.Size,
		SHA256:      x.SHA256,
		UploadedBy:  types.UserID(x.UploadedBy),
		UploadedAt:  x.UploadedAt.UTC(),
	}
	if x.Tags != "" {
		if err := json.Unmarshal([]byte(x.Tags), &a.Tags); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func toImportedAlertRow(a *alert.ImportedAlert) *importedAlertRow {
	return &importedAlertRow{
		ID:                 a.ID.String(),
		TenantID:           a.TenantID.String(),
		ExternalAlertID:    a.ExternalAlertID,
		CustomerExternalID: a.CustomerExternalID,
		AlertType:          a.AlertType,
		AlertDate:          a.AlertDate.UTC(),
		RiskHint:           a.RiskHint,
		Description:        a.Description,
		CaseID:             a.CaseID.String(),
		ImportedAt:         a.ImportedAt.UTC(),
	}
}

func (x *importedAlertRow) toModel() *alert.ImportedAlert {
	return &alert.ImportedAlert{
		ID:                 types.ImportedAlertID(x.ID),
		TenantID:           types.TenantID(x.TenantID),
		ExternalAlertID:    x.ExternalAlertID,
		CustomerExternalID: x.CustomerExternalID,
		AlertType:          x.AlertType,
		AlertDate:          x.AlertDate.UTC(),
		RiskHint:           x.RiskHint,
		Description:        x.Description,
		CaseID:             types.CaseID(x.CaseID),
		ImportedAt:         x.ImportedAt.UTC(),
	}
}

func toSLASettingsRow(s *sla.Settings) *slaSettingsRow {
	return &slaSettingsRow{
		TenantID:    s.TenantID.String(),
		LowHours:    s.LowHours,
		MediumHours: s.MediumHours,
		HighHours:   s.HighHours,
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func (x *slaSettingsRow) toModel() *sla.Settings {
	return &sla.Settings{
		TenantID:    types.TenantID(x.TenantID),
		LowHours:    x.LowHours,
		MediumHours: x.MediumHours,
		HighHours:   x.HighHours,
		UpdatedAt:   x.UpdatedAt.UTC(),
	}
}
