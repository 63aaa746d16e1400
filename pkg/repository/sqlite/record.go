package sqlite

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/alert"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/audit"
	"github.com/secmon-lab/amlcase/pkg/domain/model/customer"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"gorm.io/gorm"
)

func (r *SQLite) ListCaseEvents(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*audit.Event, error) {
	var rows []eventRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID.String(), caseID.String()).
		Order("at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to list events", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}

	result := make([]*audit.Event, 0, len(rows))
	for i := range rows {
		ev, err := rows[i].toModel()
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to decode event payload", goerr.V("event_id", rows[i].ID))
		}
		result = append(result, ev)
	}
	return result, nil
}

func (r *SQLite) ListComments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Comment, error) {
	var rows []commentRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID.String(), caseID.String()).
		Order("at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to list comments", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}

	result := make([]*amlcase.Comment, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

func (r *SQLite) ListAttachments(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*amlcase.Attachment, error) {
	var rows []attachmentRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID.String(), caseID.String()).
		Order("uploaded_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to list attachments", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}

	result := make([]*amlcase.Attachment, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toModel()
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to decode attachment", goerr.V("attachment_id", rows[i].ID))
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *SQLite) GetAttachment(ctx context.Context, tenantID types.TenantID, attachmentID types.AttachmentID) (*amlcase.Attachment, error) {
	var row attachmentRow
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", attachmentID.String(), tenantID.String()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, r.eb.New("attachment not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("attachment_id", attachmentID))
	}
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get attachment", goerr.T(errs.TagDatabase))
	}

	a, err := row.toModel()
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to decode attachment", goerr.V("attachment_id", attachmentID))
	}
	return a, nil
}

func (r *SQLite) GetCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*customer.Customer, error) {
	var row customerRow
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND is_deleted = ?", customerID.String(), tenantID.String(), false).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, r.eb.New("customer not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("customer_id", customerID))
	}
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get customer", goerr.T(errs.TagDatabase))
	}

	c, err := row.toModel()
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to decode customer", goerr.V("customer_id", customerID))
	}
	return c, nil
}

func (r *SQLite) BatchGetCustomers(ctx context.Context, tenantID types.TenantID, customerIDs []types.CustomerID) ([]*customer.Customer, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		ids = append(ids, id.String())
	}

	var rows []customerRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_deleted = ? AND id IN ?", tenantID.String(), false, ids).
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to get customers", goerr.T(errs.TagDatabase))
	}

	result := make([]*customer.Customer, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toModel()
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to decode customer", goerr.V("customer_id", rows[i].ID))
		}
		result = append(result, c)
	}
	return result, nil
}

func (r *SQLite) FindCustomerByExternalID(ctx context.Context, tenantID types.TenantID, externalID string) (*customer.Customer, error) {
	var rows []customerRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ? AND is_deleted = ?", tenantID.String(), externalID, false).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to find customer", goerr.T(errs.TagDatabase), goerr.V("external_id", externalID))
	}
	if len(rows) == 0 {
		return nil, nil
	}

	c, err := rows[0].toModel()
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to decode customer", goerr.V("external_id", externalID))
	}
	return c, nil
}

func (r *SQLite) ImportedAlertExists(ctx context.Context, tenantID types.TenantID, externalAlertID string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&importedAlertRow{}).
		Where("tenant_id = ? AND external_alert_id = ?", tenantID.String(), externalAlertID).
		Count(&n).Error; err != nil {
		return false, r.eb.Wrap(err, "failed to check imported alert", goerr.T(errs.TagDatabase))
	}
	return n > 0, nil
}

func (r *SQLite) ListImportedAlerts(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) ([]*alert.ImportedAlert, error) {
	var rows []importedAlertRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND case_id = ?", tenantID.String(), caseID.String()).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to list imported alerts", goerr.T(errs.TagDatabase))
	}

	result := make([]*alert.ImportedAlert, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

func (r *SQLite) GetSLASettings(ctx context.Context, tenantID types.TenantID) (*sla.Settings, error) {
	var rows []slaSettingsRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID.String()).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to get SLA settings", goerr.T(errs.TagDatabase))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}
