package sqlite

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/amlcase"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"gorm.io/gorm"
)

func (r *SQLite) GetCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) (*amlcase.Case, error) {
	var row caseRow
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND is_deleted = ?", caseID.String(), tenantID.String(), false).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, r.eb.New("case not found",
			goerr.T(errs.TagNotFound),
			goerr.V("tenant_id", tenantID),
			goerr.V("case_id", caseID))
	}
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to get case", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}
	return row.toModel(), nil
}

func (r *SQLite) ListCases(ctx context.Context, tenantID types.TenantID, filter amlcase.Filter) ([]*amlcase.Case, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_deleted = ?", tenantID.String(), false)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status.String())
	}
	if filter.Owner != "" {
		q = q.Where("owner_user_id = ?", filter.Owner.String())
	}
	if filter.OverdueOnly {
		q = q.Where("closed_at IS NULL AND sla_due_at IS NOT NULL AND sla_due_at < ?", filter.Now.UTC())
	}

	var rows []caseRow
	if err := q.Order("created_at DESC").Order("id DESC").Limit(filter.EffectiveLimit()).Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to list cases", goerr.T(errs.TagDatabase), goerr.V("tenant_id", tenantID))
	}

	result := make([]*amlcase.Case, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

func (r *SQLite) ScanCases(ctx context.Context, tenantID types.TenantID) ([]*amlcase.Case, error) {
	var rows []caseRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_deleted = ?", tenantID.String(), false).
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to scan cases", goerr.T(errs.TagDatabase), goerr.V("tenant_id", tenantID))
	}

	result := make([]*amlcase.Case, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

func (r *SQLite) CountCases(ctx context.Context, tenantID types.TenantID) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&caseRow{}).
		Where("tenant_id = ?", tenantID.String()).
		Count(&n).Error; err != nil {
		return 0, r.eb.Wrap(err, "failed to count cases", goerr.T(errs.TagDatabase), goerr.V("tenant_id", tenantID))
	}
	return int(n), nil
}

func (r *SQLite) FindOpenCaseByCustomer(ctx context.Context, tenantID types.TenantID, customerID types.CustomerID) (*amlcase.Case, error) {
	var rows []caseRow
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND is_deleted = ? AND closed_at IS NULL",
			tenantID.String(), customerID.String(), false).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, r.eb.Wrap(err, "failed to find open case", goerr.T(errs.TagDatabase), goerr.V("customer_id", customerID))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}

// DeleteCase soft-deletes a case.
func (r *SQLite) DeleteCase(ctx context.Context, tenantID types.TenantID, caseID types.CaseID) error {
	res := r.db.WithContext(ctx).Model(&caseRow{}).
		Where("id = ? AND tenant_id = ?", caseID.String(), tenantID.String()).
		Update("is_deleted", true)
	if res.Error != nil {
		return r.eb.Wrap(res.Error, "failed to delete case", goerr.T(errs.TagDatabase), goerr.V("case_id", caseID))
	}
	if res.RowsAffected == 0 {
		return r.eb.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", caseID))
	}
	return nil
}
