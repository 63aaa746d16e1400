package sqlite

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Commit writes the change set in one transaction. Case updates are
// conditional on the previous version and unique indexes guard customers
// and imported alerts.
func (r *SQLite) Commit(ctx context.Context, tenantID types.TenantID, cs *changeset.ChangeSet) error {
	if err := cs.Validate(tenantID); err != nil {
		return r.eb.Wrap(err, "invalid change set")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range cs.NewCustomers {
			row, err := toCustomerRow(c)
			if err != nil {
				return r.eb.Wrap(err, "failed to encode customer", goerr.V("customer_id", c.ID))
			}
			if err := tx.Create(row).Error; err != nil {
				return r.wrapWriteError(err, "failed to insert customer", goerr.V("external_id", c.ExternalID))
			}
		}

		for _, c := range cs.NewCases {
			if err := tx.Create(toCaseRow(c)).Error; err != nil {
				return r.wrapWriteError(err, "failed to insert case", goerr.V("case_id", c.ID))
			}
		}

		for _, c := range cs.UpdatedCases {
			if err := r.updateCase(tx, tenantID, toCaseRow(c)); err != nil {
				return err
			}
		}

		for _, ev := range cs.Events {
			row, err := toEventRow(ev)
			if err != nil {
				return r.eb.Wrap(err, "failed to encode event", goerr.V("event_id", ev.ID))
			}
			if err := tx.Create(row).Error; err != nil {
				return r.wrapWriteError(err, "failed to insert event", goerr.V("event_id", ev.ID))
			}
		}

		for _, c := range cs.Comments {
			if err := tx.Create(toCommentRow(c)).Error; err != nil {
				return r.wrapWriteError(err, "failed to insert comment", goerr.V("comment_id", c.ID))
			}
		}

		for _, a := range cs.Attachments {
			row, err := toAttachmentRow(a)
			if err != nil {
				return r.eb.Wrap(err, "failed to encode attachment", goerr.V("attachment_id", a.ID))
			}
			if err := tx.Create(row).Error; err != nil {
				return r.wrapWriteError(err, "failed to insert attachment", goerr.V("attachment_id", a.ID))
			}
		}

		for _, a := range cs.ImportedAlerts {
			if err := tx.Create(toImportedAlertRow(a)).Error; err != nil {
				return r.wrapWriteError(err, "failed to insert imported alert", goerr.V("external_alert_id", a.ExternalAlertID))
			}
		}

		if cs.SLASettings != nil {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
				Create(toSLASettingsRow(cs.SLASettings)).Error; err != nil {
				return r.wrapWriteError(err, "failed to put SLA settings")
			}
		}

		return nil
	})
}

func (r *SQLite) updateCase(tx *gorm.DB, tenantID types.TenantID, row *caseRow) error {
	res := tx.Model(&caseRow{}).
		Where("id = ? AND tenant_id = ? AND version = ? AND is_deleted = ?", row.ID, tenantID.String(), row.Version-1, false).
		Select("*").
		Updates(row)
	if res.Error != nil {
		return r.wrapWriteError(res.Error, "failed to update case", goerr.V("case_id", row.ID))
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := tx.Model(&caseRow{}).
		Where("id = ? AND tenant_id = ? AND is_deleted = ?", row.ID, tenantID.String(), false).
		Count(&n).Error; err != nil {
		return r.eb.Wrap(err, "failed to check case", goerr.T(errs.TagDatabase), goerr.V("case_id", row.ID))
	}
	if n == 0 {
		return r.eb.New("case not found", goerr.T(errs.TagNotFound), goerr.V("case_id", row.ID))
	}
	return r.eb.Wrap(errs.ErrStaleVersion, "case version conflict",
		goerr.T(errs.TagConflict),
		goerr.V("case_id", row.ID),
		goerr.V("new_version", row.Version))
}

func (r *SQLite) wrapWriteError(err error, msg string, opts ...goerr.Option) error {
	if isUniqueViolation(err) {
		return r.eb.Wrap(err, msg, append(opts, goerr.T(errs.TagDuplicateResource))...)
	}
	return r.eb.Wrap(err, msg, append(opts, goerr.T(errs.TagDatabase))...)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
