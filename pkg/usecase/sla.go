package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/changeset"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

// slaSettings loads the tenant's SLA settings. When none exist yet the
// defaults are staged into cs so they are persisted with the caller's commit.
func (uc *UseCases) slaSettings(ctx context.Context, tenantID types.TenantID, cs *changeset.ChangeSet, now time.Time) (*sla.Settings, error) {
	settings, err := uc.repository.GetSLASettings(ctx, tenantID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get SLA settings", goerr.TV(errutil.TenantIDKey, tenantID))
	}
	if settings != nil {
		return settings, nil
	}

	settings = sla.Default(tenantID, now)
	cs.PutSLASettings(settings)
	return settings, nil
}

// GetSLASettings returns the tenant's SLA settings, creating the defaults on first access.
func (uc *UseCases) GetSLASettings(ctx context.Context, id auth.Identity) (*sla.Settings, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	cs := changeset.New()
	settings, err := uc.slaSettings(ctx, id.TenantID, cs, clock.Now(ctx))
	if err != nil {
		return nil, err
	}

	if !cs.IsEmpty() {
		if err := uc.repository.Commit(ctx, id.TenantID, cs); err != nil {
			return nil, goerr.Wrap(err, "failed to create default SLA settings", goerr.TV(errutil.TenantIDKey, id.TenantID))
		}
		logging.From(ctx).Info("default SLA settings created", "tenant_id", id.TenantID)
	}

	return settings, nil
}

// SLAHours is the requested hour count per risk level.
type SLAHours struct {
	LowHours    int
	MediumHours int
	HighHours   int
}

// UpdateSLASettings replaces the tenant's hours. Due dates of existing cases are kept.
func (uc *UseCases) UpdateSLASettings(ctx context.Context, id auth.Identity, hours SLAHours) (*sla.Settings, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if !id.HasRole(auth.RoleComplianceAdmin) {
		return nil, goerr.New("SLA settings can only be changed by a compliance admin",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.UserIDKey, id.UserID))
	}

	settings := &sla.Settings{
		TenantID:    id.TenantID,
		LowHours:    hours.LowHours,
		MediumHours: hours.MediumHours,
		HighHours:   hours.HighHours,
		UpdatedAt:   clock.Now(ctx),
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repository.Commit(ctx, id.TenantID, changeset.New().PutSLASettings(settings)); err != nil {
		return nil, goerr.Wrap(err, "failed to update SLA settings", goerr.TV(errutil.TenantIDKey, id.TenantID))
	}

	logging.From(ctx).Info("SLA settings updated",
		"tenant_id", id.TenantID,
		"low", settings.LowHours,
		"medium", settings.MediumHours,
		"high", settings.HighHours)

	return settings, nil
}
