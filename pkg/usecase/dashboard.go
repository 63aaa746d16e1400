package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/dashboard"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
)

// GetDashboard scans every non-deleted case of the tenant. Nothing is cached.
func (uc *UseCases) GetDashboard(ctx context.Context, id auth.Identity) (*dashboard.Summary, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	cases, err := uc.repository.ScanCases(ctx, id.TenantID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan cases", goerr.TV(errutil.TenantIDKey, id.TenantID))
	}

	return dashboard.Compute(cases, clock.Now(ctx)), nil
}
