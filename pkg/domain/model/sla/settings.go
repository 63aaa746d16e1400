package sla

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

const (
	DefaultLowHours    = 72
	DefaultMediumHours = 48
	DefaultHighHours   = 24
)

// Settings maps risk levels to hours until a case is due. One per tenant.
type Settings struct {
	TenantID    types.TenantID `json:"tenantId"`
	LowHours    int            `json:"lowRiskHours"`
	MediumHours int            `json:"mediumRiskHours"`
	HighHours   int            `json:"highRiskHours"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func Default(tenantID types.TenantID, now time.Time) *Settings {
	return &Settings{
		TenantID:    tenantID,
		LowHours:    DefaultLowHours,
		MediumHours: DefaultMediumHours,
		HighHours:   DefaultHighHours,
		UpdatedAt:   now,
	}
}

// Hours returns the configured offset for a risk level.
func (x *Settings) Hours(risk types.RiskLevel) int {
	switch risk {
	case types.RiskLevelHigh:
		return x.HighHours
	case types.RiskLevelMedium:
		return x.MediumHours
	case types.RiskLevelLow:
		return x.LowHours
	}
	return x.LowHours
}

// DueAt computes the SLA deadline for a case of the given risk opened at from.
func (x *Settings) DueAt(risk types.RiskLevel, from time.Time) time.Time {
	return from.Add(time.Duration(x.Hours(risk)) * time.Hour)
}

func (x *Settings) Validate() error {
	if x.LowHours <= 0 || x.MediumHours <= 0 || x.HighHours <= 0 {
		return goerr.New("SLA hours must be positive",
			goerr.T(errs.TagValidation),
			goerr.V("low", x.LowHours),
			goerr.V("medium", x.MediumHours),
			goerr.V("high", x.HighHours))
	}
	return nil
}
