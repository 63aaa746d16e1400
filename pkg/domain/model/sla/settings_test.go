package sla_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/model/sla"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func TestDueAt(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	tenantID := types.DefaultTenantID

	t.Run("defaults", func(t *testing.T) {
		s := sla.Default(tenantID, now)
		gt.Equal(t, s.DueAt(types.RiskLevelHigh, now), now.Add(24*time.Hour))
		gt.Equal(t, s.DueAt(types.RiskLevelMedium, now), now.Add(48*time.Hour))
		gt.Equal(t, s.DueAt(types.RiskLevelLow, now), now.Add(72*time.Hour))
	})

	t.Run("custom hours", func(t *testing.T) {
		s := &sla.Settings{TenantID: tenantID, LowHours: 100, MediumHours: 10, HighHours: 1}
		gt.Equal(t, s.DueAt(types.RiskLevelHigh, now), now.Add(time.Hour))
		gt.Equal(t, s.DueAt(types.RiskLevelLow, now), now.Add(100*time.Hour))
	})
}

func TestValidate(t *testing.T) {
	gt.NoError(t, sla.Default(types.DefaultTenantID, time.Now()).Validate())

	s := sla.Default(types.DefaultTenantID, time.Now())
	s.HighHours = 0
	gt.Error(t, s.Validate())
}
