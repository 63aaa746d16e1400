package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

func TestRiskLevelFromHint(t *testing.T) {
	testCases := map[string]types.RiskLevel{
		"high":    types.RiskLevelHigh,
		" HIGH ":  types.RiskLevelHigh,
		"Low":     types.RiskLevelLow,
		"":        types.RiskLevelMedium,
		"medium":  types.RiskLevelMedium,
		"unknown": types.RiskLevelMedium,
	}
	for hint, expected := range testCases {
		t.Run(hint, func(t *testing.T) {
			gt.Equal(t, types.RiskLevelFromHint(hint), expected)
		})
	}
}

func TestCaseStatus(t *testing.T) {
	for _, s := range types.AllCaseStatuses {
		gt.NoError(t, s.Validate())
	}
	gt.Error(t, types.CaseStatus("Open").Validate())

	gt.True(t, types.CaseStatusClosed.IsTerminal())
	gt.True(t, types.CaseStatusRejected.IsTerminal())
	gt.False(t, types.CaseStatusApproved.IsTerminal())
	gt.False(t, types.CaseStatusNew.IsTerminal())

	s, err := types.ParseCaseStatus("inreview")
	gt.NoError(t, err)
	gt.Equal(t, s, types.CaseStatusInReview)

	_, err = types.ParseCaseStatus("pending")
	gt.Error(t, err)
}

func TestUserIDFromUsername(t *testing.T) {
	a := types.UserIDFromUsername("Analyst1")
	b := types.UserIDFromUsername(" analyst1 ")
	gt.Equal(t, a, b)
	gt.NoError(t, a.Validate())
	gt.NotEqual(t, a, types.UserIDFromUsername("analyst2"))
}

func TestIDValidate(t *testing.T) {
	gt.NoError(t, types.NewCaseID().Validate())
	gt.Error(t, types.CaseID("not-a-uuid").Validate())
	gt.Error(t, types.EmptyCaseID.Validate())
	gt.NoError(t, types.DefaultTenantID.Validate())
}
