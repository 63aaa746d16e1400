package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

type CaseStatus string

const (
	CaseStatusNew       CaseStatus = "New"
	CaseStatusInReview  CaseStatus = "InReview"
	CaseStatusEscalated CaseStatus = "Escalated"
	CaseStatusApproved  CaseStatus = "Approved"
	CaseStatusClosed    CaseStatus = "Closed"
	CaseStatusRejected  CaseStatus = "Rejected"
)

// AllCaseStatuses lists statuses in workflow order.
var AllCaseStatuses = []CaseStatus{
	CaseStatusNew,
	CaseStatusInReview,
	CaseStatusEscalated,
	CaseStatusApproved,
	CaseStatusClosed,
	CaseStatusRejected,
}

func (s CaseStatus) String() string {
	return string(s)
}

func (s CaseStatus) Validate() error {
	switch s {
	case CaseStatusNew, CaseStatusInReview, CaseStatusEscalated,
		CaseStatusApproved, CaseStatusClosed, CaseStatusRejected:
		return nil
	}
	return goerr.New("invalid case status", goerr.V("status", s))
}

// IsTerminal reports whether entering this status stamps the closed time.
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case CaseStatusClosed, CaseStatusRejected:
		return true
	case CaseStatusNew, CaseStatusInReview, CaseStatusEscalated, CaseStatusApproved:
		return false
	}
	return false
}

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

func (r RiskLevel) String() string {
	return string(r)
}

func (r RiskLevel) Validate() error {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return nil
	}
	return goerr.New("invalid risk level", goerr.V("risk_level", r))
}

// RiskLevelFromHint maps a free-text hint to a risk level.
// "high" and "low" match case-insensitively, anything else is Medium.
func RiskLevelFromHint(hint string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "high":
		return RiskLevelHigh
	case "low":
		return RiskLevelLow
	default:
		return RiskLevelMedium
	}
}

// ParseCaseStatus accepts status names case-insensitively.
func ParseCaseStatus(v string) (CaseStatus, error) {
	for _, s := range AllCaseStatuses {
		if strings.EqualFold(string(s), strings.TrimSpace(v)) {
			return s, nil
		}
	}
	return "", goerr.New("unknown case status", goerr.V("status", v))
}

// ParseRiskLevel accepts risk level names case-insensitively.
func ParseRiskLevel(v string) (RiskLevel, error) {
	for _, r := range []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh} {
		if strings.EqualFold(string(r), strings.TrimSpace(v)) {
			return r, nil
		}
	}
	return "", goerr.New("unknown risk level", goerr.V("risk_level", v))
}
