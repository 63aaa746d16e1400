package fixture

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Fixture is a set of tenants loaded by the seed command.
type Fixture struct {
	Tenants []Tenant `yaml:"tenants"`
}

type Tenant struct {
	ID        types.TenantID `yaml:"id"`
	SLA       *SLA           `yaml:"sla,omitempty"`
	Customers []Customer     `yaml:"customers"`
}

type SLA struct {
	LowHours    int `yaml:"lowRiskHours"`
	MediumHours int `yaml:"mediumRiskHours"`
	HighHours   int `yaml:"highRiskHours"`
}

type Customer struct {
	ExternalID string   `yaml:"externalId"`
	FullName   string   `yaml:"fullName"`
	Country    string   `yaml:"country,omitempty"`
	RiskFlags  []string `yaml:"riskFlags,omitempty"`
	Cases      []Case   `yaml:"cases,omitempty"`
}

type Case struct {
	Status    types.CaseStatus `yaml:"status"`
	RiskLevel types.RiskLevel  `yaml:"riskLevel"`
	Priority  int              `yaml:"priority"`
	Owner     types.UserID     `yaml:"owner,omitempty"`
	Comment   string           `yaml:"comment,omitempty"`
}

func (x *Fixture) Validate() error {
	if len(x.Tenants) == 0 {
		return goerr.New("fixture has no tenants", goerr.T(errs.TagValidation))
	}

	for _, t := range x.Tenants {
		if err := t.ID.Validate(); err != nil {
			return goerr.Wrap(err, "invalid tenant id in fixture", goerr.T(errs.TagValidation))
		}

		seen := make(map[string]bool)
		for _, c := range t.Customers {
			if strings.TrimSpace(c.ExternalID) == "" || strings.TrimSpace(c.FullName) == "" {
				return goerr.New("customer needs externalId and fullName",
					goerr.T(errs.TagValidation),
					goerr.V("tenant_id", t.ID))
			}
			if seen[c.ExternalID] {
				return goerr.New("duplicate customer in fixture",
					goerr.T(errs.TagValidation),
					goerr.V("tenant_id", t.ID),
					goerr.V("external_id", c.ExternalID))
			}
			seen[c.ExternalID] = true

			for _, k := range c.Cases {
				if err := k.Status.Validate(); err != nil {
					return goerr.Wrap(err, "invalid case status in fixture", goerr.T(errs.TagValidation), goerr.V("external_id", c.ExternalID))
				}
				if err := k.RiskLevel.Validate(); err != nil {
					return goerr.Wrap(err, "invalid risk level in fixture", goerr.T(errs.TagValidation), goerr.V("external_id", c.ExternalID))
				}
				if k.Owner != "" {
					if err := k.Owner.Validate(); err != nil {
						return goerr.Wrap(err, "invalid case owner in fixture", goerr.T(errs.TagValidation), goerr.V("external_id", c.ExternalID))
					}
				}
			}
		}
	}
	return nil
}

// Demo is the built-in fixture used when no file is given.
func Demo() *Fixture {
	return &Fixture{
		Tenants: []Tenant{
			{
				ID: types.DefaultTenantID,
				SLA: &SLA{
					LowHours:    72,
					MediumHours: 48,
					HighHours:   24,
				},
				Customers: []Customer{
					{
						ExternalID: "CUST-1001",
						FullName:   "Amina Rahman",
						Country:    "GB",
						RiskFlags:  []string{"PEP"},
						Cases: []Case{
							{
								Status:    types.CaseStatusInReview,
								RiskLevel: types.RiskLevelHigh,
								Priority:  1,
								Owner:     auth.DemoAnalystID,
								Comment:   "Unusual cash deposits flagged by monitoring.",
							},
						},
					},
				},
			},
		},
	}
}
