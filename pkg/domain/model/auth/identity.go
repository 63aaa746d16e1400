package auth

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

const (
	RoleComplianceAdmin = "ComplianceAdmin"
	RoleAnalyst         = "Analyst"
)

// Identity is the acting tenant, user and roles of one operation. It is built
// once at the request boundary and passed by value into every case operation.
type Identity struct {
	TenantID types.TenantID `json:"tenantId"`
	UserID   types.UserID   `json:"userId"`
	Username string         `json:"username,omitempty"`
	Roles    []string       `json:"roles"`
}

func (x Identity) Validate() error {
	if err := x.TenantID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid tenant in identity", goerr.T(errs.TagUnauthorized))
	}
	if err := x.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user in identity", goerr.T(errs.TagUnauthorized))
	}
	return nil
}

func (x Identity) HasRole(role string) bool {
	return slices.Contains(x.Roles, role)
}

// DemoAnalystID is the fallback user when authentication is disabled.
const DemoAnalystID types.UserID = "00000000-0000-0000-0000-000000000111"

// Anonymous is the identity used when authentication is disabled and the request carries none.
func Anonymous() Identity {
	return Identity{
		TenantID: types.DefaultTenantID,
		UserID:   DemoAnalystID,
		Username: "analyst",
		Roles:    []string{RoleComplianceAdmin},
	}
}
