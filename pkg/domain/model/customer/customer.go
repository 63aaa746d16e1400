package customer

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/secmon-lab/amlcase/pkg/domain/types"
)

// Customer is the subject of one or more cases. ExternalID is unique per tenant.
type Customer struct {
	ID          types.CustomerID  `json:"id"`
	TenantID    types.TenantID    `json:"tenantId"`
	ExternalID  string            `json:"externalId"`
	FullName    string            `json:"fullName"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
	Country     string            `json:"country,omitempty"`
	RiskFlags   []string          `json:"riskFlags,omitempty"`
	IsDeleted   bool              `json:"-"`
}

func New(tenantID types.TenantID, externalID, fullName string) *Customer {
	return &Customer{
		ID:          types.NewCustomerID(),
		TenantID:    tenantID,
		ExternalID:  externalID,
		FullName:    fullName,
		Identifiers: map[string]string{},
	}
}

// NewManual creates a customer entered by hand with a generated MANUAL- external ID.
func NewManual(tenantID types.TenantID, fullName string) *Customer {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return New(tenantID, "MANUAL-"+strings.ToUpper(hex.EncodeToString(b[:])), fullName)
}
