package auth

import "time"

const (
	TokenIssuer   = "amlcase"
	TokenAudience = "amlcase-api"
	TokenLifetime = 8 * time.Hour

	ClaimTenantID = "tenant_id"
	ClaimRoles    = "roles"
	ClaimUsername = "preferred_username"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string    `json:"accessToken" masq:"secret"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TenantID    string    `json:"tenantId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Roles       []string  `json:"roles"`
}
