package usecase

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

// LoginInput is a username/password login request. TenantID and Role are optional.
type LoginInput struct {
	Username string
	Password string `masq:"secret"`
	TenantID string
	Role     string
}

// Login checks the shared password and issues an HS256 access token. The user
// ID is derived from the username so repeated logins map to the same user.
func (uc *UseCases) Login(ctx context.Context, input LoginInput) (*auth.LoginResult, error) {
	if !uc.IsLoginEnabled() {
		return nil, ErrLoginNotConfigured
	}

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, goerr.New("username and password are required", goerr.T(errs.TagUnauthorized))
	}
	if subtle.ConstantTimeCompare([]byte(input.Password), []byte(uc.loginPassword)) != 1 {
		logging.From(ctx).Warn("login rejected", "username", username)
		return nil, goerr.New("invalid credentials", goerr.T(errs.TagUnauthorized))
	}

	tenantID := types.TenantID(strings.TrimSpace(input.TenantID))
	if tenantID.Validate() != nil {
		tenantID = types.DefaultTenantID
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = auth.RoleComplianceAdmin
	}

	id := auth.Identity{
		TenantID: tenantID,
		UserID:   types.UserIDFromUsername(username),
		Username: username,
		Roles:    []string{role},
	}

	now := clock.Now(ctx)
	expiresAt := now.Add(auth.TokenLifetime)

	token, err := jwt.NewBuilder().
		Issuer(auth.TokenIssuer).
		Audience([]string{auth.TokenAudience}).
		Subject(id.UserID.String()).
		IssuedAt(now).
		Expiration(expiresAt).
		Claim(auth.ClaimTenantID, id.TenantID.String()).
		Claim(auth.ClaimRoles, id.Roles).
		Claim(auth.ClaimUsername, id.Username).
		Build()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build token", goerr.T(errs.TagInternal))
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, uc.jwtKey))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to sign token", goerr.T(errs.TagInternal))
	}

	logging.From(ctx).Info("user logged in", "user_id", id.UserID, "tenant_id", id.TenantID)

	return &auth.LoginResult{
		AccessToken: string(signed),
		ExpiresAt:   expiresAt,
		TenantID:    id.TenantID.String(),
		UserID:      id.UserID.String(),
		Username:    id.Username,
		Roles:       id.Roles,
	}, nil
}

// VerifyToken validates a token issued by Login and returns its identity.
func (uc *UseCases) VerifyToken(ctx context.Context, raw string) (auth.Identity, error) {
	if len(uc.jwtKey) == 0 {
		return auth.Identity{}, ErrLoginNotConfigured
	}

	now := clock.Now(ctx)
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, uc.jwtKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(auth.TokenIssuer),
		jwt.WithAudience(auth.TokenAudience),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	)
	if err != nil {
		return auth.Identity{}, goerr.Wrap(err, "invalid access token", goerr.T(errs.TagUnauthorized))
	}

	id := auth.Identity{
		UserID: types.UserID(token.Subject()),
	}
	if v, ok := token.Get(auth.ClaimTenantID); ok {
		if s, ok := v.(string); ok {
			id.TenantID = types.TenantID(s)
		}
	}
	if v, ok := token.Get(auth.ClaimUsername); ok {
		if s, ok := v.(string); ok {
			id.Username = s
		}
	}
	if v, ok := token.Get(auth.ClaimRoles); ok {
		switch roles := v.(type) {
		case []any:
			for _, r := range roles {
				if s, ok := r.(string); ok {
					id.Roles = append(id.Roles, s)
				}
			}
		case []string:
			id.Roles = roles
		}
	}

	if err := id.Validate(); err != nil {
		return auth.Identity{}, err
	}
	return id, nil
}
