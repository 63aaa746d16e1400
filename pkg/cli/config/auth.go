package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const minJWTSecretLength = 32

// Auth configures password login and token signing.
type Auth struct {
	jwtSecret     string `masq:"secret"`
	loginPassword string `masq:"secret"`
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 signing key for access tokens (at least 32 bytes)",
			Category:    "Auth",
			Destination: &x.jwtSecret,
			Sources:     cli.EnvVars("AMLCASE_JWT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "login-password",
			Usage:       "Shared password accepted by /api/auth/login",
			Category:    "Auth",
			Destination: &x.loginPassword,
			Sources:     cli.EnvVars("AMLCASE_LOGIN_PASSWORD"),
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("jwt-secret.len", len(x.jwtSecret)),
		slog.Bool("login", x.loginPassword != ""),
	)
}

func (x *Auth) IsConfigured() bool {
	return x.jwtSecret != "" && x.loginPassword != ""
}

// Options returns the login option, or none when login is not configured.
func (x *Auth) Options() ([]usecase.Option, error) {
	if x.jwtSecret == "" && x.loginPassword == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.New("both jwt-secret and login-password are required to enable login")
	}
	if len(x.jwtSecret) < minJWTSecretLength {
		return nil, goerr.New("jwt-secret is too short",
			goerr.V("length", len(x.jwtSecret)),
			goerr.V("min", minJWTSecretLength))
	}

	return []usecase.Option{usecase.WithLogin([]byte(x.jwtSecret), x.loginPassword)}, nil
}
