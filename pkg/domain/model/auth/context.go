package auth

import "context"

type contextKey struct{}

// WithIdentity stores the resolved identity in ctx. Case operations still take
// the identity as an explicit argument; the context copy serves logging and policy.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Context is the input of the HTTP authorization policy.
type Context struct {
	Identity *Identity   `json:"identity"`
	Req      HTTPRequest `json:"req"`
}

type HTTPRequest struct {
	Method string              `json:"method"`
	Path   string              `json:"path"`
	Header map[string][]string `json:"header" masq:"secret"`
}
