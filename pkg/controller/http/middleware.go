package http

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/auth"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/domain/types"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"github.com/secmon-lab/amlcase/pkg/utils/metrics"
)

const (
	headerTenantID = "X-Tenant-Id"
	headerUserID   = "X-User-Id"
	headerRoles    = "X-Roles"
)

// getDetailedStackTrace returns a detailed stack trace with function names and line numbers
func getDetailedStackTrace() string {
	var buf strings.Builder
	buf.WriteString("Detailed Stack Trace:\n")

	callers := make([]uintptr, 64)
	n := runtime.Callers(3, callers)
	frames := runtime.CallersFrames(callers[:n])

	for {
		frame, more := frames.Next()
		buf.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}

	return buf.String()
}

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				panicErr := goerr.New("panic recovered",
					goerr.V("panic", fmt.Sprintf("%v", err)),
					goerr.V("debug_stack", string(debug.Stack())),
					goerr.V("detailed_stack", getDetailedStackTrace()),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
				)

				handleError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware counts requests by chi route pattern so path parameters
// do not blow up label cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusResponseWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// authenticate resolves the acting identity. A bearer token wins over the
// X-Tenant-Id/X-User-Id/X-Roles headers. Without either, the demo identity is
// used only when authentication is disabled.
func authenticate(uc AuthUseCases, noAuthentication bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, found, err := identityFromRequest(r, uc)
			if err != nil {
				handleError(w, r, err)
				return
			}

			if !found {
				if !noAuthentication {
					handleError(w, r, goerr.New("authentication required", goerr.T(errs.TagUnauthorized)))
					return
				}
				id = auth.Anonymous()
				logging.From(ctx).Debug("no credentials, using demo identity")
			}

			ctx = logging.WithAttrs(auth.WithIdentity(ctx, id), "tenant_id", id.TenantID, "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromRequest(r *http.Request, uc AuthUseCases) (auth.Identity, bool, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return auth.Identity{}, false, goerr.New("invalid Authorization header format", goerr.T(errs.TagUnauthorized))
		}

		id, err := uc.VerifyToken(r.Context(), strings.TrimSpace(token))
		if err != nil {
			return auth.Identity{}, false, err
		}
		return id, true, nil
	}

	tenantID := r.Header.Get(headerTenantID)
	userID := r.Header.Get(headerUserID)
	if tenantID == "" && userID == "" {
		return auth.Identity{}, false, nil
	}

	id := auth.Identity{
		TenantID: types.TenantID(strings.TrimSpace(tenantID)),
		UserID:   types.UserID(strings.TrimSpace(userID)),
		Roles:    []string{},
	}
	for _, role := range strings.Split(r.Header.Get(headerRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			id.Roles = append(id.Roles, role)
		}
	}
	if err := id.Validate(); err != nil {
		return auth.Identity{}, false, err
	}
	return id, true, nil
}

func authorizeWithPolicy(policy interfaces.PolicyClient, noAuthorization bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if noAuthorization {
				logging.From(r.Context()).Debug("authorization check bypassed due to --no-authorization flag")
				next.ServeHTTP(w, r)
				return
			}

			if policy == nil {
				next.ServeHTTP(w, r)
				return
			}

			var result struct {
				Allow bool `json:"allow"`
			}

			ctx := r.Context()
			authCtx := auth.Context{
				Req: auth.HTTPRequest{
					Method: r.Method,
					Path:   r.URL.Path,
					Header: r.Header.Clone(),
				},
			}
			if id, ok := auth.IdentityFrom(ctx); ok {
				authCtx.Identity = &id
			}

			if err := policy.Query(ctx, "data.auth.http", authCtx, &result); err != nil {
				handleError(w, r, goerr.Wrap(err, "failed to authorize request"))
				return
			}

			logging.From(ctx).Debug("authorization result", "input", authCtx, "output", result)

			if !result.Allow {
				logging.From(ctx).Warn("authorization failed", "auth", authCtx)
				handleError(w, r, goerr.New("Authorization failed. Check your policy.", goerr.T(errs.TagForbidden)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
