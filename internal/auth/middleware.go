package auth

import (
	"net/http"
	"strings"

	"github.com/academe-hq/academe/internal/platform/httpx"
	"github.com/academe-hq/academe/internal/rbac"
	"github.com/academe-hq/academe/internal/shared"
)

// Middleware authenticates requests and attaches the resolved AuthContext.
type Middleware struct {
	adapter  Adapter
	resolver *Resolver
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(adapter Adapter, resolver *Resolver) *Middleware {
	return &Middleware{adapter: adapter, resolver: resolver}
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller's AuthContext into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.RespondError(w, shared.Unauthorized("authentication required"))
			return
		}

		authID, err := m.adapter.VerifyToken(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}

		authCtx, err := m.resolver.Resolve(r.Context(), authID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(rbac.WithContext(r.Context(), authCtx)))
	})
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the legacy bare token header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.Header.Get("token"))
}
