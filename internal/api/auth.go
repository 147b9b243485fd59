package api

import (
	"net/http"
	"strings"

	"slotbook/internal/auth"
	"slotbook/internal/domain"
)

// Authenticator turns bearer tokens into a domain.Identity on the request
// context.
type Authenticator struct {
	tokens *auth.TokenManager
}

func NewAuthenticator(tokens *auth.TokenManager) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Wrap attaches the caller identity when an Authorization header is present.
// Requests without one pass through anonymous; a bad token is rejected.
func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := strings.TrimSpace(r.Header.Get("Authorization"))
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
		id, err := a.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
		if err != nil {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
	})
}

// requireUser rejects anonymous callers.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := domain.IdentityFrom(r.Context()); !ok {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

// requireAdmin rejects callers without the admin role.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := domain.IdentityFrom(r.Context())
		if !ok {
			writeError(w, r, domain.ErrUnauthorized)
			return
		}
		if !id.IsAdmin() {
			writeError(w, r, domain.ErrForbidden)
			return
		}
		next(w, r)
	}
}

// identity returns the caller set by requireUser/requireAdmin.
func identity(r *http.Request) domain.Identity {
	id, _ := domain.IdentityFrom(r.Context())
	return id
}
