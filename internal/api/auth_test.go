package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "user_id": id.UserID, "role": id.Role})
}

func TestAuthenticator_Wrap(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret-0123456789", "slotbook", time.Hour)
	handler := NewAuthenticator(tokens).Wrap(http.HandlerFunc(echoIdentity))

	valid, _, err := tokens.Issue(domain.Identity{UserID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)
	other := auth.NewTokenManager("another-secret-0123456789", "slotbook", time.Hour)
	forged, _, err := other.Issue(domain.Identity{UserID: 9, Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"Anonymous", "", http.StatusOK},
		{"Valid", "Bearer " + valid, http.StatusOK},
		{"WrongScheme", "Basic abc", http.StatusUnauthorized},
		{"Forged", "Bearer " + forged, http.StatusUnauthorized},
		{"Garbage", "Bearer x.y.z", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	run := func(h http.HandlerFunc, id *domain.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if id != nil {
			req = req.WithContext(domain.WithIdentity(req.Context(), *id))
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec.Code
	}

	user := &domain.Identity{UserID: 1, Role: models.RoleUser}
	admin := &domain.Identity{UserID: 2, Role: models.RoleAdmin}

	assert.Equal(t, http.StatusUnauthorized, run(requireUser(ok), nil))
	assert.Equal(t, http.StatusOK, run(requireUser(ok), user))
	assert.Equal(t, http.StatusUnauthorized, run(requireAdmin(ok), nil))
	assert.Equal(t, http.StatusForbidden, run(requireAdmin(ok), user))
	assert.Equal(t, http.StatusOK, run(requireAdmin(ok), admin))
}
