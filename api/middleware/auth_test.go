package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/swayaa-dev/storefront-backend/pkg/auth"
	"github.com/swayaa-dev/storefront-backend/pkg/config"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
)

var authTestJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "swayaa",
	ExpirationMinutes: 15,
}

type fakeSessionChecker struct {
	sessions map[string]bool
	err      error
}

func (f *fakeSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.sessions[accessID], nil
}

func mintToken(t *testing.T, userID uuid.UUID, role enums.Role, jti string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(authTestJWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthSeedsContextFromValidToken(t *testing.T) {
	userID := uuid.New()
	checker := &fakeSessionChecker{sessions: map[string]bool{"jti-1": true}}

	var gotUserID, gotRole, gotAccessID string
	handler := Auth(authTestJWT, checker, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotAccessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(mintToken(t, userID, enums.RoleCustomer, "jti-1")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", rec.Code, rec.Body.String())
	}
	if gotUserID != userID.String() {
		t.Fatalf("unexpected user id %q", gotUserID)
	}
	if gotRole != string(enums.RoleCustomer) {
		t.Fatalf("unexpected role %q", gotRole)
	}
	if gotAccessID != "jti-1" {
		t.Fatalf("unexpected access id %q", gotAccessID)
	}
}

func TestAuthRejectsMissingOrMalformedCredentials(t *testing.T) {
	handler := Auth(authTestJWT, nil, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	foreign := config.JWTConfig{Secret: "other-secret", Issuer: "swayaa", ExpirationMinutes: 15}
	token, err := pkgauth.MintAccessToken(foreign, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := Auth(authTestJWT, nil, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	checker := &fakeSessionChecker{sessions: map[string]bool{}}

	handler := Auth(authTestJWT, checker, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(mintToken(t, uuid.New(), enums.RoleCustomer, "revoked-jti")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", rec.Code)
	}
}

func TestAuthSurfacesSessionStoreFailure(t *testing.T) {
	checker := &fakeSessionChecker{err: errors.New("redis down")}

	handler := Auth(authTestJWT, checker, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(mintToken(t, uuid.New(), enums.RoleCustomer, "jti-1")))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the session store fails, got %d", rec.Code)
	}
}

func TestRequireRoleBlocksNonAdmins(t *testing.T) {
	handler := RequireRole(string(enums.RoleAdmin), testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), string(enums.RoleCustomer))))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), string(enums.RoleAdmin))))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}
