package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func signToken(t *testing.T, secret, issuer string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireAuthDisabledWithoutSecret(t *testing.T) {
	guard := RequireAuth(AuthConfig{}, zap.NewNop().Sugar())

	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user", nil))

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	guard := RequireAuth(AuthConfig{Secret: "s3cret"}, zap.NewNop().Sugar())

	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "missing bearer token")
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	guard := RequireAuth(AuthConfig{Secret: "s3cret"}, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", ""))
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	cfg := AuthConfig{Secret: "s3cret", Issuer: "user-directory"}
	guard := RequireAuth(cfg, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, cfg.Issuer))
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuthEnforcesIssuer(t *testing.T) {
	cfg := AuthConfig{Secret: "s3cret", Issuer: "user-directory"}
	guard := RequireAuth(cfg, zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/user", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, "someone-else"))
	rr := httptest.NewRecorder()
	guard(okHandler()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
