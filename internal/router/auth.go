package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthConfig holds bearer-token verification parameters for mutating routes.
type AuthConfig struct {
	Secret string
	Issuer string
}

// AuthConfigFromEnv reads auth config from env vars. An empty secret
// disables the guard entirely.
func AuthConfigFromEnv() AuthConfig {
	return AuthConfig{
		Secret: os.Getenv("AUTH_JWT_SECRET"),
		Issuer: os.Getenv("AUTH_JWT_ISSUER"),
	}
}

// RequireAuth returns a middleware that validates HS256 bearer tokens. With
// no secret configured it is a pass-through so local setups stay open.
func RequireAuth(cfg AuthConfig, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.Secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				writeAuthError(w, "missing bearer token")
				return
			}
			token := strings.TrimSpace(header[len("bearer "):])
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
				return []byte(cfg.Secret), nil
			}, opts...)
			if err != nil {
				logger.Debugw("rejected bearer token", "err", err)
				writeAuthError(w, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
