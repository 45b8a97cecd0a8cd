package middleware

import (
	"context"
	"net/http"
	"strings"

	"empdir/internal/domain/auth"
	"empdir/internal/platform/logger"
	"empdir/internal/transport/http/api"
)

type ctxKey string

const ctxKeyClient ctxKey = "client"

type Client struct {
	ClientID string
	Scope    string
}

// Auth resolves a bearer token into a Client on the context. Requests
// without a token pass through anonymously; a malformed or invalid token is
// rejected. With an empty secret authentication is switched off entirely.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if secret == "" || authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "malformed authorization header", GetRequestID(r.Context()))
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				logger.FromContext(r.Context()).Debug().Err(err).Msg("bearer token rejected")
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token", GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClient, Client{
				ClientID: claims.ClientID,
				Scope:    claims.Scope,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClient(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(ctxKeyClient).(Client)
	return client, ok
}

// RequireScope rejects anonymous callers and callers whose token lacks scope.
// It is a no-op when enforce is false, which is how open deployments without
// a JWT secret behave.
func RequireScope(scope string, enforce bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := GetClient(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			if !hasScope(client.Scope, scope) {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient scope", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasScope(granted, want string) bool {
	for _, s := range strings.Fields(granted) {
		if s == want {
			return true
		}
	}
	return false
}
