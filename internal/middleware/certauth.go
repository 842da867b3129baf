// Package middleware provides HTTP middlewares for owner identification and
// request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/models"
)

type ctxKey string

const ownerKey ctxKey = "owner"

// OwnerAuth resolves the owner of every request.
//
// A verified client certificate wins: its Common Name becomes the owner ID.
// Without a certificate the X-Owner-ID header is accepted only when
// allowHeader is set, which is meant for local development. Requests with
// neither are rejected with 401.
func OwnerAuth(allowHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := ""
			if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
				owner = r.TLS.PeerCertificates[0].Subject.CommonName
			} else if allowHeader {
				owner = strings.TrimSpace(r.Header.Get(models.OwnerHeader))
			}
			if owner == "" {
				http.Error(w, "no owner identity provided", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ownerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOwnerIDFromContext returns the owner stored by OwnerAuth, or an empty
// string if not found.
func GetOwnerIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ownerKey).(string); ok {
		return s
	}
	return ""
}

// WithOwner returns a copy of ctx carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}
