package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/arafat-hossain/doctors-portal/libs/auth"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
)

// Identity is a verified caller identity. The only way to obtain one is from
// the context populated by Authenticated, so any code holding an Identity is
// downstream of token verification.
type Identity struct {
	Email string
}

type identityCtxKey struct{}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// RoleLookup resolves a verified email to its stored user record.
type RoleLookup interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// Authenticated verifies the bearer token and attaches the caller's Identity
// to the request context. A missing credential is 401; a credential that
// fails verification (malformed, expired, bad signature) is 403.
func Authenticated(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) == "" {
			http.Error(w, "unauthorized access", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.Verify(token, secret)
		if err != nil {
			http.Error(w, "forbidden access", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), identityCtxKey{}, Identity{Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly chains Authenticated before the role check, so an admin check can
// never run against an unverified caller. The role is read from the user
// store, not from the token: revoking admin takes effect on the next request.
func AdminOnly(secret string, users RoleLookup, next http.Handler) http.Handler {
	return Authenticated(secret, requireAdmin(users, next))
}

func requireAdmin(users RoleLookup, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			// Unreachable when wired through AdminOnly; fail closed regardless.
			http.Error(w, "forbidden access", http.StatusForbidden)
			return
		}

		user, err := users.GetByEmail(r.Context(), identity.Email)
		if err != nil || !user.IsAdmin() {
			http.Error(w, "forbidden access", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSelf enforces the identity-matching rule: an authenticated caller
// may only act on records keyed by their own email.
func requireSelf(identity Identity, email string) bool {
	return identity.Email == email
}
