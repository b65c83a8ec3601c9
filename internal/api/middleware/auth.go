package middleware

import (
	"context"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/condo-admin/backend/internal/auth"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (scope.Principal, error)
}

// AccountLookup loads the current state of the account a token was issued to.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's principal in the request context. The WebSocket handshake cannot
// set headers, so a token query parameter is also accepted.
//
// With a non-nil accounts lookup the principal's role and cedula are taken
// from the stored account, so deleted, deactivated or demoted users lose
// their access before the token expires.
func Authenticate(v TokenVerifier, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Missing bearer token")
				return
			}

			p, err := v.Verify(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Invalid or expired token")
				return
			}

			if accounts != nil {
				user, err := accounts.GetByID(r.Context(), p.ID)
				if err != nil {
					log.Printf("Failed to load account %s for %s %s: %v", p.ID, r.Method, r.URL.Path, err)
					WriteError(w, http.StatusInternalServerError, ErrInternalError, "An unexpected error occurred")
					return
				}
				if user == nil {
					WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Account no longer exists")
					return
				}
				if !user.CanSignIn() {
					WriteError(w, http.StatusForbidden, ErrForbidden, "Account is not active")
					return
				}
				p = scope.Principal{ID: user.ID, Role: user.Role, Cedula: user.Cedula}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireRoles lets through only principals holding one of roles.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, ErrUnauthorized, "Authentication required")
				return
			}
			if !slices.Contains(roles, p.Role) {
				WriteError(w, http.StatusForbidden, ErrForbidden, "Your role cannot access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds the request context. Handlers still write their own response
// when the deadline passes; the context only stops pending store calls.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
