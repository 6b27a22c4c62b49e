package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/lms-server/internal/apperror"
	"github.com/sakif/lms-server/internal/repository"
)

// TokenCookieName is the cookie browsers send the JWT back in. The handler
// sets it on login/register; extractToken falls back to it when no
// Authorization header is present.
const TokenCookieName = "token"

// Principal is the normalized identity attached to the request context after
// a token has been verified and the account loaded. This is the ONLY place
// identity is established — downstream handlers trust the Principal without
// re-verifying the token, and the password hash never travels with it.
type Principal struct {
	UserID string
	Role   string
	Email  string
}

// contextKey is an unexported type for context keys in this package. Using a
// package-private type prevents other packages from reading or shadowing the
// value with a colliding plain-string key.
type contextKey struct{}

// ContextWithPrincipal stores the principal in context. Exported for handler
// tests that need to simulate an authenticated request.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext retrieves the authenticated identity from the request
// context. Returns (Principal{}, false) if the request is anonymous.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && p.UserID != ""
}

// RequireAuth enforces authentication on protected routes.
//
// It extracts a candidate token — "Authorization: Bearer <token>" header
// first, then the "token" HttpOnly cookie — verifies it, loads the account,
// and stores a Principal in the request context. Failure responses:
//
//	no credential at all      → 401 "No token, authorization denied"
//	verification failed       → 401 "Token is not valid"
//	no subject in the payload → 401 "Token payload invalid"
//	account no longer exists  → 401 "User not found"
//	storage unreachable       → 500, generic body, detail logged only
//
// The store is never touched unless a token was presented and verified.
func RequireAuth(tokens *TokenService, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				writeAuthError(w, apperror.Unauthenticated("No token, authorization denied"))
				return
			}

			identity, err := tokens.Verify(tokenStr)
			if err != nil {
				if errors.Is(err, ErrTokenNoSubject) {
					writeAuthError(w, apperror.Unauthenticated("Token payload invalid"))
					return
				}
				writeAuthError(w, apperror.Unauthenticated("Token is not valid"))
				return
			}

			user, err := users.GetUserByID(r.Context(), identity.UserID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					writeAuthError(w, apperror.Unauthenticated("User not found"))
					return
				}
				// Never leak the underlying failure to the caller.
				logger.Error("auth middleware: loading user",
					slog.String("userID", identity.UserID),
					slog.String("error", err.Error()),
				)
				writeAuthError(w, apperror.Internal(err))
				return
			}

			p := Principal{
				UserID: user.ID,
				Role:   user.Role,
				Email:  user.Email,
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole gates a route on the principal's role. Must be mounted after
// RequireAuth. The role recorded in the database wins over whatever the
// token claimed.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, apperror.Unauthenticated("No token, authorization denied"))
				return
			}
			if p.Role != role {
				writeAuthError(w, apperror.Forbidden("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken returns the candidate token string, or "" if the request
// carries no credential. Header takes precedence over the cookie.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// writeAuthError emits the standard error envelope without depending on the
// handler package (which imports this one). The sentinel inside the AppError
// picks the status; anything outside the gate's taxonomy is a 500.
func writeAuthError(w http.ResponseWriter, err *apperror.AppError) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // headers already sent, nothing left to do
	json.NewEncoder(w).Encode(map[string]string{"message": err.Message})
}
