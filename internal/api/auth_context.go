package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/recipebox/recipebox-server/internal/auth"
	domainerrors "github.com/recipebox/recipebox-server/internal/errors"
	"github.com/recipebox/recipebox-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	// userIDKey is the context key for the authenticated user ID.
	userIDKey ctxKey = "userID"
	// claimsKey holds the verified token claims, used by logout.
	claimsKey ctxKey = "claims"
	// authErrKey holds why a presented token was rejected.
	authErrKey ctxKey = "authError"
)

const msgNoCredentials = "authentication credentials were not provided"

// tokenSchemes are the accepted Authorization header prefixes. "Token" is
// what older clients send.
var tokenSchemes = []string{"Bearer ", "Token "}

// GetUserID returns the authenticated user ID from context.
// Returns a 401 error if the user is not authenticated, carrying the reason
// the token was rejected when one was presented.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		if err, ok := ctx.Value(authErrKey).(error); ok {
			return "", err
		}
		return "", domainerrors.Unauthorized(msgNoCredentials)
	}
	return userID, nil
}

// getClaims returns the verified claims of the request token.
func getClaims(ctx context.Context) (*auth.Claims, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok {
		return nil, domainerrors.Unauthorized(msgNoCredentials)
	}
	return claims, nil
}

// setAuth stores the authenticated identity in context.
func setAuth(ctx context.Context, userID string, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, claimsKey, claims)
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(header string) (string, bool) {
	for _, scheme := range tokenSchemes {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):]), true
		}
	}
	return "", false
}

// authMiddleware returns a middleware that validates tokens and stores the
// user in context. Requests without a usable token continue anonymously;
// handlers use GetUserID to reject them.
func authMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				ctx := context.WithValue(r.Context(), authErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(setAuth(r.Context(), user.ID, claims)))
		})
	}
}
