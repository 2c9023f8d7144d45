package middleware

import (
	"context"
	"net/http"

	"github.com/bsi-games/bsi/internal/stub/api/apierr"
)

type contextKey string

const playerContextKey contextKey = "player"

// BearerValidator resolves an Authorization header value to a username
type BearerValidator interface {
	ValidateBearer(ctx context.Context, header string) (string, error)
}

// Auth creates authentication middleware.
// The header carries "<kind> <secret>" exactly as the token was issued.
func Auth(validator BearerValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			username, err := validator.ValidateBearer(r.Context(), header)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), playerContextKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPlayer returns the authenticated username from the request context
func GetPlayer(ctx context.Context) string {
	player, _ := ctx.Value(playerContextKey).(string)
	return player
}

// MustGetPlayer returns the authenticated username or panics
func MustGetPlayer(ctx context.Context) string {
	player := GetPlayer(ctx)
	if player == "" {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
