package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bsi-games/bsi/internal/middleware"
	"github.com/bsi-games/bsi/internal/stub/api/apierr"
)

var errStorage = errors.New("game storage failed")

// Recovery answers panics under the game routes the way the game service
// reports storage failures, and everything else with the generic JSON error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		if strings.HasPrefix(r.URL.Path, "/api/games/") {
			apierr.WriteGameError(w, errStorage)
			return
		}
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
