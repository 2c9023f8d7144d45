package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/bsi-games/bsi/internal/metrics"
)

// PanicHandler writes the response for a request whose handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery turns handler panics into a response written by onPanic.
// Every recovered panic is logged with its stack and counted per route.
func Recovery(logger *slog.Logger, onPanic PanicHandler) func(http.Handler) http.Handler {
	if onPanic == nil {
		onPanic = DefaultPanicHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				route := routeOf(r)
				metrics.StubPanics.WithLabelValues(route).Inc()
				logger.Error("handler panicked",
					slog.Any("panic", rec),
					slog.String("route", route),
					slog.String("method", r.Method),
					slog.String("stack", string(debug.Stack())),
				)
				onPanic(w, r, rec)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultPanicHandler answers with a plain 500
func DefaultPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
