package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bsi-games/bsi/internal/middleware"
	"github.com/bsi-games/bsi/internal/stub/api/handler"
	apimw "github.com/bsi-games/bsi/internal/stub/api/middleware"
	"github.com/bsi-games/bsi/internal/stub/hub"
	"github.com/bsi-games/bsi/internal/stub/services/auth"
	"github.com/bsi-games/bsi/internal/stub/services/games"
	"github.com/bsi-games/bsi/internal/stub/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController *games.Controller
	RosterService  *roster.Service
	Hub            *hub.Hub
}

// NewRouter creates the stand-in service router: the authorization server
// under /auth, the game service under /api and the push endpoint at /
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	var notifier handler.Notifier
	if cfg.Hub != nil {
		notifier = cfg.Hub
	}

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	gameHandler := handler.NewGameHandler(cfg.GameController, notifier, cfg.Logger)
	rosterHandler := handler.NewRosterHandler(cfg.RosterService, notifier, cfg.Logger)

	// Create middleware
	authMiddleware := apimw.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimw.Recovery(cfg.Logger)

	// Authorization server routes (form-encoded, no bearer)
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.Use(recoveryMiddleware)
	authRoutes.Use(loggingMiddleware)
	authRoutes.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/token", authHandler.Token).Methods(http.MethodPost)
	authRoutes.HandleFunc("/token/revoke", authHandler.Revoke).Methods(http.MethodDelete)
	authRoutes.HandleFunc("/token/introspect", authHandler.Introspect).Methods(http.MethodPost)

	// Game service routes (all require a bearer token)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(authMiddleware)

	othello := api.PathPrefix("/games/othello").Subrouter()
	othello.HandleFunc("/", gameHandler.List).Methods(http.MethodGet)
	othello.HandleFunc("/", gameHandler.Create).Methods(http.MethodPost)
	othello.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	othello.HandleFunc("/{id}/move/", gameHandler.Move).Methods(http.MethodPost)

	api.HandleFunc("/roster", rosterHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/roster", rosterHandler.Upsert).Methods(http.MethodPost)
	api.HandleFunc("/roster/presence", rosterHandler.Presence).Methods(http.MethodPost)

	// Operational endpoints (no auth)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Push channel; authorization happens in-band
	if cfg.Hub != nil {
		r.HandleFunc("/", cfg.Hub.ServeWS(cfg.AuthService)).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
