package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/charsheets/internal/api/apierr"
	"github.com/mcoot/charsheets/internal/api/handler"
	"github.com/mcoot/charsheets/internal/api/middleware"
	"github.com/mcoot/charsheets/internal/api/response"
	sharedmw "github.com/mcoot/charsheets/internal/middleware"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/services/sheet"
)

// PathPrefix is where the API is mounted
const PathPrefix = "/api/v1"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger       *slog.Logger
	AuthService  *auth.Service
	SheetService *sheet.Service
	Metrics      *sharedmw.Metrics // optional
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.AuthService)
	characterHandler := handler.NewCharacterHandler(cfg.SheetService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix(PathPrefix).Subrouter()
	api.Use(sharedmw.RequestID)
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)
	if cfg.Metrics != nil {
		api.Use(cfg.Metrics.Instrument)
	}

	// Health check and login (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/sessions/current", sessionHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/me", sessionHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/characters", characterHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/characters/{id}", characterHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/characters/{id}", characterHandler.Delete).Methods(http.MethodDelete)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
