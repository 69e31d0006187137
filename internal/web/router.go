package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	sharedmw "github.com/mcoot/charsheets/internal/middleware"
	"github.com/mcoot/charsheets/internal/services/auth"
	"github.com/mcoot/charsheets/internal/services/sheet"
	"github.com/mcoot/charsheets/internal/web/handler"
	"github.com/mcoot/charsheets/internal/web/middleware"
	"github.com/mcoot/charsheets/internal/web/static"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger       *slog.Logger
	AuthService  *auth.Service
	SheetService *sheet.Service
	Metrics      *sharedmw.Metrics // optional
	UploadDir    string            // portraits served under /uploads/ when set
	StaticDir    string            // overrides the embedded assets when set
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// Apply global middleware to all routes
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
	}

	// Create handlers
	homeHandler := handler.NewHomeHandler(cfg.AuthService, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	sheetHandler := handler.NewSheetHandler(cfg.SheetService, cfg.Logger)

	// Static files
	var staticFS http.FileSystem = http.FS(static.FS)
	if cfg.StaticDir != "" {
		staticFS = http.Dir(cfg.StaticDir)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(staticFS)))

	// Uploaded portraits
	if cfg.UploadDir != "" {
		uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.PathPrefix("/uploads/").Handler(uploads)
	}

	// Public routes (optional auth for showing the identity in nav)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/login/{id}", authHandler.SelectIdentity).Methods(http.MethodGet)
	public.HandleFunc("/login-mestre", authHandler.MasterLoginPage).Methods(http.MethodGet)
	public.HandleFunc("/login-mestre", authHandler.MasterLogin).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Protected routes (require auth)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)
	protected.HandleFunc("/dashboard", sheetHandler.Dashboard).Methods(http.MethodGet)
	protected.HandleFunc("/criar", sheetHandler.CreatePage).Methods(http.MethodGet)
	protected.HandleFunc("/criar", sheetHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/visualizar/{id}", sheetHandler.View).Methods(http.MethodGet)
	protected.HandleFunc("/excluir/{id}", sheetHandler.Delete).Methods(http.MethodPost)

	r.NotFoundHandler = loggingMiddleware(http.HandlerFunc(homeHandler.NotFound))

	return r
}
