package adapthttp

import (
	"log/slog"
	"net/http"

	"bmi/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig carries the SSO provider and OAuth2 client settings.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	bmi         *app.BMIService
	trends      *app.TrendService
	authSvc     *app.AuthService
	oidcConfig  OIDCConfig
	webDir      string
	disableAuth bool
	logger      *slog.Logger
	metrics     *metrics
}

// New creates a Server wired to the given application services.
func New(bs *app.BMIService, ts *app.TrendService, as *app.AuthService, webDir string) *Server {
	return &Server{
		bmi:     bs,
		trends:  ts,
		authSvc: as,
		webDir:  webDir,
		logger:  slog.Default(),
		metrics: newMetrics(),
	}
}

// WithOIDC enables single sign-on through the given provider.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithoutAuth disables session checks. Requests run as the "local" user.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithLogger replaces the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	s.public(api, "/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	s.public(api, "/config", s.handleConfig)
	s.public(api, "/bmi", s.handleCalculate)

	s.public(api, "/auth/login", s.handleLogin)
	s.public(api, "/auth/logout", s.handleLogout)
	s.public(api, "/auth/setup", s.handleSetupUser)
	s.public(api, "/auth/sso/login", s.handleSSOLogin)
	s.public(api, "/auth/sso/callback", s.handleSSOCallback)

	s.private(api, "/bmi/today", s.handleBMIToday)
	s.private(api, "/bmi/recent", s.handleBMIRecent)
	s.private(api, "/bmi/undo-last", s.handleBMIUndoLast)
	s.private(api, "/charts/daily", s.handleChartsDaily)
	s.private(api, "/account", s.handleDeleteAccount)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/metrics", s.metrics.handler())
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) public(mux *http.ServeMux, route string, h http.HandlerFunc) {
	mux.Handle(route, s.metrics.instrument(route, h))
}

func (s *Server) private(mux *http.ServeMux, route string, h http.HandlerFunc) {
	mux.Handle(route, s.metrics.instrument(route, s.authMiddleware(h)))
}
