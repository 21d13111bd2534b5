package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "bmi/internal/adapter/http"
	"bmi/internal/adapter/memory"
	"bmi/internal/adapter/postgres"
	"bmi/internal/adapter/sqlite"
	"bmi/internal/app"
	"bmi/internal/config"
	"bmi/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const (
	shutdownTimeout   = 10 * time.Second
	sessionPurgeEvery = time.Hour
	readHeaderTimeout = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the BMI tracking HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// store bundles the repositories of one backend.
type store struct {
	measurements domain.MeasurementRepository
	users        domain.UserRepository
	sessions     domain.SessionRepository
	closer       io.Closer
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch cfg.Store() {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &store{measurements: db, users: db, sessions: postgres.NewSessionRepo(db), closer: db}, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &store{measurements: db, users: db, sessions: sqlite.NewSessionRepo(db), closer: db}, nil
	default:
		db := memory.New()
		return &store{measurements: db, users: db, sessions: db.NewSessionRepo(), closer: io.NopCloser(nil)}, nil
	}
}

func oidcConfig(ctx context.Context, cfg config.OIDC) (adapthttp.OIDCConfig, error) {
	if !cfg.Enabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.closer.Close() }()
	slog.Info("storage ready", "backend", cfg.Store())

	authSvc := app.NewAuthService(st.users, st.sessions)
	srv := adapthttp.New(app.NewBMIService(st.measurements), app.NewTrendService(st.measurements), authSvc, cfg.WebDir)
	if cfg.DisableAuth {
		slog.Warn("authentication disabled")
		srv = srv.WithoutAuth()
	}
	oc, err := oidcConfig(ctx, cfg.OIDC)
	if err != nil {
		return err
	}
	srv = srv.WithOIDC(oc)

	go purgeSessions(ctx, authSvc)

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Addr, "sso", oc.Enabled)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func purgeSessions(ctx context.Context, auth *app.AuthService) {
	t := time.NewTicker(sessionPurgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := auth.PurgeExpired(ctx); err != nil {
				slog.Warn("purge expired sessions", "error", err)
			}
		}
	}
}
