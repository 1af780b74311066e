// Command secrets serves the secrets sharing site.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2/memstore"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/panyam/secrets"
	"github.com/panyam/secrets/config"
	"github.com/panyam/secrets/logging"
	"github.com/panyam/secrets/oauth2"
	"github.com/panyam/secrets/stores"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevLogging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := stores.Open(openCtx, cfg.StoreDSN)
	cancel()
	if err != nil {
		logger.Error("cannot open store", zap.Error(err))
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("error closing store", zap.Error(err))
		}
	}()

	sessions := secrets.NewSessions(memstore.New(), cfg.SessionLifetime, cfg.CookieSecure)
	app := secrets.NewApp(secrets.AppConfig{
		Store:    store,
		Sessions: sessions,
		Logger:   logger,
	})

	states := oauth2.NewStateSigner([]byte(cfg.StateSecret))
	if cfg.StateSecret == "" {
		logger.Warn("SECRETS_STATE_SECRET not set, oauth logins will not survive a restart")
	}
	if cfg.Google.Enabled() {
		g := oauth2.NewGoogleOAuth2(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.CallbackURL(secrets.ProviderGoogle), app.HandleOAuthUser)
		configureProvider(g.BaseOAuth2, states, cfg, logger)
		app.AddProvider(g)
	}
	if cfg.Facebook.Enabled() {
		f := oauth2.NewFacebookOAuth2(cfg.Facebook.ClientID, cfg.Facebook.ClientSecret, cfg.CallbackURL(secrets.ProviderFacebook), app.HandleOAuthUser)
		configureProvider(f.BaseOAuth2, states, cfg, logger)
		app.AddProvider(f)
	}

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: app.Handler(
			chimw.RequestID,
			chimw.RealIP,
			logging.RequestLogger(logger),
			chimw.Recoverer,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr), zap.Strings("providers", app.Providers()))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func configureProvider(b *oauth2.BaseOAuth2, states *oauth2.StateSigner, cfg *config.Config, logger *zap.Logger) {
	b.States = states
	b.SecureCookie = cfg.CookieSecure
	b.Logger = logger.Named(b.Name())
}
