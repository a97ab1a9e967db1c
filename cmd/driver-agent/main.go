package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ride-agent/internal/agent"
	"github.com/example/ride-agent/internal/api"
	"github.com/example/ride-agent/internal/config"
	"github.com/example/ride-agent/internal/journal"
	"github.com/example/ride-agent/internal/logging"
	"github.com/example/ride-agent/internal/session"
	"github.com/example/ride-agent/internal/transport"
)

func main() {
	cfg, err := config.LoadAgentConfig()
	if err != nil {
		logging.NewLogger("error").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	var store session.Store
	if cfg.RedisAddr != "" {
		store = session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionKey)
	} else {
		store = session.NewFileStore(cfg.CredentialsFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// a 401 mid-run means the stored token is gone for good; stop and let
	// the next start log in again
	client := transport.NewClient(cfg.APIBaseURL, store, logger,
		transport.WithTimeout(cfg.HTTPTimeout),
		transport.OnAuthExpired(func() {
			logger.Error("session expired, shutting down")
			stop()
		}))

	creds, err := store.Load()
	if err != nil {
		logger.Error("could not load session", "error", err)
		os.Exit(1)
	}
	if creds.Empty() {
		if cfg.Email == "" || cfg.Password == "" {
			logger.Error("no stored session and RIDE_EMAIL/RIDE_PASSWORD not set")
			os.Exit(1)
		}
		resp, err := api.NewAuth(client).Login(ctx, api.LoginRequest{
			Email: cfg.Email, Password: cfg.Password,
		})
		if err != nil {
			logger.Error("login failed", "error", err)
			os.Exit(1)
		}
		creds = session.Credentials{
			AccessToken: resp.AccessToken, UserID: resp.UserID, Role: resp.Role,
		}
		if err := store.Save(creds); err != nil {
			logger.Error("could not persist session", "error", err)
			os.Exit(1)
		}
		logger.Info("logged in", "user_id", resp.UserID, "role", resp.Role)
	}

	var rec *journal.Recorder
	if len(cfg.KafkaBrokers) > 0 {
		rec = journal.New(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer rec.Close()
	}

	a := agent.New(cfg, creds.UserID, client, rec, logger)

	srv := agent.NewDebugServer(cfg.MetricsAddr, logger, a.Status)
	go func() {
		logger.Info("debug server listening", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("debug server stopped", "error", err)
		}
	}()
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shCtx)
	}()

	logger.Info("driver agent starting", "api", cfg.APIBaseURL, "ws", cfg.WSURL)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("agent stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("driver agent stopped")
}
