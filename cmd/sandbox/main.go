package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gatewaylabs/payconsole/internal/config"
	"github.com/gatewaylabs/payconsole/internal/sandbox"
	"github.com/gatewaylabs/payconsole/internal/sandbox/store"
)

// main is the entrypoint for the local sandbox backend.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Sandbox.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}

	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting payconsole sandbox")

	st, err := store.Open(cfg.Sandbox.DBPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Sandbox.DBPath).Msg("failed to open sandbox database")
		os.Exit(1)
	}
	defer st.Close()

	if err := sandbox.Seed(st, cfg.Env); err != nil {
		log.Error().Err(err).Msg("failed to seed sandbox data")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Sandbox.Port,
		Handler: sandbox.New(st, []byte(cfg.Sandbox.JWTSecret), cfg.Sandbox.TokenTTL).Router(cfg.Env),
	}

	go func() {
		log.Info().Str("port", cfg.Sandbox.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
