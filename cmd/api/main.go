package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GearUpToFit/internal/config"
	"GearUpToFit/internal/geminiservice"
	"GearUpToFit/internal/server"
	"GearUpToFit/internal/session"
	"GearUpToFit/internal/utility"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not load configuration")
	}

	logger := newLogger(cfg)
	log.Logger = logger

	if cfg.Session.Secret == "" {
		secret, err := utility.GenerateSecureToken(32)
		if err != nil {
			log.Fatal().Err(err).Msg("Fatal error: could not generate session secret")
		}
		cfg.Session.Secret = secret
		log.Warn().Msg("SESSION_SECRET not set, sessions will not survive a restart")
	}

	ai, err := geminiservice.NewClient(cfg.Gemini, nil, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not initialize the Gemini client")
	}

	store := session.NewStore(cfg.Session.Capacity, cfg.Session.TTL)
	apiServer := server.NewServer(cfg, ai, store)

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, grpCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", apiServer.Addr).Str("model", ai.Model()).Msg("Server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-grpCtx.Done()
		log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
		stop() // Allow Ctrl+C to force shutdown

		// The server has 5 seconds to finish the requests it is currently handling.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("http server error")
	}
	log.Info().Msg("Graceful shutdown complete.")
}
