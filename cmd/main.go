package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	v1handlers "github.com/translatex/relay/internal/api/v1/handlers"
	v1mware "github.com/translatex/relay/internal/api/v1/middleware"
	"github.com/translatex/relay/internal/config"
	"github.com/translatex/relay/internal/services"
	"github.com/translatex/relay/pkg/logger"
)

const sweepInterval = 5 * time.Minute

func main() {
	fileErr := config.LoadFile(config.GetConfigFilePath())
	logger.Init(config.GetLogLevel(), config.GetLogFormat())
	if fileErr != nil {
		log.Fatal().Err(fileErr).Msg("Failed to load config file")
	}

	svc := services.InitializeServices(services.OptionsFromConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runSweeper(ctx, svc, config.GetConversationIdleTTL())

	port := config.GetPort()
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           setupRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().Str("port", port).Msg("Server starting")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Start shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
			if err := srv.Close(); err != nil {
				log.Error().Err(err).Msg("Forcing server close")
			}
		}
	}

	cancel()
	svc.Shutdown()
	log.Info().Msg("Server stopped")
}

// setupRouter builds the HTTP handler. The translate-path rewrite wraps the router
// so it applies before route matching.
func setupRouter(svc *services.Services) http.Handler {
	r := mux.NewRouter()
	v1handlers.RegisterRoutes(r, svc)
	return v1mware.RewriteTranslatePaths(r)
}

func runSweeper(ctx context.Context, svc *services.Services, maxIdle time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.Sweep(maxIdle)
			if n := v1mware.PruneRateLimiters(maxIdle); n > 0 {
				log.Debug().Int("pruned", n).Msg("Pruned idle rate limit buckets")
			}
		case <-ctx.Done():
			return
		}
	}
}
