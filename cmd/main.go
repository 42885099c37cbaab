package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	v1handlers "github.com/foliolabs/folio/internal/api/v1/handlers"
	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/logger"
	"github.com/foliolabs/folio/internal/services"
)

func main() {
	// .env is a local development convenience; deployed environments set
	// real variables.
	_ = godotenv.Load()

	logger.Setup()

	svcs, err := services.InitializeServices()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	router := mux.NewRouter()
	v1handlers.RegisterV1Routes(router, svcs)

	server := &http.Server{
		Addr:    config.GetServerAddr(),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
