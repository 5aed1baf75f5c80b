package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aegisfield/fieldops/internal/ai"
	"github.com/aegisfield/fieldops/internal/infra"
	"github.com/aegisfield/fieldops/internal/server"
	"github.com/aegisfield/fieldops/internal/store"
	filestore "github.com/aegisfield/fieldops/internal/store/file"
	"github.com/aegisfield/fieldops/internal/store/postgres"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Store: PostgreSQL when a database URL is configured, the file-backed
	// store otherwise.
	var st store.Store
	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		st = postgres.New(pool)
		logger.Info().Msg("using postgres store")
	} else {
		fs, err := filestore.New(cfg.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open file store")
		}
		st = fs
		logger.Info().Str("dir", cfg.DataDir).Msg("using file store")
	}

	// AI collaborator: the static one keeps development working offline.
	var collaborator ai.Collaborator
	if cfg.OpenAIAPIKey != "" {
		collaborator = ai.NewOpenAIClient(ai.OpenAIOptions{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
		})
	} else {
		collaborator = &ai.Static{}
		logger.Warn().Msg("OPENAI_API_KEY not set, using static AI collaborator")
	}

	app := server.NewApp(st, collaborator, cfg.OrganisationID, logger)
	router := server.NewRouter(app, nil)

	srv := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
