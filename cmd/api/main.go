package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/orchestraops/planning-service/api/routes"
	concertsvc "github.com/orchestraops/planning-service/internal/concerts"
	rehearsalsvc "github.com/orchestraops/planning-service/internal/rehearsals"
	"github.com/orchestraops/planning-service/pkg/config"
	"github.com/orchestraops/planning-service/pkg/db"
	"github.com/orchestraops/planning-service/pkg/logger"
	"github.com/orchestraops/planning-service/pkg/migrate"
	"github.com/orchestraops/planning-service/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	emitter := outbox.NewService(logg)

	concertService, err := concertsvc.NewService(concertsvc.NewRepository(dbClient.DB()), dbClient, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create concert service", err)
		os.Exit(1)
	}

	rehearsalService, err := rehearsalsvc.NewService(rehearsalsvc.NewRepository(dbClient.DB()), dbClient, emitter, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create rehearsal service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Concerts:   concertService,
			Rehearsals: rehearsalService,
			DLQ:        outbox.NewDLQRepository(dbClient.DB()),
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
