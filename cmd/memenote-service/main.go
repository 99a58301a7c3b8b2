package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acelee0621/memenote/internal/api"
	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/config"
	"github.com/acelee0621/memenote/internal/gateway/sse"
	"github.com/acelee0621/memenote/internal/gateway/ws"
	"github.com/acelee0621/memenote/internal/health"
	"github.com/acelee0621/memenote/internal/logger"
	"github.com/acelee0621/memenote/internal/scheduler"
	"github.com/acelee0621/memenote/internal/service"
	"github.com/acelee0621/memenote/internal/store"
	"github.com/acelee0621/memenote/internal/store/postgres"
	"github.com/acelee0621/memenote/internal/store/sqlite"
	"github.com/acelee0621/memenote/internal/trigger"
)

func main() {
	log := logger.New("memenote-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Memenote service starting")

	// -------- Storage layer -----------------
	var db *sql.DB
	var st store.Store
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Postgres unavailable")
		}
		st = postgres.NewWithDB(db)
	default:
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("SQLite unavailable")
		}
		st = sqlite.NewWithDB(db)
	}
	defer db.Close()

	// -------- Notification pipeline ---------
	b := bus.New(cfg.BusBuffer, log)
	dispatcher := scheduler.NewDispatcher(b, log)

	recorder := trigger.NewRecorder(st, b, log)
	if err := recorder.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Trigger recorder failed to start")
	}

	svc := service.NewReminderService(st, dispatcher, log)
	hub := ws.NewHub(b, ws.NewRegistry(), log)
	stream := sse.NewHandler(b, cfg.SSEPollWait, log)

	// -------- Health monitor ---------------
	pinger, _ := st.(health.HealthPinger)
	storeChecker := health.NewPingChecker("store", pinger, 5*time.Second, log)
	monitor := health.NewServiceHealthChecker(log, storeChecker)
	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	defer monitorCancel()
	go storeChecker.Start(monitorCtx, 30*time.Second)
	go monitor.Start(monitorCtx, 30*time.Second)

	// -------- Router & Server --------------
	router := api.NewRouter(svc, hub, stream, pinger, monitor)
	server := &http.Server{
		Addr:        cfg.GetHTTPAddr(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /notifications/stream holds the response open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	dispatcher.Stop()
	recorder.Stop()
	b.Close()
	log.Info().Msg("Server exited")
}
