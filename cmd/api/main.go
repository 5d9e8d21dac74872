package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contract-backend/internal/bootstrap"
	"contract-backend/internal/jobs"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/server"
	"contract-backend/internal/shared/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without an external queue the API drains tasks itself, so a single
	// process serves the full pipeline in development.
	if app.LocalQueue != nil {
		for i := 0; i < max(1, cfg.WorkerCount); i++ {
			go drainLocalQueue(ctx, app)
		}
		log.Printf("local task workers started count=%d", max(1, cfg.WorkerCount))
	}

	srv := &http.Server{
		Addr:    server.Addr(cfg.Port),
		Handler: app.Router,
	}

	go func() {
		log.Printf("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func drainLocalQueue(ctx context.Context, app *bootstrap.App) {
	for {
		msg, err := app.LocalQueue.Receive(ctx)
		if err != nil {
			return
		}
		taskCtx := jobs.WithRequestID(ctx, msg.RequestID)
		if err := app.TaskProcessor.ProcessTask(taskCtx, msg.TaskID); err != nil {
			telemetry.Error("worker.task.failed", map[string]any{
				"task_id":    msg.TaskID,
				"request_id": msg.RequestID,
				"error":      err.Error(),
			})
		}
	}
}
