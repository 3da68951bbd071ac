package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-notify-nosql/internal/app"
	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/scheduler"
	"github.com/go-notify-nosql/internal/transport/http/handler"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The worker runs the due-sweep on SWEEP_CRON and exposes /healthz,
// /health-check/ready and /metrics on WORKER_PORT. Several replicas may run; the Redis lock and the
// per-item claim keep them from sending twice.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	infra := app.NewInfra(ctx, cfg)
	defer infra.Close()
	svc := app.NewServices(cfg, repos, infra)

	var ready atomic.Bool
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health-check/{action}", handler.NewHealthHandler(app.Checks(repos, infra)).Ping)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.WorkerPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("Worker health server on :%s", cfg.WorkerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("health server error: %v", err)
		}
	}()

	c, err := scheduler.Start(ctx, cfg.SweepCron, cfg.SweepTimezone, svc.Sweeper)
	if err != nil {
		log.Fatalf("sweep schedule: %v", err)
	}
	ready.Store(true)
	log.Printf("Worker %s started", svc.Sweeper.Worker())

	<-ctx.Done()

	log.Println("Shutting down worker...")
	ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SweepTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx, c)
	_ = srv.Shutdown(shutdownCtx)
	log.Println("Worker stopped")
}
