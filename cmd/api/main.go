package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-notify-nosql/internal/app"
	"github.com/go-notify-nosql/internal/application/user"
	"github.com/go-notify-nosql/internal/config"
	jwtinfra "github.com/go-notify-nosql/internal/infrastructure/jwt"
	"github.com/go-notify-nosql/internal/scheduler"
	transporthttp "github.com/go-notify-nosql/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connects and creates missing tables.
	repos, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	infra := app.NewInfra(ctx, cfg)
	defer infra.Close()
	infra.JWT = jwtProvider
	svc := app.NewServices(cfg, repos, infra)

	if cfg.AdminUsername != "" {
		created, err := user.EnsureAdmin(ctx, svc.Users, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.Printf("WARN: could not create bootstrap admin: %v", err)
		} else if created {
			log.Printf("Created admin user %q", cfg.AdminUsername)
		}
	}

	var sweepCron *cron.Cron
	if cfg.SweepInAPI {
		sweepCron, err = scheduler.Start(ctx, cfg.SweepCron, cfg.SweepTimezone, svc.Sweeper)
		if err != nil {
			log.Fatalf("sweep schedule: %v", err)
		}
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Services:    svc,
		JWTProvider: jwtProvider,
		Reports:     infra.Reports,
		Checks:      app.Checks(repos, infra),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SweepTimeout + 15*time.Second, // manual sweeps run inline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sweepCron != nil {
		scheduler.Stop(shutdownCtx, sweepCron)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
