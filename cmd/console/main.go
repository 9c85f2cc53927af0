package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/isavralabel/pickpoint-console/internal/adapters/handler"
	"github.com/isavralabel/pickpoint-console/internal/adapters/messaging"
	"github.com/isavralabel/pickpoint-console/internal/adapters/middleware"
	"github.com/isavralabel/pickpoint-console/internal/adapters/pickpoint"
	"github.com/isavralabel/pickpoint-console/internal/adapters/repository"
	"github.com/isavralabel/pickpoint-console/internal/adapters/sweeper"
	"github.com/isavralabel/pickpoint-console/internal/config"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
	"github.com/isavralabel/pickpoint-console/internal/core/services"
)

const sweepInterval = 10 * time.Minute

// credentials is the credential store chosen from configuration together
// with the optional capabilities the probes and the sweeper use.
type credentials struct {
	store  ports.CredentialStore
	pinger handler.Pinger
	purger sweeper.Purger
	name   string
	close  func()
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("console: %v", err)
	}
	log.Println("console: shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	creds, err := openCredentials(ctx, cfg)
	if err != nil {
		return err
	}
	defer creds.close()
	log.Printf("Using %s credential store", creds.name)

	var publisher ports.ActivityPublisher
	var broker handler.ReadyChecker
	if cfg.RabbitMQURL != "" {
		rmq, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.ActivityQueueName, config.NewCircuitBreaker(config.BreakerRabbitMQ))
		if err != nil {
			log.Printf("WARNING - failed to connect to RabbitMQ, activity events disabled: %v", err)
		} else {
			defer rmq.Close()
			publisher, broker = rmq, rmq
			log.Printf("Publishing activity events to queue %q", cfg.ActivityQueueName)
		}
	}

	api := pickpoint.NewClient(cfg.APIBaseURL, cfg.APITimeout, config.NewCircuitBreaker(config.BreakerPickPointAPI))

	sessionService := services.NewSessionService(api, creds.store, publisher, cfg.SessionTTL)
	packageService := services.NewPackageService(api, publisher)
	console := handler.NewConsole(
		handler.Services{
			Sessions:   sessionService,
			Dashboard:  services.NewDashboardService(api),
			Packages:   packageService,
			Export:     services.NewExportService(api, packageService),
			Recipients: services.NewRecipientService(api, publisher),
			Locations:  services.NewLocationService(api, publisher),
			Staff:      services.NewStaffService(api, publisher),
			Templates:  services.NewTemplateService(api, publisher),
		},
		middleware.NewSessionMiddleware(sessionService, cfg.SessionSecret, cfg.CookieSecure, cfg.SessionTTL),
		handler.NewFlashStore(cfg.SessionSecret, cfg.CookieSecure),
		middleware.NewRateLimiter(),
		cfg.UploadsBaseURL,
	)
	healthHandler := handler.NewHealthHandler(creds.pinger, creds.name, api, broker, cfg.Version)

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/health/ready", healthHandler.Ready)
	mux.HandleFunc("/health/live", healthHandler.Live)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/assets/", console.Assets())
	mux.Handle("/", middleware.CSRF(cfg.CSRFKey, cfg.CookieSecure)(console.Handler()))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Observe,
			middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
				ContentSecurityPolicy: contentSecurityPolicy(cfg.UploadsBaseURL),
			}),
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	janitor := sweeper.New(sessionService, creds.purger, sweepInterval, cfg.SessionTTL)
	go func() {
		if err := janitor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("sweeper: stopped: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("console: received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("could not start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

// openCredentials prefers Redis, then PostgreSQL, then process memory.
func openCredentials(ctx context.Context, cfg *config.Config) (credentials, error) {
	switch {
	case cfg.RedisAddress != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("WARNING - Redis not reachable yet, circuit breaker will validate on first operation: %v", err)
		} else {
			log.Println("Authenticated with Redis successfully")
		}
		store := repository.NewRedisCredentialStore(client, config.NewCircuitBreaker(config.BreakerRedis))
		return credentials{
			store:  store,
			pinger: store,
			name:   "redis",
			close:  func() { client.Close() },
		}, nil

	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return credentials{}, fmt.Errorf("failed to open database: %w", err)
		}
		store := repository.NewSQLCredentialStore(db, config.NewCircuitBreaker(config.BreakerPostgres))
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := store.Migrate(migrateCtx); err != nil {
			db.Close()
			return credentials{}, fmt.Errorf("failed to prepare credential table: %w", err)
		}
		return credentials{
			store:  store,
			pinger: store,
			purger: store,
			name:   "postgres",
			close:  func() { db.Close() },
		}, nil
	}

	log.Println("WARNING: no REDIS_ADDRESS or DB_CONNECTION_STRING set, credentials are lost on restart")
	store := repository.NewMemoryCredentialStore()
	return credentials{
		store:  store,
		purger: store,
		name:   "memory",
		close:  func() {},
	}, nil
}

func contentSecurityPolicy(uploadsURL string) string {
	return "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self'; " +
		"img-src 'self' data: " + uploadsURL + "; " +
		"media-src 'self' blob:; " +
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"form-action 'self'; " +
		"base-uri 'self'"
}
