package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/isavralabel/pickpoint-console/internal/adapters/repository"
	"github.com/isavralabel/pickpoint-console/internal/config"
	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
	"github.com/isavralabel/pickpoint-console/test/mocks"
)

// exerciseStore runs the behaviour every credential store shares.
func exerciseStore(t *testing.T, store ports.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.LoadCredential(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown session, got %v", err)
	}

	if err := store.SaveCredential(ctx, "sid-1", "token-a", time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	token, err := store.LoadCredential(ctx, "sid-1")
	if err != nil || token != "token-a" {
		t.Errorf("expected token-a, got %q (%v)", token, err)
	}

	if err := store.SaveCredential(ctx, "sid-1", "token-b", time.Hour); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if token, _ := store.LoadCredential(ctx, "sid-1"); token != "token-b" {
		t.Errorf("expected overwritten token-b, got %q", token)
	}

	if err := store.DeleteCredential(ctx, "sid-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.LoadCredential(ctx, "sid-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteCredential(ctx, "sid-1"); err != nil {
		t.Errorf("expected deleting a missing credential to succeed, got %v", err)
	}
}

func TestRedisCredentialStore(t *testing.T) {
	client := mocks.NewMockRedisClient()
	store := repository.NewRedisCredentialStore(client, config.NewCircuitBreaker(config.BreakerRedis))

	exerciseStore(t, store)

	if err := store.SaveCredential(context.Background(), "sid-2", "tok", 30*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !client.HasKey("console:credential:sid-2") {
		t.Error("expected credential under the console key prefix")
	}
	if ttl := client.TTL("console:credential:sid-2"); ttl <= 29*time.Minute || ttl > 30*time.Minute {
		t.Errorf("expected ttl close to 30m, got %v", ttl)
	}
}

func TestRedisCredentialStore_MissingKeyDoesNotTripBreaker(t *testing.T) {
	cb := config.NewCircuitBreaker(config.BreakerRedis)
	store := repository.NewRedisCredentialStore(mocks.NewMockRedisClient(), cb)

	for i := 0; i < 5; i++ {
		_, _ = store.LoadCredential(context.Background(), "nobody")
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected breaker closed after cache misses, got %s", cb.State())
	}
}

func TestRedisCredentialStore_Failures(t *testing.T) {
	client := mocks.NewMockRedisClient()
	client.GetError = errors.New("connection refused")
	cb := config.NewCircuitBreaker(config.BreakerRedis)
	store := repository.NewRedisCredentialStore(client, cb)

	for i := 0; i < 3; i++ {
		if _, err := store.LoadCredential(context.Background(), "sid"); err == nil || errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected a redis error, got %v", err)
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker to open, got %s", cb.State())
	}
	if _, err := store.LoadCredential(context.Background(), "sid"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open state error, got %v", err)
	}

	client.PingError = errors.New("down")
	if err := store.Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

func TestMemoryCredentialStore(t *testing.T) {
	store := repository.NewMemoryCredentialStore()
	exerciseStore(t, store)

	_ = store.SaveCredential(context.Background(), "short", "tok", -time.Second)
	if _, err := store.LoadCredential(context.Background(), "short"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected expired credential to be gone, got %v", err)
	}

	_ = store.SaveCredential(context.Background(), "a", "tok", -time.Second)
	_ = store.SaveCredential(context.Background(), "b", "tok", time.Hour)
	if n, _ := store.PurgeExpired(context.Background()); n != 1 {
		t.Errorf("expected one purged credential, got %d", n)
	}
}

// TestSQLCredentialStore runs against a real PostgreSQL when
// TEST_DB_CONNECTION_STRING is set.
func TestSQLCredentialStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DB_CONNECTION_STRING")
	if dbURL == "" {
		t.Skip("TEST_DB_CONNECTION_STRING not set")
	}
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	store := repository.NewSQLCredentialStore(db, config.NewCircuitBreaker(config.BreakerPostgres))
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	_, _ = db.ExecContext(ctx, "DELETE FROM console_credentials")

	exerciseStore(t, store)

	_ = store.SaveCredential(ctx, "expired", "tok", -time.Minute)
	if _, err := store.LoadCredential(ctx, "expired"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected expired credential to be ignored, got %v", err)
	}
	if n, err := store.PurgeExpired(ctx); err != nil || n != 1 {
		t.Errorf("expected one purged row, got %d (%v)", n, err)
	}
}
