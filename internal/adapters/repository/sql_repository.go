package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/isavralabel/pickpoint-console/internal/core/domain"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

const credentialSchema = `
CREATE TABLE IF NOT EXISTS console_credentials (
	session_id VARCHAR(64) PRIMARY KEY,
	token      TEXT        NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// SQLCredentialStore keeps bearer credentials in PostgreSQL. Expired rows
// are ignored on read and removed by PurgeExpired.
type SQLCredentialStore struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

// Ensure SQLCredentialStore implements ports.CredentialStore
var _ ports.CredentialStore = (*SQLCredentialStore)(nil)

func NewSQLCredentialStore(db *sql.DB, cb *gobreaker.CircuitBreaker) *SQLCredentialStore {
	return &SQLCredentialStore{db: db, cb: cb}
}

// Migrate creates the credentials table if it does not exist.
func (r *SQLCredentialStore) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, credentialSchema)
	return err
}

func (r *SQLCredentialStore) SaveCredential(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return r.db.ExecContext(ctx,
			`INSERT INTO console_credentials (session_id, token, expires_at, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (session_id) DO UPDATE
			 SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
			sessionID,
			token,
			time.Now().Add(ttl).UTC(),
		)
	})
	return err
}

func (r *SQLCredentialStore) LoadCredential(ctx context.Context, sessionID string) (string, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		var token string
		err := r.db.QueryRowContext(ctx,
			"SELECT token FROM console_credentials WHERE session_id = $1 AND expires_at > NOW()",
			sessionID,
		).Scan(&token)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return token, err
	})
	if err != nil {
		return "", err
	}
	token := result.(string)
	if token == "" {
		return "", domain.ErrNotFound
	}
	return token, nil
}

func (r *SQLCredentialStore) DeleteCredential(ctx context.Context, sessionID string) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return r.db.ExecContext(ctx, "DELETE FROM console_credentials WHERE session_id = $1", sessionID)
	})
	return err
}

// PurgeExpired deletes credentials past their expiry and returns how many
// were removed.
func (r *SQLCredentialStore) PurgeExpired(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM console_credentials WHERE expires_at <= NOW()")
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

func (r *SQLCredentialStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
