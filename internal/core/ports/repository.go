package ports

import (
	"context"
	"time"
)

// CredentialStore persists the bearer credential of a console session,
// keyed by session id, so it outlives the in-memory session.
// LoadCredential returns domain.ErrNotFound when nothing is stored.
type CredentialStore interface {
	SaveCredential(ctx context.Context, sessionID, token string, ttl time.Duration) error
	LoadCredential(ctx context.Context, sessionID string) (string, error)
	DeleteCredential(ctx context.Context, sessionID string) error
}
