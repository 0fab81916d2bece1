// Package ports defines the interfaces between the dialog core and its
// adapters: state persistence and distributed locking.
package ports

import (
	"context"
	"time"

	"github.com/necyberteam/qabot/pkg/domain"
)

// StateStore persists conversation state between turns, enabling a session
// to survive reloads and restarts.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all active sessions.
	List(ctx context.Context) ([]string, error)
}

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access across processes.
type DistributedLocker interface {
	// Lock acquires the lock for key, expiring after ttl if not released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
