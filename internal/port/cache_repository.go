package port

import (
	"context"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes the key so the request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// SaveSnapshot stores the machine state, replacing any previous snapshot
	SaveSnapshot(ctx context.Context, machineID string, snapshot domain.Snapshot) error

	// LoadSnapshot returns the last stored snapshot, or nil if there is none
	LoadSnapshot(ctx context.Context, machineID string) (*domain.Snapshot, error)
}
