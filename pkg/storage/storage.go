package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/state"
)

// ErrCaseFileNotFound is returned when a case file does not exist
var ErrCaseFileNotFound = errors.New("case file not found")

// Storage defines a unified interface for all storage operations
// This interface combines investigation persistence (Redis) with case file loading (filesystem)
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// CaseState operations (Redis-backed)
	// LoadCaseState returns nil, nil when the investigation does not exist
	SaveCaseState(ctx context.Context, id uuid.UUID, cs *state.CaseState) error
	LoadCaseState(ctx context.Context, id uuid.UUID) (*state.CaseState, error)
	DeleteCaseState(ctx context.Context, id uuid.UUID) error

	// Per-investigation locks. Only the owner that acquired a lock can release it.
	AcquireLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, id uuid.UUID, owner string) error
	// ExtendLock renews a held lock and reports false if owner lost it
	ExtendLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)

	// Case file operations (filesystem-backed)
	// ListCaseFiles maps case names to file names
	ListCaseFiles(ctx context.Context) (map[string]string, error)
	GetCaseFile(ctx context.Context, filename string) (*casefile.CaseFile, error)
}
