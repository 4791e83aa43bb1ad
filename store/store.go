package store

import (
	"context"
	"errors"
	"time"

	"github.com/judgegodwins/pericon-server/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrConflict     = errors.New("room update kept conflicting, giving up")
)

// UpdateFunc mutates a private copy of a room. Returning an error discards
// every change made to the copy.
type UpdateFunc func(room *models.Room) error

// Store keeps one record per room and the registry of active room codes.
type Store interface {
	// Get returns a snapshot of the room or ErrRoomNotFound.
	Get(ctx context.Context, id string) (*models.Room, error)
	// GetOrCreate returns the room, initializing an empty record on first access.
	GetOrCreate(ctx context.Context, id string) (*models.Room, error)
	// Update runs fn as one atomic read-modify-write against the room,
	// creating it if needed, and returns the committed snapshot.
	Update(ctx context.Context, id string, fn UpdateFunc) (*models.Room, error)
	Delete(ctx context.Context, id string) error

	// Reserve claims code in the active room registry. It returns false if
	// the code is already in use.
	Reserve(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error

	// Sweep evicts rooms idle since before now minus the store's TTL and
	// returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
