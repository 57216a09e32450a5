package nakama

import (
	"context"
	"fmt"

	"roshambo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	arenaCollection = "roshambo"
	arenaStateKey   = "arena_state_v1"
)

// StorageArenaStore persists the engine snapshot as a system-owned
// Nakama storage object so session records and ledger balances survive
// restarts.
type StorageArenaStore struct {
	nk runtime.NakamaModule
}

// NewStorageArenaStore creates a new arena store adapter.
func NewStorageArenaStore(nk runtime.NakamaModule) *StorageArenaStore {
	return &StorageArenaStore{nk: nk}
}

// Save replaces the stored snapshot.
func (s *StorageArenaStore) Save(ctx context.Context, snapshot []byte) error {
	writes := []*runtime.StorageWrite{
		{
			Collection:      arenaCollection,
			Key:             arenaStateKey,
			Value:           string(snapshot),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}
	if _, err := s.nk.StorageWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to persist arena state: %w", err)
	}
	return nil
}

// Load returns the last stored snapshot or nil when none exists yet.
func (s *StorageArenaStore) Load(ctx context.Context) ([]byte, error) {
	reads := []*runtime.StorageRead{
		{
			Collection: arenaCollection,
			Key:        arenaStateKey,
		},
	}
	objects, err := s.nk.StorageRead(ctx, reads)
	if err != nil {
		return nil, fmt.Errorf("failed to read arena state: %w", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}
	return []byte(objects[0].Value), nil
}

var _ ports.ArenaStore = (*StorageArenaStore)(nil)
