package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"roshambo/internal/app"
	"roshambo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const pauseStateKey = "pause_v1"

type pauseFlag struct {
	Paused bool `json:"paused"`
}

// StorageGate implements the access-control capability as a
// system-owned storage flag. Every entry point consults it before any
// state is touched; while the flag is set all operations fail with
// app.ErrPaused.
type StorageGate struct {
	nk runtime.NakamaModule
}

// NewStorageGate creates a new pause gate adapter.
func NewStorageGate(nk runtime.NakamaModule) *StorageGate {
	return &StorageGate{nk: nk}
}

// Allow rejects the operation while the arena is paused.
func (g *StorageGate) Allow(ctx context.Context, op string) error {
	paused, err := readPaused(ctx, g.nk)
	if err != nil {
		// Fail closed: an unreadable gate must not let operations
		// through while a pause might be in force.
		return fmt.Errorf("gate check for %s failed: %w", op, err)
	}
	if paused {
		return app.ErrPaused
	}
	return nil
}

func readPaused(ctx context.Context, nk runtime.NakamaModule) (bool, error) {
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: arenaCollection, Key: pauseStateKey},
	})
	if err != nil {
		return false, err
	}
	if len(objects) == 0 {
		return false, nil
	}
	var flag pauseFlag
	if err := json.Unmarshal([]byte(objects[0].Value), &flag); err != nil {
		return false, err
	}
	return flag.Paused, nil
}

func writePaused(ctx context.Context, nk runtime.NakamaModule, paused bool) error {
	value, err := json.Marshal(pauseFlag{Paused: paused})
	if err != nil {
		return err
	}
	_, err = nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      arenaCollection,
			Key:             pauseStateKey,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	return err
}

var _ ports.Gate = (*StorageGate)(nil)
