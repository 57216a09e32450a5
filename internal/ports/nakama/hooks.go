package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roshambo/internal/config"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const walletSeedKey = "wallet_seed_v1"

// AfterAuthenticateDevice seeds new accounts with a starting wallet
// balance so they can fund a first stake. The grant is recorded with a
// write-once storage marker, making it idempotent even if the hook
// fires twice for the same account.
func AfterAuthenticateDevice(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	if !out.Created {
		return nil
	}

	cfg := config.Get()
	if cfg.StartingBalance <= 0 {
		return nil
	}

	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		logger.Warn("AfterAuthenticateDevice: No user id in context, skipping wallet seed")
		return nil
	}

	granted, err := seedWalletOnce(ctx, nk, userID, cfg.StartingBalance, cfg.Currency)
	if err != nil {
		logger.Error("AfterAuthenticateDevice: Wallet seed failed for user %s: %v", userID, err)
		return err
	}
	if granted {
		logger.Info("Seeded wallet for new user %s with %d %s", userID, cfg.StartingBalance, cfg.Currency)
	}
	return nil
}

func seedWalletOnce(ctx context.Context, nk runtime.NakamaModule, userID string, amount int64, currency string) (bool, error) {
	marker := map[string]interface{}{
		"amount":     amount,
		"granted_at": time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(marker)
	if err != nil {
		return false, fmt.Errorf("failed to marshal wallet seed marker: %w", err)
	}

	storageWrites := []*runtime.StorageWrite{
		{
			Collection:      arenaCollection,
			Key:             walletSeedKey,
			UserID:          userID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	walletUpdates := []*runtime.WalletUpdate{
		{
			UserID:    userID,
			Changeset: map[string]int64{currency: amount},
			Metadata:  map[string]interface{}{"reason": "wallet_seed"},
		},
	}

	_, _, err = nk.MultiUpdate(ctx, nil, storageWrites, nil, walletUpdates, true)
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to seed wallet: %w", err)
	}

	return true, nil
}
