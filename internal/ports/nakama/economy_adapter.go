package nakama

import (
	"context"
	"fmt"

	"roshambo/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// WalletEconomyAdapter implements ports.EconomyPort on Nakama's wallet
// system. Collecting is a negative wallet update, which Nakama rejects
// atomically when the wallet cannot cover it.
type WalletEconomyAdapter struct {
	nk       runtime.NakamaModule
	currency string
}

// NewWalletEconomyAdapter creates a new economy adapter for the given
// wallet currency key.
func NewWalletEconomyAdapter(nk runtime.NakamaModule, currency string) *WalletEconomyAdapter {
	return &WalletEconomyAdapter{nk: nk, currency: currency}
}

// Collect takes amount out of the user's wallet.
func (a *WalletEconomyAdapter) Collect(ctx context.Context, userID string, amount int64) error {
	return a.update(ctx, userID, -amount, "arena_collect")
}

// Disburse pays amount into the user's wallet.
func (a *WalletEconomyAdapter) Disburse(ctx context.Context, userID string, amount int64) error {
	return a.update(ctx, userID, amount, "arena_disburse")
}

func (a *WalletEconomyAdapter) update(ctx context.Context, userID string, amount int64, reason string) error {
	if amount == 0 {
		return nil
	}

	changes := map[string]int64{
		a.currency: amount,
	}
	metadata := map[string]interface{}{
		"reason": reason,
	}

	if _, _, err := a.nk.WalletUpdate(ctx, userID, changes, metadata, true); err != nil {
		return fmt.Errorf("failed to update wallet for user %s: %w", userID, err)
	}
	return nil
}

var _ ports.EconomyPort = (*WalletEconomyAdapter)(nil)
