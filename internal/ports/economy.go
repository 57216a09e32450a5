package ports

import "context"

// EconomyPort moves real value between the outside world and the
// engine. Collect pulls funding in when a participant stakes more than
// their stored credit covers; Disburse is the outbound transfer behind
// withdrawals. Both are all-or-nothing.
type EconomyPort interface {
	// Collect takes amount from the participant's external wallet.
	// Fails without side effects if the wallet cannot cover it.
	Collect(ctx context.Context, userID string, amount int64) error

	// Disburse pays amount out to the participant's external wallet.
	Disburse(ctx context.Context, userID string, amount int64) error
}
