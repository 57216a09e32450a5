package app

// SettlementPolicy turns the per-player stake into the winner's payout
// and an optional rake. Implementations must conserve the pot:
// payout + rake == 2 * stake. Draws and forfeits are not subject to
// the policy; both always pay the symmetric amounts.
type SettlementPolicy func(stake int64) (payout, rake int64)

// EvenSettlement is the fee-free default: the winner takes the whole
// pot.
func EvenSettlement(stake int64) (int64, int64) {
	return 2 * stake, 0
}

// RakeSettlement keeps percent of the pot as rake and pays the winner
// the rest.
func RakeSettlement(percent int64) SettlementPolicy {
	if percent <= 0 {
		return EvenSettlement
	}
	if percent > 100 {
		percent = 100
	}
	return func(stake int64) (int64, int64) {
		pot := 2 * stake
		rake := pot * percent / 100
		return pot - rake, rake
	}
}
