package ports

import "context"

// ArenaStore persists the engine state snapshot (session records and
// ledger balances) so an arena survives a server restart.
type ArenaStore interface {
	// Save writes the current snapshot, replacing any previous one.
	Save(ctx context.Context, snapshot []byte) error

	// Load returns the last saved snapshot, or nil if none exists.
	Load(ctx context.Context) ([]byte, error)
}
