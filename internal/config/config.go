package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Defaults used when no config file is present or a field is unset.
const (
	DefaultForfeitWindowSeconds = 600
	DefaultCurrency             = "gold"
)

// ArenaConfig holds the tunables for the wager arena.
type ArenaConfig struct {
	// ForfeitWindowSeconds is the fixed window after which the
	// non-responsive side of a session forfeits the pot.
	ForfeitWindowSeconds int64 `json:"forfeit_window_seconds"`
	// RakePercent routes a percentage of each winner payout to HouseID.
	// Zero keeps the fee-free symmetric settlement.
	RakePercent int64  `json:"rake_percent"`
	HouseID     string `json:"house_id"`
	// Currency is the wallet key used for funding and payouts.
	Currency string `json:"currency"`
	// StartingBalance is granted once to newly created accounts.
	StartingBalance int64 `json:"starting_balance"`
	// AdminUserIDs may toggle the pause gate in addition to
	// server-to-server callers.
	AdminUserIDs []string `json:"admin_user_ids"`
}

var (
	cfg      *ArenaConfig
	loadOnce sync.Once
	loadErr  error
)

// Load reads the arena configuration from the given path.
func Load(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read arena config: %w", err)
			return
		}

		var c ArenaConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal arena config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// Get returns the loaded configuration with defaults applied, or a
// pure-defaults config if Load never succeeded.
func Get() ArenaConfig {
	c := ArenaConfig{}
	if cfg != nil {
		c = *cfg
	}
	if c.ForfeitWindowSeconds <= 0 {
		c.ForfeitWindowSeconds = DefaultForfeitWindowSeconds
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.StartingBalance < 0 {
		c.StartingBalance = 0
	}
	return c
}

// IsAdmin reports whether the user may operate the pause gate.
func (c ArenaConfig) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
