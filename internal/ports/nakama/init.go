package nakama

import (
	"context"
	"database/sql"
	"os"

	"roshambo/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const configPathEnv = "ROSHAMBO_CONFIG"

// InitModule wires RPCs, hooks and the arena match handler for the
// Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if path := os.Getenv(configPathEnv); path != "" {
		if err := config.Load(path); err != nil {
			logger.Warn("Could not load arena config from %s, using defaults: %v", path, err)
		}
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameArena, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newArenaHandler(), nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("Roshambo Go module loaded.")
	return nil
}
