package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stepwise/planner/internal/config"
	"github.com/stepwise/planner/internal/store"
)

// openStore loads config and opens the file store with a no-op logger so
// command output stays clean.
func openStore() (*store.FileStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.NewFileStore(cfg.DataDir, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}

	return st, nil
}
