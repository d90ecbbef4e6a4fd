// Package cli implements the npcctl admin commands for inspecting and
// maintaining NPC memory directly against the storage backend.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gamedev-tw/npc-engine/internal/config"
	"github.com/gamedev-tw/npc-engine/internal/storage"
)

var backendFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "npcctl",
	Short: "Administer NPC memory",
	Long:  "Operator tooling for the NPC movement engine. Reads the same environment configuration as the API server.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "",
		"Storage backend: redis or sqlite (default: $STORAGE_BACKEND)")
}

func openStorage() (storage.Storage, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if backendFlag != "" {
		cfg.StorageBackend = backendFlag
	}

	// Quiet logger: CLI output goes to stdout, diagnostics to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	switch cfg.StorageBackend {
	case "redis":
		st, err := storage.NewRedisStorage(cfg.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, cfg, nil
	case "sqlite":
		st, err := storage.NewSQLiteStorage(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, cfg, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
