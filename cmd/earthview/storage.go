package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/earthview/globe/internal/config"
	"github.com/earthview/globe/internal/database"
	"github.com/earthview/globe/internal/logging"
	"github.com/earthview/globe/internal/storage"
	"github.com/earthview/globe/internal/storage/memory"
	pgstorage "github.com/earthview/globe/internal/storage/postgres"
	sqlitestorage "github.com/earthview/globe/internal/storage/sqlite"
	"github.com/spf13/viper"
)

// pendingCounter is implemented by backends that batch lookup writes.
type pendingCounter interface {
	Pending() int
}

// initStorage builds the configured backend, wraps it with viewpoint
// validation and initializes it. pending is nil for backends that write
// lookups synchronously.
func initStorage(logger *slog.Logger) (backend storage.Backend, pending func() int, err error) {
	storageCfg := config.GetStorageConfig()

	raw, err := createStorageBackend(storageCfg, logger)
	if err != nil {
		logger.Error("Failed to create storage backend", "error", err)
		return nil, nil, err
	}
	if err := raw.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "type", storageCfg.Type, "error", err)
		return nil, nil, err
	}
	logger.Info("Storage backend ready", "type", storageCfg.Type)
	if pc, ok := raw.(pendingCounter); ok {
		pending = pc.Pending
	}
	return storage.Validated(raw), pending, nil
}

func createStorageBackend(storageCfg config.StorageConfig, logger *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		manager := database.NewManager(logging.NewZerolog(os.Stderr, viper.GetString("logLevel"), "database"))
		return pgstorage.New(pgstorage.Dependencies{
			DB:            config.GetDBConfig(),
			Manager:       manager,
			Logger:        logger,
			FallbackPath:  sessionFilePath(viper.GetString("logsDir"), "db"),
			FlushInterval: storageCfg.FlushInterval,
		}), nil

	case "sqlite":
		dumpPath := storageCfg.SQLite.DumpPath
		if dumpPath == "" && storageCfg.SQLite.Path == "" {
			dumpPath = sessionFilePath(storageCfg.Memory.OutputDir, "db")
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:          storageCfg.SQLite.Path,
			DumpInterval:  storageCfg.SQLite.DumpInterval,
			DumpPath:      dumpPath,
			FlushInterval: storageCfg.FlushInterval,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return backend, nil

	case "memory", "":
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// sessionFilePath names a per-run file in dir, e.g. earthview_20260212_213836.db.
func sessionFilePath(dir, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", ServiceName, logging.SessionStamp(SessionStartTime), ext))
}
