// Package postgres implements the storage.Backend interface on PostgreSQL.
// It wraps the GORM backend and owns the connection, which falls back to a
// local SQLite database when Postgres is unreachable.
package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/earthview/globe/internal/config"
	"github.com/earthview/globe/internal/database"
	gormstorage "github.com/earthview/globe/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB      config.DBConfig
	Manager *database.Manager
	Logger  *slog.Logger
	// FallbackPath is the SQLite file used when Postgres is unreachable.
	FallbackPath  string
	FlushInterval time.Duration
}

// Backend implements storage.Backend using GORM/PostgreSQL.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. It does not connect until Init.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Manager == nil {
		deps.Manager = database.NewManager(zerolog.Nop())
	}
	return &Backend{deps: deps}
}

// Init connects, migrates the schema and starts the lookup writer.
func (b *Backend) Init() error {
	m := b.deps.Manager
	m.SqliteFilePath = b.deps.FallbackPath
	if err := m.Connect(b.deps.DB); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if m.ShouldSaveLocal {
		b.deps.Logger.Warn("Postgres unreachable, storing locally", "path", b.deps.FallbackPath)
	}
	if m.DB.Name() == "postgres" {
		if err := m.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
			b.deps.Logger.Warn("PostGIS extension unavailable", "error", err)
		}
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:            m.DB,
		Logger:        b.deps.Logger,
		FlushInterval: b.deps.FlushInterval,
	})
	return b.Backend.Init()
}

// Close flushes the GORM backend and closes the connection.
func (b *Backend) Close() error {
	var err error
	if b.Backend != nil {
		err = b.Backend.Close()
	}
	if closeErr := b.deps.Manager.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool {
	return b.deps.Manager.ShouldSaveLocal
}
