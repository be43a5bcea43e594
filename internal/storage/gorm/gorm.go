// Package gormstorage implements storage.Backend on any GORM dialect.
// Viewpoints are written synchronously; location lookups are queued and
// drained in batches by a background writer.
package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/earthview/globe/internal/database"
	"github.com/earthview/globe/internal/model"
	"github.com/earthview/globe/internal/model/convert"
	"github.com/earthview/globe/internal/queue"
	"github.com/earthview/globe/internal/storage"
	"github.com/earthview/globe/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued lookups are written.
const DefaultFlushInterval = 5 * time.Second

// MaxPendingLookups bounds the lookup queue while the database is failing.
const MaxPendingLookups = 10000

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend implements storage.Backend using GORM with a queued lookup writer.
type Backend struct {
	deps    Dependencies
	lookups *queue.Queue[model.LocationLookup]

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:    deps,
		lookups: queue.NewBounded[model.LocationLookup](MaxPendingLookups),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the lookup writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend requires a DB")
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.writeLoop()
	return nil
}

// Close stops the writer and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()
	return b.Flush()
}

// SaveViewpoint inserts a viewpoint or replaces the one with the same name.
func (b *Backend) SaveViewpoint(ctx context.Context, v *core.Viewpoint) error {
	row, err := convert.CoreToViewpoint(*v)
	if err != nil {
		return err
	}

	return b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Viewpoint
		err := tx.Where("name = ?", row.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row.ID = 0
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert viewpoint %q: %w", row.Name, err)
			}
		case err != nil:
			return fmt.Errorf("failed to find viewpoint %q: %w", row.Name, err)
		default:
			existing.Descriptor = row.Descriptor
			existing.Camera = row.Camera
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update viewpoint %q: %w", row.Name, err)
			}
			row = existing
		}
		v.ID = row.ID
		v.CreatedAt = row.CreatedAt
		return nil
	})
}

// GetViewpoint looks up a viewpoint by name.
func (b *Backend) GetViewpoint(ctx context.Context, name string) (core.Viewpoint, error) {
	var row model.Viewpoint
	err := b.deps.DB.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Viewpoint{}, storage.ErrNotFound
	}
	if err != nil {
		return core.Viewpoint{}, fmt.Errorf("failed to get viewpoint %q: %w", name, err)
	}
	return convert.ViewpointToCore(row)
}

// ListViewpoints returns every viewpoint ordered by ID.
func (b *Backend) ListViewpoints(ctx context.Context) ([]core.Viewpoint, error) {
	var rows []model.Viewpoint
	if err := b.deps.DB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list viewpoints: %w", err)
	}
	out := make([]core.Viewpoint, 0, len(rows))
	for _, row := range rows {
		v, err := convert.ViewpointToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// RecordLocation queues a lookup for the next write cycle.
func (b *Backend) RecordLocation(ctx context.Context, rec core.LocationRecord) error {
	b.lookups.Push(convert.CoreToLocationLookup(rec))
	return nil
}

// Pending returns the number of queued lookups.
func (b *Backend) Pending() int {
	return b.lookups.Len()
}

// Dropped returns how many lookups were discarded because the queue was full.
func (b *Backend) Dropped() uint64 {
	return b.lookups.Dropped()
}

// Flush writes all queued lookups now. On failure they are put back for
// the next cycle.
func (b *Backend) Flush() error {
	items := b.lookups.GetAndEmpty()
	if len(items) == 0 {
		return nil
	}
	start := time.Now()
	if err := b.deps.DB.Create(&items).Error; err != nil {
		b.lookups.Requeue(items)
		b.deps.Logger.Error("Failed to write location lookups", "count", len(items), "dropped", b.lookups.Dropped(), "error", err)
		return fmt.Errorf("failed to insert %d location lookups: %w", len(items), err)
	}
	b.deps.Logger.Debug("Wrote location lookups", "count", len(items), "duration", time.Since(start))
	return nil
}

// Lookups returns stored lookups, newest first, up to limit.
func (b *Backend) Lookups(ctx context.Context, limit int) ([]core.LocationRecord, error) {
	var rows []model.LocationLookup
	if err := b.deps.DB.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list location lookups: %w", err)
	}
	out := make([]core.LocationRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert.LocationLookupToCore(row))
	}
	return out, nil
}

// writeLoop periodically drains the lookup queue into the DB.
func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Flush()
		}
	}
}
