// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/earthview/globe/internal/config"
	"github.com/earthview/globe/internal/storage"
	"github.com/earthview/globe/pkg/core"
)

// Backend keeps viewpoints and location lookups in memory and, when an
// output directory is configured, persists them as JSON across restarts.
type Backend struct {
	cfg config.MemoryConfig

	viewpoints map[string]core.Viewpoint // keyed by Name
	lookups    []core.LocationRecord

	idCounter       uint
	lookupIDCounter uint
	now             func() time.Time
	mu              sync.RWMutex

	lastExportPath string
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:        cfg,
		viewpoints: make(map[string]core.Viewpoint),
		now:        time.Now,
	}
}

// Init loads a previous export if one exists
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.importJSON()
}

// Close exports the data when an output directory is configured
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// SaveViewpoint stores a viewpoint, replacing one with the same name
func (b *Backend) SaveViewpoint(ctx context.Context, v *core.Viewpoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.viewpoints[v.Name]; ok {
		v.ID = existing.ID
		v.CreatedAt = existing.CreatedAt
	} else {
		b.idCounter++
		v.ID = b.idCounter
		v.CreatedAt = b.now().UTC()
	}
	b.viewpoints[v.Name] = *v
	return nil
}

// GetViewpoint looks up a viewpoint by name
func (b *Backend) GetViewpoint(ctx context.Context, name string) (core.Viewpoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.viewpoints[name]
	if !ok {
		return core.Viewpoint{}, storage.ErrNotFound
	}
	return v, nil
}

// ListViewpoints returns every viewpoint ordered by ID
func (b *Backend) ListViewpoints(ctx context.Context) ([]core.Viewpoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.sortedViewpoints(), nil
}

func (b *Backend) sortedViewpoints() []core.Viewpoint {
	out := make([]core.Viewpoint, 0, len(b.viewpoints))
	for _, v := range b.viewpoints {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RecordLocation appends a location lookup
func (b *Backend) RecordLocation(ctx context.Context, rec core.LocationRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lookupIDCounter++
	rec.ID = b.lookupIDCounter
	b.lookups = append(b.lookups, rec)
	return nil
}

// Lookups returns a copy of all recorded location lookups
func (b *Backend) Lookups() []core.LocationRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]core.LocationRecord(nil), b.lookups...)
}

// GetExportedFilePath returns the path of the last export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
