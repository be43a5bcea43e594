// Package location resolves the viewer's geographic position, trying a
// device-provided fix first and falling back to an IP lookup.
package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/earthview/globe/pkg/core"
)

var (
	// ErrNoCapability is returned when the client cannot provide a device fix.
	ErrNoCapability = errors.New("device location not available")
	// ErrStaleFix is returned when a cached device fix is older than allowed.
	ErrStaleFix = errors.New("device fix too old")
	// ErrMissingCoordinates is returned when a lookup response has no usable coordinate.
	ErrMissingCoordinates = errors.New("location data missing")
)

// Source yields a coordinate or fails.
type Source interface {
	Name() string
	Locate(ctx context.Context) (core.Location, error)
}

// Resolver tries each source once, in order.
type Resolver struct {
	sources []Source
	logger  *slog.Logger
}

// NewResolver creates a resolver over sources. A nil logger uses slog.Default.
func NewResolver(logger *slog.Logger, sources ...Source) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{sources: sources, logger: logger}
}

// Resolve returns the first successful location, or core.Unresolved when
// every source fails. There is no retry.
func (r *Resolver) Resolve(ctx context.Context) core.Location {
	for _, s := range r.sources {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		loc, err := s.Locate(ctx)
		if err != nil {
			r.logger.Warn("Location source failed", "source", s.Name(), "error", err, "duration", time.Since(start))
			continue
		}
		if !loc.Resolved() {
			r.logger.Warn("Location source returned no coordinate", "source", s.Name())
			continue
		}
		r.logger.Debug("Location resolved", "source", loc.Source, "duration", time.Since(start))
		return loc
	}
	return core.Unresolved
}

// Async runs Resolve in its own goroutine and delivers the single result.
// The channel is buffered so the goroutine never blocks on a gone reader.
func Async(ctx context.Context, r *Resolver) <-chan core.Location {
	out := make(chan core.Location, 1)
	go func() {
		defer close(out)
		out <- r.Resolve(ctx)
	}()
	return out
}
