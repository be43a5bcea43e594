// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/earthview/globe/internal/descriptor"
	"github.com/earthview/globe/pkg/core"
)

// ErrNotFound is returned when no viewpoint has the requested name.
var ErrNotFound = errors.New("viewpoint not found")

// ErrInvalidViewpoint is returned when a viewpoint cannot be saved.
var ErrInvalidViewpoint = errors.New("invalid viewpoint")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Viewpoints. SaveViewpoint replaces any viewpoint with the same name
	// and assigns ID and CreatedAt to the passed pointer.
	SaveViewpoint(ctx context.Context, v *core.Viewpoint) error
	GetViewpoint(ctx context.Context, name string) (core.Viewpoint, error)
	ListViewpoints(ctx context.Context) ([]core.Viewpoint, error)

	// Telemetry
	RecordLocation(ctx context.Context, rec core.LocationRecord) error
}

// Validated wraps a backend so that every saved viewpoint carries a
// well-formed name and a descriptor that decodes. The camera is always
// rebuilt from the descriptor, which is then stored in canonical form.
func Validated(b Backend) Backend {
	return &validated{Backend: b}
}

type validated struct {
	Backend
}

func (v *validated) SaveViewpoint(ctx context.Context, vp *core.Viewpoint) error {
	if err := Normalize(vp); err != nil {
		return err
	}
	return v.Backend.SaveViewpoint(ctx, vp)
}

// Normalize checks a viewpoint and canonicalizes its descriptor and camera.
func Normalize(vp *core.Viewpoint) error {
	vp.Name = strings.TrimSpace(vp.Name)
	if vp.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidViewpoint)
	}
	if len(vp.Name) > 127 {
		return fmt.Errorf("%w: name longer than 127 bytes", ErrInvalidViewpoint)
	}
	state, err := descriptor.Parse(vp.Descriptor)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidViewpoint, err)
	}
	vp.Camera = state
	vp.Descriptor = descriptor.Encode(state)
	return nil
}
