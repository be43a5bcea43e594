package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/earthview/globe/internal/geo"
	"github.com/earthview/globe/pkg/core"
)

// Device source defaults.
const (
	DefaultDeviceTimeout = 9 * time.Second
	DefaultMaxFixAge     = 60 * time.Second
)

// Fix is a coordinate reported by the viewer's device.
type Fix struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// FixFunc asks the device for a fix. It must return when ctx is done.
type FixFunc func(ctx context.Context) (Fix, error)

// Device asks the device for a fix, waiting at most Timeout and accepting
// cached fixes up to MaxAge old.
type Device struct {
	fix     FixFunc
	timeout time.Duration
	maxAge  time.Duration
	now     func() time.Time
}

// NewDevice creates a device source. A nil fix means the capability is absent.
func NewDevice(fix FixFunc, timeout, maxAge time.Duration) *Device {
	if timeout <= 0 {
		timeout = DefaultDeviceTimeout
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxFixAge
	}
	return &Device{fix: fix, timeout: timeout, maxAge: maxAge, now: time.Now}
}

// Name implements Source.
func (d *Device) Name() string { return string(core.SourceDevice) }

// Locate implements Source.
func (d *Device) Locate(ctx context.Context) (core.Location, error) {
	if d.fix == nil {
		return core.Location{}, ErrNoCapability
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	fix, err := d.fix(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.Location{}, fmt.Errorf("device fix timed out after %s: %w", d.timeout, err)
		}
		return core.Location{}, fmt.Errorf("device fix failed: %w", err)
	}

	if !fix.Timestamp.IsZero() && d.now().Sub(fix.Timestamp) > d.maxAge {
		return core.Location{}, ErrStaleFix
	}
	if err := geo.ValidateLatLon(fix.Lat, fix.Lon); err != nil {
		return core.Location{}, fmt.Errorf("device fix: %w", err)
	}

	return core.Location{Lat: fix.Lat, Lon: fix.Lon, Source: core.SourceDevice}, nil
}
