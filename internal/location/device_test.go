package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/earthview/globe/internal/geo"
	"github.com/earthview/globe/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_NoCapability(t *testing.T) {
	d := NewDevice(nil, 0, 0)
	_, err := d.Locate(context.Background())
	assert.ErrorIs(t, err, ErrNoCapability)
}

func TestDevice_Success(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDevice(func(ctx context.Context) (Fix, error) {
		return Fix{Lat: 45.5, Lon: -73.6, Timestamp: now.Add(-30 * time.Second)}, nil
	}, time.Second, time.Minute)
	d.now = func() time.Time { return now }

	loc, err := d.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Location{Lat: 45.5, Lon: -73.6, Source: core.SourceDevice}, loc)
}

func TestDevice_StaleFix(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := NewDevice(func(ctx context.Context) (Fix, error) {
		return Fix{Lat: 1, Lon: 1, Timestamp: now.Add(-61 * time.Second)}, nil
	}, time.Second, DefaultMaxFixAge)
	d.now = func() time.Time { return now }

	_, err := d.Locate(context.Background())
	assert.ErrorIs(t, err, ErrStaleFix)
}

func TestDevice_Timeout(t *testing.T) {
	d := NewDevice(func(ctx context.Context) (Fix, error) {
		<-ctx.Done()
		return Fix{}, ctx.Err()
	}, 20*time.Millisecond, 0)

	start := time.Now()
	_, err := d.Locate(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDevice_Refused(t *testing.T) {
	denied := errors.New("permission denied")
	d := NewDevice(func(ctx context.Context) (Fix, error) {
		return Fix{}, denied
	}, time.Second, 0)

	_, err := d.Locate(context.Background())
	assert.ErrorIs(t, err, denied)
}

func TestDevice_InvalidCoordinates(t *testing.T) {
	d := NewDevice(func(ctx context.Context) (Fix, error) {
		return Fix{Lat: 123, Lon: 0}, nil
	}, time.Second, 0)

	_, err := d.Locate(context.Background())
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestNewDevice_Defaults(t *testing.T) {
	d := NewDevice(nil, 0, 0)
	assert.Equal(t, DefaultDeviceTimeout, d.timeout)
	assert.Equal(t, DefaultMaxFixAge, d.maxAge)
	assert.Equal(t, "device", d.Name())
}
