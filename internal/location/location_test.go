package location

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/earthview/globe/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a fixed result and counts calls.
type stubSource struct {
	name  string
	loc   core.Location
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Locate(ctx context.Context) (core.Location, error) {
	s.calls++
	return s.loc, s.err
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestResolver_DeviceFirst(t *testing.T) {
	device := &stubSource{name: "device", loc: core.Location{Lat: 1, Lon: 2, Source: core.SourceDevice}}
	ip := &stubSource{name: "ip", loc: core.Location{Lat: 3, Lon: 4, Source: core.SourceIP}}
	logger, _ := newTestLogger()

	loc := NewResolver(logger, device, ip).Resolve(context.Background())

	assert.Equal(t, core.SourceDevice, loc.Source)
	assert.Equal(t, 1, device.calls)
	assert.Equal(t, 0, ip.calls)
}

func TestResolver_FallsBackToIP(t *testing.T) {
	device := &stubSource{name: "device", err: ErrNoCapability}
	ip := &stubSource{name: "ip", loc: core.Location{Lat: 3, Lon: 4, Source: core.SourceIP}}
	logger, buf := newTestLogger()

	loc := NewResolver(logger, device, ip).Resolve(context.Background())

	assert.Equal(t, core.Location{Lat: 3, Lon: 4, Source: core.SourceIP}, loc)
	assert.Contains(t, buf.String(), "Location source failed")
	assert.Contains(t, buf.String(), "source=device")
}

func TestResolver_Unresolved(t *testing.T) {
	device := &stubSource{name: "device", err: errors.New("denied")}
	ip := &stubSource{name: "ip", err: errors.New("offline")}
	logger, _ := newTestLogger()

	loc := NewResolver(logger, device, ip).Resolve(context.Background())

	assert.Equal(t, core.Unresolved, loc)
	assert.False(t, loc.Resolved())
	// each tier runs exactly once
	assert.Equal(t, 1, device.calls)
	assert.Equal(t, 1, ip.calls)
}

func TestResolver_SkipsUnresolvedResult(t *testing.T) {
	empty := &stubSource{name: "device", loc: core.Unresolved}
	ip := &stubSource{name: "ip", loc: core.Location{Lat: 3, Lon: 4, Source: core.SourceIP}}

	loc := NewResolver(nil, empty, ip).Resolve(context.Background())
	assert.Equal(t, core.SourceIP, loc.Source)
}

func TestResolver_CancelledContext(t *testing.T) {
	device := &stubSource{name: "device", loc: core.Location{Lat: 1, Lon: 2, Source: core.SourceDevice}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loc := NewResolver(nil, device).Resolve(ctx)
	assert.Equal(t, core.Unresolved, loc)
	assert.Equal(t, 0, device.calls)
}

func TestAsync(t *testing.T) {
	ip := &stubSource{name: "ip", loc: core.Location{Lat: 3, Lon: 4, Source: core.SourceIP}}

	ch := Async(context.Background(), NewResolver(nil, ip))

	select {
	case loc := <-ch:
		assert.Equal(t, core.SourceIP, loc.Source)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for location")
	}

	_, open := <-ch
	require.False(t, open)
}
