package pulse

import (
	"math"
	"testing"
	"time"

	"github.com/earthview/globe/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

var anchorA = core.Anchor{Position: core.Vec3{X: 1.025}, Normal: core.Vec3{X: 1}}
var anchorB = core.Anchor{Position: core.Vec3{Y: 1.025}, Normal: core.Vec3{Y: 1}}

// hourlyConfig keeps the stock appearance but emits a single ring.
func hourlyConfig() Config {
	cfg := DefaultConfig()
	cfg.Interval = time.Hour
	return cfg
}

func TestEmitter_NoAnchor(t *testing.T) {
	e := New(Config{})
	assert.Empty(t, e.Tick(at(5000)))
	_, ok := e.Anchor()
	assert.False(t, ok)
}

func TestEmitter_ScaleAndOpacity(t *testing.T) {
	e := New(Config{})
	e.SetAnchor(anchorA, at(0))

	frames := e.Tick(at(0))
	require.Len(t, frames, 1)
	assert.Equal(t, 1.0, frames[0].Scale)
	assert.InDelta(t, DefaultBaseOpacity, frames[0].Opacity, 1e-12)

	frames = e.Tick(at(900))
	require.Len(t, frames, 1)
	assert.InDelta(t, 2.1, frames[0].Scale, 1e-9)
	assert.InDelta(t, 0.175, frames[0].Opacity, 1e-9)
	assert.Equal(t, anchorA, frames[0].Anchor)
}

func TestEmitter_RetiresAtDuration(t *testing.T) {
	e := New(hourlyConfig())
	e.SetAnchor(anchorA, at(0))

	frames := e.Tick(at(1799))
	require.Len(t, frames, 1)

	frames = e.Tick(at(1800))
	assert.Empty(t, frames)
	assert.Equal(t, 0, e.Len())
}

func TestEmitter_Cadence(t *testing.T) {
	spawned := 0
	e := New(Config{})
	e.OnSpawn = func(Pulse) { spawned++ }
	e.SetAnchor(anchorA, at(0))

	assert.Len(t, e.Tick(at(1499)), 1)

	// second ring overlaps the first
	frames := e.Tick(at(1500))
	require.Len(t, frames, 2)
	assert.Greater(t, frames[0].Scale, frames[1].Scale, "oldest first")
	assert.Less(t, frames[0].Opacity, frames[1].Opacity)

	frames = e.Tick(at(1800))
	require.Len(t, frames, 1)
	assert.Equal(t, 2, spawned)

	frames = e.Tick(at(3000))
	require.Len(t, frames, 2)
	assert.Equal(t, 3, spawned)
}

func TestEmitter_MonotonicInAge(t *testing.T) {
	e := New(hourlyConfig())
	e.SetAnchor(anchorA, at(0))

	prevScale, prevOpacity := 0.0, 1.0
	for ms := 0; ms < 1800; ms += 100 {
		frames := e.Tick(at(ms))
		require.Len(t, frames, 1)
		assert.Greater(t, frames[0].Scale, prevScale)
		assert.Less(t, frames[0].Opacity, prevOpacity)
		prevScale, prevOpacity = frames[0].Scale, frames[0].Opacity
	}
}

func TestEmitter_NewAnchorDiscardsPulses(t *testing.T) {
	e := New(Config{})
	e.SetAnchor(anchorA, at(0))
	e.Tick(at(1500))
	require.Equal(t, 2, e.Len())

	e.SetAnchor(anchorB, at(1600))
	frames := e.Tick(at(1600))
	require.Len(t, frames, 1)
	assert.Equal(t, anchorB, frames[0].Anchor)
	assert.Equal(t, 1.0, frames[0].Scale)

	got, ok := e.Anchor()
	require.True(t, ok)
	assert.Equal(t, anchorB, got)
}

func TestEmitter_ClearAnchor(t *testing.T) {
	e := New(Config{})
	e.SetAnchor(anchorA, at(0))
	e.Tick(at(1500))

	e.ClearAnchor()
	assert.Equal(t, 0, e.Len())
	assert.Empty(t, e.Tick(at(4000)))
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, DefaultDuration, cfg.Duration)
	assert.Equal(t, DefaultBaseOpacity, cfg.BaseOpacity)
	assert.Equal(t, DefaultGrowth, cfg.Growth)

	custom := Config{Interval: time.Second, Duration: 2 * time.Second, BaseOpacity: 0.5, Growth: 3}.withDefaults()
	assert.Equal(t, time.Second, custom.Interval)
	assert.Equal(t, 0.5, custom.BaseOpacity)
}

func TestConfig_ZeroAppearanceKept(t *testing.T) {
	cfg := Config{Interval: time.Hour, BaseOpacity: 0, Growth: 0}.withDefaults()
	assert.Equal(t, DefaultDuration, cfg.Duration)
	assert.Equal(t, 0.0, cfg.BaseOpacity)
	assert.Equal(t, 0.0, cfg.Growth)

	e := New(cfg)
	e.SetAnchor(anchorA, at(0))
	frames := e.Tick(at(900))
	require.Len(t, frames, 1)
	assert.Equal(t, 1.0, frames[0].Scale)
	assert.Equal(t, 0.0, frames[0].Opacity)
}

func TestConfig_NegativeAppearanceTakesDefault(t *testing.T) {
	cfg := Config{Interval: time.Second, BaseOpacity: -1, Growth: math.NaN()}.withDefaults()
	assert.Equal(t, DefaultBaseOpacity, cfg.BaseOpacity)
	assert.Equal(t, DefaultGrowth, cfg.Growth)
}
