// Package pulse emits expanding, fading rings around a marker anchor.
package pulse

import (
	"math"
	"time"

	"github.com/earthview/globe/pkg/core"
)

// Defaults for the emitter cadence and ring appearance.
const (
	DefaultInterval    = 1500 * time.Millisecond
	DefaultDuration    = 1800 * time.Millisecond
	DefaultBaseOpacity = 0.35
	DefaultGrowth      = 2.2
)

// Config tunes an Emitter. The zero Config selects DefaultConfig. Otherwise
// a non-positive Interval or Duration takes its default, while BaseOpacity
// and Growth are used as given (0 is an invisible or non-growing ring) and
// only negative or NaN values take the default.
type Config struct {
	Interval    time.Duration
	Duration    time.Duration
	BaseOpacity float64
	Growth      float64
}

// DefaultConfig returns the stock cadence and ring appearance.
func DefaultConfig() Config {
	return Config{
		Interval:    DefaultInterval,
		Duration:    DefaultDuration,
		BaseOpacity: DefaultBaseOpacity,
		Growth:      DefaultGrowth,
	}
}

func (c Config) withDefaults() Config {
	if c == (Config{}) {
		return DefaultConfig()
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.BaseOpacity < 0 || math.IsNaN(c.BaseOpacity) {
		c.BaseOpacity = DefaultBaseOpacity
	}
	if c.Growth < 0 || math.IsNaN(c.Growth) {
		c.Growth = DefaultGrowth
	}
	return c
}

// Pulse is one live ring.
type Pulse struct {
	Anchor    core.Anchor
	StartTime time.Time
	Duration  time.Duration
}

// age returns the normalized age of p at now.
func (p Pulse) age(now time.Time) float64 {
	t := float64(now.Sub(p.StartTime)) / float64(p.Duration)
	return max(0, t)
}

// Emitter spawns pulses on a fixed cadence while an anchor is set. Pulses
// are kept oldest first. Not safe for concurrent use.
type Emitter struct {
	cfg Config

	anchor       *core.Anchor
	lastEmission time.Time
	pulses       []Pulse

	// OnSpawn, if set, is called for every new pulse.
	OnSpawn func(Pulse)
}

// New returns an emitter with no anchor.
func New(cfg Config) *Emitter {
	return &Emitter{cfg: cfg.withDefaults()}
}

// SetAnchor replaces the anchor, discards every pulse of the previous one
// and immediately spawns a pulse at now.
func (e *Emitter) SetAnchor(anchor core.Anchor, now time.Time) {
	e.anchor = &anchor
	e.pulses = e.pulses[:0]
	e.spawn(now)
}

// ClearAnchor removes the anchor and retires all pulses.
func (e *Emitter) ClearAnchor() {
	e.anchor = nil
	e.pulses = e.pulses[:0]
}

// Anchor returns the current anchor.
func (e *Emitter) Anchor() (core.Anchor, bool) {
	if e.anchor == nil {
		return core.Anchor{}, false
	}
	return *e.anchor, true
}

// Len returns the number of live pulses.
func (e *Emitter) Len() int {
	return len(e.pulses)
}

// Tick emits a pulse if one is due, retires pulses whose age has reached
// their duration and returns the live ones, oldest first.
func (e *Emitter) Tick(now time.Time) []core.PulseFrame {
	if e.anchor != nil && now.Sub(e.lastEmission) >= e.cfg.Interval {
		e.spawn(now)
	}

	frames := make([]core.PulseFrame, 0, len(e.pulses))
	live := e.pulses[:0]
	for _, p := range e.pulses {
		t := p.age(now)
		if t >= 1 {
			continue
		}
		live = append(live, p)
		frames = append(frames, core.PulseFrame{
			Anchor:  p.Anchor,
			Scale:   1 + t*e.cfg.Growth,
			Opacity: e.cfg.BaseOpacity * (1 - t),
		})
	}
	clear(e.pulses[len(live):])
	e.pulses = live
	return frames
}

func (e *Emitter) spawn(now time.Time) {
	p := Pulse{
		Anchor:    *e.anchor,
		StartTime: now,
		Duration:  e.cfg.Duration,
	}
	e.pulses = append(e.pulses, p)
	e.lastEmission = now
	if e.OnSpawn != nil {
		e.OnSpawn(p)
	}
}
