// Package globe composes the camera components into one session: the
// startup flow, location framing and the per-frame update handed to a
// Renderer.
package globe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/earthview/globe/internal/descriptor"
	"github.com/earthview/globe/internal/geo"
	"github.com/earthview/globe/internal/pulse"
	"github.com/earthview/globe/internal/rotation"
	"github.com/earthview/globe/internal/transition"
	"github.com/earthview/globe/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultCamera is the camera before any descriptor or framing.
var DefaultCamera = core.CameraState{
	Position: core.Vec3{X: 0, Y: 0.25, Z: 3.6},
	FovDeg:   core.DefaultFov,
}

// Renderer draws one frame.
type Renderer interface {
	Render(frame core.Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(frame core.Frame) error

// Render implements Renderer.
func (f RendererFunc) Render(frame core.Frame) error { return f(frame) }

// Config tunes a session.
type Config struct {
	TransitionDuration time.Duration
	Pulse              pulse.Config
}

// Options configures a new Session.
type Options struct {
	Renderer Renderer
	Logger   *slog.Logger
	Config   Config
}

// Session is one viewer's globe. Not safe for concurrent use: a single
// goroutine calls Tick and feeds it events.
type Session struct {
	renderer Renderer
	logger   *slog.Logger
	cfg      Config

	camera core.CameraState
	target core.Vec3

	mover  *transition.Scheduler
	modes  *rotation.Controller
	pulses *pulse.Emitter
	banner banner

	// autoFrame is whether a resolved location moves the camera. A
	// user-applied descriptor clears it for the rest of the session.
	autoFrame bool

	globeAngle float64
	cloudAngle float64
	seq        uint64
	// clock is the time of the tick in progress, read by transition callbacks.
	clock time.Time

	transitionsStarted   metric.Int64Counter
	transitionsCompleted metric.Int64Counter
	pulsesSpawned        metric.Int64Counter
	locationResults      metric.Int64Counter
}

// New creates a session with the default camera in Search mode.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(opts Options) (*Session, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("globe: renderer is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config.TransitionDuration <= 0 {
		opts.Config.TransitionDuration = transition.DefaultDuration
	}

	s := &Session{
		renderer: opts.Renderer,
		logger:   opts.Logger,
		cfg:      opts.Config,
		camera:   DefaultCamera,
		mover:    transition.New(),
		modes:    rotation.NewController(),
		pulses:   pulse.New(opts.Config.Pulse),

		autoFrame: true,
	}

	m := meter()
	var err error
	s.transitionsStarted, err = m.Int64Counter("globe.transitions.started",
		metric.WithDescription("Camera transitions started"))
	if err != nil {
		return nil, fmt.Errorf("create transitions started counter: %w", err)
	}
	s.transitionsCompleted, err = m.Int64Counter("globe.transitions.completed",
		metric.WithDescription("Camera transitions that reached their target"))
	if err != nil {
		return nil, fmt.Errorf("create transitions completed counter: %w", err)
	}
	s.pulsesSpawned, err = m.Int64Counter("globe.pulses.spawned",
		metric.WithDescription("Marker pulses spawned"))
	if err != nil {
		return nil, fmt.Errorf("create pulses counter: %w", err)
	}
	s.locationResults, err = m.Int64Counter("globe.location.results",
		metric.WithDescription("Location resolutions by source"))
	if err != nil {
		return nil, fmt.Errorf("create location counter: %w", err)
	}

	s.pulses.OnSpawn = func(pulse.Pulse) {
		s.pulsesSpawned.Add(context.Background(), 1)
	}
	return s, nil
}

// Init applies the startup descriptor. A valid descriptor sets the camera
// and puts the globe in Free mode; anything else leaves the default camera
// in Search mode. The result says whether the located position should be
// framed automatically.
func (s *Session) Init(desc string) (autoFrame bool) {
	state, ok := descriptor.Decode(desc)
	if !ok {
		if desc != "" {
			s.logger.Warn("Invalid camera descriptor", "descriptor", desc)
		}
		s.modes.Handle(rotation.InitWithoutDescriptor)
		s.autoFrame = true
		return true
	}
	s.setCamera(state)
	s.modes.Handle(rotation.InitWithDescriptor)
	s.autoFrame = false
	s.logger.Debug("Camera descriptor applied", "descriptor", desc)
	return false
}

// AutoFrame reports whether a resolved location will be framed.
func (s *Session) AutoFrame() bool {
	return s.autoFrame
}

// BeginLocate marks the start of location resolution. It only has an effect
// while auto-framing.
func (s *Session) BeginLocate(now time.Time) {
	if !s.autoFrame {
		return
	}
	s.modes.Handle(rotation.SearchStarted)
	s.banner.show(StatusSearching, true, now)
}

// ApplyLocation places the marker for a resolved location and, while
// auto-framing, flies the camera to it. A location arriving after a
// descriptor was applied only places the marker.
func (s *Session) ApplyLocation(loc core.Location, now time.Time) {
	autoFrame := s.autoFrame

	s.locationResults.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("source", string(loc.Source))))

	if !loc.Resolved() {
		s.modes.Handle(rotation.LocationFailed)
		s.banner.show(StatusFailed, false, now)
		s.logger.Info("Location unavailable")
		return
	}

	s.banner.show(locationLabel(loc.Source, autoFrame), autoFrame, now)
	s.pulses.SetAnchor(geo.MarkerAnchor(loc.Lat, loc.Lon), now)
	s.logger.Info("Location resolved", "source", loc.Source, "lat", loc.Lat, "lon", loc.Lon)

	if !autoFrame {
		s.target = core.Vec3{}
		s.modes.Handle(rotation.AutoFrameDisabled)
		s.banner.hideAfter(StatusNoFrameDelay, now)
		return
	}

	markerVec := geo.LatLonToVector3(loc.Lat, loc.Lon, geo.MarkerRadius)
	s.target = markerVec
	s.modes.Handle(rotation.LocationFramed)
	s.mover.Start(s.camera.Position, geo.FocusPosition(markerVec), now, s.cfg.TransitionDuration, s.landed)
	s.transitionsStarted.Add(context.Background(), 1)
}

func (s *Session) landed() {
	s.modes.Handle(rotation.TransitionCompleted)
	s.banner.hideAfter(StatusLandedDelay, s.clock)
	s.transitionsCompleted.Add(context.Background(), 1)
}

// ApplyDescriptor jumps the camera to a descriptor, cancelling any flight
// and auto-framing of a later location. An invalid descriptor leaves the
// session untouched.
func (s *Session) ApplyDescriptor(desc string) error {
	state, err := descriptor.Parse(desc)
	if err != nil {
		return err
	}
	if s.mover.Active() {
		s.mover.Cancel()
		// the aligning banner would otherwise wait for a landing that never comes
		s.banner.hideAfter(0, time.Time{})
	}
	s.autoFrame = false
	s.setCamera(state)
	s.modes.Handle(rotation.DescriptorApplied)
	return nil
}

func (s *Session) setCamera(state core.CameraState) {
	s.camera = state
	s.target = core.Vec3{}
}

// Descriptor returns the share string for the current camera.
func (s *Session) Descriptor() string {
	return descriptor.Encode(s.camera)
}

// Camera returns the current camera.
func (s *Session) Camera() core.CameraState {
	return s.camera
}

// Target returns the current look-at point.
func (s *Session) Target() core.Vec3 {
	return s.target
}

// Mode returns the active rotation mode.
func (s *Session) Mode() rotation.Mode {
	return s.modes.Mode()
}

// Transitioning reports whether a camera flight is in progress.
func (s *Session) Transitioning() bool {
	return s.mover.Active()
}

// Tick advances the session by dt to now and renders the frame.
func (s *Session) Tick(now time.Time, dt time.Duration) (core.Frame, error) {
	s.clock = now

	globeDelta, cloudDelta := s.modes.Advance(dt.Seconds())
	s.globeAngle = wrapAngle(s.globeAngle + globeDelta)
	s.cloudAngle = wrapAngle(s.cloudAngle + cloudDelta)

	if pos, ok := s.mover.Tick(now); ok {
		s.camera.Position = pos
	}

	ex, ey := s.modes.SearchEffectsRotation()
	s.seq++
	frame := core.Frame{
		Seq:        s.seq,
		Camera:     s.camera,
		Target:     s.target,
		Mode:       s.modes.Mode().String(),
		GlobeDelta: globeDelta,
		CloudDelta: cloudDelta,
		GlobeAngle: s.globeAngle,
		CloudAngle: s.cloudAngle,
		SearchEffects: core.SearchEffects{
			Visible:   s.modes.SearchEffectsVisible(),
			RotationX: ex,
			RotationY: ey,
		},
		Pulses: s.pulses.Tick(now),
		Status: s.banner.tick(now),
	}

	if err := s.renderer.Render(frame); err != nil {
		return frame, fmt.Errorf("render frame %d: %w", frame.Seq, err)
	}
	return frame, nil
}

func wrapAngle(a float64) float64 {
	return math.Mod(a, 2*math.Pi)
}
