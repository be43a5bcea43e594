// Package stream serves globe sessions to browser renderers over WebSocket.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/earthview/globe/internal/globe"
	"github.com/earthview/globe/internal/location"
	"github.com/earthview/globe/pkg/core"
	"github.com/earthview/globe/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	inboxSize   = 16
	defaultFPS  = 30
	maxReadSize = 64 << 10
)

var errConnClosed = errors.New("connection closed")

// LocationRecorder keeps the outcome of every location resolution.
type LocationRecorder interface {
	RecordLocation(ctx context.Context, rec core.LocationRecord) error
}

// Config holds per-session settings.
type Config struct {
	FPS      int
	SiteBase string

	// DeviceLocation enables asking the client for a device fix.
	DeviceLocation bool
	DeviceTimeout  time.Duration
	MaxFixAge      time.Duration

	Globe globe.Config
}

func (c Config) frameInterval() time.Duration {
	fps := c.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	return time.Second / time.Duration(fps)
}

type fixResult struct {
	fix location.Fix
	err error
}

// Session is one connected viewer. Run owns the globe session; the read
// loop and the resolver goroutine only talk to it over channels.
type Session struct {
	id         string
	conn       *ws.Conn
	cfg        Config
	descriptor string
	logger     *slog.Logger

	globe     *globe.Session
	resolver  *location.Resolver
	recorders []LocationRecorder

	writeMu sync.Mutex

	inbox chan streaming.Envelope
	fixes chan fixResult

	done      chan struct{}
	closeOnce sync.Once

	errMu   sync.Mutex
	readErr error
}

type sessionOptions struct {
	id         string
	conn       *ws.Conn
	cfg        Config
	descriptor string
	ip         location.Source
	recorders  []LocationRecorder
	logger     *slog.Logger
}

func newSession(opts sessionOptions) (*Session, error) {
	s := &Session{
		id:         opts.id,
		conn:       opts.conn,
		cfg:        opts.cfg,
		descriptor: opts.descriptor,
		logger:     opts.logger.With("session", opts.id),
		recorders:  opts.recorders,
		inbox:      make(chan streaming.Envelope, inboxSize),
		fixes:      make(chan fixResult, 1),
		done:       make(chan struct{}),
	}

	g, err := globe.New(globe.Options{
		Renderer: s,
		Logger:   s.logger,
		Config:   opts.cfg.Globe,
	})
	if err != nil {
		return nil, err
	}
	s.globe = g

	var fix location.FixFunc
	if opts.cfg.DeviceLocation {
		fix = s.requestFix
	}
	sources := []location.Source{location.NewDevice(fix, opts.cfg.DeviceTimeout, opts.cfg.MaxFixAge)}
	if opts.ip != nil {
		sources = append(sources, opts.ip)
	}
	s.resolver = location.NewResolver(s.logger, sources...)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run drives the session until ctx is done or the client goes away.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()
	go s.readLoop()

	now := time.Now()
	s.globe.Init(s.descriptor)
	s.globe.BeginLocate(now)

	locCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	locStart := now
	results := location.Async(locCtx, s.resolver)

	ticker := time.NewTicker(s.cfg.frameInterval())
	defer ticker.Stop()
	last := now

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.done:
			return s.readError()

		case loc, ok := <-results:
			results = nil
			if !ok {
				continue
			}
			at := time.Now()
			s.globe.ApplyLocation(loc, at)
			s.record(ctx, loc, at, at.Sub(locStart))

		case env := <-s.inbox:
			s.handleMessage(env)

		case t := <-ticker.C:
			dt := t.Sub(last)
			last = t
			if _, err := s.globe.Tick(t, dt); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handleMessage(env streaming.Envelope) {
	switch env.Type {
	case streaming.TypeDescriptor:
		var p streaming.DescriptorPayload
		if err := env.DecodePayload(&p); err != nil {
			s.logger.Debug("Bad descriptor message", "error", err)
			s.sendStatus("Malformed descriptor request")
			return
		}
		if err := s.globe.ApplyDescriptor(p.Value); err != nil {
			s.logger.Info("Rejected camera descriptor", "descriptor", p.Value)
			s.sendStatus(fmt.Sprintf("Invalid camera descriptor %q", p.Value))
			return
		}
		if err := s.send(streaming.TypeAck, streaming.AckMessage{For: env.Type, Descriptor: s.globe.Descriptor()}); err != nil {
			s.logger.Warn("Failed to acknowledge descriptor", "error", err)
		}
	default:
		s.logger.Debug("Ignoring message", "type", env.Type)
	}
}

func (s *Session) sendStatus(text string) {
	if err := s.send(streaming.TypeStatus, streaming.StatusPayload{Text: text, Error: true}); err != nil {
		s.logger.Warn("Failed to send status", "error", err)
	}
}

func (s *Session) record(ctx context.Context, loc core.Location, at time.Time, took time.Duration) {
	rec := core.LocationRecord{
		SessionID: s.id,
		Time:      at,
		Location:  loc,
		Duration:  took,
	}
	for _, r := range s.recorders {
		if err := r.RecordLocation(ctx, rec); err != nil {
			s.logger.Warn("Failed to record location", "error", err)
		}
	}
}

// Render implements globe.Renderer by writing the frame to the client.
func (s *Session) Render(frame core.Frame) error {
	return s.send(streaming.TypeFrame, frame)
}

// requestFix asks the client for a device fix and waits for the answer.
func (s *Session) requestFix(ctx context.Context) (location.Fix, error) {
	deadline, _ := ctx.Deadline()
	payload := streaming.LocatePayload{MaxAgeMs: s.cfg.MaxFixAge.Milliseconds()}
	if !deadline.IsZero() {
		payload.TimeoutMs = time.Until(deadline).Milliseconds()
	}
	if err := s.send(streaming.TypeLocate, payload); err != nil {
		return location.Fix{}, err
	}

	select {
	case r := <-s.fixes:
		return r.fix, r.err
	case <-ctx.Done():
		return location.Fix{}, ctx.Err()
	case <-s.done:
		return location.Fix{}, errConnClosed
	}
}

// send writes one envelope. Writes are serialized because the resolver
// goroutine may send while Run renders.
func (s *Session) send(msgType string, payload any) error {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(ws.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", msgType, err)
	}
	return nil
}

// readLoop decodes client messages. Fix answers go to the resolver, the
// rest to Run.
func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxReadSize)
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				select {
				case <-s.done:
				default:
					s.logger.Warn("WebSocket read error", "error", err)
					s.errMu.Lock()
					s.readErr = err
					s.errMu.Unlock()
				}
			}
			s.shutdown()
			return
		}

		env, err := streaming.Unmarshal(message)
		if err != nil {
			s.logger.Debug("Dropping malformed message", "error", err)
			continue
		}

		switch env.Type {
		case streaming.TypeFix:
			var p streaming.FixPayload
			if err := env.DecodePayload(&p); err != nil {
				s.deliverFix(fixResult{err: err})
				continue
			}
			s.deliverFix(fixResult{fix: location.Fix{Lat: p.Lat, Lon: p.Lon, Timestamp: p.Timestamp}})
		case streaming.TypeNoFix:
			var p streaming.NoFixPayload
			_ = env.DecodePayload(&p)
			err := location.ErrNoCapability
			if p.Reason != "" {
				err = fmt.Errorf("%w: %s", location.ErrNoCapability, p.Reason)
			}
			s.deliverFix(fixResult{err: err})
		default:
			select {
			case s.inbox <- env:
			default:
				s.logger.Warn("Inbox full, dropping message", "type", env.Type)
			}
		}
	}
}

func (s *Session) readError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.readErr
}

func (s *Session) deliverFix(r fixResult) {
	select {
	case s.fixes <- r:
	default:
		s.logger.Debug("Unrequested fix dropped")
	}
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Close sends a close frame and releases the connection.
func (s *Session) Close() error {
	select {
	case <-s.done:
		return s.conn.Close()
	default:
	}
	s.shutdown()

	s.writeMu.Lock()
	_ = s.conn.WriteControl(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.writeMu.Unlock()
	return s.conn.Close()
}
