package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/earthview/globe/internal/descriptor"
	"github.com/earthview/globe/internal/location"
	ws "github.com/gorilla/websocket"
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Config    Config
	IP        location.Source
	Registry  *Registry
	Recorders []LocationRecorder
	Logger    *slog.Logger
	// BaseContext bounds every session; cancelling it ends them all.
	BaseContext context.Context
	// CheckOrigin overrides the upgrader's same-origin check.
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades requests to WebSocket and runs one Session per connection.
type Handler struct {
	opts     HandlerOptions
	upgrader ws.Upgrader
	nextID   atomic.Uint64
}

// NewHandler creates a stream handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	return &Handler{
		opts: opts,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
}

// Registry returns the registry sessions are tracked in.
func (h *Handler) Registry() *Registry {
	return h.opts.Registry
}

// ServeHTTP implements http.Handler. It blocks for the life of the session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	desc := descriptor.FromURL(r.URL, h.opts.Config.SiteBase)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.opts.Logger.Warn("WebSocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	id := strconv.FormatUint(h.nextID.Add(1), 10)
	sess, err := newSession(sessionOptions{
		id:         id,
		conn:       conn,
		cfg:        h.opts.Config,
		descriptor: desc,
		ip:         h.opts.IP,
		recorders:  h.opts.Recorders,
		logger:     h.opts.Logger,
	})
	if err != nil {
		h.opts.Logger.Error("Failed to create session", "error", err)
		_ = conn.Close()
		return
	}

	h.opts.Registry.Add(sess)
	defer h.opts.Registry.Remove(id)

	h.opts.Logger.Info("Session started", "session", id, "descriptor", desc, "remote", r.RemoteAddr)
	if err := sess.Run(h.opts.BaseContext); err != nil && !errors.Is(err, context.Canceled) {
		h.opts.Logger.Warn("Session ended with error", "session", id, "error", err)
		return
	}
	h.opts.Logger.Info("Session ended", "session", id)
}
