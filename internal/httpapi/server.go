// Package httpapi serves the descriptor and viewpoint endpoints and mounts
// the streaming socket.
package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/earthview/globe/internal/descriptor"
	"github.com/earthview/globe/internal/logging"
	"github.com/earthview/globe/internal/storage"
	"github.com/earthview/globe/pkg/core"
)

const maxBodySize = 1 << 16

// Options configures a Server.
type Options struct {
	Storage   storage.Backend
	Stream    http.Handler
	ShareRoot string
	Logger    *slog.Logger
	// Sessions reports the number of open stream sessions for the healthcheck.
	Sessions func() int
	// Status, when set, backs GET /api/status.
	Status func() any
}

// Server routes the HTTP API.
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// DescriptorResponse is returned by POST /api/descriptor.
type DescriptorResponse struct {
	Descriptor string           `json:"descriptor"`
	URL        string           `json:"url"`
	Camera     core.CameraState `json:"camera"`
}

// ViewpointRequest is the body of POST /api/viewpoints.
type ViewpointRequest struct {
	Name       string `json:"name"`
	Descriptor string `json:"descriptor"`
}

// HealthResponse is returned by GET /healthcheck.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds a Server. Storage is required; Stream is optional.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{opts: opts, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /healthcheck", s.handleHealth)
	s.mux.HandleFunc("GET /api/descriptor/{code}", s.handleDecode)
	s.mux.HandleFunc("POST /api/descriptor", s.handleEncode)
	s.mux.HandleFunc("GET /api/viewpoints", s.handleListViewpoints)
	s.mux.HandleFunc("POST /api/viewpoints", s.handleSaveViewpoint)
	s.mux.HandleFunc("GET /api/viewpoints/{name}", s.handleGetViewpoint)
	if opts.Status != nil {
		s.mux.HandleFunc("GET /api/status", s.handleStatus)
	}
	if opts.Stream != nil {
		s.mux.Handle("GET /ws", opts.Stream)
	}
	return s
}

// ServeHTTP logs each request and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logging.WithAttrs(r.Context(),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	r = r.WithContext(ctx)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.opts.Logger.DebugContext(ctx, "HTTP request",
		"status", rec.status,
		"duration", time.Since(start))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.opts.Sessions != nil {
		resp.Sessions = s.opts.Sessions()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Status())
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	camera, err := descriptor.Parse(code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, camera)
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var camera core.CameraState
	if err := decodeBody(w, r, &camera); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	camera.SetFov(camera.FovDeg)
	code := descriptor.Encode(camera)
	writeJSON(w, http.StatusOK, DescriptorResponse{
		Descriptor: code,
		URL:        descriptor.ShareURL(s.opts.ShareRoot, code),
		Camera:     camera,
	})
}

func (s *Server) handleListViewpoints(w http.ResponseWriter, r *http.Request) {
	viewpoints, err := s.opts.Storage.ListViewpoints(r.Context())
	if err != nil {
		s.internalError(w, r, "list viewpoints", err)
		return
	}
	if viewpoints == nil {
		viewpoints = []core.Viewpoint{}
	}
	writeJSON(w, http.StatusOK, viewpoints)
}

func (s *Server) handleSaveViewpoint(w http.ResponseWriter, r *http.Request) {
	var req ViewpointRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vp := core.Viewpoint{Name: req.Name, Descriptor: req.Descriptor}
	err := s.opts.Storage.SaveViewpoint(r.Context(), &vp)
	switch {
	case errors.Is(err, storage.ErrInvalidViewpoint), errors.Is(err, descriptor.ErrInvalidDescriptor):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		s.internalError(w, r, "save viewpoint", err)
	default:
		writeJSON(w, http.StatusCreated, vp)
	}
}

func (s *Server) handleGetViewpoint(w http.ResponseWriter, r *http.Request) {
	vp, err := s.opts.Storage.GetViewpoint(r.Context(), r.PathValue("name"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		s.internalError(w, r, "get viewpoint", err)
	default:
		writeJSON(w, http.StatusOK, vp)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.opts.Logger.ErrorContext(r.Context(), "Storage request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack hands the connection to the websocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
