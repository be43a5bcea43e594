package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger *slog.Logger
	// Sessions lists the IDs of open stream sessions.
	Sessions func() []string
	// PendingLookups reports location lookups queued for storage. Optional.
	PendingLookups func() int
	// StatusPath is rewritten with the JSON status on every tick. Optional.
	StatusPath string
	Interval   time.Duration
	StartedAt  time.Time
}

// Status is a point-in-time view of the service.
type Status struct {
	Time           time.Time `json:"time"`
	Uptime         string    `json:"uptime"`
	ActiveSessions int       `json:"activeSessions"`
	SessionIDs     []string  `json:"sessionIds"`
	PendingLookups int       `json:"pendingLookups"`
	Goroutines     int       `json:"goroutines"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
	now       func() time.Time
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current service status
func (s *Service) GetStatus() Status {
	now := s.now()
	status := Status{
		Time:       now.UTC(),
		Uptime:     now.Sub(s.deps.StartedAt).Round(time.Second).String(),
		SessionIDs: []string{},
		Goroutines: runtime.NumGoroutine(),
	}
	if s.deps.Sessions != nil {
		status.SessionIDs = s.deps.Sessions()
		status.ActiveSessions = len(status.SessionIDs)
	}
	if s.deps.PendingLookups != nil {
		status.PendingLookups = s.deps.PendingLookups()
	}
	return status
}

// WriteStatus writes the current status to StatusPath.
func (s *Service) WriteStatus() error {
	if s.deps.StatusPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusPath)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval, "path", s.deps.StatusPath)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
