// Package transition animates the camera between two positions, one frame at a time.
package transition

import (
	"math"
	"time"

	"github.com/earthview/globe/pkg/core"
)

// DefaultDuration is the flight time used when none is configured.
const DefaultDuration = 2600 * time.Millisecond

// EaseOutCubic decelerates toward the endpoint: f(t) = 1 - (1-t)^3.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Job is an in-flight interpolation.
type Job struct {
	StartTime  time.Time
	Duration   time.Duration
	From       core.Vec3
	To         core.Vec3
	OnComplete func()
}

// progress returns the clamped linear progress of the job at now.
func (j *Job) progress(now time.Time) float64 {
	if j.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(j.StartTime)) / float64(j.Duration)
	return min(1, max(0, p))
}

// Scheduler holds at most one Job. It is not safe for concurrent use; the
// frame loop that calls Tick owns it.
type Scheduler struct {
	job *Job
}

// New returns an idle scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Start begins a flight from -> to, discarding any unfinished job.
// onComplete may be nil.
func (s *Scheduler) Start(from, to core.Vec3, now time.Time, duration time.Duration, onComplete func()) {
	s.job = &Job{
		StartTime:  now,
		Duration:   duration,
		From:       from,
		To:         to,
		OnComplete: onComplete,
	}
}

// Active reports whether a job is in flight.
func (s *Scheduler) Active() bool {
	return s.job != nil
}

// Cancel drops the current job without calling its callback.
func (s *Scheduler) Cancel() {
	s.job = nil
}

// Target returns the destination of the current job.
func (s *Scheduler) Target() (core.Vec3, bool) {
	if s.job == nil {
		return core.Vec3{}, false
	}
	return s.job.To, true
}

// Tick advances the current job to now and returns the interpolated
// position. ok is false when no job is active. When the job reaches its end
// it is cleared before OnComplete runs, so the callback may start a new one.
func (s *Scheduler) Tick(now time.Time) (pos core.Vec3, ok bool) {
	job := s.job
	if job == nil {
		return core.Vec3{}, false
	}

	p := job.progress(now)
	pos = job.From.Lerp(job.To, EaseOutCubic(p))

	if p >= 1 {
		pos = job.To
		s.job = nil
		if job.OnComplete != nil {
			job.OnComplete()
		}
	}
	return pos, true
}
