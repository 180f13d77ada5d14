package application

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Scheduler re-runs a sync whenever Trigger is called, once changes have
// been quiet for the debounce period. Runs never overlap; triggers that
// arrive during a run collapse into one follow-up run.
type Scheduler struct {
	log       *zap.Logger
	run       func(ctx context.Context) domain.SyncSummary
	debounce  time.Duration
	pauseFile string
	clock     clockwork.Clock

	trigger chan struct{}

	mu   sync.RWMutex
	last *domain.SyncSummary
	runs int
}

func NewScheduler(l *zap.Logger, run func(ctx context.Context) domain.SyncSummary, debounce time.Duration, pauseFile string, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		log: l.Named("scheduler"), run: run, debounce: debounce, pauseFile: pauseFile, clock: clock,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger asks for a sync. It never blocks.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Last returns the most recent summary and the number of completed runs.
func (s *Scheduler) Last() (*domain.SyncSummary, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.runs
}

// Run syncs once immediately and then on every settled trigger until ctx ends.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
		}

		if !s.settle(ctx) {
			return
		}
		s.tick(ctx)
	}
}

func (s *Scheduler) settle(ctx context.Context) bool {
	if s.debounce <= 0 {
		return ctx.Err() == nil
	}

	t := s.clock.NewTimer(s.debounce)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.trigger:
			t.Reset(s.debounce)
		case <-t.Chan():
			return true
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isPaused() {
		s.log.Debug("paused: skipping sync", zap.String("pause_file", s.pauseFile))
		return
	}

	sum := s.run(ctx)

	s.mu.Lock()
	s.last = &sum
	s.runs++
	s.mu.Unlock()

	if !sum.OK {
		s.log.Warn("sync run failed", zap.String("project", sum.ProjectID), zap.Strings("errors", sum.Errors))
	}
}

func (s *Scheduler) isPaused() bool {
	if s.pauseFile == "" {
		return false
	}
	_, err := os.Stat(s.pauseFile)
	return err == nil
}
