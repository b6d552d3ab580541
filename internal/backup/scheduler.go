// ABOUTME: Ticker-driven automatic backup scheduler with retention pruning.
// ABOUTME: Runs one snapshot per interval and prunes old files beyond keep count.

package backup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler periodically snapshots the store into a directory and
// prunes files beyond the retention count.
type Scheduler struct {
	coord    *Coordinator
	dir      string
	interval time.Duration
	keep     int
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewScheduler builds a scheduler over coord. Snapshots land in dir
// every interval; at most keep files are retained.
func NewScheduler(coord *Coordinator, dir string, interval time.Duration, keep int) *Scheduler {
	return &Scheduler{
		coord:    coord,
		dir:      dir,
		interval: interval,
		keep:     keep,
		logger:   slog.Default().With("component", "backup-scheduler"),
	}
}

// Start launches the background loop. Starting a running scheduler is
// a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
	s.logger.Info("automatic backups enabled", "dir", s.dir,
		"interval", s.interval, "keep", s.keep)
}

// Stop halts the loop and waits for an in-flight snapshot to finish.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("automatic backups stopped")
}

func (s *Scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	job, err := s.coord.ScheduleAutomatic(ctx, s.dir)
	if err != nil {
		s.logger.Error("automatic backup failed", "error", err)
		return
	}
	if job.Failed() {
		s.logger.Error("automatic backup failed", "error", job.ErrorMessage)
		return
	}
	if _, err := s.coord.Prune(s.dir, s.keep); err != nil {
		s.logger.Warn("pruning automatic backups", "error", err)
	}
}
