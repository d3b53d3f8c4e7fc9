// ABOUTME: Run scheduler starts one background goroutine per processing run
// ABOUTME: Tracks in-flight runs per article so a retry can cancel the run it replaces

package workers

import (
	"context"
	"sync"
	"time"

	apperrors "readaloud-api/core/errors"
	"readaloud-api/core/interfaces"

	"golang.org/x/sync/semaphore"
)

// RunFunc executes one run; it must honour ctx cancellation
type RunFunc func(ctx context.Context, articleID string, attempt int)

// SchedulerConfig holds configuration for the run scheduler
type SchedulerConfig struct {
	// MaxConcurrentRuns caps runs executing at once; zero means unlimited.
	// Runs over the cap wait for a slot.
	MaxConcurrentRuns int
}

// RunScheduler implements interfaces.RunScheduler
type RunScheduler struct {
	run    RunFunc
	logger interfaces.Logger
	slots  *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]*runHandle
	stopped  bool
}

type runHandle struct {
	attempt int
	cancel  context.CancelCauseFunc
}

// NewRunScheduler creates a scheduler that executes runs with run
func NewRunScheduler(run RunFunc, config SchedulerConfig, logger interfaces.Logger) *RunScheduler {
	ctx, cancel := context.WithCancelCause(context.Background())

	s := &RunScheduler{
		run:      run,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]*runHandle),
	}
	if config.MaxConcurrentRuns > 0 {
		s.slots = semaphore.NewWeighted(int64(config.MaxConcurrentRuns))
	}
	return s
}

// Schedule implements interfaces.RunScheduler
func (s *RunScheduler) Schedule(articleID string, attempt int) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSchedulerStopped
	}

	if previous, ok := s.inflight[articleID]; ok {
		previous.cancel(apperrors.ErrSuperseded)
		s.logger.Info("Cancelled superseded run", map[string]interface{}{
			"article_id":  articleID,
			"old_attempt": previous.attempt,
			"new_attempt": attempt,
		})
	}

	ctx, cancel := context.WithCancelCause(s.ctx)
	handle := &runHandle{attempt: attempt, cancel: cancel}
	s.inflight[articleID] = handle
	s.wg.Add(1)
	s.mu.Unlock()

	go s.execute(ctx, articleID, handle)
	return nil
}

func (s *RunScheduler) execute(ctx context.Context, articleID string, handle *runHandle) {
	defer s.wg.Done()
	defer s.release(articleID, handle)

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			s.logger.Info("Run cancelled before it started", map[string]interface{}{
				"article_id": articleID,
				"attempt":    handle.attempt,
				"reason":     context.Cause(ctx).Error(),
			})
			return
		}
		defer s.slots.Release(1)
	}

	s.run(ctx, articleID, handle.attempt)
}

func (s *RunScheduler) release(articleID string, handle *runHandle) {
	s.mu.Lock()
	if s.inflight[articleID] == handle {
		delete(s.inflight, articleID)
	}
	s.mu.Unlock()
	handle.cancel(nil)
}

// InFlight returns the number of runs scheduled and not yet finished
func (s *RunScheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Stop refuses new runs and waits for in-flight ones. When ctx ends first
// the remaining runs are cancelled with ErrShuttingDown and Stop returns
// once they have exited.
func (s *RunScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	pending := len(s.inflight)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	started := time.Now()
	select {
	case <-done:
		s.cancel(ErrShuttingDown)
		return nil
	case <-ctx.Done():
		s.logger.Warn("Cancelling in-flight runs", map[string]interface{}{
			"pending": pending,
			"waited":  time.Since(started).String(),
		})
		s.cancel(ErrShuttingDown)
		<-done
		return ctx.Err()
	}
}

// Error definitions
var (
	ErrSchedulerStopped = &WorkerError{Message: "run scheduler is stopped"}
	ErrShuttingDown     = &WorkerError{Message: "server shutting down"}
)

// WorkerError represents a worker-specific error
type WorkerError struct {
	Message string
}

func (e *WorkerError) Error() string {
	return e.Message
}
