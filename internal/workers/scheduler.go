package workers

import (
	"context"
	"sync"
	"time"

	"profitscout/pkg/errors"
	"profitscout/pkg/logger"
)

// DefaultShutdownTimeout bounds how long Stop waits for in-flight runs.
// Enrichment over a large universe can take a while to drain.
const DefaultShutdownTimeout = 2 * time.Minute

// Scheduler runs registered workers on their individual intervals
type Scheduler struct {
	workers         []Worker
	shutdownTimeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	log     *logger.Logger
	started bool
}

// NewScheduler creates a new worker scheduler
func NewScheduler(shutdownTimeout time.Duration) *Scheduler {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Scheduler{
		shutdownTimeout: shutdownTimeout,
		log:             logger.Get().With("component", "scheduler"),
	}
}

// Register adds a worker. Registration after Start is rejected.
func (s *Scheduler) Register(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnf("cannot register worker %s after scheduler start", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start launches every enabled worker in its own goroutine. Each worker runs
// once immediately and then on every interval tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Infow("starting scheduler", "workers", len(s.workers))

	for _, w := range s.workers {
		if !w.Enabled() {
			s.log.Infow("skipping disabled worker", "worker", w.Name())
			continue
		}
		s.wg.Add(1)
		go s.runLoop(w)
	}
	return nil
}

// Stop cancels all workers and waits for in-flight runs to drain
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("stopping scheduler")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		s.log.Info("all workers stopped")
	case <-time.After(s.shutdownTimeout):
		err = errors.Wrapf(errors.ErrInternal, "shutdown timed out after %s", s.shutdownTimeout)
		s.log.Warnf("worker shutdown timed out after %s", s.shutdownTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return err
}

// Workers returns the registered workers for health reporting
func (s *Scheduler) Workers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

// IsRunning reports whether the scheduler has been started
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Scheduler) runLoop(w Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	s.execute(w)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("worker stopping", "worker", w.Name())
			return
		case <-ticker.C:
			s.execute(w)
		}
	}
}

// execute runs one iteration, containing panics so one bad run never takes
// down the scheduler
func (s *Scheduler) execute(w Worker) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("worker panicked", "worker", w.Name(), "panic", r)
		}
	}()

	if err := w.Run(s.ctx); err != nil {
		s.log.Errorw("worker run failed",
			"worker", w.Name(),
			"error", err,
			"duration", time.Since(start),
		)
		return
	}
	s.log.Debugw("worker run completed",
		"worker", w.Name(),
		"duration", time.Since(start),
	)
}
