package sheetsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ideamans/go-sheetsync/logging"
)

// Runner is anything that performs one sync run
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Scheduler runs a Runner periodically. A tick that arrives while a run is
// still in progress is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	runMu    sync.Mutex
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	runs     int
	skipped  int
	failed   int
	lastErr  error
	statsMu  sync.Mutex
}

// NewScheduler creates a scheduler for runner
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logging.Named(logger, "sheetsync.scheduler"),
		done:     make(chan struct{}),
	}
}

// Start runs once immediately, then once per interval until Stop is called
// or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)

	s.logger.Info("Starting scheduled sync", "interval", s.interval)

	go func() {
		defer s.wg.Done()

		s.performRun(ctx)
		for {
			select {
			case <-s.ticker.C:
				s.wg.Add(1)
				go func() {
					defer s.wg.Done()
					s.performRun(ctx)
				}()
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}()
}

// performRun executes one run with exclusive control
func (s *Scheduler) performRun(ctx context.Context) {
	if !s.runMu.TryLock() {
		// Previous run still going, skip this cycle
		s.count(&s.skipped)
		s.logger.Warn("Previous sync still running; skipping this cycle")
		return
	}
	defer s.runMu.Unlock()

	s.count(&s.runs)
	if _, err := s.runner.Run(ctx); err != nil {
		// The runner has already logged the failure; keep the schedule going
		s.statsMu.Lock()
		s.failed++
		s.lastErr = err
		s.statsMu.Unlock()
	}
}

func (s *Scheduler) count(n *int) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	*n++
}

// Stats returns the number of started, skipped and failed runs
func (s *Scheduler) Stats() (runs, skipped, failed int) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.runs, s.skipped, s.failed
}

// Err returns the error of the most recent failed run, or nil if no run
// has failed.
func (s *Scheduler) Err() error {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.lastErr
}

// Stop stops the ticker and waits for an ongoing run to finish. Calling it
// more than once is safe.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}

		close(s.done)

		// Wait for the loop and any ongoing run to finish
		s.wg.Wait()

		if s.cancel != nil {
			s.cancel()
		}
		s.logger.Info("Scheduled sync stopped")
	})
}
