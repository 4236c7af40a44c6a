package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DCAWorker is a background worker that polls for due DCA plans and
// executes them. Execution is idempotent per month via each plan's
// last-run timestamp, so a poll interval overlap cannot double-buy.
type DCAWorker struct {
	dcaService *DCAService
	logger     zerolog.Logger
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	mu         sync.Mutex
	running    bool
}

// DCAWorkerConfig holds configuration for the DCA worker
type DCAWorkerConfig struct {
	Interval time.Duration // How often to poll for due plans
}

// DefaultDCAWorkerConfig returns sensible defaults
func DefaultDCAWorkerConfig() DCAWorkerConfig {
	return DCAWorkerConfig{
		Interval: 1 * time.Minute,
	}
}

// NewDCAWorker creates a new DCA worker
func NewDCAWorker(dcaService *DCAService, logger zerolog.Logger, config DCAWorkerConfig) *DCAWorker {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Minute
	}
	return &DCAWorker{
		dcaService: dcaService,
		logger:     logger.With().Str("component", "dca_worker").Logger(),
		interval:   config.Interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background polling loop
func (w *DCAWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting DCA worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *DCAWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping DCA worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("DCA worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *DCAWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *DCAWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	// Poll immediately on startup to catch plans that came due while the
	// server was down
	w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setStopped()
			return
		case <-w.stopCh:
			w.setStopped()
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *DCAWorker) poll(ctx context.Context) {
	started := time.Now()
	executed, err := w.dcaService.RunDuePlans(ctx, started)
	if err != nil {
		w.logger.Error().Err(err).Msg("DCA poll failed")
		return
	}
	if executed > 0 {
		w.logger.Info().
			Int("executed", executed).
			Dur("elapsed", time.Since(started)).
			Msg("Executed due DCA plans")
	}
}

func (w *DCAWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}
