package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonbook/wonbook-backend/internal/domain"
)

// QuoteWorker periodically refreshes quotes for every workspace's traded
// tickers so valuations stay warm without any client asking
type QuoteWorker struct {
	quoteService  *QuoteService
	workspaceRepo domain.WorkspaceRepository
	logger        zerolog.Logger
	interval      time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
	mu            sync.Mutex
	running       bool
}

// QuoteWorkerConfig holds configuration for the quote worker
type QuoteWorkerConfig struct {
	Interval time.Duration // How often to refresh quotes
}

// DefaultQuoteWorkerConfig returns sensible defaults
func DefaultQuoteWorkerConfig() QuoteWorkerConfig {
	return QuoteWorkerConfig{
		Interval: 10 * time.Minute,
	}
}

// NewQuoteWorker creates a new quote worker
func NewQuoteWorker(quoteService *QuoteService, workspaceRepo domain.WorkspaceRepository, logger zerolog.Logger, config QuoteWorkerConfig) *QuoteWorker {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Minute
	}
	return &QuoteWorker{
		quoteService:  quoteService,
		workspaceRepo: workspaceRepo,
		logger:        logger.With().Str("component", "quote_worker").Logger(),
		interval:      config.Interval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the background refresh loop
func (w *QuoteWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting quote worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *QuoteWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping quote worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Quote worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *QuoteWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *QuoteWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refreshAllWorkspaces(ctx)

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
			w.refreshAllWorkspaces(ctx)
		}
	}
}

// refreshAllWorkspaces refreshes quotes per workspace, isolating failures
func (w *QuoteWorker) refreshAllWorkspaces(ctx context.Context) {
	workspaces, err := w.workspaceRepo.GetAll()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list workspaces for quote refresh")
		return
	}

	started := time.Now()
	total := 0
	for _, ws := range workspaces {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		n, err := w.quoteService.RefreshQuotes(ctx, ws.ID)
		if err != nil {
			w.logger.Error().Err(err).Int32("workspace_id", ws.ID).Msg("Quote refresh failed for workspace")
			continue
		}
		total += n
	}

	if total > 0 {
		w.logger.Info().
			Int("workspaces", len(workspaces)).
			Int("tickers", total).
			Dur("elapsed", time.Since(started)).
			Msg("Refreshed quotes")
	}
}

func (w *QuoteWorker) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}
