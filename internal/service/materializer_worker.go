package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MaterializerWorker periodically materializes due recurring transactions for all users
type MaterializerWorker struct {
	materializer *Materializer
	logger       zerolog.Logger
	interval     time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
	mu           sync.Mutex
	running      bool
}

// MaterializerWorkerConfig holds configuration for the materializer worker
type MaterializerWorkerConfig struct {
	Interval time.Duration // How often to run materialization
}

// DefaultMaterializerWorkerConfig returns sensible defaults
func DefaultMaterializerWorkerConfig() MaterializerWorkerConfig {
	return MaterializerWorkerConfig{
		Interval: 1 * time.Hour,
	}
}

// NewMaterializerWorker creates a new materializer worker
func NewMaterializerWorker(materializer *Materializer, logger zerolog.Logger, config MaterializerWorkerConfig) *MaterializerWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultMaterializerWorkerConfig().Interval
	}

	return &MaterializerWorker{
		materializer: materializer,
		logger:       logger.With().Str("component", "materializer_worker").Logger(),
		interval:     config.Interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start begins the background materialization loop
func (w *MaterializerWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting materializer worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker and waits for the current run to finish
func (w *MaterializerWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping materializer worker")
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
	w.logger.Info().Msg("Materializer worker stopped")
}

func (w *MaterializerWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	// Run immediately on startup
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce materializes due occurrences for every user and logs the totals
func (w *MaterializerWorker) RunOnce(ctx context.Context) *MaterializeResult {
	startTime := time.Now()

	result, err := w.materializer.MaterializeDue(ctx, nil)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to load templates for materialization")
		return nil
	}

	w.logger.Info().
		Int("created", result.Created).
		Int("existing", result.Existing).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed materialization run")
	return result
}

// IsRunning returns whether the worker is currently running
func (w *MaterializerWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
