package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/math-quiz/internal/config"
	"github.com/math-quiz/internal/kv"
	"github.com/math-quiz/internal/metrics"
	"github.com/math-quiz/internal/progress"
)

// Source is the live progress data the worker snapshots and restores
type Source interface {
	Export(ctx context.Context, key string) ([]byte, error)
	Import(ctx context.Context, key string, raw []byte) error
}

// BackupWorker periodically copies the progress collections to a backup store
type BackupWorker struct {
	source  Source
	backup  kv.Store
	config  *config.BackupConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewBackupWorker creates a new backup worker
func NewBackupWorker(
	source Source,
	backup kv.Store,
	cfg *config.BackupConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BackupWorker {
	return &BackupWorker{
		source:  source,
		backup:  backup,
		config:  cfg,
		metrics: m,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background backup process
func (w *BackupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("backup worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background process after taking a final snapshot
func (w *BackupWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("backup worker stopped")
	return nil
}

// run is the main worker loop
func (w *BackupWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			// ctx may already be cancelled here
			finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			w.backupAll(finalCtx)
			cancel()
			return
		case <-ticker.C:
			w.backupAll(ctx)
		}
	}
}

// backupAll copies every collection and logs the outcome
func (w *BackupWorker) backupAll(ctx context.Context) {
	w.logger.Info("starting backup cycle")
	startTime := time.Now()

	copied, errorCount := 0, 0
	for _, key := range progress.Collections {
		ok, err := w.BackupCollection(ctx, key)
		if err != nil {
			w.logger.Error("failed to back up collection", "key", key, "error", err)
			errorCount++
			continue
		}
		if ok {
			copied++
		}
	}

	result := "ok"
	if errorCount > 0 {
		result = "error"
	}
	w.metrics.BackupRun(result)

	w.logger.Info("backup cycle completed",
		"duration", time.Since(startTime),
		"copied", copied,
		"errors", errorCount,
	)
}

// BackupCollection copies one collection to the backup store. It reports
// false when the collection has never been written.
func (w *BackupWorker) BackupCollection(ctx context.Context, key string) (bool, error) {
	raw, err := w.source.Export(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		w.logger.Debug("nothing to back up", "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	if err := w.backup.Set(ctx, key, raw); err != nil {
		return false, fmt.Errorf("writing backup of %s: %w", key, err)
	}

	w.logger.Debug("backed up collection", "key", key, "bytes", len(raw))
	return true, nil
}

// RestoreIfEmpty copies collections from the backup store into the live
// store, skipping any collection the live store already has
func (w *BackupWorker) RestoreIfEmpty(ctx context.Context) (int, error) {
	w.logger.Info("restoring collections from backup")

	restored := 0
	for _, key := range progress.Collections {
		_, err := w.source.Export(ctx, key)
		if err == nil {
			continue
		}
		if !errors.Is(err, kv.ErrNotFound) {
			return restored, fmt.Errorf("checking %s: %w", key, err)
		}

		raw, err := w.backup.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return restored, fmt.Errorf("reading backup of %s: %w", key, err)
		}

		if err := w.source.Import(ctx, key, raw); err != nil {
			w.logger.Error("failed to restore collection", "key", key, "error", err)
			// Continue with other collections
			continue
		}
		restored++
	}

	w.logger.Info("completed restoring collections from backup", "count", restored)
	return restored, nil
}

// IsRunning returns whether the worker is currently running
func (w *BackupWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single backup cycle (useful for manual triggers)
func (w *BackupWorker) RunOnce(ctx context.Context) {
	w.backupAll(ctx)
}
