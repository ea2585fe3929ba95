package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/config"
)

// OutboxFlusher periodically retries upload record inserts parked in the
// outbox after a relay-succeeded-but-insert-failed submission.
type OutboxFlusher struct {
	config *config.OutboxConfig
	logger *zap.Logger
	store  *UploadStore
	ticker *time.Ticker
	stopCh chan struct{}
}

func NewOutboxFlusher(cfg *config.OutboxConfig, logger *zap.Logger, store *UploadStore) *OutboxFlusher {
	return &OutboxFlusher{
		config: cfg,
		logger: logger,
		store:  store,
		stopCh: make(chan struct{}),
	}
}

func (f *OutboxFlusher) Start(ctx context.Context) error {
	if !f.config.OutboxEnabled() {
		f.logger.Info("Outbox flusher is disabled")
		return nil
	}

	interval, err := time.ParseDuration(f.config.FlushInterval)
	if err != nil {
		f.logger.Error("Invalid flush interval", zap.String("interval", f.config.FlushInterval), zap.Error(err))
		return err
	}

	f.logger.Info("Starting outbox flusher", zap.String("flush_interval", f.config.FlushInterval))

	f.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-f.ticker.C:
				f.runFlush(ctx)
			case <-f.stopCh:
				f.logger.Info("Outbox flusher stopped")
				return
			case <-ctx.Done():
				f.logger.Info("Outbox flusher context cancelled")
				return
			}
		}
	}()

	return nil
}

func (f *OutboxFlusher) Stop() {
	if f.ticker != nil {
		f.ticker.Stop()
	}
	close(f.stopCh)
	f.logger.Info("Outbox flusher shutdown completed")
}

func (f *OutboxFlusher) runFlush(ctx context.Context) {
	start := time.Now()
	flushed, err := f.store.FlushOutbox(ctx)
	duration := time.Since(start)

	if err != nil {
		f.logger.Error("Outbox flush failed",
			zap.Error(err),
			zap.Duration("duration", duration))
		return
	}

	if flushed > 0 {
		f.logger.Info("Outbox flush completed",
			zap.Int("flushed", flushed),
			zap.Duration("duration", duration))
	}
}
