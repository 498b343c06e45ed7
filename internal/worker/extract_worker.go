// Package worker drives extraction outside the request path: it
// consumes queued extract requests and runs the periodic schedule.
package worker

import (
	"context"
	"fmt"
	"time"

	"consumo/internal/amqp"
	"consumo/internal/core"
	"consumo/internal/log"
	"consumo/internal/storage"
)

// Extractor runs one extraction and returns the persisted record.
type Extractor interface {
	Run(ctx context.Context, year, month int) (core.MonthlyRecord, error)
}

// Exporter pushes a monthly summary to an external sink after a
// successful extraction. Optional.
type Exporter interface {
	ExportMonthlySummary(ctx context.Context, record core.MonthlyRecord, stats core.Statistics) error
}

// ExtractWorker owns the closed-month policy: the orchestrator always
// overwrites, so the caller decides when re-extraction is pointless.
type ExtractWorker struct {
	extractor Extractor
	store     storage.Store
	exporter  Exporter
	clock     core.Clock
	logger    *log.Logger
}

func NewExtractWorker(extractor Extractor, store storage.Store, exporter Exporter, clock core.Clock) *ExtractWorker {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &ExtractWorker{
		extractor: extractor,
		store:     store,
		exporter:  exporter,
		clock:     clock,
		logger:    log.New(log.Config{Component: log.ComponentWorker}),
	}
}

// HandleExtractRequest processes one queued extract request.
func (w *ExtractWorker) HandleExtractRequest(ctx context.Context, msg *amqp.ExtractRequestMessage) error {
	return w.ProcessPeriod(ctx, msg.Year, msg.Month)
}

// ProcessPeriod extracts the given period unless its stored record is
// already closed. Zero year/month resolve to the current period so the
// closed check targets what the orchestrator will actually extract.
func (w *ExtractWorker) ProcessPeriod(ctx context.Context, year, month int) error {
	now := w.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}

	existing, found, err := w.store.ReadMonthlyConsumption(ctx, year, month)
	if err != nil {
		return fmt.Errorf("check existing record: %w", err)
	}
	if found && existing.Closed {
		w.logger.InfoContext(ctx, "Skipping extraction, month already closed",
			log.FieldYear, year, log.FieldMonth, month)
		return nil
	}

	record, err := w.extractor.Run(ctx, year, month)
	if err != nil {
		return fmt.Errorf("run extraction: %w", err)
	}

	if w.exporter != nil && record.HasReadings() {
		stats := core.CalculateStats(record.Consumptions)
		if err := w.exporter.ExportMonthlySummary(ctx, record, stats); err != nil {
			// The record is already persisted; export is best-effort.
			w.logger.ErrorContext(ctx, "Failed to export monthly summary",
				log.FieldError, err, log.FieldYear, year, log.FieldMonth, month)
		}
	}

	return nil
}

// RunScheduler extracts the current period immediately and then on
// every tick, until the context is cancelled.
func (w *ExtractWorker) RunScheduler(ctx context.Context, interval time.Duration) {
	w.logger.InfoContext(ctx, "Extraction scheduler started", "interval", interval.String())

	if err := w.ProcessPeriod(ctx, 0, 0); err != nil {
		w.logger.ErrorContext(ctx, "Scheduled extraction failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Extraction scheduler stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.ProcessPeriod(ctx, 0, 0); err != nil {
				w.logger.ErrorContext(ctx, "Scheduled extraction failed", log.FieldError, err)
			}
		}
	}
}
