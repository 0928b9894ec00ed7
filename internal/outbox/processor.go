package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stickerlandia/print-service/pkg/db/models"
	"github.com/stickerlandia/print-service/pkg/enums"
	"github.com/stickerlandia/print-service/pkg/logger"
	"github.com/stickerlandia/print-service/pkg/metrics"
)

// Failure reasons recorded on terminal rows. Failed items are never retried;
// operators act on them out of band.
const (
	reasonUnknownEventType = "Unknown event type"
	reasonUndeserializable = "Contents of outbox item cannot be deserialized."
)

// Publisher is the port the processor pushes decoded events through.
type Publisher interface {
	Publish(ctx context.Context, eventType enums.EventType, data []byte, attributes map[string]string) error
}

// ProcessorParams collects the processor dependencies.
type ProcessorParams struct {
	Store     Store
	Publisher Publisher
	Logger    *logger.Logger
	Metrics   *metrics.OutboxMetrics
	BatchSize int
}

// Processor drains unprocessed outbox rows and forwards them to the broker.
type Processor struct {
	store     Store
	publisher Publisher
	logg      *logger.Logger
	metrics   *metrics.OutboxMetrics
	batchSize int
}

// PassStats summarizes a single pass over the outbox.
type PassStats struct {
	Fetched   int
	Published int
	Failed    int
}

func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Store == nil {
		return nil, errors.New("outbox store is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Processor{
		store:     params.Store,
		publisher: params.Publisher,
		logg:      params.Logger,
		metrics:   params.Metrics,
		batchSize: batch,
	}, nil
}

// RunOnce performs a single pass: fetch a batch, decide the fate of each item
// independently, and record exactly one result per item. A failure on one
// item never blocks the rest of the batch.
func (p *Processor) RunOnce(ctx context.Context) (PassStats, error) {
	start := time.Now()
	stats := PassStats{}

	items, err := p.store.FetchUnprocessed(ctx, p.batchSize)
	if err != nil {
		p.logg.Error(ctx, "fetching outbox batch", err)
		return stats, fmt.Errorf("fetching outbox batch: %w", err)
	}
	stats.Fetched = len(items)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if p.processItem(ctx, item) {
			stats.Published++
		} else {
			stats.Failed++
		}
	}

	p.metrics.ObservePass("outbox-publisher", time.Since(start))
	if stats.Fetched > 0 {
		fields := map[string]any{
			"batch_size": stats.Fetched,
			"published":  stats.Published,
			"failed":     stats.Failed,
		}
		p.logg.Info(p.logg.WithFields(ctx, fields), "outbox pass completed")
	}
	return stats, nil
}

func (p *Processor) processItem(ctx context.Context, item models.OutboxItem) bool {
	fields := map[string]any{
		"outbox_id":  item.ID.String(),
		"event_type": item.EventType.String(),
	}
	if item.TraceID != nil {
		fields["trace_id"] = *item.TraceID
	}
	itemCtx := p.logg.WithFields(ctx, fields)

	if !item.EventType.Known() {
		return p.markFailed(itemCtx, item, reasonUnknownEventType)
	}

	if _, err := decodeEvent(item.EventType, item.EventData); err != nil {
		return p.markFailed(itemCtx, item, reasonUndeserializable)
	}

	attrs := map[string]string{}
	if item.TraceID != nil {
		attrs["traceId"] = *item.TraceID
	}
	if err := p.publisher.Publish(ctx, item.EventType, item.EventData, attrs); err != nil {
		p.logg.Warn(p.logg.WithField(itemCtx, "error", err.Error()), "outbox publish failed")
		return p.markFailed(itemCtx, item, err.Error())
	}

	if err := p.store.MarkResult(ctx, item.ID, true, false, nil); err != nil {
		p.logg.Error(itemCtx, "marking outbox item processed", err)
		return false
	}
	p.metrics.IncPublished(item.EventType.String())
	p.logg.Info(itemCtx, "outbox item published")
	return true
}

func (p *Processor) markFailed(ctx context.Context, item models.OutboxItem, reason string) bool {
	if err := p.store.MarkResult(ctx, item.ID, false, true, &reason); err != nil {
		p.logg.Error(ctx, "marking outbox item failed", err)
		return false
	}
	p.metrics.IncFailed(item.EventType.String())
	p.logg.Warn(p.logg.WithField(ctx, "failure_reason", reason), "outbox item marked failed")
	return false
}
