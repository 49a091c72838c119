package workers

import (
	"context"
	"log/slog"
	"time"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
	contractsv1 "nearshield/contracts/gen/events/v1"
)

// EventRelay publishes committed event lines in seq order and marks them
// published. It stops at the first failure so order is preserved.
type EventRelay struct {
	Outbox    ports.EventOutbox
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Metrics   ports.Metrics
	BatchSize int
	Logger    *slog.Logger
}

func (r EventRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListUnpublishedEvents(ctx, limit)
	if err != nil {
		logger.Error("event log list failed",
			"event", "event_log_list_failed",
			"module", application.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, record := range pending {
		envelope, err := contractsv1.ParseLine(record.Line)
		if err != nil {
			logger.Error("event line decode failed",
				"event", "event_line_decode_failed",
				"module", application.Module,
				"layer", "worker",
				"seq", record.Seq,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Publisher.Publish(ctx, envelope.Event, envelope); err != nil {
			logger.Error("event publish failed",
				"event", "event_publish_failed",
				"module", application.Module,
				"layer", "worker",
				"seq", record.Seq,
				"event_type", envelope.Event,
				"error", err.Error(),
			)
			return err
		}
		// Indexers tail the process log for this line.
		logger.Info(record.Line,
			"event", "event_json",
			"module", application.Module,
			"layer", "worker",
			"seq", record.Seq,
		)
		if err := r.Outbox.MarkEventPublished(ctx, record.Seq, now); err != nil {
			logger.Error("event mark published failed",
				"event", "event_mark_published_failed",
				"module", application.Module,
				"layer", "worker",
				"seq", record.Seq,
				"error", err.Error(),
			)
			return err
		}
		published++
	}

	ports.ResolveMetrics(r.Metrics).ObserveEvents("published", published)
	if published > 0 {
		logger.Info("event relay cycle completed",
			"event", "event_relay_completed",
			"module", application.Module,
			"layer", "worker",
			"published_count", published,
		)
	}
	return nil
}
