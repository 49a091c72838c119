package workers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

// EventArchiver ships published event lines to object storage as one JSONL
// object per batch.
type EventArchiver struct {
	Outbox      ports.EventOutbox
	Archive     ports.EventArchive
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Prefix      string
	BatchSize   int
	Logger      *slog.Logger
}

func (a EventArchiver) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(a.Logger)
	limit := a.BatchSize
	if limit <= 0 {
		limit = 500
	}

	records, err := a.Outbox.ListUnarchivedEvents(ctx, limit)
	if err != nil {
		logger.Error("event archive list failed",
			"event", "event_archive_list_failed",
			"module", application.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if a.Clock != nil {
		now = a.Clock.Now().UTC()
	}
	batchID, err := a.IDGenerator.NewID(ctx)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	seqs := make([]uint64, 0, len(records))
	for _, record := range records {
		body.WriteString(record.Line)
		body.WriteByte('\n')
		seqs = append(seqs, record.Seq)
	}
	key := ArchiveKey(a.Prefix, now, records[0].Seq, records[len(records)-1].Seq, batchID)

	if err := a.Archive.PutObject(ctx, key, body.Bytes()); err != nil {
		logger.Error("event archive upload failed",
			"event", "event_archive_upload_failed",
			"module", application.Module,
			"layer", "worker",
			"archive_key", key,
			"error", err.Error(),
		)
		return err
	}
	if err := a.Outbox.MarkEventsArchived(ctx, seqs, key, now); err != nil {
		logger.Error("event archive mark failed",
			"event", "event_archive_mark_failed",
			"module", application.Module,
			"layer", "worker",
			"archive_key", key,
			"error", err.Error(),
		)
		return err
	}

	ports.ResolveMetrics(a.Metrics).ObserveEvents("archived", len(records))
	logger.Info("event log batch archived",
		"event", "event_log_archived",
		"module", application.Module,
		"layer", "worker",
		"archive_key", key,
		"count", len(records),
	)
	return nil
}

// ArchiveKey lays objects out by day so lifecycle rules can expire them.
func ArchiveKey(prefix string, at time.Time, firstSeq uint64, lastSeq uint64, batchID string) string {
	if prefix == "" {
		prefix = "event-log"
	}
	return fmt.Sprintf("%s/%s/%012d-%012d-%s.jsonl", prefix, at.Format("2006/01/02"), firstSeq, lastSeq, batchID)
}
