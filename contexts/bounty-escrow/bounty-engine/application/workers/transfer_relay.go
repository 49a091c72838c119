package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

// TransferRelay executes committed transfers in creation order. Only a leg the
// executor rejected outright is marked failed, returning its amount to custody
// surplus. Any other error leaves the leg pending for the next cycle, which
// resends it under the same handle. Pools and the ledger are never touched here.
type TransferRelay struct {
	Outbox    ports.TransferOutbox
	Executor  ports.TransferExecutor
	Clock     ports.Clock
	Metrics   ports.Metrics
	BatchSize int
	Logger    *slog.Logger
}

func (r TransferRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	metrics := ports.ResolveMetrics(r.Metrics)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingTransfers(ctx, limit)
	if err != nil {
		logger.Error("transfer outbox list failed",
			"event", "transfer_outbox_list_failed",
			"module", application.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	sent, retrying := 0, 0
	for _, transfer := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempts := transfer.Attempts + 1
		execErr := r.Executor.Execute(ctx, transfer)
		now := r.now()
		if execErr != nil && !errors.Is(execErr, ports.ErrTransferRejected) {
			if err := r.Outbox.RecordTransferAttempt(ctx, transfer.Handle, attempts, execErr.Error(), now); err != nil {
				logger.Error("transfer attempt record failed",
					"event", "transfer_attempt_record_failed",
					"module", application.Module,
					"layer", "worker",
					"transfer_handle", transfer.Handle,
					"error", err.Error(),
				)
				return err
			}
			metrics.ObserveTransfer(transfer.Reason, entities.TransferStatusPending)
			logger.Warn("transfer leg outcome unknown, will retry",
				"event", "transfer_retry_scheduled",
				"module", application.Module,
				"layer", "worker",
				"transfer_handle", transfer.Handle,
				"reason", string(transfer.Reason),
				"attempts", attempts,
				"error", execErr.Error(),
			)
			retrying++
			continue
		}
		if execErr != nil {
			if err := r.Outbox.MarkTransferFailed(ctx, transfer.Handle, attempts, execErr.Error(), now); err != nil {
				logger.Error("transfer mark failed failed",
					"event", "transfer_mark_failed_failed",
					"module", application.Module,
					"layer", "worker",
					"transfer_handle", transfer.Handle,
					"error", err.Error(),
				)
				return err
			}
			metrics.ObserveTransfer(transfer.Reason, entities.TransferStatusFailed)
			logger.Error("transfer leg failed",
				"event", "transfer_failed",
				"module", application.Module,
				"layer", "worker",
				"transfer_handle", transfer.Handle,
				"reason", string(transfer.Reason),
				"asset", transfer.Asset.Key(),
				"receiver", transfer.Receiver,
				"amount", transfer.Amount.String(),
				"error", execErr.Error(),
			)
			continue
		}
		if err := r.Outbox.MarkTransferSent(ctx, transfer.Handle, attempts, now); err != nil {
			logger.Error("transfer mark sent failed",
				"event", "transfer_mark_sent_failed",
				"module", application.Module,
				"layer", "worker",
				"transfer_handle", transfer.Handle,
				"error", err.Error(),
			)
			return err
		}
		metrics.ObserveTransfer(transfer.Reason, entities.TransferStatusSent)
		sent++
	}

	if len(pending) > 0 {
		logger.Info("transfer relay cycle completed",
			"event", "transfer_relay_completed",
			"module", application.Module,
			"layer", "worker",
			"sent_count", sent,
			"retrying_count", retrying,
			"failed_count", len(pending)-sent-retrying,
		)
	}
	return nil
}

func (r TransferRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
