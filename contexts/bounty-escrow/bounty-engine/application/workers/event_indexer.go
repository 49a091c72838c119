package workers

import (
	"context"
	"fmt"
	"log/slog"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
	contractsv1 "nearshield/contracts/gen/events/v1"
)

// EventIndexer consumes published envelopes from the bus. It checks the
// standard and payload shape and writes one structured log record per event.
type EventIndexer struct {
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (i EventIndexer) Handle(_ context.Context, envelope ports.EventEnvelope) error {
	logger := application.ResolveLogger(i.Logger)
	if envelope.Standard != contractsv1.Standard {
		return fmt.Errorf("unexpected event standard %q", envelope.Standard)
	}

	attrs := []any{
		"event", "event_indexed",
		"module", application.Module,
		"layer", "worker",
		"event_type", envelope.Event,
		"version", envelope.Version,
	}
	switch envelope.Event {
	case contractsv1.EventCampaignCreated:
		var data contractsv1.CampaignCreated
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		attrs = append(attrs, "campaign_id", data.CampaignID, "owner", data.Owner, "total_pool", data.TotalPool)
	case contractsv1.EventSubmissionCreated:
		var data contractsv1.SubmissionCreated
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		attrs = append(attrs, "campaign_id", data.CampaignID, "submission_id", data.SubmissionID, "submitter", data.Submitter)
	case contractsv1.EventPayout:
		var data contractsv1.Payout
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		attrs = append(attrs,
			"campaign_id", data.CampaignID,
			"submission_id", data.SubmissionID,
			"receiver", data.Receiver,
			"gross_reward", data.GrossReward,
			"platform_fee", data.PlatformFee,
		)
	case contractsv1.EventCampaignCancelled:
		var data contractsv1.CampaignCancelled
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		attrs = append(attrs, "campaign_id", data.CampaignID)
	case contractsv1.EventPauseToggle:
		var data contractsv1.PauseToggle
		if err := envelope.DecodeData(&data); err != nil {
			return err
		}
		attrs = append(attrs, "paused", data.Paused)
	default:
		return fmt.Errorf("unknown event %q", envelope.Event)
	}

	logger.Info("event indexed", attrs...)
	ports.ResolveMetrics(i.Metrics).ObserveEvents("indexed", 1)
	return nil
}
