// Package events renders every state transition as one EVENT_JSON line and
// appends it to the transaction's event log.
package events

import (
	"fmt"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
	contractsv1 "nearshield/contracts/gen/events/v1"
)

// Emitter stamps records with the call's block time.
type Emitter struct {
	Tx ports.Tx
	At time.Time
}

func (e Emitter) emit(event string, data any) error {
	envelope, err := contractsv1.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	line, err := envelope.Line()
	if err != nil {
		return fmt.Errorf("render %s line: %w", event, err)
	}
	return e.Tx.AppendEvent(entities.EventRecord{
		Kind:      event,
		Line:      line,
		CreatedAt: e.At,
	})
}

func (e Emitter) CampaignCreated(campaign entities.Campaign) error {
	return e.emit(contractsv1.EventCampaignCreated, contractsv1.CampaignCreated{
		CampaignID: campaign.ID,
		Owner:      campaign.Owner,
		TotalPool:  campaign.TotalPool.String(),
		Token:      campaign.Asset.Token(),
		Name:       campaign.Metadata.Name,
	})
}

func (e Emitter) SubmissionCreated(submission entities.Submission) error {
	return e.emit(contractsv1.EventSubmissionCreated, contractsv1.SubmissionCreated{
		SubmissionID:  submission.ID,
		CampaignID:    submission.CampaignID,
		Submitter:     submission.Submitter,
		SeverityClaim: submission.SeverityClaim,
	})
}

func (e Emitter) Payout(campaignID uint64, submissionID uint64, receiver string, gross entities.Balance, fee entities.Balance) error {
	return e.emit(contractsv1.EventPayout, contractsv1.Payout{
		CampaignID:   campaignID,
		SubmissionID: submissionID,
		Receiver:     receiver,
		GrossReward:  gross.String(),
		PlatformFee:  fee.String(),
	})
}

func (e Emitter) CampaignCancelled(campaignID uint64, refund entities.Balance) error {
	return e.emit(contractsv1.EventCampaignCancelled, contractsv1.CampaignCancelled{
		CampaignID:   campaignID,
		RefundAmount: refund.String(),
	})
}

func (e Emitter) PauseToggle(paused bool) error {
	return e.emit(contractsv1.EventPauseToggle, contractsv1.PauseToggle{Paused: paused})
}
