package commands

import (
	"context"
	"log/slog"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/dispatch"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/events"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type CancelCampaignCommand struct {
	Call       Call
	CampaignID uint64
}

type CancelCampaignResult struct {
	Campaign       entities.Campaign
	RefundAmount   entities.Balance
	TransferHandle string
}

type CancelCampaignUseCase struct {
	Store       ports.Store
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func (uc CancelCampaignUseCase) Execute(ctx context.Context, cmd CancelCampaignCommand) (CancelCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)

	var result CancelCampaignResult
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		if _, err := loadActiveState(tx); err != nil {
			return err
		}
		campaign, err := loadCampaign(tx, cmd.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Owner != cmd.Call.caller() {
			return domainerrors.ErrNotOwner
		}
		if campaign.Cancelled {
			return domainerrors.ErrAlreadyCancelled
		}

		campaign.Cancelled = true
		refund := campaign.RemainingPool
		campaign.RemainingPool = entities.Balance{}
		if err := tx.PutCampaign(campaign); err != nil {
			return err
		}
		if err := dispatch.Release(tx, campaign.Asset, refund); err != nil {
			return err
		}
		if err := (events.Emitter{Tx: tx, At: now}).CampaignCancelled(campaign.ID, refund); err != nil {
			return err
		}
		handle, err := dispatch.Dispatcher{Tx: tx, IDGenerator: uc.IDGenerator, At: now}.Send(
			ctx,
			campaign.Asset,
			campaign.Owner,
			refund,
			entities.TransferReasonCampaignRefund,
			dispatch.Refs{CampaignID: uint64Ptr(campaign.ID)},
		)
		if err != nil {
			return err
		}

		result = CancelCampaignResult{
			Campaign:       campaign,
			RefundAmount:   refund,
			TransferHandle: handle,
		}
		return nil
	})
	finish(logger, uc.Metrics, "cancel_campaign", cmd.Call, err)
	if err != nil {
		return CancelCampaignResult{}, err
	}

	logger.Info("campaign cancelled",
		"event", "campaign_cancelled",
		"module", application.Module,
		"layer", "application",
		"campaign_id", result.Campaign.ID,
		"refund_amount", result.RefundAmount.String(),
		"transfer_handle", result.TransferHandle,
	)
	return result, nil
}
