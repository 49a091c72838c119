package commands

import (
	"context"
	"log/slog"
	"time"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/dispatch"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/events"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/ledger"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type ReviewSubmissionCommand struct {
	Call         Call
	SubmissionID uint64
	Status       entities.SubmissionStatus
	RewardAmount *entities.Balance
	Comments     *string
}

// PayoutResult is set only when the review accepted the submission.
type PayoutResult struct {
	Gross          entities.Balance
	Fee            entities.Balance
	Net            entities.Balance
	RewardHandle   string
	FeeHandle      string
	RemainingPool  entities.Balance
	SeverityScored uint8
}

type ReviewSubmissionResult struct {
	Submission entities.Submission
	Payout     *PayoutResult
}

type ReviewSubmissionUseCase struct {
	Store       ports.Store
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func (uc ReviewSubmissionUseCase) Execute(ctx context.Context, cmd ReviewSubmissionCommand) (ReviewSubmissionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)

	var result ReviewSubmissionResult
	var campaign entities.Campaign
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		state, err := loadActiveState(tx)
		if err != nil {
			return err
		}
		submission, err := loadSubmission(tx, cmd.SubmissionID)
		if err != nil {
			return err
		}
		campaign, err = loadCampaign(tx, submission.CampaignID)
		if err != nil {
			return err
		}
		reviewer := cmd.Call.caller()
		if campaign.Owner != reviewer {
			return domainerrors.ErrNotOwner
		}
		if campaign.Cancelled {
			return domainerrors.ErrCancelled
		}
		if !submission.Status.Reviewable() {
			return domainerrors.ErrInvalidTransition
		}
		status, ok := entities.ParseSubmissionStatus(string(cmd.Status))
		if !ok {
			return domainerrors.ErrInvalidTransition
		}

		if err := dispatch.CreditSurplus(tx, entities.NativeAsset(), cmd.Call.AttachedDeposit); err != nil {
			return err
		}

		submission.Status = status
		submission.Reviewer = &reviewer
		submission.ReviewComments = cmd.Comments
		submission.UpdatedAt = blockTimeMs(now)

		if status != entities.SubmissionStatusAccepted {
			if err := tx.PutSubmission(submission); err != nil {
				return err
			}
			result = ReviewSubmissionResult{Submission: submission}
			return nil
		}

		if cmd.RewardAmount == nil {
			return domainerrors.ErrRewardRequired
		}
		severity, ok := campaign.Severity(submission.SeverityClaim)
		if !ok {
			return domainerrors.ErrBadSeverity
		}
		gross := *cmd.RewardAmount
		if gross.Cmp(campaign.MaxReward(severity)) > 0 {
			return domainerrors.ErrRewardExceedsMax
		}

		reward := gross
		submission.RewardAmount = &reward
		if err := tx.PutSubmission(submission); err != nil {
			return err
		}
		payout, err := uc.payout(ctx, tx, now, state, &campaign, submission, severity, gross)
		if err != nil {
			return err
		}
		result = ReviewSubmissionResult{Submission: submission, Payout: &payout}
		return nil
	})
	finish(logger, uc.Metrics, "review_submission", cmd.Call, err)
	if err != nil {
		return ReviewSubmissionResult{}, err
	}

	if result.Payout != nil {
		ports.ResolveMetrics(uc.Metrics).ObservePayout(campaign.Asset.Key(), result.Payout.Gross, result.Payout.Fee)
		logger.Info("submission paid out",
			"event", "payout",
			"module", application.Module,
			"layer", "application",
			"campaign_id", campaign.ID,
			"submission_id", result.Submission.ID,
			"receiver", result.Submission.Submitter,
			"gross_reward", result.Payout.Gross.String(),
			"platform_fee", result.Payout.Fee.String(),
			"remaining_pool", result.Payout.RemainingPool.String(),
		)
		return result, nil
	}
	logger.Info("submission reviewed",
		"event", "submission_reviewed",
		"module", application.Module,
		"layer", "application",
		"submission_id", result.Submission.ID,
		"status", string(result.Submission.Status),
	)
	return result, nil
}

// payout debits the pool and credits the ledger before any transfer is
// scheduled, so a later call never observes the pre-debit pool.
func (uc ReviewSubmissionUseCase) payout(
	ctx context.Context,
	tx ports.Tx,
	now time.Time,
	state entities.ContractState,
	campaign *entities.Campaign,
	submission entities.Submission,
	severity entities.SeverityLevel,
	gross entities.Balance,
) (PayoutResult, error) {
	fee := gross.PercentFloor(campaign.PlatformFeePercent)
	net, ok := gross.Sub(fee)
	if !ok {
		return PayoutResult{}, domainerrors.ErrBalanceOverflow
	}
	remaining, ok := campaign.RemainingPool.Sub(gross)
	if !ok {
		return PayoutResult{}, domainerrors.ErrRewardExceedsMax
	}
	campaign.RemainingPool = remaining
	if err := tx.PutCampaign(*campaign); err != nil {
		return PayoutResult{}, err
	}
	if err := dispatch.Release(tx, campaign.Asset, gross); err != nil {
		return PayoutResult{}, err
	}

	if err := ledger.CreditFinder(tx, submission.Submitter, net, severity.ID); err != nil {
		return PayoutResult{}, err
	}
	if err := ledger.CreditProject(tx, campaign.Owner, gross); err != nil {
		return PayoutResult{}, err
	}

	dispatcher := dispatch.Dispatcher{Tx: tx, IDGenerator: uc.IDGenerator, At: now}
	refs := dispatch.Refs{CampaignID: uint64Ptr(campaign.ID), SubmissionID: uint64Ptr(submission.ID)}
	rewardHandle, err := dispatcher.Send(ctx, campaign.Asset, submission.Submitter, net, entities.TransferReasonPayoutReward, refs)
	if err != nil {
		return PayoutResult{}, err
	}
	feeHandle, err := dispatcher.Send(ctx, campaign.Asset, state.Treasury, fee, entities.TransferReasonPayoutFee, refs)
	if err != nil {
		return PayoutResult{}, err
	}

	if err := (events.Emitter{Tx: tx, At: now}).Payout(campaign.ID, submission.ID, submission.Submitter, gross, fee); err != nil {
		return PayoutResult{}, err
	}
	return PayoutResult{
		Gross:          gross,
		Fee:            fee,
		Net:            net,
		RewardHandle:   rewardHandle,
		FeeHandle:      feeHandle,
		RemainingPool:  remaining,
		SeverityScored: severity.ID,
	}, nil
}
