package commands

import (
	"context"
	"log/slog"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/events"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type SubmitBugInput struct {
	Title           string
	DescriptionHash string
	PocLink         string
	SeverityClaim   uint8
}

type SubmitBugCommand struct {
	Call       Call
	CampaignID uint64
	Input      SubmitBugInput
}

type SubmitBugUseCase struct {
	Store   ports.Store
	Clock   ports.Clock
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc SubmitBugUseCase) Execute(ctx context.Context, cmd SubmitBugCommand) (entities.Submission, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)
	nowMs := blockTimeMs(now)

	var created entities.Submission
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		state, err := loadActiveState(tx)
		if err != nil {
			return err
		}
		campaign, err := loadCampaign(tx, cmd.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Cancelled {
			return domainerrors.ErrCancelled
		}
		if !campaign.AcceptsSubmissionsAt(nowMs) {
			return domainerrors.ErrEnded
		}

		submission := entities.Submission{
			ID:              state.NextSubmissionID,
			CampaignID:      campaign.ID,
			Submitter:       cmd.Call.caller(),
			Title:           cmd.Input.Title,
			DescriptionHash: cmd.Input.DescriptionHash,
			PocLink:         cmd.Input.PocLink,
			SeverityClaim:   cmd.Input.SeverityClaim,
			Status:          entities.SubmissionStatusPending,
			CreatedAt:       nowMs,
			UpdatedAt:       nowMs,
		}
		state.NextSubmissionID++
		if err := tx.PutState(state); err != nil {
			return err
		}
		if err := tx.PutSubmission(submission); err != nil {
			return err
		}
		if err := tx.AppendCampaignSubmission(campaign.ID, submission.ID); err != nil {
			return err
		}
		if err := (events.Emitter{Tx: tx, At: now}).SubmissionCreated(submission); err != nil {
			return err
		}
		created = submission
		return nil
	})
	finish(logger, uc.Metrics, "submit_bug", cmd.Call, err)
	if err != nil {
		return entities.Submission{}, err
	}

	logger.Info("submission created",
		"event", "submission_created",
		"module", application.Module,
		"layer", "application",
		"submission_id", created.ID,
		"campaign_id", created.CampaignID,
		"submitter", created.Submitter,
		"severity_claim", created.SeverityClaim,
	)
	return created, nil
}
