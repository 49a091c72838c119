package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/dispatch"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/events"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/ledger"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type SeverityInput struct {
	Name         string
	MaxRewardPct uint8
}

type CreateCampaignInput struct {
	Name           string
	Description    string
	RepoLink       *string
	Scope          *string
	Rules          *string
	Contact        *string
	SeverityLevels []SeverityInput
	CampaignType   entities.CampaignType
	EndTime        *uint64
}

type CreateCampaignNativeCommand struct {
	Call  Call
	Input CreateCampaignInput
}

type CreateCampaignNativeUseCase struct {
	Store   ports.Store
	Clock   ports.Clock
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc CreateCampaignNativeUseCase) Execute(ctx context.Context, cmd CreateCampaignNativeCommand) (entities.Campaign, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)

	var created entities.Campaign
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		if _, err := loadActiveState(tx); err != nil {
			return err
		}
		if cmd.Call.AttachedDeposit.IsZero() {
			return domainerrors.ErrDepositTooSmall
		}
		campaign, err := createCampaign(tx, now, cmd.Call.caller(), entities.NativeAsset(), cmd.Call.AttachedDeposit, cmd.Input)
		if err != nil {
			return err
		}
		created = campaign
		return nil
	})
	finish(logger, uc.Metrics, "create_campaign_native", cmd.Call, err)
	if err != nil {
		return entities.Campaign{}, err
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", application.Module,
		"layer", "application",
		"campaign_id", created.ID,
		"owner", created.Owner,
		"asset", created.Asset.Key(),
		"total_pool", created.TotalPool.String(),
	)
	return created, nil
}

// createCampaign is shared by the native path and the token deposit callback.
func createCampaign(
	tx ports.Tx,
	now time.Time,
	owner string,
	asset entities.Asset,
	amount entities.Balance,
	input CreateCampaignInput,
) (entities.Campaign, error) {
	if err := validateCreateInput(input); err != nil {
		return entities.Campaign{}, err
	}

	state, err := tx.State()
	if err != nil {
		return entities.Campaign{}, err
	}
	campaignID := state.NextCampaignID
	state.NextCampaignID++
	if err := tx.PutState(state); err != nil {
		return entities.Campaign{}, err
	}

	levels := make([]entities.SeverityLevel, 0, len(input.SeverityLevels))
	for index, level := range input.SeverityLevels {
		levels = append(levels, entities.SeverityLevel{
			ID:           uint8(index),
			Name:         level.Name,
			MaxRewardPct: level.MaxRewardPct,
		})
	}

	campaignType := entities.CampaignTypePublic
	if parsed, ok := entities.ParseCampaignType(string(input.CampaignType)); ok {
		campaignType = parsed
	}

	campaign := entities.Campaign{
		ID:                 campaignID,
		Owner:              owner,
		Asset:              asset,
		TotalPool:          amount,
		RemainingPool:      amount,
		SeverityLevels:     levels,
		PlatformFeePercent: entities.DefaultPlatformFeePercent,
		CampaignType:       campaignType,
		Metadata: entities.CampaignMetadata{
			Name:        input.Name,
			Description: input.Description,
			RepoLink:    input.RepoLink,
			Scope:       input.Scope,
			Rules:       input.Rules,
			Contact:     input.Contact,
		},
		StartTime: blockTimeMs(now),
		EndTime:   input.EndTime,
	}
	if err := tx.PutCampaign(campaign); err != nil {
		return entities.Campaign{}, err
	}
	if err := ledger.RecordCampaignCreated(tx, owner); err != nil {
		return entities.Campaign{}, err
	}
	if err := dispatch.Escrow(tx, asset, amount); err != nil {
		return entities.Campaign{}, err
	}
	if err := (events.Emitter{Tx: tx, At: now}).CampaignCreated(campaign); err != nil {
		return entities.Campaign{}, err
	}
	return campaign, nil
}

func validateCreateInput(input CreateCampaignInput) error {
	if len(input.SeverityLevels) == 0 || len(input.SeverityLevels) > entities.MaxSeverityLevels {
		return domainerrors.ErrBadConfig
	}
	for _, level := range input.SeverityLevels {
		if level.MaxRewardPct > 100 {
			return domainerrors.ErrBadConfig
		}
	}
	if strings.TrimSpace(string(input.CampaignType)) != "" {
		if _, ok := entities.ParseCampaignType(string(input.CampaignType)); !ok {
			return domainerrors.ErrBadConfig
		}
	}
	return nil
}
