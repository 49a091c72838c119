package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

// OnTransferCommand is the deposit callback invoked by a token contract after
// it has credited Amount to this contract. Call.Predecessor is the token.
type OnTransferCommand struct {
	Call   Call
	Sender string
	Amount entities.Balance
	Msg    string
}

// OnTransferResult carries the amount the token contract must return to the
// sender. A zero refund means the whole amount was retained.
type OnTransferResult struct {
	Refund       entities.Balance
	Campaign     *entities.Campaign
	RefundReason error
}

type OnTransferUseCase struct {
	Store ports.Store
	Clock ports.Clock
	// TrustedTokens restricts which token contracts may open campaigns.
	// Empty allows any caller.
	TrustedTokens []string
	Metrics       ports.Metrics
	Logger        *slog.Logger
}

type createCampaignMsg struct {
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	RepoLink       *string            `json:"repo_link"`
	Scope          *string            `json:"scope"`
	Rules          *string            `json:"rules"`
	Contact        *string            `json:"contact"`
	SeverityLevels *[]severityLevelMsg `json:"severity_levels"`
	CampaignType   *string            `json:"campaign_type"`
	EndTime        *uint64            `json:"end_time"`
}

type severityLevelMsg struct {
	Name         *string `json:"name"`
	MaxRewardPct *uint8  `json:"max_reward_pct"`
}

var errMissingField = errors.New("missing field")

// ParseCreateCampaignMsg decodes the token transfer msg into creation input.
func ParseCreateCampaignMsg(msg string) (CreateCampaignInput, error) {
	var payload createCampaignMsg
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		return CreateCampaignInput{}, fmt.Errorf("%w: %v", domainerrors.ErrBadMessage, err)
	}
	switch {
	case payload.Name == nil:
		return CreateCampaignInput{}, fmt.Errorf("%w: %w name", domainerrors.ErrBadMessage, errMissingField)
	case payload.Description == nil:
		return CreateCampaignInput{}, fmt.Errorf("%w: %w description", domainerrors.ErrBadMessage, errMissingField)
	case payload.SeverityLevels == nil:
		return CreateCampaignInput{}, fmt.Errorf("%w: %w severity_levels", domainerrors.ErrBadMessage, errMissingField)
	case payload.CampaignType == nil:
		return CreateCampaignInput{}, fmt.Errorf("%w: %w campaign_type", domainerrors.ErrBadMessage, errMissingField)
	}
	campaignType, ok := entities.ParseCampaignType(*payload.CampaignType)
	if !ok {
		return CreateCampaignInput{}, fmt.Errorf("%w: unknown campaign_type %q", domainerrors.ErrBadMessage, *payload.CampaignType)
	}

	levels := make([]SeverityInput, 0, len(*payload.SeverityLevels))
	for index, level := range *payload.SeverityLevels {
		if level.Name == nil || level.MaxRewardPct == nil {
			return CreateCampaignInput{}, fmt.Errorf("%w: %w in severity_levels[%d]", domainerrors.ErrBadMessage, errMissingField, index)
		}
		levels = append(levels, SeverityInput{Name: *level.Name, MaxRewardPct: *level.MaxRewardPct})
	}

	return CreateCampaignInput{
		Name:           *payload.Name,
		Description:    *payload.Description,
		RepoLink:       payload.RepoLink,
		Scope:          payload.Scope,
		Rules:          payload.Rules,
		Contact:        payload.Contact,
		SeverityLevels: levels,
		CampaignType:   campaignType,
		EndTime:        payload.EndTime,
	}, nil
}

func (uc OnTransferUseCase) trusted(tokenID string) bool {
	if len(uc.TrustedTokens) == 0 {
		return true
	}
	for _, candidate := range uc.TrustedTokens {
		if strings.TrimSpace(candidate) == tokenID {
			return true
		}
	}
	return false
}

func (uc OnTransferUseCase) Execute(ctx context.Context, cmd OnTransferCommand) (OnTransferResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)
	tokenID := cmd.Call.caller()

	var result OnTransferResult
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		if _, err := loadActiveState(tx); err != nil {
			return err
		}
		if tokenID == "" || !uc.trusted(tokenID) {
			return domainerrors.ErrUntrustedToken
		}
		if cmd.Amount.IsZero() {
			return domainerrors.ErrDepositTooSmall
		}
		if strings.TrimSpace(cmd.Sender) == "" {
			return domainerrors.ErrBadConfig
		}

		input, err := ParseCreateCampaignMsg(cmd.Msg)
		if err != nil {
			result = OnTransferResult{Refund: cmd.Amount, RefundReason: err}
			return nil
		}
		campaign, err := createCampaign(tx, now, strings.TrimSpace(cmd.Sender), entities.TokenAsset(tokenID), cmd.Amount, input)
		if err != nil {
			return err
		}
		result = OnTransferResult{Campaign: &campaign}
		return nil
	})
	if err == nil && result.RefundReason != nil {
		ports.ResolveMetrics(uc.Metrics).ObserveCall("ft_on_transfer", "refunded")
		logger.Warn("deposit refunded",
			"event", "deposit_refunded",
			"module", application.Module,
			"layer", "application",
			"token", tokenID,
			"sender", cmd.Sender,
			"amount", cmd.Amount.String(),
			"error", result.RefundReason.Error(),
		)
		return result, nil
	}
	finish(logger, uc.Metrics, "ft_on_transfer", cmd.Call, err)
	if err != nil {
		return OnTransferResult{}, err
	}

	logger.Info("campaign created from deposit",
		"event", "campaign_created",
		"module", application.Module,
		"layer", "application",
		"campaign_id", result.Campaign.ID,
		"owner", result.Campaign.Owner,
		"asset", result.Campaign.Asset.Key(),
		"total_pool", result.Campaign.TotalPool.String(),
	)
	return result, nil
}
