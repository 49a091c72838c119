package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/queries"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	httptransport "nearshield/contexts/bounty-escrow/bounty-engine/transport/http"
)

type Handler struct {
	CreateCampaignNative commands.CreateCampaignNativeUseCase
	CancelCampaign       commands.CancelCampaignUseCase
	SubmitBug            commands.SubmitBugUseCase
	ReviewSubmission     commands.ReviewSubmissionUseCase
	OnTransfer           commands.OnTransferUseCase
	SetPaused            commands.SetPausedUseCase
	SetTreasury          commands.SetTreasuryUseCase
	SetAdmin             commands.SetAdminUseCase
	WithdrawFees         commands.WithdrawFeesUseCase
	EmergencyWithdraw    commands.EmergencyWithdrawUseCase
	Views                queries.Views
	Logger               *slog.Logger
}

// CallContext is what the transport asserts about the caller.
type CallContext struct {
	Predecessor     string
	AttachedDeposit string
}

func (c CallContext) toCall() (commands.Call, error) {
	call := commands.Call{Predecessor: strings.TrimSpace(c.Predecessor)}
	if strings.TrimSpace(c.AttachedDeposit) == "" {
		return call, nil
	}
	deposit, err := entities.ParseBalance(strings.TrimSpace(c.AttachedDeposit))
	if err != nil {
		return commands.Call{}, domainerrors.ErrBadConfig
	}
	call.AttachedDeposit = deposit
	return call, nil
}

func parseAmount(value string) (entities.Balance, error) {
	amount, err := entities.ParseBalance(strings.TrimSpace(value))
	if err != nil {
		return entities.Balance{}, domainerrors.ErrBadConfig
	}
	return amount, nil
}

func (h Handler) CreateCampaignNativeHandler(
	ctx context.Context,
	caller CallContext,
	req httptransport.CreateCampaignRequest,
) (httptransport.CreateCampaignResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	levels := make([]commands.SeverityInput, 0, len(req.SeverityLevels))
	for _, level := range req.SeverityLevels {
		levels = append(levels, commands.SeverityInput{Name: level.Name, MaxRewardPct: level.MaxRewardPct})
	}
	campaign, err := h.CreateCampaignNative.Execute(ctx, commands.CreateCampaignNativeCommand{
		Call: call,
		Input: commands.CreateCampaignInput{
			Name:           req.Name,
			Description:    req.Description,
			RepoLink:       req.RepoLink,
			Scope:          req.Scope,
			Rules:          req.Rules,
			Contact:        req.Contact,
			SeverityLevels: levels,
			CampaignType:   entities.CampaignType(strings.TrimSpace(req.CampaignType)),
			EndTime:        req.EndTime,
		},
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{
		CampaignID: campaign.ID,
		Campaign:   mapCampaign(campaign),
	}, nil
}

func (h Handler) CancelCampaignHandler(ctx context.Context, caller CallContext, campaignID uint64) (httptransport.CancelCampaignResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.CancelCampaignResponse{}, err
	}
	result, err := h.CancelCampaign.Execute(ctx, commands.CancelCampaignCommand{Call: call, CampaignID: campaignID})
	if err != nil {
		return httptransport.CancelCampaignResponse{}, err
	}
	return httptransport.CancelCampaignResponse{
		RefundAmount:   result.RefundAmount.String(),
		TransferHandle: result.TransferHandle,
	}, nil
}

func (h Handler) SubmitBugHandler(
	ctx context.Context,
	caller CallContext,
	campaignID uint64,
	req httptransport.SubmitBugRequest,
) (httptransport.SubmitBugResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.SubmitBugResponse{}, err
	}
	submission, err := h.SubmitBug.Execute(ctx, commands.SubmitBugCommand{
		Call:       call,
		CampaignID: campaignID,
		Input: commands.SubmitBugInput{
			Title:           req.Title,
			DescriptionHash: req.DescriptionHash,
			PocLink:         req.PocLink,
			SeverityClaim:   req.SeverityClaim,
		},
	})
	if err != nil {
		return httptransport.SubmitBugResponse{}, err
	}
	return httptransport.SubmitBugResponse{
		SubmissionID: submission.ID,
		Submission:   mapSubmission(submission),
	}, nil
}

func (h Handler) ReviewSubmissionHandler(
	ctx context.Context,
	caller CallContext,
	submissionID uint64,
	req httptransport.ReviewSubmissionRequest,
) (httptransport.ReviewSubmissionResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.ReviewSubmissionResponse{}, err
	}
	status, ok := entities.ParseSubmissionStatus(req.Status)
	if !ok {
		return httptransport.ReviewSubmissionResponse{}, domainerrors.ErrInvalidTransition
	}
	var reward *entities.Balance
	if req.RewardAmount != nil {
		amount, err := parseAmount(*req.RewardAmount)
		if err != nil {
			return httptransport.ReviewSubmissionResponse{}, err
		}
		reward = &amount
	}
	result, err := h.ReviewSubmission.Execute(ctx, commands.ReviewSubmissionCommand{
		Call:         call,
		SubmissionID: submissionID,
		Status:       status,
		RewardAmount: reward,
		Comments:     req.Comments,
	})
	if err != nil {
		return httptransport.ReviewSubmissionResponse{}, err
	}
	response := httptransport.ReviewSubmissionResponse{Submission: mapSubmission(result.Submission)}
	if result.Payout != nil {
		response.Payout = &httptransport.PayoutDTO{
			GrossReward:    result.Payout.Gross.String(),
			PlatformFee:    result.Payout.Fee.String(),
			NetReward:      result.Payout.Net.String(),
			RewardTransfer: result.Payout.RewardHandle,
			FeeTransfer:    result.Payout.FeeHandle,
			RemainingPool:  result.Payout.RemainingPool.String(),
		}
	}
	return response, nil
}

func (h Handler) FTOnTransferHandler(
	ctx context.Context,
	caller CallContext,
	req httptransport.FTOnTransferRequest,
) (httptransport.FTOnTransferResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.FTOnTransferResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.FTOnTransferResponse{}, err
	}
	result, err := h.OnTransfer.Execute(ctx, commands.OnTransferCommand{
		Call:   call,
		Sender: req.SenderID,
		Amount: amount,
		Msg:    req.Msg,
	})
	if err != nil {
		return httptransport.FTOnTransferResponse{}, err
	}
	response := httptransport.FTOnTransferResponse{Refund: result.Refund.String()}
	if result.Campaign != nil {
		campaignID := result.Campaign.ID
		response.CampaignID = &campaignID
	}
	if result.RefundReason != nil {
		response.Reason = domainerrors.Tag(result.RefundReason)
	}
	return response, nil
}

func (h Handler) SetPausedHandler(ctx context.Context, caller CallContext, req httptransport.SetPausedRequest) error {
	call, err := caller.toCall()
	if err != nil {
		return err
	}
	return h.SetPaused.Execute(ctx, commands.SetPausedCommand{Call: call, Paused: req.Paused})
}

func (h Handler) SetTreasuryHandler(ctx context.Context, caller CallContext, req httptransport.SetAccountRequest) error {
	call, err := caller.toCall()
	if err != nil {
		return err
	}
	return h.SetTreasury.Execute(ctx, commands.SetAccountCommand{Call: call, AccountID: req.AccountID})
}

func (h Handler) SetAdminHandler(ctx context.Context, caller CallContext, req httptransport.SetAccountRequest) error {
	call, err := caller.toCall()
	if err != nil {
		return err
	}
	return h.SetAdmin.Execute(ctx, commands.SetAccountCommand{Call: call, AccountID: req.AccountID})
}

func (h Handler) WithdrawFeesHandler(
	ctx context.Context,
	caller CallContext,
	req httptransport.WithdrawFeesRequest,
) (httptransport.WithdrawResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	var amount *entities.Balance
	if req.Amount != nil {
		parsed, err := parseAmount(*req.Amount)
		if err != nil {
			return httptransport.WithdrawResponse{}, err
		}
		amount = &parsed
	}
	result, err := h.WithdrawFees.Execute(ctx, commands.WithdrawFeesCommand{
		Call:   call,
		Amount: amount,
		Token:  req.Token,
	})
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	return mapWithdraw(result), nil
}

func (h Handler) EmergencyWithdrawHandler(
	ctx context.Context,
	caller CallContext,
	req httptransport.EmergencyWithdrawRequest,
) (httptransport.WithdrawResponse, error) {
	call, err := caller.toCall()
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	result, err := h.EmergencyWithdraw.Execute(ctx, commands.EmergencyWithdrawCommand{
		Call:     call,
		Token:    req.Token,
		Amount:   amount,
		Receiver: req.Receiver,
	})
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	return mapWithdraw(result), nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID uint64) (httptransport.CampaignDTO, error) {
	campaign, err := h.Views.GetCampaign(ctx, campaignID)
	if err != nil {
		return httptransport.CampaignDTO{}, err
	}
	return mapCampaign(campaign), nil
}

func (h Handler) ListCampaignsHandler(ctx context.Context, from uint64, limit *uint64) (httptransport.ListCampaignsResponse, error) {
	items, err := h.Views.GetCampaigns(ctx, queries.Page{From: from, Limit: limit})
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	result := make([]httptransport.CampaignDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCampaign(item))
	}
	return httptransport.ListCampaignsResponse{Items: result}, nil
}

func (h Handler) GetSubmissionHandler(ctx context.Context, submissionID uint64) (httptransport.SubmissionDTO, error) {
	submission, err := h.Views.GetSubmission(ctx, submissionID)
	if err != nil {
		return httptransport.SubmissionDTO{}, err
	}
	return mapSubmission(submission), nil
}

func (h Handler) ListCampaignSubmissionsHandler(
	ctx context.Context,
	campaignID uint64,
	from uint64,
	limit *uint64,
) (httptransport.ListSubmissionsResponse, error) {
	items, err := h.Views.GetCampaignSubmissions(ctx, campaignID, queries.Page{From: from, Limit: limit})
	if err != nil {
		return httptransport.ListSubmissionsResponse{}, err
	}
	result := make([]httptransport.SubmissionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapSubmission(item))
	}
	return httptransport.ListSubmissionsResponse{Items: result}, nil
}

func (h Handler) TopFindersHandler(ctx context.Context, limit int) (httptransport.TopFindersResponse, error) {
	items, err := h.Views.GetTopFinders(ctx, limit)
	if err != nil {
		return httptransport.TopFindersResponse{}, err
	}
	result := make([]httptransport.FinderStatsDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.FinderStatsDTO{
			AccountID:          item.AccountID,
			TotalRewardsEarned: item.Stats.TotalRewardsEarned.String(),
			TotalBugsFound:     item.Stats.TotalBugsFound,
			TotalSeverityScore: item.Stats.TotalSeverityScore,
		})
	}
	return httptransport.TopFindersResponse{Items: result}, nil
}

func (h Handler) TopProjectsHandler(ctx context.Context, limit int) (httptransport.TopProjectsResponse, error) {
	items, err := h.Views.GetTopProjects(ctx, limit)
	if err != nil {
		return httptransport.TopProjectsResponse{}, err
	}
	result := make([]httptransport.ProjectStatsDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.ProjectStatsDTO{
			AccountID:             item.AccountID,
			TotalRewardsPaid:      item.Stats.TotalRewardsPaid.String(),
			TotalCampaignsCreated: item.Stats.TotalCampaignsCreated,
			TotalBugsFixed:        item.Stats.TotalBugsFixed,
		})
	}
	return httptransport.TopProjectsResponse{Items: result}, nil
}

func (h Handler) ListEventsHandler(ctx context.Context, afterSeq uint64, limit int) (httptransport.ListEventsResponse, error) {
	items, err := h.Views.GetEvents(ctx, afterSeq, limit)
	if err != nil {
		return httptransport.ListEventsResponse{}, err
	}
	response := httptransport.ListEventsResponse{
		Items:   make([]httptransport.EventDTO, 0, len(items)),
		NextSeq: afterSeq,
	}
	for _, item := range items {
		response.Items = append(response.Items, httptransport.EventDTO{
			Seq:       item.Seq,
			Event:     item.Kind,
			Line:      item.Line,
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		response.NextSeq = item.Seq
	}
	return response, nil
}

func (h Handler) CustodyHandler(ctx context.Context, token *string) (httptransport.CustodyResponse, error) {
	var filter *entities.Asset
	if token != nil {
		asset := entities.AssetFromToken(token)
		filter = &asset
	}
	items, err := h.Views.GetCustody(ctx, filter)
	if err != nil {
		return httptransport.CustodyResponse{}, err
	}
	result := make([]httptransport.CustodyDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.CustodyDTO{
			Token:    item.Asset.Token(),
			Held:     item.Held.String(),
			Escrowed: item.Escrowed.String(),
			Surplus:  item.Surplus().String(),
		})
	}
	return httptransport.CustodyResponse{Items: result}, nil
}

func (h Handler) ContractStateHandler(ctx context.Context) (httptransport.ContractStateResponse, error) {
	state, err := h.Views.GetContractState(ctx)
	if err != nil {
		return httptransport.ContractStateResponse{}, err
	}
	return httptransport.ContractStateResponse{
		Admin:            state.Admin,
		Treasury:         state.Treasury,
		Paused:           state.Paused,
		NextCampaignID:   state.NextCampaignID,
		NextSubmissionID: state.NextSubmissionID,
	}, nil
}

func mapCampaign(campaign entities.Campaign) httptransport.CampaignDTO {
	levels := make([]httptransport.SeverityLevelDTO, 0, len(campaign.SeverityLevels))
	for _, level := range campaign.SeverityLevels {
		levels = append(levels, httptransport.SeverityLevelDTO{
			ID:           level.ID,
			Name:         level.Name,
			MaxRewardPct: level.MaxRewardPct,
		})
	}
	return httptransport.CampaignDTO{
		ID:                 campaign.ID,
		Owner:              campaign.Owner,
		Token:              campaign.Asset.Token(),
		TotalPool:          campaign.TotalPool.String(),
		RemainingPool:      campaign.RemainingPool.String(),
		SeverityLevels:     levels,
		PlatformFeePercent: campaign.PlatformFeePercent,
		CampaignType:       string(campaign.CampaignType),
		Metadata: httptransport.CampaignMetadataDTO{
			Name:        campaign.Metadata.Name,
			Description: campaign.Metadata.Description,
			RepoLink:    campaign.Metadata.RepoLink,
			Scope:       campaign.Metadata.Scope,
			Rules:       campaign.Metadata.Rules,
			Contact:     campaign.Metadata.Contact,
		},
		StartTime: campaign.StartTime,
		EndTime:   campaign.EndTime,
		Cancelled: campaign.Cancelled,
	}
}

func mapSubmission(submission entities.Submission) httptransport.SubmissionDTO {
	var reward *string
	if submission.RewardAmount != nil {
		value := submission.RewardAmount.String()
		reward = &value
	}
	return httptransport.SubmissionDTO{
		ID:              submission.ID,
		CampaignID:      submission.CampaignID,
		Submitter:       submission.Submitter,
		Title:           submission.Title,
		DescriptionHash: submission.DescriptionHash,
		PocLink:         submission.PocLink,
		SeverityClaim:   submission.SeverityClaim,
		Status:          string(submission.Status),
		ReviewComments:  submission.ReviewComments,
		RewardAmount:    reward,
		Reviewer:        submission.Reviewer,
		CreatedAt:       submission.CreatedAt,
		UpdatedAt:       submission.UpdatedAt,
	}
}

func mapWithdraw(result commands.WithdrawResult) httptransport.WithdrawResponse {
	return httptransport.WithdrawResponse{
		Token:          result.Asset.Token(),
		Amount:         result.Amount.String(),
		Receiver:       result.Receiver,
		TransferHandle: result.TransferHandle,
	}
}
