package commands_test

import (
	"context"
	"errors"
	"testing"

	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
	contractsv1 "nearshield/contracts/gen/events/v1"
)

func TestNativeHappyPath(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)

	result, err := h.accept(submission.ID, 400)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if result.Payout == nil {
		t.Fatalf("expected payout")
	}
	if result.Payout.Fee.String() != "4" || result.Payout.Net.String() != "396" {
		t.Fatalf("unexpected split: fee=%s net=%s", result.Payout.Fee, result.Payout.Net)
	}

	transfers := h.transfers()
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	if transfers[0].Receiver != finder || transfers[0].Amount.String() != "396" || transfers[0].Reason != entities.TransferReasonPayoutReward {
		t.Fatalf("unexpected reward leg: %+v", transfers[0])
	}
	if transfers[1].Receiver != treasury || transfers[1].Amount.String() != "4" || transfers[1].Reason != entities.TransferReasonPayoutFee {
		t.Fatalf("unexpected fee leg: %+v", transfers[1])
	}
	if transfers[0].Deposit != 0 || transfers[0].GasTgas != 0 {
		t.Fatalf("native leg must not carry deposit or gas: %+v", transfers[0])
	}

	if got := h.campaign(campaign.ID).RemainingPool.String(); got != "600" {
		t.Fatalf("expected remaining 600, got %s", got)
	}

	h.view(func(r ports.Reader) error {
		finderStats, _, err := r.FinderStats(finder)
		if err != nil {
			return err
		}
		if finderStats.TotalRewardsEarned.String() != "396" || finderStats.TotalBugsFound != 1 || finderStats.TotalSeverityScore != 0 {
			t.Fatalf("unexpected finder stats: %+v", finderStats)
		}
		projectStats, _, err := r.ProjectStats(owner)
		if err != nil {
			return err
		}
		if projectStats.TotalRewardsPaid.String() != "400" || projectStats.TotalCampaignsCreated != 1 || projectStats.TotalBugsFixed != 1 {
			t.Fatalf("unexpected project stats: %+v", projectStats)
		}
		return nil
	})

	events := h.events()
	var payouts []contractsv1.Payout
	for _, record := range events {
		if record.Kind == contractsv1.EventPayout {
			payouts = append(payouts, decodeEvent[contractsv1.Payout](t, record))
		}
	}
	if len(payouts) != 1 || payouts[0].GrossReward != "400" || payouts[0].PlatformFee != "4" {
		t.Fatalf("unexpected payout events: %+v", payouts)
	}

	custody := h.custody(entities.NativeAsset())
	if custody.Held.String() != "600" || custody.Escrowed.String() != "600" || !custody.Surplus().IsZero() {
		t.Fatalf("unexpected custody: held=%s escrowed=%s", custody.Held, custody.Escrowed)
	}
}

func TestRewardExceedsCapLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)
	eventsBefore := len(h.events())

	_, err := h.accept(submission.ID, 600)
	if !errors.Is(err, domainerrors.ErrRewardExceedsMax) {
		t.Fatalf("expected RewardExceedsMax, got %v", err)
	}
	if got := h.campaign(campaign.ID).RemainingPool.String(); got != "1000" {
		t.Fatalf("pool changed: %s", got)
	}
	if len(h.events()) != eventsBefore {
		t.Fatalf("event emitted on aborted call")
	}
	if len(h.transfers()) != 0 {
		t.Fatalf("transfer scheduled on aborted call")
	}
	if h.submission(submission.ID).Status != entities.SubmissionStatusPending {
		t.Fatalf("submission status changed on aborted call")
	}
}

func TestCancellationRefundsRemainingPool(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)
	if _, err := h.accept(submission.ID, 400); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	result, err := h.cancel.Execute(context.Background(), commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.RefundAmount.String() != "600" || result.TransferHandle == "" {
		t.Fatalf("unexpected cancel result: %+v", result)
	}

	stored := h.campaign(campaign.ID)
	if !stored.Cancelled || !stored.RemainingPool.IsZero() {
		t.Fatalf("campaign not cancelled: %+v", stored)
	}

	transfers := h.transfers()
	refund := transfers[len(transfers)-1]
	if refund.Receiver != owner || refund.Amount.String() != "600" || refund.Reason != entities.TransferReasonCampaignRefund {
		t.Fatalf("unexpected refund leg: %+v", refund)
	}

	events := h.events()
	last := events[len(events)-1]
	if last.Kind != contractsv1.EventCampaignCancelled {
		t.Fatalf("expected campaign_cancelled, got %s", last.Kind)
	}
	if data := decodeEvent[contractsv1.CampaignCancelled](t, last); data.RefundAmount != "600" {
		t.Fatalf("unexpected refund amount in event: %s", data.RefundAmount)
	}

	// pool accounting closes: paid + refunded == total
	paid := entities.NewBalance(400)
	total, _ := paid.Add(result.RefundAmount)
	if total.Cmp(stored.TotalPool) != 0 {
		t.Fatalf("paid + refund = %s, total pool %s", total, stored.TotalPool)
	}
}

func TestCreateThenCancelReturnsFullDeposit(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(12345, critInput())

	result, err := h.cancel.Execute(context.Background(), commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.RefundAmount.String() != "12345" {
		t.Fatalf("expected full refund, got %s", result.RefundAmount)
	}
	custody := h.custody(entities.NativeAsset())
	if !custody.Held.IsZero() || !custody.Escrowed.IsZero() {
		t.Fatalf("custody not drained: held=%s escrowed=%s", custody.Held, custody.Escrowed)
	}
}

func TestSubmitAtEndTimeIsEnded(t *testing.T) {
	h := newHarness(t)
	end := uint64(baseTime.UnixMilli()) + 10_000
	input := critInput()
	input.EndTime = &end
	campaign := h.newCampaign(1000, input)

	h.store.SetNow(baseTime.Add(10_000_000_000))
	_, err := h.submit.Execute(context.Background(), commands.SubmitBugCommand{
		Call:       call(finder),
		CampaignID: campaign.ID,
		Input:      commands.SubmitBugInput{Title: "late"},
	})
	if !errors.Is(err, domainerrors.ErrEnded) {
		t.Fatalf("expected Ended at end_time, got %v", err)
	}

	h.store.SetNow(baseTime.Add(9_999_000_000))
	if _, err := h.submit.Execute(context.Background(), commands.SubmitBugCommand{
		Call:       call(finder),
		CampaignID: campaign.ID,
		Input:      commands.SubmitBugInput{Title: "just in time"},
	}); err != nil {
		t.Fatalf("expected success one ms before end_time, got %v", err)
	}
}

func TestDepositCallbackCreatesTokenCampaign(t *testing.T) {
	h := newHarness(t)
	msg := `{"name":"Token audit","description":"d","severity_levels":[{"name":"crit","max_reward_pct":50}],"campaign_type":"Public"}`

	result, err := h.onTransfer.Execute(context.Background(), commands.OnTransferCommand{
		Call:   call(token),
		Sender: owner,
		Amount: entities.NewBalance(1000),
		Msg:    msg,
	})
	if err != nil {
		t.Fatalf("on transfer failed: %v", err)
	}
	if !result.Refund.IsZero() || result.Campaign == nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	campaign := h.campaign(result.Campaign.ID)
	if campaign.Owner != owner || campaign.Asset.TokenID != token || campaign.TotalPool.String() != "1000" {
		t.Fatalf("unexpected campaign: %+v", campaign)
	}

	submission := h.submitBug(campaign.ID, 0)
	if _, err := h.accept(submission.ID, 500); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	transfers := h.transfers()
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	if transfers[0].Deposit != entities.TokenTransferDeposit || transfers[0].GasTgas != entities.RewardLegGasTgas {
		t.Fatalf("unexpected reward leg attachments: %+v", transfers[0])
	}
	if transfers[1].GasTgas != entities.DefaultLegGasTgas {
		t.Fatalf("unexpected fee leg gas: %+v", transfers[1])
	}
}

func TestPausedBlocksMutatorsButNotViews(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)
	h.pause(true)

	ctx := context.Background()
	checks := map[string]error{}
	_, checks["create"] = h.createNative.Execute(ctx, commands.CreateCampaignNativeCommand{Call: callWithDeposit(owner, 10), Input: critInput()})
	_, checks["submit"] = h.submit.Execute(ctx, commands.SubmitBugCommand{Call: call(finder), CampaignID: campaign.ID})
	_, checks["review"] = h.accept(submission.ID, 10)
	_, checks["cancel"] = h.cancel.Execute(ctx, commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID})
	_, checks["on_transfer"] = h.onTransfer.Execute(ctx, commands.OnTransferCommand{Call: call(token), Sender: owner, Amount: entities.NewBalance(5), Msg: "{}"})
	_, checks["withdraw_fees"] = h.withdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Call: call(admin)})

	for name, err := range checks {
		if !errors.Is(err, domainerrors.ErrPaused) {
			t.Fatalf("%s: expected Paused, got %v", name, err)
		}
	}

	h.view(func(r ports.Reader) error {
		_, found, err := r.Campaign(campaign.ID)
		if !found {
			t.Fatalf("view failed while paused")
		}
		return err
	})
}

func TestSetPausedIsIdempotentInState(t *testing.T) {
	h := newHarness(t)
	h.pause(true)
	h.pause(true)

	h.view(func(r ports.Reader) error {
		state, err := r.State()
		if !state.Paused {
			t.Fatalf("expected paused")
		}
		return err
	})
	if got := len(h.events()); got != 2 {
		t.Fatalf("expected one pause_toggle per call, got %d", got)
	}
}
