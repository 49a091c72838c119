package commands_test

import (
	"context"
	"errors"
	"testing"

	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

func TestAdminOperationsRequireAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.setPaused.Execute(ctx, commands.SetPausedCommand{Call: call(owner), Paused: true}); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("set_paused: expected NotAdmin, got %v", err)
	}
	if err := h.setTreasury.Execute(ctx, commands.SetAccountCommand{Call: call(owner), AccountID: "x.near"}); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("set_treasury: expected NotAdmin, got %v", err)
	}
	if err := h.setAdmin.Execute(ctx, commands.SetAccountCommand{Call: call(""), AccountID: "x.near"}); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("set_admin: expected NotAdmin, got %v", err)
	}
	if _, err := h.withdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Call: call(owner)}); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("withdraw_fees: expected NotAdmin, got %v", err)
	}
	if _, err := h.emergency.Execute(ctx, commands.EmergencyWithdrawCommand{Call: call(owner), Amount: entities.NewBalance(1), Receiver: owner}); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("emergency_withdraw: expected NotAdmin, got %v", err)
	}
}

func TestSetTreasuryRedirectsFees(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.setTreasury.Execute(ctx, commands.SetAccountCommand{Call: call(admin), AccountID: "vault.near"}); err != nil {
		t.Fatalf("set treasury failed: %v", err)
	}
	if err := h.setTreasury.Execute(ctx, commands.SetAccountCommand{Call: call(admin), AccountID: ""}); !errors.Is(err, domainerrors.ErrBadConfig) {
		t.Fatalf("expected BadConfig for empty account, got %v", err)
	}

	submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)
	if _, err := h.accept(submission.ID, 400); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	transfers := h.transfers()
	if transfers[1].Receiver != "vault.near" {
		t.Fatalf("fee leg went to %s", transfers[1].Receiver)
	}
}

func TestSetAdminHandsOverAuthority(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.setAdmin.Execute(ctx, commands.SetAccountCommand{Call: call(admin), AccountID: "ops.near"}); err != nil {
		t.Fatalf("set admin failed: %v", err)
	}
	if err := h.setPaused.Execute(ctx, commands.SetPausedCommand{Call: call(admin), Paused: true}); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("previous admin still authorised: %v", err)
	}
	if err := h.setPaused.Execute(ctx, commands.SetPausedCommand{Call: call("ops.near"), Paused: true}); err != nil {
		t.Fatalf("new admin rejected: %v", err)
	}
}

func TestWithdrawFeesDrawsOnlySurplus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)

	// Nothing outside the pool yet.
	if _, err := h.withdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Call: call(admin)}); !errors.Is(err, domainerrors.ErrInsufficientSurplus) {
		t.Fatalf("expected InsufficientSurplus, got %v", err)
	}

	// A deposit attached to a review lands in surplus.
	if _, err := h.review.Execute(ctx, commands.ReviewSubmissionCommand{
		Call:         callWithDeposit(owner, 30),
		SubmissionID: submission.ID,
		Status:       entities.SubmissionStatusUnderReview,
	}); err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if got := h.custody(entities.NativeAsset()).Surplus().String(); got != "30" {
		t.Fatalf("expected surplus 30, got %s", got)
	}

	if _, err := h.withdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Call: call(admin), Amount: balance(31)}); !errors.Is(err, domainerrors.ErrInsufficientSurplus) {
		t.Fatalf("expected InsufficientSurplus above surplus, got %v", err)
	}
	if _, err := h.withdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Call: call(admin), Amount: balance(0)}); !errors.Is(err, domainerrors.ErrBadConfig) {
		t.Fatalf("expected BadConfig for explicit zero, got %v", err)
	}

	result, err := h.withdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Call: call(admin)})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if result.Amount.String() != "30" || result.Receiver != treasury || result.TransferHandle == "" {
		t.Fatalf("unexpected withdraw result: %+v", result)
	}

	custody := h.custody(entities.NativeAsset())
	if custody.Held.String() != "1000" || custody.Escrowed.String() != "1000" {
		t.Fatalf("escrowed pool touched: held=%s escrowed=%s", custody.Held, custody.Escrowed)
	}
	transfers := h.transfers()
	last := transfers[len(transfers)-1]
	if last.Reason != entities.TransferReasonWithdrawFees || last.Amount.String() != "30" {
		t.Fatalf("unexpected withdraw leg: %+v", last)
	}
}

func TestFailedLegReturnsToSurplus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)
	result, err := h.accept(submission.ID, 400)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := h.store.MarkTransferFailed(ctx, result.Payout.RewardHandle, 3, "receiver missing", baseTime); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if got := h.custody(entities.NativeAsset()).Surplus().String(); got != "396" {
		t.Fatalf("expected failed leg in surplus, got %s", got)
	}
	if got := h.campaign(submission.CampaignID).RemainingPool.String(); got != "600" {
		t.Fatalf("failed leg must not restore the pool, got %s", got)
	}

	h.pause(true)
	withdraw, err := h.emergency.Execute(ctx, commands.EmergencyWithdrawCommand{
		Call:     call(admin),
		Amount:   entities.NewBalance(396),
		Receiver: finder,
	})
	if err != nil {
		t.Fatalf("emergency withdraw failed: %v", err)
	}
	if withdraw.Receiver != finder || withdraw.Asset != entities.NativeAsset() {
		t.Fatalf("unexpected emergency result: %+v", withdraw)
	}
	failed, err := h.store.ListTransfers(ctx, ports.TransferFilter{Status: entities.TransferStatusFailed})
	if err != nil {
		t.Fatalf("list failed transfers: %v", err)
	}
	if len(failed) != 1 || failed[0].Handle != result.Payout.RewardHandle {
		t.Fatalf("unexpected failed transfers: %+v", failed)
	}
}

func TestEmergencyWithdrawRequiresPause(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cmd := commands.EmergencyWithdrawCommand{Call: call(admin), Amount: entities.NewBalance(5), Receiver: admin}

	if _, err := h.emergency.Execute(ctx, cmd); !errors.Is(err, domainerrors.ErrNotPaused) {
		t.Fatalf("expected NotPaused, got %v", err)
	}
	h.pause(true)
	if _, err := h.emergency.Execute(ctx, commands.EmergencyWithdrawCommand{Call: call(admin), Receiver: admin}); !errors.Is(err, domainerrors.ErrBadConfig) {
		t.Fatalf("expected BadConfig for zero amount, got %v", err)
	}
	tokenID := token
	result, err := h.emergency.Execute(ctx, commands.EmergencyWithdrawCommand{Call: call(admin), Token: &tokenID, Amount: entities.NewBalance(5), Receiver: admin})
	if err != nil {
		t.Fatalf("emergency withdraw failed: %v", err)
	}
	transfers := h.transfers()
	if len(transfers) != 1 || transfers[0].Handle != result.TransferHandle || transfers[0].Deposit != entities.TokenTransferDeposit {
		t.Fatalf("unexpected transfers: %+v", transfers)
	}
}
