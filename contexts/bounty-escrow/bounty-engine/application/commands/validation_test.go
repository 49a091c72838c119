package commands_test

import (
	"context"
	"errors"
	"testing"

	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
)

func TestCreateCampaignNativeValidation(t *testing.T) {
	tooMany := make([]commands.SeverityInput, entities.MaxSeverityLevels+1)
	for i := range tooMany {
		tooMany[i] = commands.SeverityInput{Name: "lvl", MaxRewardPct: 1}
	}

	tests := []struct {
		name    string
		deposit uint64
		mutate  func(input *commands.CreateCampaignInput)
		want    error
	}{
		{name: "zero deposit", deposit: 0, mutate: func(*commands.CreateCampaignInput) {}, want: domainerrors.ErrDepositTooSmall},
		{name: "no severity levels", deposit: 10, mutate: func(in *commands.CreateCampaignInput) { in.SeverityLevels = nil }, want: domainerrors.ErrBadConfig},
		{name: "too many severity levels", deposit: 10, mutate: func(in *commands.CreateCampaignInput) { in.SeverityLevels = tooMany }, want: domainerrors.ErrBadConfig},
		{name: "pct above 100", deposit: 10, mutate: func(in *commands.CreateCampaignInput) {
			in.SeverityLevels = []commands.SeverityInput{{Name: "crit", MaxRewardPct: 101}}
		}, want: domainerrors.ErrBadConfig},
		{name: "unknown campaign type", deposit: 10, mutate: func(in *commands.CreateCampaignInput) { in.CampaignType = "Secret" }, want: domainerrors.ErrBadConfig},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			input := critInput()
			tc.mutate(&input)
			_, err := h.createNative.Execute(context.Background(), commands.CreateCampaignNativeCommand{
				Call:  callWithDeposit(owner, tc.deposit),
				Input: input,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := len(h.events()); got != 0 {
				t.Fatalf("expected no events, got %d", got)
			}
		})
	}
}

func TestCreateCampaignAcceptsLooseMetadata(t *testing.T) {
	past := uint64(baseTime.UnixMilli()) - 1
	full := make([]commands.SeverityInput, entities.MaxSeverityLevels)
	for i := range full {
		full[i] = commands.SeverityInput{Name: "lvl", MaxRewardPct: 1}
	}

	tests := []struct {
		name   string
		mutate func(input *commands.CreateCampaignInput)
		check  func(t *testing.T, campaign entities.Campaign)
	}{
		{name: "blank name", mutate: func(in *commands.CreateCampaignInput) { in.Name = "  " }, check: func(t *testing.T, c entities.Campaign) {
			if c.Metadata.Name != "  " {
				t.Fatalf("name not stored verbatim: %q", c.Metadata.Name)
			}
		}},
		{name: "end time in the past", mutate: func(in *commands.CreateCampaignInput) { in.EndTime = &past }, check: func(t *testing.T, c entities.Campaign) {
			if c.EndTime == nil || *c.EndTime != past {
				t.Fatalf("end time not stored: %v", c.EndTime)
			}
		}},
		{name: "all 256 severity ids", mutate: func(in *commands.CreateCampaignInput) { in.SeverityLevels = full }, check: func(t *testing.T, c entities.Campaign) {
			if len(c.SeverityLevels) != entities.MaxSeverityLevels || c.SeverityLevels[255].ID != 255 {
				t.Fatalf("unexpected severity levels: %d", len(c.SeverityLevels))
			}
		}},
		{name: "padded campaign type", mutate: func(in *commands.CreateCampaignInput) { in.CampaignType = " Private " }, check: func(t *testing.T, c entities.Campaign) {
			if c.CampaignType != entities.CampaignTypePrivate {
				t.Fatalf("campaign type not normalised: %q", c.CampaignType)
			}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			input := critInput()
			tc.mutate(&input)
			campaign := h.newCampaign(10, input)
			tc.check(t, h.campaign(campaign.ID))
		})
	}
}

func TestCreateCampaignAssignsDenseIDsAndDefaults(t *testing.T) {
	h := newHarness(t)
	first := h.newCampaign(10, critInput())
	second := h.newCampaign(20, critInput())
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected dense ids 1,2 got %d,%d", first.ID, second.ID)
	}
	if first.CampaignType != entities.CampaignTypePublic {
		t.Fatalf("expected default Public type, got %q", first.CampaignType)
	}
	if first.PlatformFeePercent != entities.DefaultPlatformFeePercent {
		t.Fatalf("unexpected fee percent %d", first.PlatformFeePercent)
	}
	if first.StartTime != uint64(baseTime.UnixMilli()) {
		t.Fatalf("start time not stamped from block time")
	}

	a := h.submitBug(second.ID, 0)
	b := h.submitBug(first.ID, 0)
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected dense submission ids 1,2 got %d,%d", a.ID, b.ID)
	}
}

func TestSubmitBugGuards(t *testing.T) {
	h := newHarness(t)
	_, err := h.submit.Execute(context.Background(), commands.SubmitBugCommand{Call: call(finder), CampaignID: 42})
	if !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	campaign := h.newCampaign(100, critInput())
	if _, err := h.cancel.Execute(context.Background(), commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err = h.submit.Execute(context.Background(), commands.SubmitBugCommand{Call: call(finder), CampaignID: campaign.ID})
	if !errors.Is(err, domainerrors.ErrCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
}

func TestCancelCampaignGuards(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(100, critInput())
	ctx := context.Background()

	if _, err := h.cancel.Execute(ctx, commands.CancelCampaignCommand{Call: call(finder), CampaignID: campaign.ID}); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected NotOwner, got %v", err)
	}
	if _, err := h.cancel.Execute(ctx, commands.CancelCampaignCommand{Call: call(owner), CampaignID: 99}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := h.cancel.Execute(ctx, commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := h.cancel.Execute(ctx, commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID}); !errors.Is(err, domainerrors.ErrAlreadyCancelled) {
		t.Fatalf("expected AlreadyCancelled, got %v", err)
	}
}

func TestReviewSubmissionGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("not owner", func(t *testing.T) {
		h := newHarness(t)
		submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)
		_, err := h.review.Execute(ctx, commands.ReviewSubmissionCommand{
			Call:         call(finder),
			SubmissionID: submission.ID,
			Status:       entities.SubmissionStatusRejected,
		})
		if !errors.Is(err, domainerrors.ErrNotOwner) {
			t.Fatalf("expected NotOwner, got %v", err)
		}
	})

	t.Run("missing submission", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.accept(7, 10)
		if !errors.Is(err, domainerrors.ErrNotFound) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})

	t.Run("reward required", func(t *testing.T) {
		h := newHarness(t)
		submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)
		_, err := h.review.Execute(ctx, commands.ReviewSubmissionCommand{
			Call:         call(owner),
			SubmissionID: submission.ID,
			Status:       entities.SubmissionStatusAccepted,
		})
		if !errors.Is(err, domainerrors.ErrRewardRequired) {
			t.Fatalf("expected RewardRequired, got %v", err)
		}
	})

	t.Run("unknown severity claim", func(t *testing.T) {
		h := newHarness(t)
		submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 3)
		if _, err := h.accept(submission.ID, 1); !errors.Is(err, domainerrors.ErrBadSeverity) {
			t.Fatalf("expected BadSeverity, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		h := newHarness(t)
		submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)
		_, err := h.review.Execute(ctx, commands.ReviewSubmissionCommand{
			Call:         call(owner),
			SubmissionID: submission.ID,
			Status:       "Closed",
		})
		if !errors.Is(err, domainerrors.ErrInvalidTransition) {
			t.Fatalf("expected InvalidTransition, got %v", err)
		}
	})

	t.Run("terminal submission", func(t *testing.T) {
		h := newHarness(t)
		submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)
		if _, err := h.accept(submission.ID, 100); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if _, err := h.accept(submission.ID, 100); !errors.Is(err, domainerrors.ErrInvalidTransition) {
			t.Fatalf("expected InvalidTransition on re-review, got %v", err)
		}
		if got := h.campaign(submission.CampaignID).RemainingPool.String(); got != "900" {
			t.Fatalf("pool debited twice: %s", got)
		}
	})

	t.Run("cancelled campaign", func(t *testing.T) {
		h := newHarness(t)
		campaign := h.newCampaign(1000, critInput())
		submission := h.submitBug(campaign.ID, 0)
		if _, err := h.cancel.Execute(ctx, commands.CancelCampaignCommand{Call: call(owner), CampaignID: campaign.ID}); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if _, err := h.accept(submission.ID, 1); !errors.Is(err, domainerrors.ErrCancelled) {
			t.Fatalf("expected Cancelled, got %v", err)
		}
	})
}

func TestReviewStoresNormalisedStatus(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)

	result, err := h.review.Execute(context.Background(), commands.ReviewSubmissionCommand{
		Call:         call(owner),
		SubmissionID: submission.ID,
		Status:       " Accepted",
		RewardAmount: balance(400),
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if result.Payout == nil || result.Payout.Gross.String() != "400" {
		t.Fatalf("padded Accepted must pay out: %+v", result.Payout)
	}
	stored := h.submission(submission.ID)
	if stored.Status != entities.SubmissionStatusAccepted || !stored.Status.IsTerminal() {
		t.Fatalf("unexpected stored status %q", stored.Status)
	}
	if got := h.campaign(campaign.ID).RemainingPool.String(); got != "600" {
		t.Fatalf("expected pool 600, got %s", got)
	}
}

func TestReviewWithoutPayoutKeepsPool(t *testing.T) {
	h := newHarness(t)
	campaign := h.newCampaign(1000, critInput())
	submission := h.submitBug(campaign.ID, 0)
	comments := "not reproducible"

	result, err := h.review.Execute(context.Background(), commands.ReviewSubmissionCommand{
		Call:         call(owner),
		SubmissionID: submission.ID,
		Status:       entities.SubmissionStatusUnderReview,
		Comments:     &comments,
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if result.Payout != nil {
		t.Fatalf("unexpected payout")
	}

	stored := h.submission(submission.ID)
	if stored.Status != entities.SubmissionStatusUnderReview || stored.Reviewer == nil || *stored.Reviewer != owner {
		t.Fatalf("unexpected submission after review: %+v", stored)
	}
	if stored.ReviewComments == nil || *stored.ReviewComments != comments {
		t.Fatalf("comments not recorded")
	}
	if h.campaign(campaign.ID).RemainingPool.String() != "1000" {
		t.Fatalf("pool changed without payout")
	}

	// UnderReview may still be accepted.
	if _, err := h.accept(submission.ID, 500); err != nil {
		t.Fatalf("accept from UnderReview failed: %v", err)
	}
}

func TestPayoutFeeFloorsToZero(t *testing.T) {
	h := newHarness(t)
	submission := h.submitBug(h.newCampaign(1000, critInput()).ID, 0)

	result, err := h.accept(submission.ID, 99)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if !result.Payout.Fee.IsZero() || result.Payout.Net.String() != "99" || result.Payout.FeeHandle != "" {
		t.Fatalf("unexpected payout: %+v", result.Payout)
	}
	if got := len(h.transfers()); got != 1 {
		t.Fatalf("zero fee leg must not be scheduled, got %d transfers", got)
	}
}
