package commands_test

import (
	"context"
	"testing"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/adapters/memory"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
	contractsv1 "nearshield/contracts/gen/events/v1"
)

const (
	admin    = "a.near"
	treasury = "t.near"
	owner    = "p.near"
	finder   = "r.near"
	token    = "tok.near"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	store *memory.Store

	createNative commands.CreateCampaignNativeUseCase
	cancel       commands.CancelCampaignUseCase
	submit       commands.SubmitBugUseCase
	review       commands.ReviewSubmissionUseCase
	onTransfer   commands.OnTransferUseCase
	setPaused    commands.SetPausedUseCase
	setTreasury  commands.SetTreasuryUseCase
	setAdmin     commands.SetAdminUseCase
	withdrawFees commands.WithdrawFeesUseCase
	emergency    commands.EmergencyWithdrawUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore(entities.NewContractState(admin, treasury))
	store.SetNow(baseTime)
	return &harness{
		t:            t,
		store:        store,
		createNative: commands.CreateCampaignNativeUseCase{Store: store, Clock: store},
		cancel:       commands.CancelCampaignUseCase{Store: store, Clock: store, IDGenerator: store},
		submit:       commands.SubmitBugUseCase{Store: store, Clock: store},
		review:       commands.ReviewSubmissionUseCase{Store: store, Clock: store, IDGenerator: store},
		onTransfer:   commands.OnTransferUseCase{Store: store, Clock: store, TrustedTokens: []string{token}},
		setPaused:    commands.SetPausedUseCase{Store: store, Clock: store},
		setTreasury:  commands.SetTreasuryUseCase{Store: store},
		setAdmin:     commands.SetAdminUseCase{Store: store},
		withdrawFees: commands.WithdrawFeesUseCase{Store: store, Clock: store, IDGenerator: store},
		emergency:    commands.EmergencyWithdrawUseCase{Store: store, Clock: store, IDGenerator: store},
	}
}

func call(account string) commands.Call {
	return commands.Call{Predecessor: account}
}

func callWithDeposit(account string, deposit uint64) commands.Call {
	return commands.Call{Predecessor: account, AttachedDeposit: entities.NewBalance(deposit)}
}

func balance(v uint64) *entities.Balance {
	b := entities.NewBalance(v)
	return &b
}

func critInput() commands.CreateCampaignInput {
	return commands.CreateCampaignInput{
		Name:           "Core audit",
		Description:    "contracts",
		SeverityLevels: []commands.SeverityInput{{Name: "crit", MaxRewardPct: 50}},
	}
}

// newCampaign creates a native campaign owned by p.near.
func (h *harness) newCampaign(deposit uint64, input commands.CreateCampaignInput) entities.Campaign {
	h.t.Helper()
	campaign, err := h.createNative.Execute(context.Background(), commands.CreateCampaignNativeCommand{
		Call:  callWithDeposit(owner, deposit),
		Input: input,
	})
	if err != nil {
		h.t.Fatalf("create campaign failed: %v", err)
	}
	return campaign
}

func (h *harness) submitBug(campaignID uint64, severity uint8) entities.Submission {
	h.t.Helper()
	submission, err := h.submit.Execute(context.Background(), commands.SubmitBugCommand{
		Call:       call(finder),
		CampaignID: campaignID,
		Input: commands.SubmitBugInput{
			Title:           "overflow",
			DescriptionHash: "QmHash",
			PocLink:         "https://poc",
			SeverityClaim:   severity,
		},
	})
	if err != nil {
		h.t.Fatalf("submit bug failed: %v", err)
	}
	return submission
}

func (h *harness) accept(submissionID uint64, reward uint64) (commands.ReviewSubmissionResult, error) {
	return h.review.Execute(context.Background(), commands.ReviewSubmissionCommand{
		Call:         call(owner),
		SubmissionID: submissionID,
		Status:       entities.SubmissionStatusAccepted,
		RewardAmount: balance(reward),
	})
}

func (h *harness) pause(paused bool) {
	h.t.Helper()
	if err := h.setPaused.Execute(context.Background(), commands.SetPausedCommand{Call: call(admin), Paused: paused}); err != nil {
		h.t.Fatalf("set paused failed: %v", err)
	}
}

func (h *harness) view(fn func(r ports.Reader) error) {
	h.t.Helper()
	if err := h.store.View(context.Background(), fn); err != nil {
		h.t.Fatalf("view failed: %v", err)
	}
}

func (h *harness) campaign(id uint64) entities.Campaign {
	h.t.Helper()
	var out entities.Campaign
	h.view(func(r ports.Reader) error {
		campaign, found, err := r.Campaign(id)
		if !found {
			h.t.Fatalf("campaign %d not found", id)
		}
		out = campaign
		return err
	})
	return out
}

func (h *harness) submission(id uint64) entities.Submission {
	h.t.Helper()
	var out entities.Submission
	h.view(func(r ports.Reader) error {
		submission, found, err := r.Submission(id)
		if !found {
			h.t.Fatalf("submission %d not found", id)
		}
		out = submission
		return err
	})
	return out
}

func (h *harness) events() []entities.EventRecord {
	h.t.Helper()
	var out []entities.EventRecord
	h.view(func(r ports.Reader) error {
		records, err := r.ListEvents(0, 1000)
		out = records
		return err
	})
	return out
}

func (h *harness) transfers() []entities.Transfer {
	h.t.Helper()
	out, err := h.store.ListTransfers(context.Background(), ports.TransferFilter{})
	if err != nil {
		h.t.Fatalf("list transfers failed: %v", err)
	}
	return out
}

func (h *harness) custody(asset entities.Asset) entities.Custody {
	h.t.Helper()
	var out entities.Custody
	h.view(func(r ports.Reader) error {
		custody, err := r.Custody(asset)
		out = custody
		return err
	})
	return out
}

func decodeEvent[T any](t *testing.T, record entities.EventRecord) T {
	t.Helper()
	envelope, err := contractsv1.ParseLine(record.Line)
	if err != nil {
		t.Fatalf("parse event line %q: %v", record.Line, err)
	}
	var out T
	if err := envelope.DecodeData(&out); err != nil {
		t.Fatalf("decode event data: %v", err)
	}
	return out
}
