package queries_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/adapters/memory"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/commands"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/queries"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
)

type fixture struct {
	t      *testing.T
	store  *memory.Store
	views  queries.Views
	create commands.CreateCampaignNativeUseCase
	submit commands.SubmitBugUseCase
	review commands.ReviewSubmissionUseCase
}

func newFixture(t *testing.T) *fixture {
	store := memory.NewStore(entities.NewContractState("admin.near", "treasury.near"))
	store.SetNow(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	return &fixture{
		t:      t,
		store:  store,
		views:  queries.Views{Store: store},
		create: commands.CreateCampaignNativeUseCase{Store: store, Clock: store},
		submit: commands.SubmitBugUseCase{Store: store, Clock: store},
		review: commands.ReviewSubmissionUseCase{Store: store, Clock: store, IDGenerator: store},
	}
}

func (f *fixture) campaign(owner string, deposit uint64) uint64 {
	f.t.Helper()
	campaign, err := f.create.Execute(context.Background(), commands.CreateCampaignNativeCommand{
		Call: commands.Call{Predecessor: owner, AttachedDeposit: entities.NewBalance(deposit)},
		Input: commands.CreateCampaignInput{
			Name:           "c",
			SeverityLevels: []commands.SeverityInput{{Name: "any", MaxRewardPct: 100}},
		},
	})
	if err != nil {
		f.t.Fatalf("create campaign: %v", err)
	}
	return campaign.ID
}

func (f *fixture) pay(owner string, campaignID uint64, finder string, reward uint64) {
	f.t.Helper()
	submission, err := f.submit.Execute(context.Background(), commands.SubmitBugCommand{
		Call:       commands.Call{Predecessor: finder},
		CampaignID: campaignID,
	})
	if err != nil {
		f.t.Fatalf("submit: %v", err)
	}
	amount := entities.NewBalance(reward)
	if _, err := f.review.Execute(context.Background(), commands.ReviewSubmissionCommand{
		Call:         commands.Call{Predecessor: owner},
		SubmissionID: submission.ID,
		Status:       entities.SubmissionStatusAccepted,
		RewardAmount: &amount,
	}); err != nil {
		f.t.Fatalf("accept: %v", err)
	}
}

func TestTopFindersBreaksTiesByFirstWrite(t *testing.T) {
	f := newFixture(t)
	campaignID := f.campaign("p.near", 10_000)
	f.pay("p.near", campaignID, "a.near", 100)
	f.pay("p.near", campaignID, "b.near", 100)
	f.pay("p.near", campaignID, "c.near", 200)

	entries, err := f.views.GetTopFinders(context.Background(), 10)
	if err != nil {
		t.Fatalf("top finders: %v", err)
	}
	want := []string{"c.near", "a.near", "b.near"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, account := range want {
		if entries[i].AccountID != account {
			t.Fatalf("rank %d: expected %s, got %s", i, account, entries[i].AccountID)
		}
	}
	if entries[0].Stats.TotalRewardsEarned.String() != "198" {
		t.Fatalf("finder stats record net reward, got %s", entries[0].Stats.TotalRewardsEarned)
	}

	top, _ := f.views.GetTopFinders(context.Background(), 1)
	if len(top) != 1 || top[0].AccountID != "c.near" {
		t.Fatalf("limit not applied: %+v", top)
	}
}

func TestTopProjectsRanksByRewardsPaid(t *testing.T) {
	f := newFixture(t)
	f.campaign("idle.near", 100)
	busy := f.campaign("busy.near", 1000)
	f.pay("busy.near", busy, "r.near", 300)

	entries, err := f.views.GetTopProjects(context.Background(), 0)
	if err != nil {
		t.Fatalf("top projects: %v", err)
	}
	if len(entries) != 2 || entries[0].AccountID != "busy.near" || entries[1].AccountID != "idle.near" {
		t.Fatalf("unexpected ranking: %+v", entries)
	}
	if entries[0].Stats.TotalRewardsPaid.String() != "300" || entries[1].Stats.TotalCampaignsCreated != 1 {
		t.Fatalf("unexpected stats: %+v", entries)
	}
}

func TestCampaignPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 15; i++ {
		f.campaign("p.near", 10)
	}
	ctx := context.Background()

	page, err := f.views.GetCampaigns(ctx, queries.Page{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if uint64(len(page)) != queries.DefaultPageLimit || page[0].ID != 1 {
		t.Fatalf("default page wrong: %d items", len(page))
	}

	limit := uint64(3)
	page, _ = f.views.GetCampaigns(ctx, queries.Page{From: 12, Limit: &limit})
	if len(page) != 3 || page[0].ID != 13 || page[2].ID != 15 {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, _ = f.views.GetCampaigns(ctx, queries.Page{From: 15, Limit: &limit})
	if len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(page))
	}

	page, _ = f.views.GetCampaigns(ctx, queries.Page{From: math.MaxUint64, Limit: &limit})
	if len(page) != 0 {
		t.Fatalf("expected empty page for max offset, got %d", len(page))
	}

	huge := uint64(1_000)
	page, _ = f.views.GetCampaigns(ctx, queries.Page{Limit: &huge})
	if len(page) != 15 {
		t.Fatalf("expected all 15, got %d", len(page))
	}
}

func TestCampaignSubmissionsPaging(t *testing.T) {
	f := newFixture(t)
	first := f.campaign("p.near", 10)
	second := f.campaign("p.near", 10)
	for _, id := range []uint64{first, second, first, first} {
		if _, err := f.submit.Execute(context.Background(), commands.SubmitBugCommand{Call: commands.Call{Predecessor: "r.near"}, CampaignID: id}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	limit := uint64(2)
	items, err := f.views.GetCampaignSubmissions(context.Background(), first, queries.Page{From: 1, Limit: &limit})
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(items) != 2 || items[0].ID != 3 || items[1].ID != 4 {
		t.Fatalf("unexpected submissions: %+v", items)
	}

	empty, err := f.views.GetCampaignSubmissions(context.Background(), 99, queries.Page{})
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown campaign should yield empty page: %v %d", err, len(empty))
	}
}

func TestPointLookupsReportNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.views.GetCampaign(context.Background(), 1); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := f.views.GetSubmission(context.Background(), 1); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEventsAndCustodyViews(t *testing.T) {
	f := newFixture(t)
	f.campaign("p.near", 40)
	f.campaign("q.near", 60)
	ctx := context.Background()

	events, err := f.views.GetEvents(ctx, 1, 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Seq != 2 || events[0].Kind != "campaign_created" {
		t.Fatalf("unexpected events: %+v", events)
	}

	all, err := f.views.GetCustody(ctx, nil)
	if err != nil || len(all) != 1 || all[0].Held.String() != "100" {
		t.Fatalf("unexpected custody list: %+v %v", all, err)
	}
	token := entities.TokenAsset("usdc.near")
	one, err := f.views.GetCustody(ctx, &token)
	if err != nil || len(one) != 1 || !one[0].Held.IsZero() || one[0].Asset != token {
		t.Fatalf("unexpected token custody: %+v %v", one, err)
	}

	state, err := f.views.GetContractState(ctx)
	if err != nil || state.NextCampaignID != 3 || state.Admin != "admin.near" {
		t.Fatalf("unexpected state: %+v %v", state, err)
	}
}
