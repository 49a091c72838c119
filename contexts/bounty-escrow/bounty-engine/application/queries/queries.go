package queries

import (
	"context"
	"log/slog"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

const (
	DefaultPageLimit  uint64 = 10
	MaxPageLimit      uint64 = 100
	DefaultEventLimit        = 100
	MaxEventLimit            = 1000
)

// Views are read-only and never gated by pause.
type Views struct {
	Store  ports.Store
	Logger *slog.Logger
}

type Page struct {
	From  uint64
	Limit *uint64
}

func (p Page) limit() uint64 {
	if p.Limit == nil {
		return DefaultPageLimit
	}
	if *p.Limit > MaxPageLimit {
		return MaxPageLimit
	}
	return *p.Limit
}

func (v Views) GetCampaign(ctx context.Context, campaignID uint64) (entities.Campaign, error) {
	var campaign entities.Campaign
	err := v.Store.View(ctx, func(r ports.Reader) error {
		item, found, err := r.Campaign(campaignID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrCampaignNotFound
		}
		campaign = item
		return nil
	})
	return campaign, err
}

// GetCampaigns pages campaigns in id order.
func (v Views) GetCampaigns(ctx context.Context, page Page) ([]entities.Campaign, error) {
	var items []entities.Campaign
	err := v.Store.View(ctx, func(r ports.Reader) error {
		var err error
		items, err = r.ListCampaigns(page.From, page.limit())
		return err
	})
	if err != nil {
		return nil, err
	}
	application.ResolveLogger(v.Logger).Debug("campaigns listed",
		"event", "campaigns_listed",
		"module", application.Module,
		"layer", "application",
		"from", page.From,
		"count", len(items),
	)
	return items, nil
}

func (v Views) GetSubmission(ctx context.Context, submissionID uint64) (entities.Submission, error) {
	var submission entities.Submission
	err := v.Store.View(ctx, func(r ports.Reader) error {
		item, found, err := r.Submission(submissionID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrSubmissionNotFound
		}
		submission = item
		return nil
	})
	return submission, err
}

// GetCampaignSubmissions pages the campaign's submission index. An unknown
// campaign yields an empty page.
func (v Views) GetCampaignSubmissions(ctx context.Context, campaignID uint64, page Page) ([]entities.Submission, error) {
	var items []entities.Submission
	err := v.Store.View(ctx, func(r ports.Reader) error {
		var err error
		items, err = r.ListCampaignSubmissions(campaignID, page.From, page.limit())
		return err
	})
	return items, err
}

func clampRank(limit int) int {
	if limit <= 0 {
		return int(DefaultPageLimit)
	}
	if limit > int(MaxPageLimit) {
		return int(MaxPageLimit)
	}
	return limit
}

// GetTopFinders ranks by total_rewards_earned, ties in first-write order.
func (v Views) GetTopFinders(ctx context.Context, limit int) ([]entities.FinderEntry, error) {
	var items []entities.FinderEntry
	err := v.Store.View(ctx, func(r ports.Reader) error {
		var err error
		items, err = r.TopFinders(clampRank(limit))
		return err
	})
	return items, err
}

// GetTopProjects ranks by total_rewards_paid, ties in first-write order.
func (v Views) GetTopProjects(ctx context.Context, limit int) ([]entities.ProjectEntry, error) {
	var items []entities.ProjectEntry
	err := v.Store.View(ctx, func(r ports.Reader) error {
		var err error
		items, err = r.TopProjects(clampRank(limit))
		return err
	})
	return items, err
}

// GetEvents returns committed event lines with seq > afterSeq.
func (v Views) GetEvents(ctx context.Context, afterSeq uint64, limit int) ([]entities.EventRecord, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}
	var items []entities.EventRecord
	err := v.Store.View(ctx, func(r ports.Reader) error {
		var err error
		items, err = r.ListEvents(afterSeq, limit)
		return err
	})
	return items, err
}

// GetCustody returns one asset's custody, or every tracked asset when token
// filtering is not requested.
func (v Views) GetCustody(ctx context.Context, asset *entities.Asset) ([]entities.Custody, error) {
	var items []entities.Custody
	err := v.Store.View(ctx, func(r ports.Reader) error {
		if asset != nil {
			custody, err := r.Custody(*asset)
			if err != nil {
				return err
			}
			items = []entities.Custody{custody}
			return nil
		}
		var err error
		items, err = r.ListCustody()
		return err
	})
	return items, err
}

func (v Views) GetContractState(ctx context.Context) (entities.ContractState, error) {
	var state entities.ContractState
	err := v.Store.View(ctx, func(r ports.Reader) error {
		var err error
		state, err = r.State()
		return err
	})
	return state, err
}
