package entities

import "strings"

type CampaignType string

const (
	CampaignTypePublic  CampaignType = "Public"
	CampaignTypePrivate CampaignType = "Private"
)

// DefaultPlatformFeePercent is fixed at creation for every campaign.
const DefaultPlatformFeePercent uint8 = 1

// MaxSeverityLevels is bounded by the u8 severity id.
const MaxSeverityLevels = 256

type SeverityLevel struct {
	ID           uint8
	Name         string
	MaxRewardPct uint8
}

type CampaignMetadata struct {
	Name        string
	Description string
	RepoLink    *string
	Scope       *string
	Rules       *string
	Contact     *string
}

type Campaign struct {
	ID                 uint64
	Owner              string
	Asset              Asset
	TotalPool          Balance
	RemainingPool      Balance
	SeverityLevels     []SeverityLevel
	PlatformFeePercent uint8
	CampaignType       CampaignType
	Metadata           CampaignMetadata
	StartTime          uint64
	EndTime            *uint64
	Cancelled          bool
}

func ParseCampaignType(value string) (CampaignType, bool) {
	switch CampaignType(strings.TrimSpace(value)) {
	case CampaignTypePublic:
		return CampaignTypePublic, true
	case CampaignTypePrivate:
		return CampaignTypePrivate, true
	default:
		return "", false
	}
}

// Severity resolves a claimed severity id against the configured tiers.
func (c Campaign) Severity(id uint8) (SeverityLevel, bool) {
	for _, level := range c.SeverityLevels {
		if level.ID == id {
			return level, true
		}
	}
	return SeverityLevel{}, false
}

// MaxReward is floor(remaining_pool * max_reward_pct / 100).
func (c Campaign) MaxReward(level SeverityLevel) Balance {
	return c.RemainingPool.PercentFloor(level.MaxRewardPct)
}

// AcceptsSubmissionsAt reports whether a submission at nowMs is before the deadline.
func (c Campaign) AcceptsSubmissionsAt(nowMs uint64) bool {
	if c.EndTime == nil {
		return true
	}
	return nowMs < *c.EndTime
}

func (c Campaign) Clone() Campaign {
	out := c
	out.SeverityLevels = append([]SeverityLevel(nil), c.SeverityLevels...)
	if c.EndTime != nil {
		end := *c.EndTime
		out.EndTime = &end
	}
	return out
}
