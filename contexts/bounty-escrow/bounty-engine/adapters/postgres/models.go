package postgresadapter

import (
	"encoding/json"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

const tablePrefix = "nearshield_"

const stateRowID = 1

type stateModel struct {
	ID               int    `gorm:"column:id;primaryKey"`
	Admin            string `gorm:"column:admin"`
	Treasury         string `gorm:"column:treasury"`
	Paused           bool   `gorm:"column:paused"`
	NextCampaignID   uint64 `gorm:"column:next_campaign_id"`
	NextSubmissionID uint64 `gorm:"column:next_submission_id"`
}

func (stateModel) TableName() string {
	return tablePrefix + ports.StorageKeyState
}

func (m stateModel) toEntity() entities.ContractState {
	return entities.ContractState{
		Admin:            m.Admin,
		Treasury:         m.Treasury,
		Paused:           m.Paused,
		NextCampaignID:   m.NextCampaignID,
		NextSubmissionID: m.NextSubmissionID,
	}
}

func stateModelFromEntity(state entities.ContractState) stateModel {
	return stateModel{
		ID:               stateRowID,
		Admin:            state.Admin,
		Treasury:         state.Treasury,
		Paused:           state.Paused,
		NextCampaignID:   state.NextCampaignID,
		NextSubmissionID: state.NextSubmissionID,
	}
}

type severityLevelJSON struct {
	ID           uint8  `json:"id"`
	Name         string `json:"name"`
	MaxRewardPct uint8  `json:"max_reward_pct"`
}

type campaignModel struct {
	ID                 uint64           `gorm:"column:id;primaryKey;autoIncrement:false"`
	Owner              string           `gorm:"column:owner;index"`
	AssetKind          string           `gorm:"column:asset_kind"`
	TokenID            string           `gorm:"column:token_id"`
	TotalPool          entities.Balance `gorm:"column:total_pool;type:numeric(39,0)"`
	RemainingPool      entities.Balance `gorm:"column:remaining_pool;type:numeric(39,0)"`
	SeverityLevels     []byte           `gorm:"column:severity_levels;type:jsonb"`
	PlatformFeePercent uint8            `gorm:"column:platform_fee_percent"`
	CampaignType       string           `gorm:"column:campaign_type"`
	Name               string           `gorm:"column:name"`
	Description        string           `gorm:"column:description"`
	RepoLink           *string          `gorm:"column:repo_link"`
	Scope              *string          `gorm:"column:scope"`
	Rules              *string          `gorm:"column:rules"`
	Contact            *string          `gorm:"column:contact"`
	StartTime          uint64           `gorm:"column:start_time"`
	EndTime            *uint64          `gorm:"column:end_time"`
	Cancelled          bool             `gorm:"column:cancelled"`
}

func (campaignModel) TableName() string {
	return tablePrefix + ports.StorageKeyCampaigns
}

func (m campaignModel) toEntity() (entities.Campaign, error) {
	var levels []severityLevelJSON
	if len(m.SeverityLevels) > 0 {
		if err := json.Unmarshal(m.SeverityLevels, &levels); err != nil {
			return entities.Campaign{}, err
		}
	}
	severity := make([]entities.SeverityLevel, 0, len(levels))
	for _, level := range levels {
		severity = append(severity, entities.SeverityLevel{
			ID:           level.ID,
			Name:         level.Name,
			MaxRewardPct: level.MaxRewardPct,
		})
	}
	asset := entities.NativeAsset()
	if entities.AssetKind(m.AssetKind) == entities.AssetKindFungibleToken {
		asset = entities.TokenAsset(m.TokenID)
	}
	return entities.Campaign{
		ID:                 m.ID,
		Owner:              m.Owner,
		Asset:              asset,
		TotalPool:          m.TotalPool,
		RemainingPool:      m.RemainingPool,
		SeverityLevels:     severity,
		PlatformFeePercent: m.PlatformFeePercent,
		CampaignType:       entities.CampaignType(m.CampaignType),
		Metadata: entities.CampaignMetadata{
			Name:        m.Name,
			Description: m.Description,
			RepoLink:    m.RepoLink,
			Scope:       m.Scope,
			Rules:       m.Rules,
			Contact:     m.Contact,
		},
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Cancelled: m.Cancelled,
	}, nil
}

func campaignModelFromEntity(campaign entities.Campaign) (campaignModel, error) {
	levels := make([]severityLevelJSON, 0, len(campaign.SeverityLevels))
	for _, level := range campaign.SeverityLevels {
		levels = append(levels, severityLevelJSON{
			ID:           level.ID,
			Name:         level.Name,
			MaxRewardPct: level.MaxRewardPct,
		})
	}
	encoded, err := json.Marshal(levels)
	if err != nil {
		return campaignModel{}, err
	}
	return campaignModel{
		ID:                 campaign.ID,
		Owner:              campaign.Owner,
		AssetKind:          string(campaign.Asset.Kind),
		TokenID:            campaign.Asset.TokenID,
		TotalPool:          campaign.TotalPool,
		RemainingPool:      campaign.RemainingPool,
		SeverityLevels:     encoded,
		PlatformFeePercent: campaign.PlatformFeePercent,
		CampaignType:       string(campaign.CampaignType),
		Name:               campaign.Metadata.Name,
		Description:        campaign.Metadata.Description,
		RepoLink:           campaign.Metadata.RepoLink,
		Scope:              campaign.Metadata.Scope,
		Rules:              campaign.Metadata.Rules,
		Contact:            campaign.Metadata.Contact,
		StartTime:          campaign.StartTime,
		EndTime:            campaign.EndTime,
		Cancelled:          campaign.Cancelled,
	}, nil
}

type submissionModel struct {
	ID              uint64            `gorm:"column:id;primaryKey;autoIncrement:false"`
	CampaignID      uint64            `gorm:"column:campaign_id;index"`
	Submitter       string            `gorm:"column:submitter"`
	Title           string            `gorm:"column:title"`
	DescriptionHash string            `gorm:"column:description_hash"`
	PocLink         string            `gorm:"column:poc_link"`
	SeverityClaim   uint8             `gorm:"column:severity_claim"`
	Status          string            `gorm:"column:status"`
	ReviewComments  *string           `gorm:"column:review_comments"`
	RewardAmount    *entities.Balance `gorm:"column:reward_amount;type:numeric(39,0)"`
	Reviewer        *string           `gorm:"column:reviewer"`
	CreatedAt       uint64            `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt       uint64            `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (submissionModel) TableName() string {
	return tablePrefix + ports.StorageKeySubmissions
}

func (m submissionModel) toEntity() entities.Submission {
	return entities.Submission{
		ID:              m.ID,
		CampaignID:      m.CampaignID,
		Submitter:       m.Submitter,
		Title:           m.Title,
		DescriptionHash: m.DescriptionHash,
		PocLink:         m.PocLink,
		SeverityClaim:   m.SeverityClaim,
		Status:          entities.SubmissionStatus(m.Status),
		ReviewComments:  m.ReviewComments,
		RewardAmount:    m.RewardAmount,
		Reviewer:        m.Reviewer,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func submissionModelFromEntity(submission entities.Submission) submissionModel {
	return submissionModel{
		ID:              submission.ID,
		CampaignID:      submission.CampaignID,
		Submitter:       submission.Submitter,
		Title:           submission.Title,
		DescriptionHash: submission.DescriptionHash,
		PocLink:         submission.PocLink,
		SeverityClaim:   submission.SeverityClaim,
		Status:          string(submission.Status),
		ReviewComments:  submission.ReviewComments,
		RewardAmount:    submission.RewardAmount,
		Reviewer:        submission.Reviewer,
		CreatedAt:       submission.CreatedAt,
		UpdatedAt:       submission.UpdatedAt,
	}
}

type campaignSubmissionModel struct {
	CampaignID   uint64 `gorm:"column:campaign_id;primaryKey;autoIncrement:false"`
	Position     uint64 `gorm:"column:position;primaryKey;autoIncrement:false"`
	SubmissionID uint64 `gorm:"column:submission_id"`
}

func (campaignSubmissionModel) TableName() string {
	return tablePrefix + ports.StorageKeyCampaignSubmissions
}

type finderStatsModel struct {
	AccountID          string           `gorm:"column:account_id;primaryKey"`
	Seq                int64            `gorm:"column:seq;autoIncrement"`
	TotalRewardsEarned entities.Balance `gorm:"column:total_rewards_earned;type:numeric(39,0)"`
	TotalBugsFound     uint64           `gorm:"column:total_bugs_found"`
	TotalSeverityScore uint64           `gorm:"column:total_severity_score"`
}

func (finderStatsModel) TableName() string {
	return tablePrefix + ports.StorageKeyFinderStats
}

func (m finderStatsModel) toEntity() entities.FinderStats {
	return entities.FinderStats{
		TotalRewardsEarned: m.TotalRewardsEarned,
		TotalBugsFound:     m.TotalBugsFound,
		TotalSeverityScore: m.TotalSeverityScore,
	}
}

type projectStatsModel struct {
	AccountID             string           `gorm:"column:account_id;primaryKey"`
	Seq                   int64            `gorm:"column:seq;autoIncrement"`
	TotalRewardsPaid      entities.Balance `gorm:"column:total_rewards_paid;type:numeric(39,0)"`
	TotalCampaignsCreated uint64           `gorm:"column:total_campaigns_created"`
	TotalBugsFixed        uint64           `gorm:"column:total_bugs_fixed"`
}

func (projectStatsModel) TableName() string {
	return tablePrefix + ports.StorageKeyProjectStats
}

func (m projectStatsModel) toEntity() entities.ProjectStats {
	return entities.ProjectStats{
		TotalRewardsPaid:      m.TotalRewardsPaid,
		TotalCampaignsCreated: m.TotalCampaignsCreated,
		TotalBugsFixed:        m.TotalBugsFixed,
	}
}

type custodyModel struct {
	AssetKey string           `gorm:"column:asset_key;primaryKey"`
	Seq      int64            `gorm:"column:seq;autoIncrement"`
	Held     entities.Balance `gorm:"column:held;type:numeric(39,0)"`
	Escrowed entities.Balance `gorm:"column:escrowed;type:numeric(39,0)"`
}

func (custodyModel) TableName() string {
	return tablePrefix + ports.StorageKeyCustody
}

func (m custodyModel) toEntity() entities.Custody {
	return entities.Custody{
		Asset:    entities.AssetFromKey(m.AssetKey),
		Held:     m.Held,
		Escrowed: m.Escrowed,
	}
}

type eventModel struct {
	Seq         uint64     `gorm:"column:seq;primaryKey;autoIncrement"`
	Kind        string     `gorm:"column:kind"`
	Line        string     `gorm:"column:line"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at;index"`
	ArchivedAt  *time.Time `gorm:"column:archived_at"`
	ArchiveKey  string     `gorm:"column:archive_key"`
}

func (eventModel) TableName() string {
	return tablePrefix + ports.StorageKeyEventLog
}

func (m eventModel) toEntity() entities.EventRecord {
	return entities.EventRecord{
		Seq:         m.Seq,
		Kind:        m.Kind,
		Line:        m.Line,
		CreatedAt:   m.CreatedAt.UTC(),
		PublishedAt: m.PublishedAt,
		ArchivedAt:  m.ArchivedAt,
		ArchiveKey:  m.ArchiveKey,
	}
}

type transferModel struct {
	Handle       string           `gorm:"column:handle;primaryKey"`
	Seq          int64            `gorm:"column:seq;autoIncrement"`
	AssetKind    string           `gorm:"column:asset_kind"`
	TokenID      string           `gorm:"column:token_id"`
	Receiver     string           `gorm:"column:receiver"`
	Amount       entities.Balance `gorm:"column:amount;type:numeric(39,0)"`
	Memo         *string          `gorm:"column:memo"`
	Deposit      uint64           `gorm:"column:deposit"`
	GasTgas      uint64           `gorm:"column:gas_tgas"`
	Reason       string           `gorm:"column:reason"`
	CampaignID   *uint64          `gorm:"column:campaign_id"`
	SubmissionID *uint64          `gorm:"column:submission_id"`
	Status       string           `gorm:"column:status;index"`
	Attempts     int              `gorm:"column:attempts"`
	LastError    string           `gorm:"column:last_error"`
	CreatedAt    time.Time        `gorm:"column:created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at"`
}

func (transferModel) TableName() string {
	return tablePrefix + ports.StorageKeyTransfers
}

func (m transferModel) toEntity() entities.Transfer {
	asset := entities.NativeAsset()
	if entities.AssetKind(m.AssetKind) == entities.AssetKindFungibleToken {
		asset = entities.TokenAsset(m.TokenID)
	}
	return entities.Transfer{
		Handle:       m.Handle,
		Asset:        asset,
		Receiver:     m.Receiver,
		Amount:       m.Amount,
		Memo:         m.Memo,
		Deposit:      m.Deposit,
		GasTgas:      m.GasTgas,
		Reason:       entities.TransferReason(m.Reason),
		CampaignID:   m.CampaignID,
		SubmissionID: m.SubmissionID,
		Status:       entities.TransferStatus(m.Status),
		Attempts:     m.Attempts,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func transferModelFromEntity(transfer entities.Transfer) transferModel {
	return transferModel{
		Handle:       transfer.Handle,
		AssetKind:    string(transfer.Asset.Kind),
		TokenID:      transfer.Asset.TokenID,
		Receiver:     transfer.Receiver,
		Amount:       transfer.Amount,
		Memo:         transfer.Memo,
		Deposit:      transfer.Deposit,
		GasTgas:      transfer.GasTgas,
		Reason:       string(transfer.Reason),
		CampaignID:   transfer.CampaignID,
		SubmissionID: transfer.SubmissionID,
		Status:       string(transfer.Status),
		Attempts:     transfer.Attempts,
		LastError:    transfer.LastError,
		CreatedAt:    transfer.CreatedAt.UTC(),
		UpdatedAt:    transfer.UpdatedAt.UTC(),
	}
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&stateModel{},
		&campaignModel{},
		&submissionModel{},
		&campaignSubmissionModel{},
		&finderStatsModel{},
		&projectStatsModel{},
		&custodyModel{},
		&eventModel{},
		&transferModel{},
	}
}
