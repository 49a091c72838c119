package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SeverityLevelRequest struct {
	Name         string `json:"name"`
	MaxRewardPct uint8  `json:"max_reward_pct"`
}

type CreateCampaignRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	RepoLink       *string                `json:"repo_link"`
	Scope          *string                `json:"scope"`
	Rules          *string                `json:"rules"`
	Contact        *string                `json:"contact"`
	SeverityLevels []SeverityLevelRequest `json:"severity_levels"`
	CampaignType   string                 `json:"campaign_type"`
	EndTime        *uint64                `json:"end_time"`
}

type CreateCampaignResponse struct {
	CampaignID uint64      `json:"campaign_id"`
	Campaign   CampaignDTO `json:"campaign"`
}

type CancelCampaignResponse struct {
	RefundAmount   string `json:"refund_amount"`
	TransferHandle string `json:"transfer_handle"`
}

type SubmitBugRequest struct {
	Title           string `json:"title"`
	DescriptionHash string `json:"description_hash"`
	PocLink         string `json:"poc_link"`
	SeverityClaim   uint8  `json:"severity_claim"`
}

type SubmitBugResponse struct {
	SubmissionID uint64        `json:"submission_id"`
	Submission   SubmissionDTO `json:"submission"`
}

type ReviewSubmissionRequest struct {
	Status       string  `json:"status"`
	RewardAmount *string `json:"reward_amount"`
	Comments     *string `json:"comments"`
}

type PayoutDTO struct {
	GrossReward    string `json:"gross_reward"`
	PlatformFee    string `json:"platform_fee"`
	NetReward      string `json:"net_reward"`
	RewardTransfer string `json:"reward_transfer"`
	FeeTransfer    string `json:"fee_transfer"`
	RemainingPool  string `json:"remaining_pool"`
}

type ReviewSubmissionResponse struct {
	Submission SubmissionDTO `json:"submission"`
	Payout     *PayoutDTO    `json:"payout,omitempty"`
}

// FTOnTransferRequest mirrors the token receiver callback arguments.
type FTOnTransferRequest struct {
	SenderID string `json:"sender_id"`
	Amount   string `json:"amount"`
	Msg      string `json:"msg"`
}

// FTOnTransferResponse carries the amount the token contract must refund.
type FTOnTransferResponse struct {
	Refund     string  `json:"refund"`
	CampaignID *uint64 `json:"campaign_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type SetPausedRequest struct {
	Paused bool `json:"paused"`
}

type SetAccountRequest struct {
	AccountID string `json:"account_id"`
}

type WithdrawFeesRequest struct {
	Amount *string `json:"amount"`
	Token  *string `json:"token"`
}

type EmergencyWithdrawRequest struct {
	Token    *string `json:"token"`
	Amount   string  `json:"amount"`
	Receiver string  `json:"receiver"`
}

type WithdrawResponse struct {
	Token          *string `json:"token"`
	Amount         string  `json:"amount"`
	Receiver       string  `json:"receiver"`
	TransferHandle string  `json:"transfer_handle"`
}

type SeverityLevelDTO struct {
	ID           uint8  `json:"id"`
	Name         string `json:"name"`
	MaxRewardPct uint8  `json:"max_reward_pct"`
}

type CampaignMetadataDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	RepoLink    *string `json:"repo_link"`
	Scope       *string `json:"scope"`
	Rules       *string `json:"rules"`
	Contact     *string `json:"contact"`
}

type CampaignDTO struct {
	ID                 uint64              `json:"id"`
	Owner              string              `json:"owner"`
	Token              *string             `json:"token"`
	TotalPool          string              `json:"total_pool"`
	RemainingPool      string              `json:"remaining_pool"`
	SeverityLevels     []SeverityLevelDTO  `json:"severity_levels"`
	PlatformFeePercent uint8               `json:"platform_fee_percent"`
	CampaignType       string              `json:"campaign_type"`
	Metadata           CampaignMetadataDTO `json:"metadata"`
	StartTime          uint64              `json:"start_time"`
	EndTime            *uint64             `json:"end_time"`
	Cancelled          bool                `json:"cancelled"`
}

type SubmissionDTO struct {
	ID              uint64  `json:"id"`
	CampaignID      uint64  `json:"campaign_id"`
	Submitter       string  `json:"submitter"`
	Title           string  `json:"title"`
	DescriptionHash string  `json:"description_hash"`
	PocLink         string  `json:"poc_link"`
	SeverityClaim   uint8   `json:"severity_claim"`
	Status          string  `json:"status"`
	ReviewComments  *string `json:"review_comments"`
	RewardAmount    *string `json:"reward_amount"`
	Reviewer        *string `json:"reviewer"`
	CreatedAt       uint64  `json:"created_at"`
	UpdatedAt       uint64  `json:"updated_at"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}

type ListSubmissionsResponse struct {
	Items []SubmissionDTO `json:"items"`
}

type FinderStatsDTO struct {
	AccountID          string `json:"account_id"`
	TotalRewardsEarned string `json:"total_rewards_earned"`
	TotalBugsFound     uint64 `json:"total_bugs_found"`
	TotalSeverityScore uint64 `json:"total_severity_score"`
}

type ProjectStatsDTO struct {
	AccountID             string `json:"account_id"`
	TotalRewardsPaid      string `json:"total_rewards_paid"`
	TotalCampaignsCreated uint64 `json:"total_campaigns_created"`
	TotalBugsFixed        uint64 `json:"total_bugs_fixed"`
}

type TopFindersResponse struct {
	Items []FinderStatsDTO `json:"items"`
}

type TopProjectsResponse struct {
	Items []ProjectStatsDTO `json:"items"`
}

type EventDTO struct {
	Seq       uint64 `json:"seq"`
	Event     string `json:"event"`
	Line      string `json:"line"`
	CreatedAt string `json:"created_at"`
}

type ListEventsResponse struct {
	Items   []EventDTO `json:"items"`
	NextSeq uint64     `json:"next_seq"`
}

type CustodyDTO struct {
	Token    *string `json:"token"`
	Held     string  `json:"held"`
	Escrowed string  `json:"escrowed"`
	Surplus  string  `json:"surplus"`
}

type CustodyResponse struct {
	Items []CustodyDTO `json:"items"`
}

type ContractStateResponse struct {
	Admin            string `json:"admin"`
	Treasury         string `json:"treasury"`
	Paused           bool   `json:"paused"`
	NextCampaignID   uint64 `json:"next_campaign_id"`
	NextSubmissionID uint64 `json:"next_submission_id"`
}
