package entities

import "time"

type TransferReason string
type TransferStatus string

const (
	TransferReasonPayoutReward      TransferReason = "payout_reward"
	TransferReasonPayoutFee         TransferReason = "payout_fee"
	TransferReasonCampaignRefund    TransferReason = "campaign_refund"
	TransferReasonWithdrawFees      TransferReason = "withdraw_fees"
	TransferReasonEmergencyWithdraw TransferReason = "emergency_withdraw"

	TransferStatusPending TransferStatus = "pending"
	TransferStatusSent    TransferStatus = "sent"
	TransferStatusFailed  TransferStatus = "failed"
)

const (
	// TokenTransferDeposit is the one-yocto deposit required by ft_transfer.
	TokenTransferDeposit uint64 = 1

	RewardLegGasTgas  uint64 = 10
	DefaultLegGasTgas uint64 = 5
)

// Transfer is a scheduled outbound asset movement. It is written in the same
// transaction as the state change that caused it and executed after commit.
type Transfer struct {
	Handle       string
	Asset        Asset
	Receiver     string
	Amount       Balance
	Memo         *string
	Deposit      uint64
	GasTgas      uint64
	Reason       TransferReason
	CampaignID   *uint64
	SubmissionID *uint64
	Status       TransferStatus
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
