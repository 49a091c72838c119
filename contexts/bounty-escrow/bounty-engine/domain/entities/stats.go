package entities

type FinderStats struct {
	TotalRewardsEarned Balance
	TotalBugsFound     uint64
	TotalSeverityScore uint64
}

type ProjectStats struct {
	TotalRewardsPaid      Balance
	TotalCampaignsCreated uint64
	TotalBugsFixed        uint64
}

type FinderEntry struct {
	AccountID string
	Stats     FinderStats
}

type ProjectEntry struct {
	AccountID string
	Stats     ProjectStats
}

// ContractState is the process-wide singleton.
type ContractState struct {
	Admin            string
	Treasury         string
	Paused           bool
	NextCampaignID   uint64
	NextSubmissionID uint64
}

func NewContractState(admin string, treasury string) ContractState {
	return ContractState{
		Admin:            admin,
		Treasury:         treasury,
		NextCampaignID:   1,
		NextSubmissionID: 1,
	}
}

// Custody tracks what the contract holds per asset and how much of it is
// escrowed in live campaign pools.
type Custody struct {
	Asset    Asset
	Held     Balance
	Escrowed Balance
}

// Surplus is held minus escrowed, floored at zero.
func (c Custody) Surplus() Balance {
	return c.Held.SaturatingSub(c.Escrowed)
}
