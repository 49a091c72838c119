package ledger

import (
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

// CreditFinder records a paid finding for the researcher. Absent accounts
// start from zero.
func CreditFinder(tx ports.Tx, accountID string, net entities.Balance, severity uint8) error {
	stats, _, err := tx.FinderStats(accountID)
	if err != nil {
		return err
	}
	earned, ok := stats.TotalRewardsEarned.Add(net)
	if !ok {
		return domainerrors.ErrBalanceOverflow
	}
	stats.TotalRewardsEarned = earned
	stats.TotalBugsFound++
	stats.TotalSeverityScore += uint64(severity)
	return tx.PutFinderStats(accountID, stats)
}

// CreditProject records the gross cost of a paid finding to the campaign owner.
func CreditProject(tx ports.Tx, accountID string, gross entities.Balance) error {
	stats, _, err := tx.ProjectStats(accountID)
	if err != nil {
		return err
	}
	paid, ok := stats.TotalRewardsPaid.Add(gross)
	if !ok {
		return domainerrors.ErrBalanceOverflow
	}
	stats.TotalRewardsPaid = paid
	stats.TotalBugsFixed++
	return tx.PutProjectStats(accountID, stats)
}

func RecordCampaignCreated(tx ports.Tx, accountID string) error {
	stats, _, err := tx.ProjectStats(accountID)
	if err != nil {
		return err
	}
	stats.TotalCampaignsCreated++
	return tx.PutProjectStats(accountID, stats)
}
