// Package dispatch schedules outbound asset transfers. A scheduled transfer
// is persisted in the caller's transaction and executed after commit by the
// transfer relay; the core never observes completion.
package dispatch

import (
	"context"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type Dispatcher struct {
	Tx          ports.Tx
	IDGenerator ports.IDGenerator
	At          time.Time
}

// Refs links a transfer back to the entities that caused it.
type Refs struct {
	CampaignID   *uint64
	SubmissionID *uint64
}

// Send schedules amount of asset to receiver and returns the transfer handle.
// Zero amounts are not scheduled and yield an empty handle.
func (d Dispatcher) Send(
	ctx context.Context,
	asset entities.Asset,
	receiver string,
	amount entities.Balance,
	reason entities.TransferReason,
	refs Refs,
) (string, error) {
	if amount.IsZero() {
		return "", nil
	}
	handle, err := d.IDGenerator.NewID(ctx)
	if err != nil {
		return "", err
	}

	transfer := entities.Transfer{
		Handle:       handle,
		Asset:        asset,
		Receiver:     receiver,
		Amount:       amount,
		Reason:       reason,
		CampaignID:   refs.CampaignID,
		SubmissionID: refs.SubmissionID,
		Status:       entities.TransferStatusPending,
		CreatedAt:    d.At,
		UpdatedAt:    d.At,
	}
	if !asset.IsNative() {
		transfer.Deposit = entities.TokenTransferDeposit
		transfer.GasTgas = LegGas(reason)
	}

	custody, err := d.Tx.Custody(asset)
	if err != nil {
		return "", err
	}
	custody.Held = custody.Held.SaturatingSub(amount)
	if err := d.Tx.PutCustody(custody); err != nil {
		return "", err
	}
	if err := d.Tx.EnqueueTransfer(transfer); err != nil {
		return "", err
	}
	return handle, nil
}

// LegGas is the static gas allowance attached to a token transfer leg.
func LegGas(reason entities.TransferReason) uint64 {
	if reason == entities.TransferReasonPayoutReward {
		return entities.RewardLegGasTgas
	}
	return entities.DefaultLegGasTgas
}

// Escrow records funds received for a new campaign pool.
func Escrow(tx ports.Tx, asset entities.Asset, amount entities.Balance) error {
	custody, err := tx.Custody(asset)
	if err != nil {
		return err
	}
	held, ok := custody.Held.Add(amount)
	if !ok {
		return domainerrors.ErrBalanceOverflow
	}
	escrowed, ok := custody.Escrowed.Add(amount)
	if !ok {
		return domainerrors.ErrBalanceOverflow
	}
	custody.Held = held
	custody.Escrowed = escrowed
	return tx.PutCustody(custody)
}

// Release moves amount out of escrow. The funds stay held until a transfer
// is scheduled for them.
func Release(tx ports.Tx, asset entities.Asset, amount entities.Balance) error {
	custody, err := tx.Custody(asset)
	if err != nil {
		return err
	}
	custody.Escrowed = custody.Escrowed.SaturatingSub(amount)
	return tx.PutCustody(custody)
}

// CreditSurplus records funds held outside any campaign pool.
func CreditSurplus(tx ports.Tx, asset entities.Asset, amount entities.Balance) error {
	if amount.IsZero() {
		return nil
	}
	custody, err := tx.Custody(asset)
	if err != nil {
		return err
	}
	held, ok := custody.Held.Add(amount)
	if !ok {
		return domainerrors.ErrBalanceOverflow
	}
	custody.Held = held
	return tx.PutCustody(custody)
}
