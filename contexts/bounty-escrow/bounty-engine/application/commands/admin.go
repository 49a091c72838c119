package commands

import (
	"context"
	"log/slog"
	"strings"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/dispatch"
	"nearshield/contexts/bounty-escrow/bounty-engine/application/events"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

type SetPausedCommand struct {
	Call   Call
	Paused bool
}

type SetPausedUseCase struct {
	Store   ports.Store
	Clock   ports.Clock
	Metrics ports.Metrics
	Logger  *slog.Logger
}

// Execute emits pause_toggle even when the flag does not change.
func (uc SetPausedUseCase) Execute(ctx context.Context, cmd SetPausedCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)

	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		state, err := loadAdminState(tx, cmd.Call)
		if err != nil {
			return err
		}
		state.Paused = cmd.Paused
		if err := tx.PutState(state); err != nil {
			return err
		}
		return events.Emitter{Tx: tx, At: now}.PauseToggle(cmd.Paused)
	})
	finish(logger, uc.Metrics, "set_paused", cmd.Call, err)
	if err != nil {
		return err
	}
	logger.Warn("pause toggled",
		"event", "pause_toggle",
		"module", application.Module,
		"layer", "application",
		"paused", cmd.Paused,
	)
	return nil
}

type SetAccountCommand struct {
	Call      Call
	AccountID string
}

// SetTreasuryUseCase replaces the platform fee sink.
type SetTreasuryUseCase struct {
	Store   ports.Store
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc SetTreasuryUseCase) Execute(ctx context.Context, cmd SetAccountCommand) error {
	return setAccount(ctx, uc.Store, uc.Metrics, uc.Logger, "set_treasury", cmd, func(state *entities.ContractState, account string) {
		state.Treasury = account
	})
}

// SetAdminUseCase hands admin authority to another account.
type SetAdminUseCase struct {
	Store   ports.Store
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (uc SetAdminUseCase) Execute(ctx context.Context, cmd SetAccountCommand) error {
	return setAccount(ctx, uc.Store, uc.Metrics, uc.Logger, "set_admin", cmd, func(state *entities.ContractState, account string) {
		state.Admin = account
	})
}

func setAccount(
	ctx context.Context,
	store ports.Store,
	metrics ports.Metrics,
	logger *slog.Logger,
	method string,
	cmd SetAccountCommand,
	apply func(state *entities.ContractState, account string),
) error {
	logger = application.ResolveLogger(logger)
	account := strings.TrimSpace(cmd.AccountID)

	err := store.Transact(ctx, func(tx ports.Tx) error {
		state, err := loadAdminState(tx, cmd.Call)
		if err != nil {
			return err
		}
		if account == "" {
			return domainerrors.ErrBadConfig
		}
		apply(&state, account)
		return tx.PutState(state)
	})
	finish(logger, metrics, method, cmd.Call, err)
	if err != nil {
		return err
	}
	logger.Warn("admin account updated",
		"event", method,
		"module", application.Module,
		"layer", "application",
		"account_id", account,
	)
	return nil
}

type WithdrawFeesCommand struct {
	Call Call
	// Amount defaults to the asset's surplus when nil.
	Amount *entities.Balance
	Token  *string
}

type WithdrawResult struct {
	Asset          entities.Asset
	Amount         entities.Balance
	Receiver       string
	TransferHandle string
}

type WithdrawFeesUseCase struct {
	Store       ports.Store
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

// Execute never touches escrowed campaign pools: only surplus (held minus
// escrowed) can leave through this path.
func (uc WithdrawFeesUseCase) Execute(ctx context.Context, cmd WithdrawFeesCommand) (WithdrawResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)
	asset := entities.AssetFromToken(cmd.Token)

	var result WithdrawResult
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		state, err := loadAdminState(tx, cmd.Call)
		if err != nil {
			return err
		}
		if state.Paused {
			return domainerrors.ErrPaused
		}
		custody, err := tx.Custody(asset)
		if err != nil {
			return err
		}
		surplus := custody.Surplus()
		amount := surplus
		if cmd.Amount != nil {
			if cmd.Amount.IsZero() {
				return domainerrors.ErrBadConfig
			}
			amount = *cmd.Amount
		}
		if amount.IsZero() || amount.Cmp(surplus) > 0 {
			return domainerrors.ErrInsufficientSurplus
		}

		handle, err := dispatch.Dispatcher{Tx: tx, IDGenerator: uc.IDGenerator, At: now}.Send(
			ctx, asset, state.Treasury, amount, entities.TransferReasonWithdrawFees, dispatch.Refs{},
		)
		if err != nil {
			return err
		}
		result = WithdrawResult{Asset: asset, Amount: amount, Receiver: state.Treasury, TransferHandle: handle}
		return nil
	})
	finish(logger, uc.Metrics, "withdraw_fees", cmd.Call, err)
	if err != nil {
		return WithdrawResult{}, err
	}
	logger.Info("fees withdrawn",
		"event", "fees_withdrawn",
		"module", application.Module,
		"layer", "application",
		"asset", result.Asset.Key(),
		"amount", result.Amount.String(),
		"receiver", result.Receiver,
		"transfer_handle", result.TransferHandle,
	)
	return result, nil
}

type EmergencyWithdrawCommand struct {
	Call     Call
	Token    *string
	Amount   entities.Balance
	Receiver string
}

type EmergencyWithdrawUseCase struct {
	Store       ports.Store
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

// Execute is the recovery path for failed outbound legs. It requires the
// contract to be paused.
func (uc EmergencyWithdrawUseCase) Execute(ctx context.Context, cmd EmergencyWithdrawCommand) (WithdrawResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := blockTime(uc.Clock)
	asset := entities.AssetFromToken(cmd.Token)
	receiver := strings.TrimSpace(cmd.Receiver)

	var result WithdrawResult
	err := uc.Store.Transact(ctx, func(tx ports.Tx) error {
		state, err := loadAdminState(tx, cmd.Call)
		if err != nil {
			return err
		}
		if !state.Paused {
			return domainerrors.ErrNotPaused
		}
		if cmd.Amount.IsZero() || receiver == "" {
			return domainerrors.ErrBadConfig
		}
		handle, err := dispatch.Dispatcher{Tx: tx, IDGenerator: uc.IDGenerator, At: now}.Send(
			ctx, asset, receiver, cmd.Amount, entities.TransferReasonEmergencyWithdraw, dispatch.Refs{},
		)
		if err != nil {
			return err
		}
		result = WithdrawResult{Asset: asset, Amount: cmd.Amount, Receiver: receiver, TransferHandle: handle}
		return nil
	})
	finish(logger, uc.Metrics, "emergency_withdraw", cmd.Call, err)
	if err != nil {
		return WithdrawResult{}, err
	}
	logger.Warn("emergency withdraw scheduled",
		"event", "emergency_withdraw",
		"module", application.Module,
		"layer", "application",
		"asset", result.Asset.Key(),
		"amount", result.Amount.String(),
		"receiver", result.Receiver,
		"transfer_handle", result.TransferHandle,
	)
	return result, nil
}
