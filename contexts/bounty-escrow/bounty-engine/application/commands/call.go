package commands

import (
	"log/slog"
	"strings"
	"time"

	application "nearshield/contexts/bounty-escrow/bounty-engine/application"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	domainerrors "nearshield/contexts/bounty-escrow/bounty-engine/domain/errors"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
)

// Call carries what the host asserts about an inbound call.
type Call struct {
	Predecessor     string
	AttachedDeposit entities.Balance
}

func (c Call) caller() string {
	return strings.TrimSpace(c.Predecessor)
}

func blockTime(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

func blockTimeMs(at time.Time) uint64 {
	ms := at.UnixMilli()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}

func loadActiveState(tx ports.Tx) (entities.ContractState, error) {
	state, err := tx.State()
	if err != nil {
		return entities.ContractState{}, err
	}
	if state.Paused {
		return entities.ContractState{}, domainerrors.ErrPaused
	}
	return state, nil
}

func loadAdminState(tx ports.Tx, call Call) (entities.ContractState, error) {
	state, err := tx.State()
	if err != nil {
		return entities.ContractState{}, err
	}
	if call.caller() == "" || call.caller() != state.Admin {
		return entities.ContractState{}, domainerrors.ErrNotAdmin
	}
	return state, nil
}

func loadCampaign(tx ports.Tx, campaignID uint64) (entities.Campaign, error) {
	campaign, found, err := tx.Campaign(campaignID)
	if err != nil {
		return entities.Campaign{}, err
	}
	if !found {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return campaign, nil
}

func loadSubmission(tx ports.Tx, submissionID uint64) (entities.Submission, error) {
	submission, found, err := tx.Submission(submissionID)
	if err != nil {
		return entities.Submission{}, err
	}
	if !found {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return submission, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if tag := domainerrors.Tag(err); tag != "" {
		return tag
	}
	return "error"
}

// finish records the call outcome and logs rejected calls.
func finish(logger *slog.Logger, metrics ports.Metrics, method string, call Call, err error) {
	ports.ResolveMetrics(metrics).ObserveCall(method, outcome(err))
	if err == nil {
		return
	}
	logger = application.ResolveLogger(logger)
	if domainerrors.IsFault(err) {
		logger.Warn("call rejected",
			"event", "call_rejected",
			"module", application.Module,
			"layer", "application",
			"method", method,
			"predecessor", call.caller(),
			"fault", domainerrors.Tag(err),
		)
		return
	}
	logger.Error("call failed",
		"event", "call_failed",
		"module", application.Module,
		"layer", "application",
		"method", method,
		"predecessor", call.caller(),
		"error", err.Error(),
	)
}

func uint64Ptr(value uint64) *uint64 {
	return &value
}
