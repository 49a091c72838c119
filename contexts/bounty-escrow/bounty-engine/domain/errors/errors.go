package errors

import (
	"errors"
	"fmt"
)

var (
	ErrPaused              = errors.New("contract paused")
	ErrNotFound            = errors.New("not found")
	ErrNotOwner            = errors.New("only campaign owner")
	ErrNotAdmin            = errors.New("only admin")
	ErrBadConfig           = errors.New("invalid configuration")
	ErrAlreadyCancelled    = errors.New("campaign already cancelled")
	ErrCancelled           = errors.New("campaign cancelled")
	ErrEnded               = errors.New("campaign ended")
	ErrInvalidTransition   = errors.New("invalid submission state transition")
	ErrBadSeverity         = errors.New("invalid severity")
	ErrRewardRequired      = errors.New("reward amount required")
	ErrRewardExceedsMax    = errors.New("reward exceeds max for severity")
	ErrBadMessage          = errors.New("invalid deposit message")
	ErrDepositTooSmall     = errors.New("attached deposit too small")
	ErrNotPaused           = errors.New("contract not paused")
	ErrInsufficientSurplus = errors.New("insufficient surplus")
	ErrUntrustedToken      = errors.New("untrusted token contract")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// NotFoundError names the missing entity and matches ErrNotFound.
type NotFoundError struct {
	Entity string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

var (
	ErrCampaignNotFound   error = NotFoundError{Entity: "campaign"}
	ErrSubmissionNotFound error = NotFoundError{Entity: "submission"}
)

var tags = []struct {
	err error
	tag string
}{
	{ErrPaused, "Paused"},
	{ErrNotFound, "NotFound"},
	{ErrNotOwner, "NotOwner"},
	{ErrNotAdmin, "NotAdmin"},
	{ErrBadConfig, "BadConfig"},
	{ErrAlreadyCancelled, "AlreadyCancelled"},
	{ErrCancelled, "Cancelled"},
	{ErrEnded, "Ended"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrBadSeverity, "BadSeverity"},
	{ErrRewardRequired, "RewardRequired"},
	{ErrRewardExceedsMax, "RewardExceedsMax"},
	{ErrBadMessage, "BadMessage"},
	{ErrDepositTooSmall, "DepositTooSmall"},
	{ErrNotPaused, "NotPaused"},
	{ErrInsufficientSurplus, "InsufficientSurplus"},
	{ErrUntrustedToken, "UntrustedToken"},
	{ErrBalanceOverflow, "BalanceOverflow"},
}

// Tag returns the short fault tag for err, or "" when err is not a fault.
func Tag(err error) string {
	if err == nil {
		return ""
	}
	for _, item := range tags {
		if errors.Is(err, item.err) {
			return item.tag
		}
	}
	return ""
}

// IsFault reports whether err is one of the deterministic call faults.
func IsFault(err error) bool {
	return Tag(err) != ""
}
