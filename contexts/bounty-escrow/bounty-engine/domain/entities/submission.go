package entities

import "strings"

type SubmissionStatus string

const (
	SubmissionStatusPending     SubmissionStatus = "Pending"
	SubmissionStatusUnderReview SubmissionStatus = "UnderReview"
	SubmissionStatusAccepted    SubmissionStatus = "Accepted"
	SubmissionStatusRejected    SubmissionStatus = "Rejected"
	SubmissionStatusDuplicate   SubmissionStatus = "Duplicate"
	SubmissionStatusInformative SubmissionStatus = "Informative"
)

type Submission struct {
	ID              uint64
	CampaignID      uint64
	Submitter       string
	Title           string
	DescriptionHash string
	PocLink         string
	SeverityClaim   uint8
	Status          SubmissionStatus
	ReviewComments  *string
	RewardAmount    *Balance
	Reviewer        *string
	CreatedAt       uint64
	UpdatedAt       uint64
}

func ParseSubmissionStatus(value string) (SubmissionStatus, bool) {
	status := SubmissionStatus(strings.TrimSpace(value))
	switch status {
	case SubmissionStatusPending,
		SubmissionStatusUnderReview,
		SubmissionStatusAccepted,
		SubmissionStatusRejected,
		SubmissionStatusDuplicate,
		SubmissionStatusInformative:
		return status, true
	default:
		return "", false
	}
}

func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionStatusAccepted,
		SubmissionStatusRejected,
		SubmissionStatusDuplicate,
		SubmissionStatusInformative:
		return true
	default:
		return false
	}
}

// Reviewable is true for the states a review may start from.
func (s SubmissionStatus) Reviewable() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusUnderReview:
		return true
	default:
		return false
	}
}
