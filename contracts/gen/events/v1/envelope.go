package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	Standard = "nearshield"
	Version  = "1.0.0"

	// LinePrefix marks a log line as a structured event.
	LinePrefix = "EVENT_JSON:"
)

const (
	EventCampaignCreated   = "campaign_created"
	EventSubmissionCreated = "submission_created"
	EventPayout            = "payout"
	EventCampaignCancelled = "campaign_cancelled"
	EventPauseToggle       = "pause_toggle"
)

// Topics lists every event name; the bus uses event names as topics.
var Topics = []string{
	EventCampaignCreated,
	EventSubmissionCreated,
	EventPayout,
	EventCampaignCancelled,
	EventPauseToggle,
}

var ErrNotEventLine = errors.New("not an event line")

// Envelope is the canonical, versioned event envelope consumed by indexers.
// This package is contract-only and must stay backward compatible.
type Envelope struct {
	Standard string          `json:"standard"`
	Version  string          `json:"version"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

// Balances are decimal strings; ids are integers.
type CampaignCreated struct {
	CampaignID uint64  `json:"campaign_id"`
	Owner      string  `json:"owner"`
	TotalPool  string  `json:"total_pool"`
	Token      *string `json:"token"`
	Name       string  `json:"name"`
}

type SubmissionCreated struct {
	SubmissionID  uint64 `json:"submission_id"`
	CampaignID    uint64 `json:"campaign_id"`
	Submitter     string `json:"submitter"`
	SeverityClaim uint8  `json:"severity_claim"`
}

type Payout struct {
	CampaignID   uint64 `json:"campaign_id"`
	SubmissionID uint64 `json:"submission_id"`
	Receiver     string `json:"receiver"`
	GrossReward  string `json:"gross_reward"`
	PlatformFee  string `json:"platform_fee"`
}

type CampaignCancelled struct {
	CampaignID   uint64 `json:"campaign_id"`
	RefundAmount string `json:"refund_amount"`
}

type PauseToggle struct {
	Paused bool `json:"paused"`
}

// NewEnvelope wraps data under the current standard and version.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s data: %w", event, err)
	}
	return Envelope{
		Standard: Standard,
		Version:  Version,
		Event:    event,
		Data:     raw,
	}, nil
}

// Line renders the single-line log form.
func (e Envelope) Line() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return LinePrefix + string(raw), nil
}

// ParseLine reverses Line.
func ParseLine(line string) (Envelope, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(line), LinePrefix)
	if !ok {
		return Envelope{}, ErrNotEventLine
	}
	var envelope Envelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode event line: %w", err)
	}
	if envelope.Standard != Standard || envelope.Event == "" {
		return Envelope{}, ErrNotEventLine
	}
	return envelope, nil
}

// DecodeData unmarshals the envelope payload into target.
func (e Envelope) DecodeData(target any) error {
	return json.Unmarshal(e.Data, target)
}
