package ports

import (
	"context"
	"errors"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	contractsv1 "nearshield/contracts/gen/events/v1"
)

// Stable key prefixes, one per persisted entity kind.
const (
	StorageKeyState               = "state"
	StorageKeyCampaigns           = "campaigns"
	StorageKeySubmissions         = "submissions"
	StorageKeyCampaignSubmissions = "campaign_submissions"
	StorageKeyFinderStats         = "finder_stats"
	StorageKeyProjectStats        = "project_stats"
	StorageKeyEventLog            = "event_log"
	StorageKeyTransfers           = "transfers"
	StorageKeyCustody             = "custody"
)

type EventEnvelope = contractsv1.Envelope

// Reader is the read side of the persistent map set.
type Reader interface {
	State() (entities.ContractState, error)
	Campaign(campaignID uint64) (entities.Campaign, bool, error)
	Submission(submissionID uint64) (entities.Submission, bool, error)
	FinderStats(accountID string) (entities.FinderStats, bool, error)
	ProjectStats(accountID string) (entities.ProjectStats, bool, error)
	Custody(asset entities.Asset) (entities.Custody, error)

	ListCampaigns(from uint64, limit uint64) ([]entities.Campaign, error)
	ListCampaignSubmissions(campaignID uint64, from uint64, limit uint64) ([]entities.Submission, error)
	TopFinders(limit int) ([]entities.FinderEntry, error)
	TopProjects(limit int) ([]entities.ProjectEntry, error)
	ListCustody() ([]entities.Custody, error)
	ListEvents(afterSeq uint64, limit int) ([]entities.EventRecord, error)
}

// Tx is one atomic call. Writes become visible only when the enclosing
// Transact returns nil.
type Tx interface {
	Reader

	PutState(state entities.ContractState) error
	PutCampaign(campaign entities.Campaign) error
	PutSubmission(submission entities.Submission) error
	AppendCampaignSubmission(campaignID uint64, submissionID uint64) error
	PutFinderStats(accountID string, stats entities.FinderStats) error
	PutProjectStats(accountID string, stats entities.ProjectStats) error
	PutCustody(custody entities.Custody) error
	AppendEvent(record entities.EventRecord) error
	EnqueueTransfer(transfer entities.Transfer) error
}

type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(r Reader) error) error
}

type TransferFilter struct {
	Status entities.TransferStatus
	Limit  int
}

// TransferOutbox is the post-commit side of scheduled transfers.
type TransferOutbox interface {
	ListPendingTransfers(ctx context.Context, limit int) ([]entities.Transfer, error)
	ListTransfers(ctx context.Context, filter TransferFilter) ([]entities.Transfer, error)
	MarkTransferSent(ctx context.Context, handle string, attempts int, sentAt time.Time) error
	// MarkTransferFailed also credits the amount back to custody held.
	MarkTransferFailed(ctx context.Context, handle string, attempts int, reason string, failedAt time.Time) error
	// RecordTransferAttempt keeps a pending leg pending and notes the error.
	RecordTransferAttempt(ctx context.Context, handle string, attempts int, reason string, attemptedAt time.Time) error
}

type EventOutbox interface {
	ListUnpublishedEvents(ctx context.Context, limit int) ([]entities.EventRecord, error)
	MarkEventPublished(ctx context.Context, seq uint64, publishedAt time.Time) error
	ListUnarchivedEvents(ctx context.Context, limit int) ([]entities.EventRecord, error)
	MarkEventsArchived(ctx context.Context, seqs []uint64, archiveKey string, archivedAt time.Time) error
}

// ErrTransferRejected marks an executor error where the transfer was
// definitely not applied. Any other error may have reached the chain.
var ErrTransferRejected = errors.New("transfer rejected")

type TransferExecutor interface {
	Execute(ctx context.Context, transfer entities.Transfer) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventArchive interface {
	PutObject(ctx context.Context, key string, body []byte) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type Metrics interface {
	ObserveCall(method string, outcome string)
	ObservePayout(assetKey string, gross entities.Balance, fee entities.Balance)
	ObserveTransfer(reason entities.TransferReason, status entities.TransferStatus)
	ObserveEvents(stage string, count int)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveCall(string, string)                                        {}
func (NopMetrics) ObservePayout(string, entities.Balance, entities.Balance)          {}
func (NopMetrics) ObserveTransfer(entities.TransferReason, entities.TransferStatus) {}
func (NopMetrics) ObserveEvents(string, int)                                         {}

// ResolveMetrics returns NopMetrics when metrics is nil.
func ResolveMetrics(metrics Metrics) Metrics {
	if metrics == nil {
		return NopMetrics{}
	}
	return metrics
}
