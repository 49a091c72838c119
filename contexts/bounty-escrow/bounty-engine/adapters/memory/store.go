package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"

	"github.com/google/uuid"
)

var errUnknownTransfer = errors.New("transfer not found")

// Store keeps the whole persistent map set in memory. Transactions are
// serialized by mu and staged in an overlay applied only on success.
type Store struct {
	mu sync.RWMutex

	state               entities.ContractState
	campaigns           map[uint64]entities.Campaign
	submissions         map[uint64]entities.Submission
	campaignSubmissions map[uint64][]uint64
	finders             map[string]entities.FinderStats
	finderOrder         []string
	projects            map[string]entities.ProjectStats
	projectOrder        []string
	custody             map[string]entities.Custody
	custodyOrder        []string
	events              []entities.EventRecord
	transfers           []entities.Transfer
	transferIndex       map[string]int

	clockMu sync.RWMutex
	now     *time.Time
}

func NewStore(state entities.ContractState) *Store {
	if state.NextCampaignID == 0 {
		state.NextCampaignID = 1
	}
	if state.NextSubmissionID == 0 {
		state.NextSubmissionID = 1
	}
	return &Store{
		state:               state,
		campaigns:           make(map[uint64]entities.Campaign),
		submissions:         make(map[uint64]entities.Submission),
		campaignSubmissions: make(map[uint64][]uint64),
		finders:             make(map[string]entities.FinderStats),
		projects:            make(map[string]entities.ProjectStats),
		custody:             make(map[string]entities.Custody),
		events:              make([]entities.EventRecord, 0),
		transfers:           make([]entities.Transfer, 0),
		transferIndex:       make(map[string]int),
	}
}

func (s *Store) Transact(_ context.Context, fn func(tx ports.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) View(_ context.Context, fn func(r ports.Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTx(s))
}

// Now is the host block time. It is the wall clock unless pinned by SetNow.
func (s *Store) Now() time.Time {
	s.clockMu.RLock()
	defer s.clockMu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

func (s *Store) SetNow(now time.Time) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) ListPendingTransfers(_ context.Context, limit int) ([]entities.Transfer, error) {
	return s.ListTransfers(context.Background(), ports.TransferFilter{
		Status: entities.TransferStatusPending,
		Limit:  limit,
	})
}

func (s *Store) ListTransfers(_ context.Context, filter ports.TransferFilter) ([]entities.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Transfer, 0)
	for _, transfer := range s.transfers {
		if filter.Status != "" && transfer.Status != filter.Status {
			continue
		}
		items = append(items, transfer)
		if filter.Limit > 0 && len(items) >= filter.Limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkTransferSent(_ context.Context, handle string, attempts int, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.transferIndex[handle]
	if !ok {
		return errUnknownTransfer
	}
	transfer := s.transfers[index]
	transfer.Status = entities.TransferStatusSent
	transfer.Attempts = attempts
	transfer.UpdatedAt = sentAt
	s.transfers[index] = transfer
	return nil
}

func (s *Store) RecordTransferAttempt(_ context.Context, handle string, attempts int, reason string, attemptedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.transferIndex[handle]
	if !ok {
		return errUnknownTransfer
	}
	transfer := s.transfers[index]
	if transfer.Status != entities.TransferStatusPending {
		return nil
	}
	transfer.Attempts = attempts
	transfer.LastError = reason
	transfer.UpdatedAt = attemptedAt
	s.transfers[index] = transfer
	return nil
}

func (s *Store) MarkTransferFailed(_ context.Context, handle string, attempts int, reason string, failedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.transferIndex[handle]
	if !ok {
		return errUnknownTransfer
	}
	transfer := s.transfers[index]
	if transfer.Status == entities.TransferStatusFailed {
		return nil
	}
	transfer.Status = entities.TransferStatusFailed
	transfer.Attempts = attempts
	transfer.LastError = reason
	transfer.UpdatedAt = failedAt
	s.transfers[index] = transfer

	key := transfer.Asset.Key()
	custody, ok := s.custody[key]
	if !ok {
		custody = entities.Custody{Asset: transfer.Asset}
		s.custodyOrder = append(s.custodyOrder, key)
	}
	held, ok := custody.Held.Add(transfer.Amount)
	if !ok {
		return errors.New("custody held overflow")
	}
	custody.Held = held
	s.custody[key] = custody
	return nil
}

func (s *Store) ListUnpublishedEvents(_ context.Context, limit int) ([]entities.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.EventRecord, 0)
	for _, record := range s.events {
		if record.PublishedAt != nil {
			continue
		}
		items = append(items, record)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkEventPublished(_ context.Context, seq uint64, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq == 0 || seq > uint64(len(s.events)) {
		return errors.New("event not found")
	}
	at := publishedAt
	s.events[seq-1].PublishedAt = &at
	return nil
}

func (s *Store) ListUnarchivedEvents(_ context.Context, limit int) ([]entities.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.EventRecord, 0)
	for _, record := range s.events {
		if record.PublishedAt == nil || record.ArchivedAt != nil {
			continue
		}
		items = append(items, record)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkEventsArchived(_ context.Context, seqs []uint64, archiveKey string, archivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := archivedAt
	for _, seq := range seqs {
		if seq == 0 || seq > uint64(len(s.events)) {
			return errors.New("event not found")
		}
		s.events[seq-1].ArchivedAt = &at
		s.events[seq-1].ArchiveKey = archiveKey
	}
	return nil
}

// tx reads through its overlay to the committed maps.
type tx struct {
	store *Store

	state       *entities.ContractState
	campaigns   map[uint64]entities.Campaign
	submissions map[uint64]entities.Submission
	appended    map[uint64][]uint64
	finders     map[string]entities.FinderStats
	newFinders  []string
	projects    map[string]entities.ProjectStats
	newProjects []string
	custody     map[string]entities.Custody
	newCustody  []string
	events      []entities.EventRecord
	transfers   []entities.Transfer
}

func newTx(store *Store) *tx {
	return &tx{
		store:       store,
		campaigns:   make(map[uint64]entities.Campaign),
		submissions: make(map[uint64]entities.Submission),
		appended:    make(map[uint64][]uint64),
		finders:     make(map[string]entities.FinderStats),
		projects:    make(map[string]entities.ProjectStats),
		custody:     make(map[string]entities.Custody),
	}
}

func (t *tx) commit() {
	s := t.store
	if t.state != nil {
		s.state = *t.state
	}
	for id, campaign := range t.campaigns {
		s.campaigns[id] = campaign
	}
	for id, submission := range t.submissions {
		s.submissions[id] = submission
	}
	for campaignID, ids := range t.appended {
		s.campaignSubmissions[campaignID] = append(s.campaignSubmissions[campaignID], ids...)
	}
	for account, stats := range t.finders {
		s.finders[account] = stats
	}
	s.finderOrder = append(s.finderOrder, t.newFinders...)
	for account, stats := range t.projects {
		s.projects[account] = stats
	}
	s.projectOrder = append(s.projectOrder, t.newProjects...)
	for key, custody := range t.custody {
		s.custody[key] = custody
	}
	s.custodyOrder = append(s.custodyOrder, t.newCustody...)
	s.events = append(s.events, t.events...)
	for _, transfer := range t.transfers {
		s.transferIndex[transfer.Handle] = len(s.transfers)
		s.transfers = append(s.transfers, transfer)
	}
}

func (t *tx) State() (entities.ContractState, error) {
	if t.state != nil {
		return *t.state, nil
	}
	return t.store.state, nil
}

func (t *tx) Campaign(campaignID uint64) (entities.Campaign, bool, error) {
	if campaign, ok := t.campaigns[campaignID]; ok {
		return campaign.Clone(), true, nil
	}
	campaign, ok := t.store.campaigns[campaignID]
	if !ok {
		return entities.Campaign{}, false, nil
	}
	return campaign.Clone(), true, nil
}

func (t *tx) Submission(submissionID uint64) (entities.Submission, bool, error) {
	if submission, ok := t.submissions[submissionID]; ok {
		return submission, true, nil
	}
	submission, ok := t.store.submissions[submissionID]
	return submission, ok, nil
}

func (t *tx) FinderStats(accountID string) (entities.FinderStats, bool, error) {
	if stats, ok := t.finders[accountID]; ok {
		return stats, true, nil
	}
	stats, ok := t.store.finders[accountID]
	return stats, ok, nil
}

func (t *tx) ProjectStats(accountID string) (entities.ProjectStats, bool, error) {
	if stats, ok := t.projects[accountID]; ok {
		return stats, true, nil
	}
	stats, ok := t.store.projects[accountID]
	return stats, ok, nil
}

func (t *tx) Custody(asset entities.Asset) (entities.Custody, error) {
	key := asset.Key()
	if custody, ok := t.custody[key]; ok {
		return custody, nil
	}
	if custody, ok := t.store.custody[key]; ok {
		return custody, nil
	}
	return entities.Custody{Asset: asset}, nil
}

// ListCampaigns relies on campaign ids being dense from 1.
func (t *tx) ListCampaigns(from uint64, limit uint64) ([]entities.Campaign, error) {
	state, _ := t.State()
	items := make([]entities.Campaign, 0)
	if from >= state.NextCampaignID {
		return items, nil
	}
	for id := from + 1; id < state.NextCampaignID && uint64(len(items)) < limit; id++ {
		campaign, found, _ := t.Campaign(id)
		if found {
			items = append(items, campaign)
		}
	}
	return items, nil
}

func (t *tx) ListCampaignSubmissions(campaignID uint64, from uint64, limit uint64) ([]entities.Submission, error) {
	index := append(append([]uint64(nil), t.store.campaignSubmissions[campaignID]...), t.appended[campaignID]...)
	items := make([]entities.Submission, 0)
	for i := from; i < uint64(len(index)) && uint64(len(items)) < limit; i++ {
		submission, found, _ := t.Submission(index[i])
		if found {
			items = append(items, submission)
		}
	}
	return items, nil
}

func (t *tx) TopFinders(limit int) ([]entities.FinderEntry, error) {
	order := append(append([]string(nil), t.store.finderOrder...), t.newFinders...)
	items := make([]entities.FinderEntry, 0, len(order))
	for _, account := range order {
		stats, _, _ := t.FinderStats(account)
		items = append(items, entities.FinderEntry{AccountID: account, Stats: stats})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Stats.TotalRewardsEarned.Cmp(items[j].Stats.TotalRewardsEarned) > 0
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (t *tx) TopProjects(limit int) ([]entities.ProjectEntry, error) {
	order := append(append([]string(nil), t.store.projectOrder...), t.newProjects...)
	items := make([]entities.ProjectEntry, 0, len(order))
	for _, account := range order {
		stats, _, _ := t.ProjectStats(account)
		items = append(items, entities.ProjectEntry{AccountID: account, Stats: stats})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Stats.TotalRewardsPaid.Cmp(items[j].Stats.TotalRewardsPaid) > 0
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (t *tx) ListCustody() ([]entities.Custody, error) {
	order := append(append([]string(nil), t.store.custodyOrder...), t.newCustody...)
	items := make([]entities.Custody, 0, len(order))
	for _, key := range order {
		custody, _ := t.Custody(entities.AssetFromKey(key))
		items = append(items, custody)
	}
	return items, nil
}

func (t *tx) ListEvents(afterSeq uint64, limit int) ([]entities.EventRecord, error) {
	all := append(append([]entities.EventRecord(nil), t.store.events...), t.events...)
	items := make([]entities.EventRecord, 0)
	for _, record := range all {
		if record.Seq <= afterSeq {
			continue
		}
		items = append(items, record)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (t *tx) PutState(state entities.ContractState) error {
	t.state = &state
	return nil
}

func (t *tx) PutCampaign(campaign entities.Campaign) error {
	t.campaigns[campaign.ID] = campaign.Clone()
	return nil
}

func (t *tx) PutSubmission(submission entities.Submission) error {
	t.submissions[submission.ID] = submission
	return nil
}

func (t *tx) AppendCampaignSubmission(campaignID uint64, submissionID uint64) error {
	t.appended[campaignID] = append(t.appended[campaignID], submissionID)
	return nil
}

func (t *tx) PutFinderStats(accountID string, stats entities.FinderStats) error {
	if _, seen, _ := t.FinderStats(accountID); !seen {
		t.newFinders = append(t.newFinders, accountID)
	}
	t.finders[accountID] = stats
	return nil
}

func (t *tx) PutProjectStats(accountID string, stats entities.ProjectStats) error {
	if _, seen, _ := t.ProjectStats(accountID); !seen {
		t.newProjects = append(t.newProjects, accountID)
	}
	t.projects[accountID] = stats
	return nil
}

func (t *tx) PutCustody(custody entities.Custody) error {
	key := custody.Asset.Key()
	_, staged := t.custody[key]
	_, committed := t.store.custody[key]
	if !staged && !committed {
		t.newCustody = append(t.newCustody, key)
	}
	t.custody[key] = custody
	return nil
}

// AppendEvent assigns the next seq; transactions are serial so seq equals
// commit order.
func (t *tx) AppendEvent(record entities.EventRecord) error {
	record.Seq = uint64(len(t.store.events) + len(t.events) + 1)
	t.events = append(t.events, record)
	return nil
}

func (t *tx) EnqueueTransfer(transfer entities.Transfer) error {
	t.transfers = append(t.transfers, transfer)
	return nil
}
