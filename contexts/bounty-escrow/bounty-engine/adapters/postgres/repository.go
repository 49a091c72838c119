package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrStateNotInitialized = errors.New("contract state not initialized")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrDuplicateEntity     = errors.New("duplicate entity")
)

// Repository is the Postgres Store. Every Transact locks the singleton state
// row first, so mutating calls run one at a time in commit order.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate bounty engine tables: %w", err)
	}
	return nil
}

// EnsureState seeds the singleton state row. An existing row is kept.
func (r *Repository) EnsureState(ctx context.Context, admin string, treasury string) error {
	row := stateModelFromEntity(entities.NewContractState(strings.TrimSpace(admin), strings.TrimSpace(treasury)))
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		r.logger.Info("contract state initialized",
			"event", "contract_state_initialized",
			"module", "bounty-escrow/bounty-engine",
			"layer", "adapter",
			"admin", row.Admin,
			"treasury", row.Treasury,
		)
	}
	return nil
}

func (r *Repository) Transact(ctx context.Context, fn func(tx ports.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := lockState(db); err != nil {
			return err
		}
		return fn(&pgTx{db: db, forUpdate: true})
	})
}

// lockState takes the singleton state row lock. Every writer of custody
// holds it, so held/escrowed read-modify-writes never interleave.
func lockState(db *gorm.DB) error {
	var row stateModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", stateRowID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStateNotInitialized
		}
		return err
	}
	return nil
}

func (r *Repository) View(ctx context.Context, fn func(reader ports.Reader) error) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY").Error; err != nil {
			return err
		}
		return fn(&pgTx{db: db})
	})
}

func (r *Repository) ListPendingTransfers(ctx context.Context, limit int) ([]entities.Transfer, error) {
	return r.ListTransfers(ctx, ports.TransferFilter{Status: entities.TransferStatusPending, Limit: limit})
}

func (r *Repository) ListTransfers(ctx context.Context, filter ports.TransferFilter) ([]entities.Transfer, error) {
	query := r.db.WithContext(ctx).Model(&transferModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []transferModel
	if err := query.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Transfer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkTransferSent(ctx context.Context, handle string, attempts int, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&transferModel{}).
		Where("handle = ?", strings.TrimSpace(handle)).
		Updates(map[string]any{
			"status":     string(entities.TransferStatusSent),
			"attempts":   attempts,
			"updated_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransferNotFound
	}
	return nil
}

func (r *Repository) RecordTransferAttempt(ctx context.Context, handle string, attempts int, reason string, attemptedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&transferModel{}).
		Where("handle = ?", strings.TrimSpace(handle)).
		Where("status = ?", string(entities.TransferStatusPending)).
		Updates(map[string]any{
			"attempts":   attempts,
			"last_error": reason,
			"updated_at": attemptedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&transferModel{}).Where("handle = ?", strings.TrimSpace(handle)).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTransferNotFound
		}
	}
	return nil
}

// MarkTransferFailed returns the leg's amount to custody held in the same
// transaction that marks it failed. It takes the state lock like Transact.
func (r *Repository) MarkTransferFailed(ctx context.Context, handle string, attempts int, reason string, failedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := lockState(db); err != nil {
			return err
		}
		var row transferModel
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("handle = ?", strings.TrimSpace(handle)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransferNotFound
			}
			return err
		}
		if row.Status == string(entities.TransferStatusFailed) {
			return nil
		}
		if err := db.Model(&transferModel{}).
			Where("handle = ?", row.Handle).
			Updates(map[string]any{
				"status":     string(entities.TransferStatusFailed),
				"attempts":   attempts,
				"last_error": reason,
				"updated_at": failedAt.UTC(),
			}).Error; err != nil {
			return err
		}

		tx := &pgTx{db: db, forUpdate: true}
		transfer := row.toEntity()
		custody, err := tx.Custody(transfer.Asset)
		if err != nil {
			return err
		}
		held, ok := custody.Held.Add(transfer.Amount)
		if !ok {
			return fmt.Errorf("custody held overflow for %s", transfer.Asset.Key())
		}
		custody.Held = held
		return tx.PutCustody(custody)
	})
}

func (r *Repository) ListUnpublishedEvents(ctx context.Context, limit int) ([]entities.EventRecord, error) {
	return r.listEvents(ctx, "published_at IS NULL", limit)
}

func (r *Repository) ListUnarchivedEvents(ctx context.Context, limit int) ([]entities.EventRecord, error) {
	return r.listEvents(ctx, "published_at IS NOT NULL AND archived_at IS NULL", limit)
}

func (r *Repository) listEvents(ctx context.Context, where string, limit int) ([]entities.EventRecord, error) {
	query := r.db.WithContext(ctx).Where(where).Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []eventModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.EventRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkEventPublished(ctx context.Context, seq uint64, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&eventModel{}).
		Where("seq = ? AND published_at IS NULL", seq).
		Update("published_at", publishedAt.UTC()).
		Error
}

func (r *Repository) MarkEventsArchived(ctx context.Context, seqs []uint64, archiveKey string, archivedAt time.Time) error {
	if len(seqs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&eventModel{}).
		Where("seq IN ?", seqs).
		Updates(map[string]any{
			"archived_at": archivedAt.UTC(),
			"archive_key": archiveKey,
		}).
		Error
}

type pgTx struct {
	db        *gorm.DB
	forUpdate bool
}

func (t *pgTx) State() (entities.ContractState, error) {
	var row stateModel
	if err := t.db.Where("id = ?", stateRowID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ContractState{}, ErrStateNotInitialized
		}
		return entities.ContractState{}, err
	}
	return row.toEntity(), nil
}

func (t *pgTx) Campaign(campaignID uint64) (entities.Campaign, bool, error) {
	var row campaignModel
	if err := t.db.Where("id = ?", campaignID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, false, nil
		}
		return entities.Campaign{}, false, err
	}
	campaign, err := row.toEntity()
	if err != nil {
		return entities.Campaign{}, false, err
	}
	return campaign, true, nil
}

func (t *pgTx) Submission(submissionID uint64) (entities.Submission, bool, error) {
	var row submissionModel
	if err := t.db.Where("id = ?", submissionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, false, nil
		}
		return entities.Submission{}, false, err
	}
	return row.toEntity(), true, nil
}

func (t *pgTx) FinderStats(accountID string) (entities.FinderStats, bool, error) {
	var row finderStatsModel
	if err := t.db.Where("account_id = ?", accountID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.FinderStats{}, false, nil
		}
		return entities.FinderStats{}, false, err
	}
	return row.toEntity(), true, nil
}

func (t *pgTx) ProjectStats(accountID string) (entities.ProjectStats, bool, error) {
	var row projectStatsModel
	if err := t.db.Where("account_id = ?", accountID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ProjectStats{}, false, nil
		}
		return entities.ProjectStats{}, false, err
	}
	return row.toEntity(), true, nil
}

func (t *pgTx) Custody(asset entities.Asset) (entities.Custody, error) {
	query := t.db
	if t.forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row custodyModel
	if err := query.Where("asset_key = ?", asset.Key()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Custody{Asset: asset}, nil
		}
		return entities.Custody{}, err
	}
	return row.toEntity(), nil
}

func (t *pgTx) ListCampaigns(from uint64, limit uint64) ([]entities.Campaign, error) {
	var rows []campaignModel
	offset, size := pageWindow(from, limit)
	if err := t.db.Order("id ASC").Offset(offset).Limit(size).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		campaign, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, campaign)
	}
	return items, nil
}

func (t *pgTx) ListCampaignSubmissions(campaignID uint64, from uint64, limit uint64) ([]entities.Submission, error) {
	offset, size := pageWindow(from, limit)
	var rows []submissionModel
	if err := t.db.Table(submissionModel{}.TableName()+" AS s").
		Select("s.*").
		Joins("JOIN "+campaignSubmissionModel{}.TableName()+" AS cs ON cs.submission_id = s.id").
		Where("cs.campaign_id = ?", campaignID).
		Order("cs.position ASC").
		Offset(offset).
		Limit(size).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (t *pgTx) TopFinders(limit int) ([]entities.FinderEntry, error) {
	var rows []finderStatsModel
	if err := t.db.Order("total_rewards_earned DESC, seq ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.FinderEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.FinderEntry{AccountID: row.AccountID, Stats: row.toEntity()})
	}
	return items, nil
}

func (t *pgTx) TopProjects(limit int) ([]entities.ProjectEntry, error) {
	var rows []projectStatsModel
	if err := t.db.Order("total_rewards_paid DESC, seq ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.ProjectEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.ProjectEntry{AccountID: row.AccountID, Stats: row.toEntity()})
	}
	return items, nil
}

func (t *pgTx) ListCustody() ([]entities.Custody, error) {
	var rows []custodyModel
	if err := t.db.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Custody, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (t *pgTx) ListEvents(afterSeq uint64, limit int) ([]entities.EventRecord, error) {
	query := t.db.Where("seq > ?", afterSeq).Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []eventModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.EventRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (t *pgTx) PutState(state entities.ContractState) error {
	row := stateModelFromEntity(state)
	return t.db.Save(&row).Error
}

func (t *pgTx) PutCampaign(campaign entities.Campaign) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	return t.db.Save(&row).Error
}

func (t *pgTx) PutSubmission(submission entities.Submission) error {
	row := submissionModelFromEntity(submission)
	return t.db.Save(&row).Error
}

func (t *pgTx) AppendCampaignSubmission(campaignID uint64, submissionID uint64) error {
	var count int64
	if err := t.db.Model(&campaignSubmissionModel{}).Where("campaign_id = ?", campaignID).Count(&count).Error; err != nil {
		return err
	}
	row := campaignSubmissionModel{
		CampaignID:   campaignID,
		Position:     uint64(count),
		SubmissionID: submissionID,
	}
	if err := t.db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEntity
		}
		return err
	}
	return nil
}

func (t *pgTx) PutFinderStats(accountID string, stats entities.FinderStats) error {
	row := finderStatsModel{
		AccountID:          accountID,
		TotalRewardsEarned: stats.TotalRewardsEarned,
		TotalBugsFound:     stats.TotalBugsFound,
		TotalSeverityScore: stats.TotalSeverityScore,
	}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_rewards_earned", "total_bugs_found", "total_severity_score"}),
	}).Create(&row).Error
}

func (t *pgTx) PutProjectStats(accountID string, stats entities.ProjectStats) error {
	row := projectStatsModel{
		AccountID:             accountID,
		TotalRewardsPaid:      stats.TotalRewardsPaid,
		TotalCampaignsCreated: stats.TotalCampaignsCreated,
		TotalBugsFixed:        stats.TotalBugsFixed,
	}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_rewards_paid", "total_campaigns_created", "total_bugs_fixed"}),
	}).Create(&row).Error
}

func (t *pgTx) PutCustody(custody entities.Custody) error {
	row := custodyModel{
		AssetKey: custody.Asset.Key(),
		Held:     custody.Held,
		Escrowed: custody.Escrowed,
	}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"held", "escrowed"}),
	}).Create(&row).Error
}

func (t *pgTx) AppendEvent(record entities.EventRecord) error {
	row := eventModel{
		Kind:      record.Kind,
		Line:      record.Line,
		CreatedAt: record.CreatedAt.UTC(),
	}
	return t.db.Create(&row).Error
}

func (t *pgTx) EnqueueTransfer(transfer entities.Transfer) error {
	row := transferModelFromEntity(transfer)
	if err := t.db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEntity
		}
		return err
	}
	return nil
}

// pageWindow converts a uint64 page into gorm's int offset and limit. gorm
// drops negative values, so both are clamped to MaxInt.
func pageWindow(from uint64, limit uint64) (int, int) {
	return clampInt(from), clampInt(limit)
}

func clampInt(value uint64) int {
	if value > math.MaxInt {
		return math.MaxInt
	}
	return int(value)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
