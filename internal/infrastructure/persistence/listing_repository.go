package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/infrastructure/persistence/models"
)

// GormListingRepository implements mirror.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// listingUpdateColumns are the mutable columns overwritten on every sync.
// Identity columns (user_id, account_id, item_code) and created_at are
// never touched by the upsert.
var listingUpdateColumns = []string{
	"sku", "title", "thumbnail", "price",
	"available_quantity", "sold_quantity", "status",
	"permalink", "listing_type", "condition",
	"remote_created_at", "remote_updated_at",
	"synced_at", "updated_at",
}

// UpsertBatch writes listings in a single multi-row INSERT keyed on
// (account_id, item_code). Existing rows get their mutable fields and
// synced_at overwritten.
func (r *GormListingRepository) UpsertBatch(ctx context.Context, listings []mirror.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	rows := make([]models.ListingModel, len(listings))
	for i, l := range listings {
		rows[i] = models.ListingModelFromDomain(l)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "item_code"}},
			DoUpdates: clause.AssignmentColumns(listingUpdateColumns),
		}).
		Create(&rows).Error
}

// listingAccountRow carries a listing row joined with account display fields
type listingAccountRow struct {
	models.ListingModel
	AccountNickname  string
	AccountFirstName string
	AccountLastName  string
}

// Search returns one page of a user's listings with account display fields,
// plus the total match count. Results are ordered by most recently synced.
func (r *GormListingRepository) Search(ctx context.Context, userID int64, filter mirror.ListingFilter) ([]mirror.ListingWithAccount, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 21
	}

	var total int64
	countQuery := applyListingFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), userID, filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []listingAccountRow
	listQuery := applyListingFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), userID, filter)
	if err := listQuery.
		Select("listings.*, seller_accounts.nickname AS account_nickname, seller_accounts.first_name AS account_first_name, seller_accounts.last_name AS account_last_name").
		Joins("LEFT JOIN seller_accounts ON seller_accounts.id = listings.account_id").
		Order("listings.synced_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	results := make([]mirror.ListingWithAccount, len(rows))
	for i, row := range rows {
		results[i] = mirror.ListingWithAccount{
			Listing:          row.ListingModel.ToDomain(),
			AccountNickname:  row.AccountNickname,
			AccountFirstName: row.AccountFirstName,
			AccountLastName:  row.AccountLastName,
		}
	}
	return results, total, nil
}

// LatestSyncedAt returns the most recent synced_at across the user's
// listings matching the filter, or nil when none match.
func (r *GormListingRepository) LatestSyncedAt(ctx context.Context, userID int64, filter mirror.ListingFilter) (*time.Time, error) {
	var latest sql.NullTime
	query := applyListingFilter(r.db.WithContext(ctx).Model(&models.ListingModel{}), userID, filter)
	if err := query.
		Select("MAX(listings.synced_at)").
		Scan(&latest).Error; err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// Stats aggregates listing counts by status and by account for a user
func (r *GormListingRepository) Stats(ctx context.Context, userID int64) (*mirror.ListingStats, error) {
	stats := &mirror.ListingStats{
		ByStatus:  make(map[string]int64),
		ByAccount: make(map[int64]int64),
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
	}

	var accountRows []struct {
		AccountID int64
		Count     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Select("account_id, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("account_id").
		Scan(&accountRows).Error; err != nil {
		return nil, err
	}
	for _, row := range accountRows {
		stats.ByAccount[row.AccountID] = row.Count
	}

	latest, err := r.LatestSyncedAt(ctx, userID, mirror.ListingFilter{})
	if err != nil {
		return nil, err
	}
	stats.LatestSyncedAt = latest

	return stats, nil
}

// applyListingFilter adds the browse filter conditions to a listings query.
// Item code searches get prefix treatment so partial codes still match.
func applyListingFilter(tx *gorm.DB, userID int64, filter mirror.ListingFilter) *gorm.DB {
	tx = tx.Where("listings.user_id = ?", userID)

	if filter.Status != "" {
		tx = tx.Where("listings.status = ?", filter.Status.String())
	}
	if filter.AccountID > 0 {
		tx = tx.Where("listings.account_id = ?", filter.AccountID)
	}

	term := strings.TrimSpace(filter.Search)
	if term == "" {
		return tx
	}

	if isItemCodeTerm(term) {
		numeric := strings.TrimPrefix(strings.ToUpper(term), "MLB")
		return tx.Where(
			"(listings.item_code ILIKE ? OR listings.item_code ILIKE ? OR COALESCE(listings.sku, '') ILIKE ? OR listings.title ILIKE ?)",
			"MLB"+escapeLikePattern(numeric)+"%",
			"%"+escapeLikePattern(numeric)+"%",
			"%"+escapeLikePattern(term)+"%",
			"%"+escapeLikePattern(term)+"%",
		)
	}

	pattern := "%" + escapeLikePattern(term) + "%"
	return tx.Where(
		"(listings.title ILIKE ? OR listings.item_code ILIKE ? OR COALESCE(listings.permalink, '') ILIKE ? OR COALESCE(listings.sku, '') ILIKE ?)",
		pattern, pattern, pattern, pattern,
	)
}

// isItemCodeTerm reports whether a search term looks like a marketplace
// item code (MLB prefix or bare digits) rather than free text.
func isItemCodeTerm(term string) bool {
	upper := strings.ToUpper(term)
	if strings.HasPrefix(upper, "MLB") {
		return true
	}
	for _, r := range term {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(term) > 0
}

// escapeLikePattern escapes LIKE metacharacters in user-supplied terms
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
