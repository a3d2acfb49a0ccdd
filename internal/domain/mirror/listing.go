package mirror

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrListingNotFound indicates the listing does not exist locally
var ErrListingNotFound = errors.New("mirror: listing not found")

// ListingStatus is the lifecycle status a listing carries on the platform.
// The remote API owns this vocabulary; values outside the known set are
// stored as-is.
type ListingStatus string

const (
	ListingStatusActive          ListingStatus = "active"
	ListingStatusPaused          ListingStatus = "paused"
	ListingStatusUnderReview     ListingStatus = "under_review"
	ListingStatusClosed          ListingStatus = "closed"
	ListingStatusInactive        ListingStatus = "inactive"
	ListingStatusNotYetActive    ListingStatus = "not_yet_active"
	ListingStatusPaymentRequired ListingStatus = "payment_required"
	ListingStatusBlocked         ListingStatus = "blocked"
)

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}

// DiscoveryStatuses is the fixed set of status partitions queried during
// listing discovery. The platform's search endpoint does not guarantee a
// single unfiltered query returns everything, so each partition is scanned
// independently (plus one unfiltered pass) and the results are unioned.
func DiscoveryStatuses() []ListingStatus {
	return []ListingStatus{
		ListingStatusActive,
		ListingStatusPaused,
		ListingStatusUnderReview,
		ListingStatusClosed,
		ListingStatusInactive,
		ListingStatusNotYetActive,
		ListingStatusPaymentRequired,
		ListingStatusBlocked,
	}
}

// Listing is a mirrored product record, keyed naturally by
// (AccountID, ItemCode). Created on first sync, overwritten on every
// subsequent sync that observes it; never deleted by the sync engine.
type Listing struct {
	ID                int64
	UserID            int64
	AccountID         int64
	ItemCode          string
	SKU               *string
	Title             string
	Thumbnail         string
	Price             decimal.Decimal
	AvailableQuantity int
	SoldQuantity      int
	Status            ListingStatus
	Permalink         string
	ListingType       string
	Condition         string
	RemoteCreatedAt   *time.Time
	RemoteUpdatedAt   *time.Time
	SyncedAt          time.Time
}

// ListingFilter narrows listing queries for the browse read path.
type ListingFilter struct {
	Status    ListingStatus
	AccountID int64
	Search    string
	Page      int
	PerPage   int
}

// ListingWithAccount pairs a listing with its account's display fields
// for the browse read path.
type ListingWithAccount struct {
	Listing
	AccountNickname  string
	AccountFirstName string
	AccountLastName  string
}

// ListingStats aggregates mirrored listing counts for one user.
type ListingStats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByAccount      map[int64]int64  `json:"by_account"`
	LatestSyncedAt *time.Time       `json:"latest_synced_at"`
}

// ListingRepository persists mirrored listings.
type ListingRepository interface {
	// UpsertBatch writes a batch of listings in a single multi-row
	// statement keyed on (account_id, item_code). On conflict all mutable
	// fields are overwritten and synced_at is refreshed; identity fields
	// are never touched.
	UpsertBatch(ctx context.Context, listings []Listing) error

	// Search returns one page of a user's listings with account display
	// fields, plus the total match count.
	Search(ctx context.Context, userID int64, filter ListingFilter) ([]ListingWithAccount, int64, error)

	// LatestSyncedAt returns the most recent synced_at across the user's
	// listings matching the filter, or nil when none match.
	LatestSyncedAt(ctx context.Context, userID int64, filter ListingFilter) (*time.Time, error)

	// Stats aggregates listing counts by status and account for a user.
	Stats(ctx context.Context, userID int64) (*ListingStats, error)
}
