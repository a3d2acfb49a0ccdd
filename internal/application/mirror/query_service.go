package mirror

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// StatsCache caches computed listing statistics per user. Cache failures
// are never fatal for reads; the query service falls back to the database.
type StatsCache interface {
	Get(ctx context.Context, userID int64) (*mirror.ListingStats, error)
	Set(ctx context.Context, userID int64, stats *mirror.ListingStats) error
	Invalidate(ctx context.Context, userID int64) error
}

// ListingPage is one page of the browse read path
type ListingPage struct {
	Listings       []mirror.ListingWithAccount
	Total          int64
	LatestSyncedAt *time.Time
	Page           int
	PerPage        int
}

// ListingQueryService serves the mirrored listing read paths
type ListingQueryService struct {
	listings mirror.ListingRepository
	cache    StatsCache
	logger   *zap.Logger
}

// NewListingQueryService creates a new ListingQueryService.
// cache may be nil, in which case stats always hit the database.
func NewListingQueryService(listings mirror.ListingRepository, cache StatsCache, logger *zap.Logger) *ListingQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingQueryService{
		listings: listings,
		cache:    cache,
		logger:   logger.Named("listing_query"),
	}
}

// Browse returns one page of a user's mirrored listings with the total
// match count and the most recent sync time across the filtered set.
func (s *ListingQueryService) Browse(ctx context.Context, userID int64, filter mirror.ListingFilter) (*ListingPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 21
	}

	listings, total, err := s.listings.Search(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	latest, err := s.listings.LatestSyncedAt(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return &ListingPage{
		Listings:       listings,
		Total:          total,
		LatestSyncedAt: latest,
		Page:           filter.Page,
		PerPage:        filter.PerPage,
	}, nil
}

// Stats returns a user's listing aggregates, served from cache when warm
func (s *ListingQueryService) Stats(ctx context.Context, userID int64) (*mirror.ListingStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	stats, err := s.listings.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	return stats, nil
}
