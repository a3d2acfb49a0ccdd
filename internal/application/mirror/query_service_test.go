package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

func TestListingQueryService_Browse(t *testing.T) {
	t.Run("normalizes pagination before querying", func(t *testing.T) {
		listings := new(MockListingRepository)
		svc := NewListingQueryService(listings, nil, nil)

		expectedFilter := mirror.ListingFilter{Page: 1, PerPage: 21}
		latest := time.Now()
		listings.On("Search", mock.Anything, int64(7), expectedFilter).
			Return([]mirror.ListingWithAccount{}, int64(0), nil)
		listings.On("LatestSyncedAt", mock.Anything, int64(7), expectedFilter).
			Return(&latest, nil)

		page, err := svc.Browse(context.Background(), 7, mirror.ListingFilter{Page: 0, PerPage: 500})

		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 21, page.PerPage)
		require.NotNil(t, page.LatestSyncedAt)
		listings.AssertExpectations(t)
	})

	t.Run("passes filters through and returns results", func(t *testing.T) {
		listings := new(MockListingRepository)
		svc := NewListingQueryService(listings, nil, nil)

		filter := mirror.ListingFilter{
			Status:    mirror.ListingStatusPaused,
			AccountID: 3,
			Search:    "mouse",
			Page:      2,
			PerPage:   50,
		}
		rows := []mirror.ListingWithAccount{
			{Listing: mirror.Listing{ItemCode: "MLB100"}, AccountNickname: "STORE-X"},
		}
		listings.On("Search", mock.Anything, int64(7), filter).Return(rows, int64(73), nil)
		listings.On("LatestSyncedAt", mock.Anything, int64(7), filter).Return(nil, nil)

		page, err := svc.Browse(context.Background(), 7, filter)

		require.NoError(t, err)
		assert.Equal(t, int64(73), page.Total)
		require.Len(t, page.Listings, 1)
		assert.Equal(t, "STORE-X", page.Listings[0].AccountNickname)
		assert.Nil(t, page.LatestSyncedAt)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		listings := new(MockListingRepository)
		svc := NewListingQueryService(listings, nil, nil)

		listings.On("Search", mock.Anything, int64(7), mock.Anything).
			Return(nil, int64(0), assert.AnError)

		_, err := svc.Browse(context.Background(), 7, mirror.ListingFilter{Page: 1, PerPage: 21})

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestListingQueryService_Stats(t *testing.T) {
	freshStats := func() *mirror.ListingStats {
		return &mirror.ListingStats{
			Total:    5,
			ByStatus: map[string]int64{"active": 5},
		}
	}

	t.Run("serves warm cache without touching the database", func(t *testing.T) {
		listings := new(MockListingRepository)
		cache := new(MockStatsCache)
		svc := NewListingQueryService(listings, cache, nil)

		cache.On("Get", mock.Anything, int64(7)).Return(freshStats(), nil)

		stats, err := svc.Stats(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, int64(5), stats.Total)
		listings.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
	})

	t.Run("computes and caches on miss", func(t *testing.T) {
		listings := new(MockListingRepository)
		cache := new(MockStatsCache)
		svc := NewListingQueryService(listings, cache, nil)

		computed := freshStats()
		cache.On("Get", mock.Anything, int64(7)).Return(nil, nil)
		listings.On("Stats", mock.Anything, int64(7)).Return(computed, nil)
		cache.On("Set", mock.Anything, int64(7), computed).Return(nil)

		stats, err := svc.Stats(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, computed, stats)
		cache.AssertCalled(t, "Set", mock.Anything, int64(7), computed)
	})

	t.Run("cache failures fall back to the database", func(t *testing.T) {
		listings := new(MockListingRepository)
		cache := new(MockStatsCache)
		svc := NewListingQueryService(listings, cache, nil)

		computed := freshStats()
		cache.On("Get", mock.Anything, int64(7)).Return(nil, assert.AnError)
		listings.On("Stats", mock.Anything, int64(7)).Return(computed, nil)
		cache.On("Set", mock.Anything, int64(7), computed).Return(assert.AnError)

		stats, err := svc.Stats(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, computed, stats)
	})

	t.Run("works without a cache", func(t *testing.T) {
		listings := new(MockListingRepository)
		svc := NewListingQueryService(listings, nil, nil)

		listings.On("Stats", mock.Anything, int64(7)).Return(freshStats(), nil)

		stats, err := svc.Stats(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, int64(5), stats.Total)
	})
}

func TestAccountService_ListAccounts(t *testing.T) {
	t.Run("strips credentials from the projection", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		svc := NewAccountService(accounts, nil)

		expiresAt := time.Now().Add(time.Hour)
		accounts.On("FindByUser", mock.Anything, int64(7)).Return([]mirror.Account{
			{
				ID:           3,
				UserID:       7,
				RemoteUserID: 123456,
				AccessToken:  "APP_USR-secret",
				RefreshToken: "TG-secret",
				Nickname:     "STORE-X",
				FirstName:    "Ana",
				ExpiresAt:    expiresAt,
			},
		}, nil)

		views, err := svc.ListAccounts(context.Background(), 7)

		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, int64(3), views[0].ID)
		assert.Equal(t, "STORE-X", views[0].Nickname)
		assert.Equal(t, expiresAt, views[0].TokenExpiresAt)
		assert.True(t, views[0].TokenValid)
	})

	t.Run("flags expired tokens", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		svc := NewAccountService(accounts, nil)

		accounts.On("FindByUser", mock.Anything, int64(7)).Return([]mirror.Account{
			{ID: 3, UserID: 7, Nickname: "STORE-X", ExpiresAt: time.Now().Add(-time.Minute)},
			{ID: 4, UserID: 7, Nickname: "STORE-Y"},
		}, nil)

		views, err := svc.ListAccounts(context.Background(), 7)

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.False(t, views[0].TokenValid)
		assert.False(t, views[1].TokenValid, "a zero expiry counts as expired")
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		svc := NewAccountService(accounts, nil)

		accounts.On("FindByUser", mock.Anything, int64(7)).Return(nil, assert.AnError)

		_, err := svc.ListAccounts(context.Background(), 7)

		assert.ErrorIs(t, err, assert.AnError)
	})
}
