package mirror

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// MockAccountRepository is a mock implementation of mirror.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByIDForUser(ctx context.Context, id, userID int64) (*mirror.Account, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByUser(ctx context.Context, userID int64) ([]mirror.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mirror.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateCredentials(ctx context.Context, account *mirror.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockListingRepository is a mock implementation of mirror.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) UpsertBatch(ctx context.Context, listings []mirror.Listing) error {
	args := m.Called(ctx, listings)
	return args.Error(0)
}

func (m *MockListingRepository) Search(ctx context.Context, userID int64, filter mirror.ListingFilter) ([]mirror.ListingWithAccount, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]mirror.ListingWithAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockListingRepository) LatestSyncedAt(ctx context.Context, userID int64, filter mirror.ListingFilter) (*time.Time, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockListingRepository) Stats(ctx context.Context, userID int64) (*mirror.ListingStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.ListingStats), args.Error(1)
}

// MockListingPlatform is a mock implementation of mirror.ListingPlatform
type MockListingPlatform struct {
	mock.Mock
}

func (m *MockListingPlatform) DiscoverItemIDs(ctx context.Context, remoteUserID int64, accessToken string) ([]string, error) {
	args := m.Called(ctx, remoteUserID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockListingPlatform) FetchListings(ctx context.Context, accessToken string, itemIDs []string) ([]mirror.Listing, error) {
	args := m.Called(ctx, accessToken, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mirror.Listing), args.Error(1)
}

// MockTokenRefresher is a mock implementation of mirror.TokenRefresher
type MockTokenRefresher struct {
	mock.Mock
}

func (m *MockTokenRefresher) Refresh(ctx context.Context, account *mirror.Account) (*mirror.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.Account), args.Error(1)
}

// MockStatsCache is a mock implementation of StatsCache
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context, userID int64) (*mirror.ListingStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.ListingStats), args.Error(1)
}

func (m *MockStatsCache) Set(ctx context.Context, userID int64, stats *mirror.ListingStats) error {
	args := m.Called(ctx, userID, stats)
	return args.Error(0)
}

func (m *MockStatsCache) Invalidate(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
