package mirror

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

type syncFixture struct {
	accounts *MockAccountRepository
	listings *MockListingRepository
	platform *MockListingPlatform
	tokens   *MockTokenRefresher
	cache    *MockStatsCache
	service  *SyncService
}

func newSyncFixture(opts ...SyncServiceOption) *syncFixture {
	f := &syncFixture{
		accounts: new(MockAccountRepository),
		listings: new(MockListingRepository),
		platform: new(MockListingPlatform),
		tokens:   new(MockTokenRefresher),
		cache:    new(MockStatsCache),
	}
	opts = append([]SyncServiceOption{WithStatsInvalidator(f.cache)}, opts...)
	f.service = NewSyncService(f.accounts, f.listings, f.platform, f.tokens, nil, opts...)
	return f
}

// collectEvents runs a sync and returns the emitted events in order
func collectEvents(t *testing.T, f *syncFixture, req mirror.SyncRequest) []mirror.ProgressEvent {
	t.Helper()
	var events []mirror.ProgressEvent
	err := f.service.Run(context.Background(), req, func(ev mirror.ProgressEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	return events
}

func kindsOf(events []mirror.ProgressEvent) []mirror.EventKind {
	kinds := make([]mirror.EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func testAccount(id, userID int64) *mirror.Account {
	return &mirror.Account{
		ID:           id,
		UserID:       userID,
		RemoteUserID: 100000 + id,
		AccessToken:  "APP_USR-token",
		Nickname:     "STORE-X",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func platformListings(n int) []mirror.Listing {
	listings := make([]mirror.Listing, n)
	for i := range listings {
		listings[i] = mirror.Listing{
			ItemCode: "MLB" + string(rune('A'+i%26)) + "0",
			Title:    "Item",
			Status:   mirror.ListingStatusActive,
		}
	}
	return listings
}

func TestSyncService_Run_ValidatesRequest(t *testing.T) {
	f := newSyncFixture()

	tests := []struct {
		name string
		req  mirror.SyncRequest
	}{
		{"missing user", mirror.SyncRequest{AccountIDs: []int64{1}}},
		{"empty account list", mirror.SyncRequest{UserID: 7}},
		{"non-positive account id", mirror.SyncRequest{UserID: 7, AccountIDs: []int64{1, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			err := f.service.Run(context.Background(), tt.req, func(mirror.ProgressEvent) { called = true })
			assert.ErrorIs(t, err, mirror.ErrSyncInvalidRequest)
			assert.False(t, called, "no events before validation passes")
		})
	}
}

func TestSyncService_Run_HappyPath(t *testing.T) {
	f := newSyncFixture()
	account := testAccount(3, 7)

	f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(account, nil)
	f.tokens.On("Refresh", mock.Anything, account).Return(account, nil)
	f.platform.On("DiscoverItemIDs", mock.Anything, account.RemoteUserID, account.AccessToken).
		Return([]string{"MLB1", "MLB2"}, nil)
	f.platform.On("FetchListings", mock.Anything, account.AccessToken, []string{"MLB1", "MLB2"}).
		Return(platformListings(2), nil)
	f.listings.On("UpsertBatch", mock.Anything, mock.MatchedBy(func(batch []mirror.Listing) bool {
		// Ownership and sync time are stamped before the write
		for _, l := range batch {
			if l.UserID != 7 || l.AccountID != 3 || l.SyncedAt.IsZero() {
				return false
			}
		}
		return len(batch) == 2
	})).Return(nil)
	f.cache.On("Invalidate", mock.Anything, int64(7)).Return(nil)

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3}})

	assert.Equal(t, []mirror.EventKind{
		mirror.EventFetching,
		mirror.EventFound,
		mirror.EventProgress,
		mirror.EventComplete,
	}, kindsOf(events))

	found := events[1]
	require.NotNil(t, found.Count)
	assert.Equal(t, 2, *found.Count)
	assert.Equal(t, "STORE-X", found.Nickname)

	progress := events[2]
	require.NotNil(t, progress.Saved)
	assert.Equal(t, 2, *progress.Saved)

	complete := events[3]
	assert.True(t, complete.Success)
	require.Len(t, complete.Synced, 1)
	assert.Equal(t, mirror.SyncedAccount{AccountID: 3, Nickname: "STORE-X", Count: 2}, complete.Synced[0])
	assert.Empty(t, complete.Errors)

	f.cache.AssertCalled(t, "Invalidate", mock.Anything, int64(7))
}

func TestSyncService_Run_SubBatchesWithCumulativeProgress(t *testing.T) {
	f := newSyncFixture(WithSaveBatchSize(100))
	account := testAccount(3, 7)

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = "MLB"
	}

	f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(account, nil)
	f.tokens.On("Refresh", mock.Anything, account).Return(account, nil)
	f.platform.On("DiscoverItemIDs", mock.Anything, mock.Anything, mock.Anything).Return(ids, nil)
	f.platform.On("FetchListings", mock.Anything, mock.Anything, mock.Anything).Return(platformListings(250), nil)
	f.listings.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Invalidate", mock.Anything, int64(7)).Return(nil)

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3}})

	var saved []int
	for _, ev := range events {
		if ev.Kind == mirror.EventProgress {
			saved = append(saved, *ev.Saved)
		}
	}
	assert.Equal(t, []int{100, 200, 250}, saved, "progress carries cumulative counts")

	f.listings.AssertNumberOfCalls(t, "UpsertBatch", 3)
}

func TestSyncService_Run_AccountNotFound(t *testing.T) {
	f := newSyncFixture()

	f.accounts.On("FindByIDForUser", mock.Anything, int64(99), int64(7)).
		Return(nil, mirror.ErrAccountNotFound)

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{99}})

	assert.Equal(t, []mirror.EventKind{mirror.EventError, mirror.EventComplete}, kindsOf(events))
	assert.Equal(t, "Account not found", events[0].Error)

	complete := events[1]
	assert.True(t, complete.Success, "complete is emitted even when every lane failed")
	assert.Empty(t, complete.Synced)
	require.Len(t, complete.Errors, 1)
	assert.Equal(t, int64(99), complete.Errors[0].AccountID)

	f.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestSyncService_Run_TokenRefreshFailure(t *testing.T) {
	f := newSyncFixture()
	account := testAccount(3, 7)

	f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(account, nil)
	f.tokens.On("Refresh", mock.Anything, account).Return(nil, mirror.ErrTokenRefreshFailed)

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3}})

	assert.Equal(t, []mirror.EventKind{mirror.EventError, mirror.EventComplete}, kindsOf(events))
	assert.Equal(t, "Failed to refresh access token", events[0].Error)
	assert.Equal(t, "STORE-X", events[0].Nickname, "nickname known once the account is loaded")

	f.platform.AssertNotCalled(t, "DiscoverItemIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncService_Run_UpsertFailureAbortsLane(t *testing.T) {
	f := newSyncFixture(WithSaveBatchSize(1))
	account := testAccount(3, 7)

	f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(account, nil)
	f.tokens.On("Refresh", mock.Anything, account).Return(account, nil)
	f.platform.On("DiscoverItemIDs", mock.Anything, mock.Anything, mock.Anything).Return([]string{"a", "b"}, nil)
	f.platform.On("FetchListings", mock.Anything, mock.Anything, mock.Anything).Return(platformListings(2), nil)
	f.listings.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil).Once()
	f.listings.On("UpsertBatch", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3}})

	kinds := kindsOf(events)
	assert.Equal(t, []mirror.EventKind{
		mirror.EventFetching,
		mirror.EventFound,
		mirror.EventProgress,
		mirror.EventError,
		mirror.EventComplete,
	}, kinds)
	assert.Equal(t, "Failed to save listings", events[3].Error)

	complete := events[4]
	assert.Empty(t, complete.Synced)
	require.Len(t, complete.Errors, 1)
}

func TestSyncService_Run_LaneFailureIsContained(t *testing.T) {
	// Two accounts: one fails during discovery, the other completes.
	f := newSyncFixture(WithAccountConcurrency(1))
	good := testAccount(3, 7)
	bad := testAccount(4, 7)
	bad.Nickname = "STORE-Y"

	f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(good, nil)
	f.accounts.On("FindByIDForUser", mock.Anything, int64(4), int64(7)).Return(bad, nil)
	f.tokens.On("Refresh", mock.Anything, good).Return(good, nil)
	f.tokens.On("Refresh", mock.Anything, bad).Return(bad, nil)
	f.platform.On("DiscoverItemIDs", mock.Anything, good.RemoteUserID, mock.Anything).Return([]string{"MLB1"}, nil)
	f.platform.On("DiscoverItemIDs", mock.Anything, bad.RemoteUserID, mock.Anything).Return(nil, assert.AnError)
	f.platform.On("FetchListings", mock.Anything, mock.Anything, mock.Anything).Return(platformListings(1), nil)
	f.listings.On("UpsertBatch", mock.Anything, mock.Anything).Return(nil)
	f.cache.On("Invalidate", mock.Anything, int64(7)).Return(nil)

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3, 4}})

	complete := events[len(events)-1]
	require.Equal(t, mirror.EventComplete, complete.Kind)
	require.Len(t, complete.Synced, 1)
	assert.Equal(t, int64(3), complete.Synced[0].AccountID)
	require.Len(t, complete.Errors, 1)
	assert.Equal(t, int64(4), complete.Errors[0].AccountID)
	assert.Equal(t, "STORE-Y", complete.Errors[0].Nickname)
}

func namedListings(codes ...string) []mirror.Listing {
	listings := make([]mirror.Listing, len(codes))
	for i, code := range codes {
		listings[i] = mirror.Listing{
			ItemCode: code,
			Title:    "Item " + code,
			Status:   mirror.ListingStatusActive,
		}
	}
	return listings
}

func TestSyncService_Run_ConcurrencyLimitDoesNotChangeOutcome(t *testing.T) {
	// Three accounts: two succeed with distinct listings, one fails during
	// discovery. The terminal summary and the set of persisted rows must be
	// identical whether lanes run one at a time or all at once.
	run := func(t *testing.T, limit int) (mirror.ProgressEvent, []string) {
		t.Helper()
		f := newSyncFixture(WithAccountConcurrency(limit))

		first := testAccount(3, 7)
		second := testAccount(4, 7)
		second.Nickname = "STORE-Y"
		broken := testAccount(5, 7)
		broken.Nickname = "STORE-Z"

		f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(first, nil)
		f.accounts.On("FindByIDForUser", mock.Anything, int64(4), int64(7)).Return(second, nil)
		f.accounts.On("FindByIDForUser", mock.Anything, int64(5), int64(7)).Return(broken, nil)
		f.tokens.On("Refresh", mock.Anything, first).Return(first, nil)
		f.tokens.On("Refresh", mock.Anything, second).Return(second, nil)
		f.tokens.On("Refresh", mock.Anything, broken).Return(broken, nil)
		f.platform.On("DiscoverItemIDs", mock.Anything, first.RemoteUserID, mock.Anything).
			Return([]string{"MLB1", "MLB2"}, nil)
		f.platform.On("DiscoverItemIDs", mock.Anything, second.RemoteUserID, mock.Anything).
			Return([]string{"MLB9"}, nil)
		f.platform.On("DiscoverItemIDs", mock.Anything, broken.RemoteUserID, mock.Anything).
			Return(nil, assert.AnError)
		f.platform.On("FetchListings", mock.Anything, mock.Anything, []string{"MLB1", "MLB2"}).
			Return(namedListings("MLB1", "MLB2"), nil)
		f.platform.On("FetchListings", mock.Anything, mock.Anything, []string{"MLB9"}).
			Return(namedListings("MLB9"), nil)

		var mu sync.Mutex
		var saved []string
		f.listings.On("UpsertBatch", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				mu.Lock()
				defer mu.Unlock()
				for _, l := range args.Get(1).([]mirror.Listing) {
					saved = append(saved, l.ItemCode)
				}
			}).Return(nil)
		f.cache.On("Invalidate", mock.Anything, int64(7)).Return(nil)

		events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3, 4, 5}})
		complete := events[len(events)-1]
		require.Equal(t, mirror.EventComplete, complete.Kind)

		sort.Strings(saved)
		return complete, saved
	}

	sequential, sequentialSaved := run(t, 1)
	parallel, parallelSaved := run(t, 5)

	assert.Equal(t, sequential.Success, parallel.Success)
	assert.Equal(t, sequential.Synced, parallel.Synced)
	assert.Equal(t, sequential.Errors, parallel.Errors)
	assert.Equal(t, sequentialSaved, parallelSaved)
	assert.Equal(t, []string{"MLB1", "MLB2", "MLB9"}, sequentialSaved)
}

func TestSyncService_Run_EmptyDiscoveryCompletesWithZero(t *testing.T) {
	f := newSyncFixture()
	account := testAccount(3, 7)

	f.accounts.On("FindByIDForUser", mock.Anything, int64(3), int64(7)).Return(account, nil)
	f.tokens.On("Refresh", mock.Anything, account).Return(account, nil)
	f.platform.On("DiscoverItemIDs", mock.Anything, mock.Anything, mock.Anything).Return([]string{}, nil)
	f.platform.On("FetchListings", mock.Anything, mock.Anything, mock.Anything).Return([]mirror.Listing{}, nil)
	f.cache.On("Invalidate", mock.Anything, int64(7)).Return(nil)

	events := collectEvents(t, f, mirror.SyncRequest{UserID: 7, AccountIDs: []int64{3}})

	// No progress events for an empty account, but found and complete
	// still arrive with zero counts.
	assert.Equal(t, []mirror.EventKind{
		mirror.EventFetching,
		mirror.EventFound,
		mirror.EventComplete,
	}, kindsOf(events))
	assert.Equal(t, 0, *events[1].Count)

	complete := events[2]
	require.Len(t, complete.Synced, 1)
	assert.Equal(t, 0, complete.Synced[0].Count)

	f.listings.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
}
