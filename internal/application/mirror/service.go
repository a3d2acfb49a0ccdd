package mirror

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/domain/shared"
)

// StatsInvalidator drops cached aggregates after a sync writes listings
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// SyncService orchestrates listing synchronization runs. Each requested
// account runs as an independent lane: lanes execute concurrently, a lane
// failure never aborts the run, and every run ends with a complete event.
type SyncService struct {
	accounts mirror.AccountRepository
	listings mirror.ListingRepository
	platform mirror.ListingPlatform
	tokens   mirror.TokenRefresher
	stats    StatsInvalidator
	logger   *zap.Logger

	accountConcurrency int
	saveBatchSize      int
}

// SyncServiceOption configures a SyncService
type SyncServiceOption func(*SyncService)

// WithAccountConcurrency sets the number of account lanes in flight
func WithAccountConcurrency(n int) SyncServiceOption {
	return func(s *SyncService) {
		if n > 0 {
			s.accountConcurrency = n
		}
	}
}

// WithSaveBatchSize sets the listings-per-upsert sub-batch size
func WithSaveBatchSize(n int) SyncServiceOption {
	return func(s *SyncService) {
		if n > 0 {
			s.saveBatchSize = n
		}
	}
}

// WithStatsInvalidator wires cache invalidation after successful runs
func WithStatsInvalidator(inv StatsInvalidator) SyncServiceOption {
	return func(s *SyncService) {
		s.stats = inv
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(
	accounts mirror.AccountRepository,
	listings mirror.ListingRepository,
	platform mirror.ListingPlatform,
	tokens mirror.TokenRefresher,
	logger *zap.Logger,
	opts ...SyncServiceOption,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{
		accounts:           accounts,
		listings:           listings,
		platform:           platform,
		tokens:             tokens,
		logger:             logger.Named("sync"),
		accountConcurrency: 3,
		saveBatchSize:      100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one synchronization run, emitting progress events to sink
// as lanes advance. Validation errors are returned before any event is
// emitted; once lanes start, failures are reported on the stream and Run
// returns nil.
func (s *SyncService) Run(ctx context.Context, req mirror.SyncRequest, sink mirror.EventSink) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if sink == nil {
		sink = func(mirror.ProgressEvent) {}
	}

	// Lanes emit concurrently; serialize delivery so sink implementations
	// need no locking of their own.
	var mu sync.Mutex
	emit := func(ev mirror.ProgressEvent) {
		mu.Lock()
		sink(ev)
		mu.Unlock()
	}

	s.logger.Info("sync run started",
		zap.Int64("user_id", req.UserID),
		zap.Int("accounts", len(req.AccountIDs)),
	)

	lanes := shared.MapConcurrent(req.AccountIDs, s.accountConcurrency, func(accountID int64, _ int) *mirror.AccountProgress {
		return s.syncAccount(ctx, req.UserID, accountID, emit)
	})

	var synced []mirror.SyncedAccount
	var syncErrors []mirror.SyncError
	for _, lane := range lanes {
		switch lane.State {
		case mirror.LaneCompleted:
			synced = append(synced, mirror.SyncedAccount{
				AccountID: lane.AccountID,
				Nickname:  lane.Nickname,
				Count:     lane.Saved,
			})
		case mirror.LaneError:
			syncErrors = append(syncErrors, mirror.SyncError{
				AccountID: lane.AccountID,
				Nickname:  lane.Nickname,
				Error:     lane.Err,
			})
		}
	}

	if s.stats != nil && len(synced) > 0 {
		if err := s.stats.Invalidate(ctx, req.UserID); err != nil {
			s.logger.Warn("failed to invalidate stats cache",
				zap.Int64("user_id", req.UserID),
				zap.Error(err),
			)
		}
	}

	emit(mirror.ProgressEvent{
		Kind:    mirror.EventComplete,
		Success: true,
		Synced:  synced,
		Errors:  syncErrors,
	})

	s.logger.Info("sync run finished",
		zap.Int64("user_id", req.UserID),
		zap.Int("synced", len(synced)),
		zap.Int("failed", len(syncErrors)),
	)
	return nil
}

// syncAccount drives one account lane: load, refresh credential, discover,
// fetch details, then upsert in sub-batches with progress after each commit.
func (s *SyncService) syncAccount(ctx context.Context, userID, accountID int64, emit mirror.EventSink) *mirror.AccountProgress {
	lane := mirror.NewAccountProgress(accountID)

	fail := func(msg string, err error) *mirror.AccountProgress {
		_ = lane.Fail(msg)
		s.logger.Warn("account sync failed",
			zap.Int64("account_id", accountID),
			zap.String("state", string(lane.State)),
			zap.Error(err),
		)
		emit(mirror.ProgressEvent{
			Kind:      mirror.EventError,
			AccountID: accountID,
			Nickname:  lane.Nickname,
			Error:     msg,
		})
		return lane
	}

	account, err := s.accounts.FindByIDForUser(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, mirror.ErrAccountNotFound) {
			return fail("Account not found", err)
		}
		return fail("Failed to load account", err)
	}
	lane.Nickname = account.Nickname

	account, err = s.tokens.Refresh(ctx, account)
	if err != nil {
		return fail("Failed to refresh access token", err)
	}

	_ = lane.StartFetching()
	emit(mirror.ProgressEvent{
		Kind:      mirror.EventFetching,
		AccountID: accountID,
		Nickname:  lane.Nickname,
	})

	itemIDs, err := s.platform.DiscoverItemIDs(ctx, account.RemoteUserID, account.AccessToken)
	if err != nil {
		return fail("Failed to fetch listings", err)
	}

	listings, err := s.platform.FetchListings(ctx, account.AccessToken, itemIDs)
	if err != nil {
		return fail("Failed to fetch listings", err)
	}

	count := len(listings)
	_ = lane.StartSaving(count)
	emit(mirror.ProgressEvent{
		Kind:      mirror.EventFound,
		AccountID: accountID,
		Nickname:  lane.Nickname,
		Count:     &count,
	})

	syncedAt := time.Now()
	for i := range listings {
		listings[i].UserID = userID
		listings[i].AccountID = accountID
		listings[i].SyncedAt = syncedAt
	}

	for start := 0; start < len(listings); start += s.saveBatchSize {
		end := start + s.saveBatchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := s.listings.UpsertBatch(ctx, listings[start:end]); err != nil {
			return fail("Failed to save listings", err)
		}
		_ = lane.RecordSaved(end - start)

		saved := lane.Saved
		emit(mirror.ProgressEvent{
			Kind:      mirror.EventProgress,
			AccountID: accountID,
			Nickname:  lane.Nickname,
			Saved:     &saved,
		})
	}

	_ = lane.Complete()
	s.logger.Info("account sync completed",
		zap.Int64("account_id", accountID),
		zap.Int("found", lane.Found),
		zap.Int("saved", lane.Saved),
	)
	return lane
}
