package mirror

import (
	"context"
	"errors"
)

var (
	// ErrPlatformRequestFailed indicates a transport-level failure against the platform
	ErrPlatformRequestFailed = errors.New("mirror: platform request failed")
	// ErrPlatformInvalidResponse indicates the platform returned an unparseable body
	ErrPlatformInvalidResponse = errors.New("mirror: invalid platform response")
	// ErrScanNotSupported indicates cursor-scan pagination was rejected for a partition
	ErrScanNotSupported = errors.New("mirror: scan pagination not supported")
)

// ListingPlatform is the port to the remote marketplace API. Implementations
// live in the infrastructure layer (Ports & Adapters, as with any other
// external platform integration).
//
// Both operations tolerate a flaky upstream: DiscoverItemIDs keeps whatever
// a partially failed partition produced, and FetchListings drops items whose
// per-item result is not an explicit success.
type ListingPlatform interface {
	// DiscoverItemIDs enumerates every listing id visible to the seller,
	// querying each status partition (plus one unfiltered pass) with
	// cursor-scan pagination falling back to offset pagination, and
	// returns the deduplicated union.
	DiscoverItemIDs(ctx context.Context, remoteUserID int64, accessToken string) ([]string, error)

	// FetchListings resolves item ids to full listing bodies using the
	// bulk endpoint, in bounded-concurrency chunks. Items that fail to
	// resolve are silently absent from the result.
	FetchListings(ctx context.Context, accessToken string, itemIDs []string) ([]Listing, error)
}
