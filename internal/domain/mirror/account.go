package mirror

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates the account does not exist for the user
	ErrAccountNotFound = errors.New("mirror: account not found")
	// ErrTokenRefreshFailed indicates the platform rejected the refresh request
	ErrTokenRefreshFailed = errors.New("mirror: failed to refresh access token")
	// ErrMissingRefreshToken indicates the stored credential cannot be rotated
	ErrMissingRefreshToken = errors.New("mirror: account has no refresh token")
)

// Account is a connected seller identity on the remote platform.
// Credential fields are mutated only by the token refresh collaborator;
// everything else treats accounts as read-only.
type Account struct {
	ID           int64
	UserID       int64
	RemoteUserID int64
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
	Nickname     string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenValidFor reports whether the access token is still valid for at
// least the given margin. A zero ExpiresAt is treated as expired.
func (a *Account) TokenValidFor(margin time.Duration) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).Before(a.ExpiresAt)
}

// AccountRepository provides access to connected seller accounts.
type AccountRepository interface {
	// FindByIDForUser loads an account scoped to its owning user.
	// Returns ErrAccountNotFound when no such account exists for the user.
	FindByIDForUser(ctx context.Context, id, userID int64) (*Account, error)

	// FindByUser lists all accounts connected by a user.
	FindByUser(ctx context.Context, userID int64) ([]Account, error)

	// UpdateCredentials persists a rotated credential for an account.
	UpdateCredentials(ctx context.Context, account *Account) error
}

// TokenRefresher guarantees a valid credential for the duration of a sync.
// Implementations must be idempotent: calling with an already-valid
// credential returns the account unchanged.
type TokenRefresher interface {
	Refresh(ctx context.Context, account *Account) (*Account, error)
}
