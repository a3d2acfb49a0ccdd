package mirror

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// AccountView is the safe projection of a connected seller account.
// Raw credentials never leave the application layer.
type AccountView struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	RemoteUserID   int64     `json:"remoteUserId"`
	Nickname       string    `json:"nickname"`
	FirstName      string    `json:"firstName,omitempty"`
	LastName       string    `json:"lastName,omitempty"`
	TokenValid     bool      `json:"tokenValid"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AccountService serves the connected-account read path
type AccountService struct {
	accounts mirror.AccountRepository
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(accounts mirror.AccountRepository, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accounts: accounts,
		logger:   logger.Named("account"),
	}
}

// ListAccounts returns the accounts a user has connected, stripped of
// credential fields.
func (s *AccountService) ListAccounts(ctx context.Context, userID int64) ([]AccountView, error) {
	accounts, err := s.accounts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]AccountView, len(accounts))
	for i, a := range accounts {
		views[i] = AccountView{
			ID:             a.ID,
			UserID:         a.UserID,
			RemoteUserID:   a.RemoteUserID,
			Nickname:       a.Nickname,
			FirstName:      a.FirstName,
			LastName:       a.LastName,
			TokenValid:     a.TokenValidFor(0),
			TokenExpiresAt: a.ExpiresAt,
			CreatedAt:      a.CreatedAt,
		}
	}
	return views, nil
}
