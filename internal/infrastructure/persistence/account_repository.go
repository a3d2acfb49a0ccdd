package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/infrastructure/persistence/models"
)

// GormAccountRepository implements mirror.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByIDForUser finds an account by ID scoped to its owning user
func (r *GormAccountRepository) FindByIDForUser(ctx context.Context, id, userID int64) (*mirror.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mirror.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists all accounts connected by a user
func (r *GormAccountRepository) FindByUser(ctx context.Context, userID int64) ([]mirror.Account, error) {
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]mirror.Account, len(accountModels))
	for i, model := range accountModels {
		accounts[i] = *model.ToDomain()
	}
	return accounts, nil
}

// UpdateCredentials persists a rotated credential for an account. Only the
// token fields and expiry are written; profile fields stay untouched.
func (r *GormAccountRepository) UpdateCredentials(ctx context.Context, account *mirror.Account) error {
	result := r.db.WithContext(ctx).
		Model(&models.AccountModel{}).
		Where("id = ? AND user_id = ?", account.ID, account.UserID).
		Updates(map[string]any{
			"access_token":  account.AccessToken,
			"refresh_token": account.RefreshToken,
			"token_type":    account.TokenType,
			"scope":         account.Scope,
			"expires_at":    account.ExpiresAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return mirror.ErrAccountNotFound
	}
	return nil
}
