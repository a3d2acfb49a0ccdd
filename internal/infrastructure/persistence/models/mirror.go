package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// AccountModel persists connected marketplace seller accounts.
type AccountModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	UserID       int64     `gorm:"not null;index:idx_seller_accounts_user"`
	RemoteUserID int64     `gorm:"not null;uniqueIndex:uq_seller_accounts_remote_user"`
	AccessToken  string    `gorm:"not null"`
	RefreshToken string    `gorm:""`
	TokenType    string    `gorm:"size:32"`
	Scope        string    `gorm:"size:255"`
	ExpiresAt    time.Time `gorm:""`
	Nickname     string    `gorm:"size:255"`
	FirstName    string    `gorm:"size:255"`
	LastName     string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName specifies the table name for AccountModel
func (AccountModel) TableName() string {
	return "seller_accounts"
}

// ToDomain converts AccountModel to a domain Account
func (m *AccountModel) ToDomain() *mirror.Account {
	return &mirror.Account{
		ID:           m.ID,
		UserID:       m.UserID,
		RemoteUserID: m.RemoteUserID,
		AccessToken:  m.AccessToken,
		RefreshToken: m.RefreshToken,
		TokenType:    m.TokenType,
		Scope:        m.Scope,
		ExpiresAt:    m.ExpiresAt,
		Nickname:     m.Nickname,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// AccountModelFromDomain builds an AccountModel from a domain Account
func AccountModelFromDomain(a *mirror.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID,
		UserID:       a.UserID,
		RemoteUserID: a.RemoteUserID,
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		TokenType:    a.TokenType,
		Scope:        a.Scope,
		ExpiresAt:    a.ExpiresAt,
		Nickname:     a.Nickname,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// ListingModel persists mirrored listings. The natural key is
// (account_id, item_code); the surrogate id exists for ORM convenience.
type ListingModel struct {
	ID                int64           `gorm:"primaryKey;autoIncrement"`
	UserID            int64           `gorm:"not null;index:idx_listings_user"`
	AccountID         int64           `gorm:"not null;uniqueIndex:uq_listings_account_item,priority:1"`
	ItemCode          string          `gorm:"size:50;not null;uniqueIndex:uq_listings_account_item,priority:2"`
	SKU               *string         `gorm:"column:sku;size:255"`
	Title             string          `gorm:"size:500;not null"`
	Thumbnail         string          `gorm:"size:1024"`
	Price             decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	AvailableQuantity int             `gorm:"not null;default:0"`
	SoldQuantity      int             `gorm:"not null;default:0"`
	Status            string          `gorm:"size:32;not null;index:idx_listings_status"`
	Permalink         string          `gorm:"size:1024"`
	ListingType       string          `gorm:"size:64"`
	Condition         string          `gorm:"size:32"`
	RemoteCreatedAt   *time.Time      `gorm:""`
	RemoteUpdatedAt   *time.Time      `gorm:""`
	SyncedAt          time.Time       `gorm:"not null;index:idx_listings_synced_at"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName specifies the table name for ListingModel
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts ListingModel to a domain Listing
func (m *ListingModel) ToDomain() mirror.Listing {
	return mirror.Listing{
		ID:                m.ID,
		UserID:            m.UserID,
		AccountID:         m.AccountID,
		ItemCode:          m.ItemCode,
		SKU:               m.SKU,
		Title:             m.Title,
		Thumbnail:         m.Thumbnail,
		Price:             m.Price,
		AvailableQuantity: m.AvailableQuantity,
		SoldQuantity:      m.SoldQuantity,
		Status:            mirror.ListingStatus(m.Status),
		Permalink:         m.Permalink,
		ListingType:       m.ListingType,
		Condition:         m.Condition,
		RemoteCreatedAt:   m.RemoteCreatedAt,
		RemoteUpdatedAt:   m.RemoteUpdatedAt,
		SyncedAt:          m.SyncedAt,
	}
}

// ListingModelFromDomain builds a ListingModel from a domain Listing
func ListingModelFromDomain(l mirror.Listing) ListingModel {
	return ListingModel{
		ID:                l.ID,
		UserID:            l.UserID,
		AccountID:         l.AccountID,
		ItemCode:          l.ItemCode,
		SKU:               l.SKU,
		Title:             l.Title,
		Thumbnail:         l.Thumbnail,
		Price:             l.Price,
		AvailableQuantity: l.AvailableQuantity,
		SoldQuantity:      l.SoldQuantity,
		Status:            l.Status.String(),
		Permalink:         l.Permalink,
		ListingType:       l.ListingType,
		Condition:         l.Condition,
		RemoteCreatedAt:   l.RemoteCreatedAt,
		RemoteUpdatedAt:   l.RemoteUpdatedAt,
		SyncedAt:          l.SyncedAt,
	}
}
