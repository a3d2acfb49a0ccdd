package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncRequest is the body of a sync run request. The user identity comes
// from the request context, not the body.
type SyncRequest struct {
	AccountIDs []int64 `json:"accountIds" binding:"required,min=1"`
}

// ListingQuery carries the browse filters as query parameters
type ListingQuery struct {
	Status    string `form:"status"`
	AccountID int64  `form:"accountId"`
	Search    string `form:"search"`
	Page      int    `form:"page"`
	PerPage   int    `form:"perPage"`
}

// ListingResponse is one mirrored listing in the browse read path
type ListingResponse struct {
	ID                int64           `json:"id"`
	AccountID         int64           `json:"accountId"`
	ItemCode          string          `json:"itemCode"`
	SKU               *string         `json:"sku"`
	Title             string          `json:"title"`
	Thumbnail         string          `json:"thumbnail,omitempty"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int             `json:"availableQuantity"`
	SoldQuantity      int             `json:"soldQuantity"`
	Status            string          `json:"status"`
	Permalink         string          `json:"permalink,omitempty"`
	ListingType       string          `json:"listingType,omitempty"`
	Condition         string          `json:"condition,omitempty"`
	AccountNickname   string          `json:"accountNickname,omitempty"`
	AccountFirstName  string          `json:"accountFirstName,omitempty"`
	AccountLastName   string          `json:"accountLastName,omitempty"`
	RemoteCreatedAt   *time.Time      `json:"remoteCreatedAt,omitempty"`
	RemoteUpdatedAt   *time.Time      `json:"remoteUpdatedAt,omitempty"`
	SyncedAt          time.Time       `json:"syncedAt"`
}

// ListingPageResponse is one page of mirrored listings
type ListingPageResponse struct {
	Listings       []ListingResponse `json:"listings"`
	Total          int64             `json:"total"`
	Page           int               `json:"page"`
	PerPage        int               `json:"perPage"`
	LatestSyncedAt *time.Time        `json:"latestSyncedAt"`
}
