package mercadolibre

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

// searchResponse is the payload of GET /users/{id}/items/search
type searchResponse struct {
	Results  []string `json:"results"`
	ScrollID string   `json:"scroll_id"`
	Paging   struct {
		Total int `json:"total"`
	} `json:"paging"`
}

// multigetItem is one entry of the GET /items?ids= bulk response.
// Each entry carries its own status code; only code 200 entries
// have a usable body.
type multigetItem struct {
	Code int               `json:"code"`
	Body *multigetItemBody `json:"body"`
}

type multigetItemBody struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Thumbnail         string          `json:"thumbnail"`
	Price             decimal.Decimal `json:"price"`
	AvailableQuantity int             `json:"available_quantity"`
	SoldQuantity      int             `json:"sold_quantity"`
	Status            string          `json:"status"`
	Permalink         string          `json:"permalink"`
	ListingTypeID     string          `json:"listing_type_id"`
	Condition         string          `json:"condition"`
	DateCreated       *time.Time      `json:"date_created"`
	LastUpdated       *time.Time      `json:"last_updated"`
	SellerCustomField *string         `json:"seller_custom_field"`
}

// toListing converts a bulk response body to a domain Listing.
// Ownership fields (UserID, AccountID) and SyncedAt are assigned by the
// caller, which knows the account being synced.
func (b *multigetItemBody) toListing() mirror.Listing {
	return mirror.Listing{
		ItemCode:          b.ID,
		SKU:               b.SellerCustomField,
		Title:             b.Title,
		Thumbnail:         b.Thumbnail,
		Price:             b.Price,
		AvailableQuantity: b.AvailableQuantity,
		SoldQuantity:      b.SoldQuantity,
		Status:            mirror.ListingStatus(b.Status),
		Permalink:         b.Permalink,
		ListingType:       b.ListingTypeID,
		Condition:         b.Condition,
		RemoteCreatedAt:   b.DateCreated,
		RemoteUpdatedAt:   b.LastUpdated,
	}
}

// tokenResponse is the OAuth refresh grant response
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
	UserID       int64  `json:"user_id"`
}
