package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appmirror "github.com/sellerproof/backend/internal/application/mirror"
	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/interfaces/http/dto"
)

// ListingReader serves the mirrored listing read paths
type ListingReader interface {
	Browse(ctx context.Context, userID int64, filter mirror.ListingFilter) (*appmirror.ListingPage, error)
	Stats(ctx context.Context, userID int64) (*mirror.ListingStats, error)
}

// ListingHandler exposes the browse and stats endpoints
type ListingHandler struct {
	BaseHandler
	queries ListingReader
	logger  *zap.Logger
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(queries ListingReader, logger *zap.Logger) *ListingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingHandler{
		queries: queries,
		logger:  logger.Named("listing_handler"),
	}
}

// Browse returns one page of the user's mirrored listings
func (h *ListingHandler) Browse(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var q dto.ListingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := mirror.ListingFilter{
		Status:    mirror.ListingStatus(q.Status),
		AccountID: q.AccountID,
		Search:    q.Search,
		Page:      q.Page,
		PerPage:   q.PerPage,
	}

	page, err := h.queries.Browse(c.Request.Context(), userID, filter)
	if err != nil {
		h.logger.Error("listing browse failed", zap.Int64("user_id", userID), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, toListingPageResponse(page))
}

// Stats returns the user's listing aggregates
func (h *ListingHandler) Stats(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	stats, err := h.queries.Stats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("listing stats failed", zap.Int64("user_id", userID), zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

func toListingPageResponse(page *appmirror.ListingPage) dto.ListingPageResponse {
	listings := make([]dto.ListingResponse, len(page.Listings))
	for i, l := range page.Listings {
		listings[i] = dto.ListingResponse{
			ID:                l.ID,
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
			AccountNickname:   l.AccountNickname,
			AccountFirstName:  l.AccountFirstName,
			AccountLastName:   l.AccountLastName,
			RemoteCreatedAt:   l.RemoteCreatedAt,
			RemoteUpdatedAt:   l.RemoteUpdatedAt,
			SyncedAt:          l.SyncedAt,
		}
	}
	return dto.ListingPageResponse{
		Listings:       listings,
		Total:          page.Total,
		Page:           page.Page,
		PerPage:        page.PerPage,
		LatestSyncedAt: page.LatestSyncedAt,
	}
}
