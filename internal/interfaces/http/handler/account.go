package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appmirror "github.com/sellerproof/backend/internal/application/mirror"
)

// AccountLister serves the connected-account read path
type AccountLister interface {
	ListAccounts(ctx context.Context, userID int64) ([]appmirror.AccountView, error)
}

// AccountHandler exposes the connected seller accounts endpoint
type AccountHandler struct {
	BaseHandler
	accounts AccountLister
	logger   *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts AccountLister, logger *zap.Logger) *AccountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.Named("account_handler"),
	}
}

// List returns the accounts the user has connected
func (h *AccountHandler) List(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	views, err := h.accounts.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("account list failed", zap.Int64("user_id", userID), zap.Error(err))
		h.HandleError(c, err)
		return
	}
	if views == nil {
		views = []appmirror.AccountView{}
	}

	h.Success(c, views)
}
