package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/interfaces/http/dto"
)

// syncEventBufferSize allows lanes to keep emitting while the client
// stream drains.
const syncEventBufferSize = 64

// SyncRunner executes one synchronization run, emitting progress to sink
type SyncRunner interface {
	Run(ctx context.Context, req mirror.SyncRequest, sink mirror.EventSink) error
}

// SyncHandler streams synchronization runs over Server-Sent Events
type SyncHandler struct {
	BaseHandler
	sync   SyncRunner
	logger *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(sync SyncRunner, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{
		sync:   sync,
		logger: logger.Named("sync_handler"),
	}
}

// Sync starts a synchronization run for the requested accounts and streams
// progress events until the run completes. Validation failures are returned
// as plain JSON before the stream starts; once streaming begins all
// failures travel on the stream itself.
func (h *SyncHandler) Sync(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var body dto.SyncRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.Error(c, dto.ErrCodeInvalidJSON, "Request body must contain a non-empty accountIds array")
		return
	}

	req := mirror.SyncRequest{UserID: userID, AccountIDs: body.AccountIDs}
	if err := req.Validate(); err != nil {
		h.Error(c, dto.ErrCodeValidation, err.Error())
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// The stream context dies with the client connection; lanes run on a
	// detached context so a disconnect never aborts half-written accounts.
	streamCtx := c.Request.Context()
	runCtx := context.WithoutCancel(streamCtx)
	events := make(chan mirror.ProgressEvent, syncEventBufferSize)

	go func() {
		defer close(events)
		err := h.sync.Run(runCtx, req, func(ev mirror.ProgressEvent) {
			select {
			case events <- ev:
			case <-streamCtx.Done():
			}
		})
		if err != nil {
			// Validation ran before the stream started, so this only
			// happens if the request raced a concurrent mutation.
			h.logger.Error("sync run failed after stream start",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}()

	for {
		select {
		case <-streamCtx.Done():
			h.logger.Info("sync stream client disconnected", zap.Int64("user_id", userID))
			return
		case ev, open := <-events:
			if !open {
				return
			}
			h.sendEvent(c.Writer, ev)
			c.Writer.Flush()
		}
	}
}

// sendEvent writes one SSE frame to the response writer
func (h *SyncHandler) sendEvent(w io.Writer, ev mirror.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal progress event", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\n", ev.Kind)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
