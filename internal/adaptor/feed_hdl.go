package adaptor

import (
	"net/http"
	"time"

	"court-booking/pkg/notify"

	"go.uber.org/zap"
)

type FeedHandler struct {
	feed notify.Feed
	log  *zap.Logger
}

func NewFeedHandler(feed notify.Feed, log *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feed: feed,
		log:  log.With(zap.String("handler", "feed")),
	}
}

// Stream handles GET /api/feed. Each "change" event only means "re-read".
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	changes, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	stream, err := startSSE(w)
	if err != nil {
		h.log.Error("Failed to start event stream", zap.Error(err))
		return
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		case change, ok := <-changes:
			if !ok {
				return
			}
			if err := stream.event("change", change); err != nil {
				return
			}
		}
	}
}
