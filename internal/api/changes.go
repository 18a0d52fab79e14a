package api

import (
	"io"
	"time"

	"storefront/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepAliveInterval = 15 * time.Second

// streamChanges relays change notifications as server-sent events until the
// client goes away. Boards re-fetch on every "change" event.
func (h *Handler) streamChanges(c *gin.Context) {
	table := c.DefaultQuery("table", realtime.Wildcard)
	event := c.DefaultQuery("event", realtime.Wildcard)

	sub := h.Hub.Subscribe(table, event)
	defer sub.Unsubscribe()

	h.logger.Debug("Change stream opened",
		zap.String("table", table),
		zap.String("event", event))

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("change", e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
