package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StreamEvents streams registry changes to the dashboard as server-sent
// events until the client disconnects or the service shuts down.
func (h *Handler) StreamEvents(c *gin.Context) {
	if h.hub == nil {
		respondError(c, http.StatusServiceUnavailable, "events_unavailable", "event stream is not configured")
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	stop := context.AfterFunc(h.done, cancel)
	defer stop()
	events := h.hub.Subscribe(ctx)
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"collections": h.registry.Names()})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("refresh", ev)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		}
	})
}
