package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aazoaer/health-manager/internal/events"
)

const streamKeepAlive = 25 * time.Second

// streamEvents relays bus events as server-sent events. An optional ?topic=
// narrows the stream to one topic.
func (r *Router) streamEvents(c *gin.Context) {
	ch, unsubscribe := r.tracker.Bus().Subscribe(c.DefaultQuery("topic", events.All))
	defer unsubscribe()
	r.metrics.streamClients.Inc()
	defer r.metrics.streamClients.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				// Dropped for falling behind.
				return false
			}
			c.SSEvent(ev.Topic, ev)
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
