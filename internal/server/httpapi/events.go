package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// keepaliveInterval paces SSE comment lines so proxies do not drop idle
// streams.
const keepaliveInterval = 15 * time.Second

// streamEvents serves the per-application event stream as Server-Sent
// Events. The caller must be able to see the application; the stream ends
// when the client disconnects.
func (h *Handler) streamEvents(c *gin.Context) {
	applicationID := c.Param("id")

	// Visibility check doubles as existence check.
	if _, err := h.apps.Get(c.Request.Context(), actor(c), applicationID); err != nil {
		writeError(c, err)
		return
	}

	events, stop, err := h.rt.Subscribe(c.Request.Context(), applicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer stop()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Handler) typing(c *gin.Context) {
	applicationID := c.Param("id")
	if _, err := h.apps.Get(c.Request.Context(), actor(c), applicationID); err != nil {
		writeError(c, err)
		return
	}
	if err := h.rt.Typing(c.Request.Context(), applicationID, actor(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handler) heartbeat(c *gin.Context) {
	applicationID := c.Param("id")
	if _, err := h.apps.Get(c.Request.Context(), actor(c), applicationID); err != nil {
		writeError(c, err)
		return
	}
	if err := h.rt.Heartbeat(c.Request.Context(), applicationID, actor(c).ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handler) presence(c *gin.Context) {
	applicationID := c.Param("id")
	if _, err := h.apps.Get(c.Request.Context(), actor(c), applicationID); err != nil {
		writeError(c, err)
		return
	}
	present, err := h.rt.Present(c.Request.Context(), applicationID)
	if err != nil {
		writeError(c, err)
		return
	}
	if present == nil {
		present = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"present": present})
}
