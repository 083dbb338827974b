package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listMessages(c *gin.Context) {
	msgs, err := h.messages.List(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	body := make([]messageBody, 0, len(msgs))
	for _, m := range msgs {
		body = append(body, toMessageBody(m))
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) createMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), actor(c), c.Param("id"), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageBody(msg))
}

func (h *Handler) resolveMessage(c *gin.Context) {
	msg, err := h.messages.Resolve(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageBody(msg))
}
