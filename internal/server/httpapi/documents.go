package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpodriezov/boardpack/internal/server/services"
)

func (h *Handler) createDocumentIntent(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, task, err := h.docs.CreateIntent(c.Request.Context(), actor(c), services.CreateIntentInput{
		ApplicationID: c.Param("id"),
		Category:      req.Category,
		Filename:      req.Filename,
		Size:          req.Size,
		ContentType:   req.ContentType,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, documentIntentResponse{
		Document:  toDocumentBody(doc),
		UploadURL: task.URL,
		ExpiresAt: task.ExpiresAt,
	})
}

func (h *Handler) listDocuments(c *gin.Context) {
	docs, err := h.docs.List(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	body := make([]documentBody, 0, len(docs))
	for _, d := range docs {
		body = append(body, toDocumentBody(d))
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) completeDocument(c *gin.Context) {
	doc, err := h.docs.Complete(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocumentBody(doc))
}

func (h *Handler) documentURL(c *gin.Context) {
	url, expiresAt, err := h.docs.SignedURL(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, signedURLResponse{URL: url, ExpiresAt: expiresAt})
}

func (h *Handler) deleteDocument(c *gin.Context) {
	if err := h.docs.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
