package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/services"
)

func (h *Handler) createApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.apps.Create(c.Request.Context(), actor(c), services.CreateApplicationInput{
		Building:    req.Building,
		Unit:        req.Unit,
		ApplicantID: req.ApplicantID,
		BrokerID:    req.BrokerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toApplicationBody(app))
}

func (h *Handler) listApplications(c *gin.Context) {
	apps, err := h.apps.List(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	body := make([]applicationBody, 0, len(apps))
	for _, a := range apps {
		body = append(body, toApplicationBody(a))
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) getApplication(c *gin.Context) {
	app, err := h.apps.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplicationBody(app))
}

// transitionHandler wraps the one-argument lifecycle operations that differ
// only in which service method they call.
func (h *Handler) transitionHandler(op func(c *gin.Context) (*models.Application, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		app, err := op(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toApplicationBody(app))
	}
}

func (h *Handler) submitApplication(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context) (*models.Application, error) {
		return h.apps.Submit(c.Request.Context(), actor(c), c.Param("id"))
	})(c)
}

func (h *Handler) startReview(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context) (*models.Application, error) {
		return h.apps.StartReview(c.Request.Context(), actor(c), c.Param("id"))
	})(c)
}

func (h *Handler) resumeReview(c *gin.Context) {
	h.transitionHandler(func(c *gin.Context) (*models.Application, error) {
		return h.apps.ResumeReview(c.Request.Context(), actor(c), c.Param("id"))
	})(c)
}

func (h *Handler) requestInfo(c *gin.Context) {
	var req requestInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, msg, err := h.apps.RequestInfo(c.Request.Context(), actor(c), c.Param("id"), req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"application": toApplicationBody(app),
		"message":     toMessageBody(msg),
	})
}

func (h *Handler) decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := h.apps.Decide(c.Request.Context(), actor(c), c.Param("id"), *req.Approve)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplicationBody(app))
}
