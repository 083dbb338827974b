package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/server/models"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	User         *userBody `json:"user,omitempty"`
}

type userBody struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type createApplicationRequest struct {
	Building    string `json:"building" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	ApplicantID string `json:"applicant_id"`
	BrokerID    string `json:"broker_id"`
}

type requestInfoRequest struct {
	Body string `json:"body" binding:"required"`
}

type decisionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

type applicationBody struct {
	ID          string     `json:"id"`
	Building    string     `json:"building"`
	Unit        string     `json:"unit"`
	Status      string     `json:"status"`
	ApplicantID string     `json:"applicant_id"`
	BrokerID    string     `json:"broker_id,omitempty"`
	CreatedBy   string     `json:"created_by"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type createDocumentRequest struct {
	Category    string `json:"category" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	Size        int64  `json:"size" binding:"required"`
	ContentType string `json:"content_type"`
}

type documentBody struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Category      string    `json:"category"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	UploadStatus  string    `json:"upload_status"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type documentIntentResponse struct {
	Document  documentBody `json:"document"`
	UploadURL string       `json:"upload_url"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type signedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type createMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

type messageBody struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	AuthorID      string     `json:"author_id"`
	Body          string     `json:"body"`
	Resolved      bool       `json:"resolved"`
	ResolvedBy    string     `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toUserBody(u *models.User) *userBody {
	return &userBody{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

func toApplicationBody(a *models.Application) applicationBody {
	return applicationBody{
		ID:          a.ID,
		Building:    a.Building,
		Unit:        a.Unit,
		Status:      a.Status,
		ApplicantID: a.ApplicantID,
		BrokerID:    a.BrokerID,
		CreatedBy:   a.CreatedBy,
		SubmittedAt: a.SubmittedAt,
		DecidedAt:   a.DecidedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toDocumentBody(d *models.Document) documentBody {
	return documentBody{
		ID:            d.ID,
		ApplicationID: d.ApplicationID,
		Category:      d.Category,
		Filename:      d.Filename,
		Size:          d.Size,
		ContentType:   d.ContentType,
		UploadStatus:  d.UploadStatus,
		UploadedBy:    d.UploadedBy,
		CreatedAt:     d.CreatedAt,
	}
}

func toMessageBody(m *models.Message) messageBody {
	return messageBody{
		ID:            m.ID,
		ApplicationID: m.ApplicationID,
		AuthorID:      m.AuthorID,
		Body:          m.Body,
		Resolved:      m.Resolved,
		ResolvedBy:    m.ResolvedBy,
		ResolvedAt:    m.ResolvedAt,
		CreatedAt:     m.CreatedAt,
	}
}

// writeError maps service sentinels onto HTTP statuses. Anything unmatched is
// a 500 with a generic body so internals do not leak.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": common.ErrorNotFound.Error()})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": common.ErrorForbidden.Error()})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": common.ErrorUnauthorized.Error()})
	case errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": common.ErrTokenExpired.Error()})
	case errors.Is(err, common.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": common.ErrRefreshTokenExpired.Error()})
	case errors.Is(err, common.ErrorConflict):
		c.JSON(http.StatusConflict, gin.H{"error": common.ErrorConflict.Error()})
	case errors.Is(err, common.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": common.ErrInvalidTransition.Error()})
	case errors.Is(err, common.ErrUploadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": common.ErrUploadTooLarge.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
