// Package httpapi exposes the BoardPack REST surface over gin: auth,
// applications, documents, RFI messages, and the per-application SSE event
// stream. Handlers depend on narrow service interfaces so tests can swap in
// fakes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mpodriezov/boardpack/internal/logging"
	"github.com/mpodriezov/boardpack/internal/server/config"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/services"
)

// UserService is the slice of services.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, email, fullName, role, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// ApplicationService is the slice of services.ApplicationService the handlers use.
type ApplicationService interface {
	Create(ctx context.Context, actor services.Actor, in services.CreateApplicationInput) (*models.Application, error)
	Get(ctx context.Context, actor services.Actor, id string) (*models.Application, error)
	List(ctx context.Context, actor services.Actor) ([]*models.Application, error)
	Submit(ctx context.Context, actor services.Actor, id string) (*models.Application, error)
	StartReview(ctx context.Context, actor services.Actor, id string) (*models.Application, error)
	RequestInfo(ctx context.Context, actor services.Actor, id, body string) (*models.Application, *models.Message, error)
	ResumeReview(ctx context.Context, actor services.Actor, id string) (*models.Application, error)
	Decide(ctx context.Context, actor services.Actor, id string, approve bool) (*models.Application, error)
}

// DocumentService is the slice of services.DocumentService the handlers use.
type DocumentService interface {
	CreateIntent(ctx context.Context, actor services.Actor, in services.CreateIntentInput) (*models.Document, *models.DocumentUploadTask, error)
	Complete(ctx context.Context, actor services.Actor, documentID string) (*models.Document, error)
	List(ctx context.Context, actor services.Actor, applicationID string) ([]*models.Document, error)
	SignedURL(ctx context.Context, actor services.Actor, documentID string) (string, time.Time, error)
	Delete(ctx context.Context, actor services.Actor, documentID string) error
}

// MessageService is the slice of services.MessageService the handlers use.
type MessageService interface {
	List(ctx context.Context, actor services.Actor, applicationID string) ([]*models.Message, error)
	Create(ctx context.Context, actor services.Actor, applicationID, body string) (*models.Message, error)
	Resolve(ctx context.Context, actor services.Actor, messageID string) (*models.Message, error)
}

// Realtime is the slice of the realtime hub the handlers use.
type Realtime interface {
	Subscribe(ctx context.Context, applicationID string) (<-chan *realtime.Event, func(), error)
	Heartbeat(ctx context.Context, applicationID, userID string) error
	Present(ctx context.Context, applicationID string) ([]string, error)
	Typing(ctx context.Context, applicationID, userID string) error
}

// Handler bundles the API dependencies.
type Handler struct {
	logger   logging.Logger
	users    UserService
	apps     ApplicationService
	docs     DocumentService
	messages MessageService
	rt       Realtime
}

// NewHandler constructs the API handler set.
func NewHandler(logger logging.Logger, users UserService, apps ApplicationService, docs DocumentService, messages MessageService, rt Realtime) *Handler {
	return &Handler{logger: logger, users: users, apps: apps, docs: docs, messages: messages, rt: rt}
}

// NewRouter assembles the gin engine: logging and recovery middleware, CORS
// for the browser SPA, public auth routes, and the authenticated API.
func NewRouter(cfg *config.Config, logger logging.Logger, h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(RequestLogger(logger), Recovery(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	v1 := router.Group("/api/v1")
	v1.GET("/healthz", h.healthz)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/refresh", h.refresh)
	authGroup.POST("/logout", h.logout)

	api := v1.Group("", Auth([]byte(cfg.SecretKey)))
	api.POST("/applications", h.createApplication)
	api.GET("/applications", h.listApplications)
	api.GET("/applications/:id", h.getApplication)
	api.POST("/applications/:id/submit", h.submitApplication)
	api.POST("/applications/:id/review", h.startReview)
	api.POST("/applications/:id/request-info", h.requestInfo)
	api.POST("/applications/:id/resume-review", h.resumeReview)
	api.POST("/applications/:id/decision", h.decide)

	api.POST("/applications/:id/documents", h.createDocumentIntent)
	api.GET("/applications/:id/documents", h.listDocuments)
	api.POST("/documents/:id/complete", h.completeDocument)
	api.GET("/documents/:id/url", h.documentURL)
	api.DELETE("/documents/:id", h.deleteDocument)

	api.GET("/applications/:id/messages", h.listMessages)
	api.POST("/applications/:id/messages", h.createMessage)
	api.POST("/messages/:id/resolve", h.resolveMessage)

	api.GET("/applications/:id/events", h.streamEvents)
	api.POST("/applications/:id/typing", h.typing)
	api.POST("/applications/:id/presence", h.heartbeat)
	api.GET("/applications/:id/presence", h.presence)

	return router
}

// NewHTTPServer wraps the router in an http.Server with conservative
// timeouts. WriteTimeout stays 0 because the SSE endpoint holds responses
// open indefinitely.
func NewHTTPServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Handler:           router,
		Addr:              cfg.EndpointAddr,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
