package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/logging"
	"github.com/mpodriezov/boardpack/internal/server/auth"
	"github.com/mpodriezov/boardpack/internal/server/config"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes -----------------------------------------------------------------

type fakeUsers struct {
	registerErr error
	loginErr    error
	refreshErr  error
	user        *models.User
	pair        *services.TokenPair
	loggedOut   []string
}

func (f *fakeUsers) Register(ctx context.Context, email, fullName, role, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.user, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, nil, f.loginErr
	}
	return f.user, f.pair, nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair, nil
}

func (f *fakeUsers) Logout(ctx context.Context, refreshToken string) error {
	f.loggedOut = append(f.loggedOut, refreshToken)
	return nil
}

type fakeApps struct {
	app *models.Application
	msg *models.Message
	err error
}

func (f *fakeApps) Create(ctx context.Context, actor services.Actor, in services.CreateApplicationInput) (*models.Application, error) {
	return f.app, f.err
}
func (f *fakeApps) Get(ctx context.Context, actor services.Actor, id string) (*models.Application, error) {
	return f.app, f.err
}
func (f *fakeApps) List(ctx context.Context, actor services.Actor) ([]*models.Application, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Application{f.app}, nil
}
func (f *fakeApps) Submit(ctx context.Context, actor services.Actor, id string) (*models.Application, error) {
	return f.app, f.err
}
func (f *fakeApps) StartReview(ctx context.Context, actor services.Actor, id string) (*models.Application, error) {
	return f.app, f.err
}
func (f *fakeApps) RequestInfo(ctx context.Context, actor services.Actor, id, body string) (*models.Application, *models.Message, error) {
	return f.app, f.msg, f.err
}
func (f *fakeApps) ResumeReview(ctx context.Context, actor services.Actor, id string) (*models.Application, error) {
	return f.app, f.err
}
func (f *fakeApps) Decide(ctx context.Context, actor services.Actor, id string, approve bool) (*models.Application, error) {
	return f.app, f.err
}

type fakeDocs struct {
	doc  *models.Document
	task *models.DocumentUploadTask
	err  error
}

func (f *fakeDocs) CreateIntent(ctx context.Context, actor services.Actor, in services.CreateIntentInput) (*models.Document, *models.DocumentUploadTask, error) {
	return f.doc, f.task, f.err
}
func (f *fakeDocs) Complete(ctx context.Context, actor services.Actor, documentID string) (*models.Document, error) {
	return f.doc, f.err
}
func (f *fakeDocs) List(ctx context.Context, actor services.Actor, applicationID string) ([]*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Document{f.doc}, nil
}
func (f *fakeDocs) SignedURL(ctx context.Context, actor services.Actor, documentID string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "https://bucket.test/obj?sig=x", time.Now().Add(15 * time.Minute), nil
}
func (f *fakeDocs) Delete(ctx context.Context, actor services.Actor, documentID string) error {
	return f.err
}

type fakeMessages struct {
	msg *models.Message
	err error
}

func (f *fakeMessages) List(ctx context.Context, actor services.Actor, applicationID string) ([]*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Message{f.msg}, nil
}
func (f *fakeMessages) Create(ctx context.Context, actor services.Actor, applicationID, body string) (*models.Message, error) {
	return f.msg, f.err
}
func (f *fakeMessages) Resolve(ctx context.Context, actor services.Actor, messageID string) (*models.Message, error) {
	return f.msg, f.err
}

type fakeRealtime struct {
	events     chan *realtime.Event
	heartbeats []string
	present    []string
}

func (f *fakeRealtime) Subscribe(ctx context.Context, applicationID string) (<-chan *realtime.Event, func(), error) {
	return f.events, func() {}, nil
}
func (f *fakeRealtime) Heartbeat(ctx context.Context, applicationID, userID string) error {
	f.heartbeats = append(f.heartbeats, userID)
	return nil
}
func (f *fakeRealtime) Present(ctx context.Context, applicationID string) ([]string, error) {
	return f.present, nil
}
func (f *fakeRealtime) Typing(ctx context.Context, applicationID, userID string) error {
	return nil
}

// --- harness ---------------------------------------------------------------

type fixture struct {
	router *gin.Engine
	cfg    *config.Config
	users  *fakeUsers
	apps   *fakeApps
	docs   *fakeDocs
	msgs   *fakeMessages
	rt     *fakeRealtime
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	now := time.Now()
	f := &fixture{
		cfg: cfg,
		users: &fakeUsers{
			user: &models.User{ID: "u-1", Email: "ann@example.com", FullName: "Ann", Role: models.RoleApplicant},
			pair: &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
		},
		apps: &fakeApps{app: &models.Application{
			ID: "app-1", Building: "120 Riverside Blvd", Unit: "4B",
			Status: models.StatusDraft, ApplicantID: "u-1", CreatedBy: "u-1",
			CreatedAt: now, UpdatedAt: now,
		}},
		docs: &fakeDocs{
			doc: &models.Document{ID: "doc-1", ApplicationID: "app-1", Category: "financials",
				Filename: "t.pdf", Size: 10, UploadStatus: models.UploadStatusPending, UploadedBy: "u-1"},
			task: &models.DocumentUploadTask{DocumentID: "doc-1", URL: "https://bucket.test/put", ExpiresAt: now.Add(15 * time.Minute)},
		},
		msgs: &fakeMessages{msg: &models.Message{ID: "msg-1", ApplicationID: "app-1", AuthorID: "u-1", Body: "hi", CreatedAt: now}},
		rt:   &fakeRealtime{events: make(chan *realtime.Event, 4)},
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	h := NewHandler(logger, f.users, f.apps, f.docs, f.msgs, f.rt)
	f.router = NewRouter(cfg, logger, h)
	return f
}

func (f *fixture) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, []byte(f.cfg.SecretKey), time.Minute)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// --- tests -----------------------------------------------------------------

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK"}`, w.Body.String())
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/applications", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredTokenSignalsRefresh(t *testing.T) {
	f := newFixture(t)
	expired, err := auth.GenerateToken("u-1", models.RoleApplicant, []byte(f.cfg.SecretKey), -time.Minute)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/applications", expired, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, common.ErrTokenExpired.Error(), body["error"])
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/applications", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, common.ErrInvalidToken.Error(), body["error"])
}

func TestLogin_ReturnsTokenPair(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ann@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "acc", resp.AccessToken)
	assert.Equal(t, "ref", resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u-1", resp.User.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.users.loginErr = common.ErrorUnauthorized
	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"email":"ann@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	f := newFixture(t)

	// Missing fields bounce before the service is involved.
	w := f.do(t, http.MethodPost, "/api/v1/auth/register", "", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.users.registerErr = common.ErrorConflict
	w = f.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"ann@example.com","full_name":"Ann","role":"applicant","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestApplications_CRUDRoutes(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)

	w := f.do(t, http.MethodPost, "/api/v1/applications", token, `{"building":"120 Riverside Blvd","unit":"4B"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/applications", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []applicationBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "app-1", list[0].ID)

	w = f.do(t, http.MethodGet, "/api/v1/applications/app-1", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/applications/app-1/submit", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApplications_ErrorMapping(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)

	f.apps.err = common.ErrInvalidTransition
	w := f.do(t, http.MethodPost, "/api/v1/applications/app-1/submit", token, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	f.apps.err = common.ErrorForbidden
	w = f.do(t, http.MethodGet, "/api/v1/applications/app-1", token, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	f.apps.err = common.ErrorNotFound
	w = f.do(t, http.MethodGet, "/api/v1/applications/missing", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecide_RequiresExplicitApprove(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-b", models.RoleBoard)

	w := f.do(t, http.MethodPost, "/api/v1/applications/app-1/decision", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/applications/app-1/decision", token, `{"approve":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocumentIntent_ReturnsUploadURL(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)

	w := f.do(t, http.MethodPost, "/api/v1/applications/app-1/documents", token,
		`{"category":"financials","filename":"t.pdf","size":10,"content_type":"application/pdf"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp documentIntentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.Document.ID)
	assert.Equal(t, "https://bucket.test/put", resp.UploadURL)
	assert.False(t, resp.ExpiresAt.IsZero())
}

func TestDocumentIntent_TooLarge(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)
	f.docs.err = common.ErrUploadTooLarge

	w := f.do(t, http.MethodPost, "/api/v1/applications/app-1/documents", token,
		`{"category":"financials","filename":"t.pdf","size":999999999}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDocumentURL_AndDelete(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)

	w := f.do(t, http.MethodGet, "/api/v1/documents/doc-1/url", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp signedURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.URL, "sig=")

	w = f.do(t, http.MethodDelete, "/api/v1/documents/doc-1", token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMessages_Routes(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)

	w := f.do(t, http.MethodPost, "/api/v1/applications/app-1/messages", token, `{"body":"hi"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/applications/app-1/messages", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []messageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = f.do(t, http.MethodPost, "/api/v1/messages/msg-1/resolve", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPresence_HeartbeatAndList(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)
	f.rt.present = []string{"u-1", "u-agent"}

	w := f.do(t, http.MethodPost, "/api/v1/applications/app-1/presence", token, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"u-1"}, f.rt.heartbeats)

	w = f.do(t, http.MethodGet, "/api/v1/applications/app-1/presence", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"present":["u-1","u-agent"]}`, w.Body.String())
}

func TestStreamEvents_DeliversSSE(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u-1", models.RoleApplicant)

	f.rt.events <- &realtime.Event{Type: realtime.EventApplicationStatus, ApplicationID: "app-1", ActorID: "u-agent"}
	close(f.rt.events)

	// Token via query parameter, the way EventSource sends it.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/app-1/events?access_token="+token, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event: application.status")
	assert.Contains(t, w.Body.String(), `"application_id":"app-1"`)
}
