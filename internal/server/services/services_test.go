package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/dbx"
	"github.com/mpodriezov/boardpack/internal/server/config"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/repositories/applications"
	"github.com/mpodriezov/boardpack/internal/server/repositories/documents"
	"github.com/mpodriezov/boardpack/internal/server/repositories/messages"
	"github.com/mpodriezov/boardpack/internal/server/repositories/refreshtokens"
	"github.com/mpodriezov/boardpack/internal/server/repositories/users"
)

// memRepos is an in-memory RepositoryManager. Every accessor returns the same
// shared state regardless of the DBTX handed in, so transactional code paths
// exercise the same data as direct ones.
type memRepos struct {
	mu     sync.Mutex
	nextID int

	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
	apps   map[string]*models.Application
	docs   map[string]*models.Document
	msgs   map[string]*models.Message
}

func newMemRepos() *memRepos {
	return &memRepos{
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
		apps:   map[string]*models.Application{},
		docs:   map[string]*models.Document{},
		msgs:   map[string]*models.Message{},
	}
}

func (m *memRepos) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memRepos) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *memRepos) Users(db dbx.DBTX) users.Repository                 { return (*memUsers)(m) }
func (m *memRepos) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return (*memTokens)(m) }
func (m *memRepos) Applications(db dbx.DBTX) applications.Repository   { return (*memApps)(m) }
func (m *memRepos) Documents(db dbx.DBTX) documents.Repository         { return (*memDocs)(m) }
func (m *memRepos) Messages(db dbx.DBTX) messages.Repository           { return (*memMsgs)(m) }

type memUsers memRepos

func (m *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}
	user.ID = (*memRepos)(m).id("u")
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type memTokens memRepos

func (m *memTokens) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &models.RefreshToken{
		ID:      (*memRepos)(m).id("rt"),
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (m *memTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memTokens) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type memApps memRepos

func (m *memApps) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app.ID = (*memRepos)(m).id("app")
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	m.apps[app.ID] = app
	return app, nil
}

func (m *memApps) GetByID(ctx context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.apps[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memApps) ListAll(ctx context.Context) ([]*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Application
	for _, a := range m.apps {
		result = append(result, a)
	}
	return result, nil
}

func (m *memApps) ListByApplicant(ctx context.Context, userID string) ([]*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Application
	for _, a := range m.apps {
		if a.ApplicantID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memApps) ListByBroker(ctx context.Context, userID string) ([]*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Application
	for _, a := range m.apps {
		if a.BrokerID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memApps) ListPastDraft(ctx context.Context) ([]*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Application
	for _, a := range m.apps {
		if a.Status != models.StatusDraft {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memApps) UpdateStatus(ctx context.Context, id, from, to string, submittedAt, decidedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok || a.Status != from {
		return common.ErrInvalidTransition
	}
	a.Status = to
	if submittedAt != nil {
		a.SubmittedAt = submittedAt
	}
	if decidedAt != nil {
		a.DecidedAt = decidedAt
	}
	a.UpdatedAt = time.Now()
	return nil
}

type memDocs memRepos

func (m *memDocs) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = (*memRepos)(m).id("doc")
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *memDocs) GetByID(ctx context.Context, id string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok {
		copy := *d
		return &copy, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memDocs) ListByApplication(ctx context.Context, applicationID string) ([]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Document
	for _, d := range m.docs {
		if d.ApplicationID == applicationID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *memDocs) MarkCompleted(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return common.ErrorNotFound
	}
	d.UploadStatus = models.UploadStatusCompleted
	return nil
}

func (m *memDocs) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.docs, id)
	return nil
}

type memMsgs memRepos

func (m *memMsgs) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = (*memRepos)(m).id("msg")
	msg.CreatedAt = time.Now()
	m.msgs[msg.ID] = msg
	return msg, nil
}

func (m *memMsgs) GetByID(ctx context.Context, id string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.msgs[id]; ok {
		copy := *msg
		return &copy, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memMsgs) ListByApplication(ctx context.Context, applicationID string) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Message
	for _, msg := range m.msgs {
		if msg.ApplicationID == applicationID {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (m *memMsgs) Resolve(ctx context.Context, id, resolvedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok {
		return common.ErrorNotFound
	}
	if msg.Resolved {
		return common.ErrorConflict
	}
	now := time.Now()
	msg.Resolved = true
	msg.ResolvedBy = resolvedBy
	msg.ResolvedAt = &now
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*realtime.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event *realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// fakeObjectStore hands out deterministic URLs and records deletions.
type fakeObjectStore struct {
	mu      sync.Mutex
	n       int
	deleted []string
	putErr  error
}

func (s *fakeObjectStore) PresignedPutURL(ctx context.Context) (string, string, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", "", time.Time{}, s.putErr
	}
	s.n++
	key := fmt.Sprintf("apps/2026/1/1/key-%d", s.n)
	return key, "https://bucket.test/" + key, time.Now().Add(15 * time.Minute), nil
}

func (s *fakeObjectStore) PresignedGetURL(ctx context.Context, key string) (string, time.Time, error) {
	return "https://bucket.test/" + key + "?sig=get", time.Now().Add(15 * time.Minute), nil
}

func (s *fakeObjectStore) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

// newMockDB returns a sqlmock-backed handle for code paths that open real
// transactions around the in-memory repositories.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccessTokenValidityDuration = time.Minute
	cfg.RefreshTokenValidityDuration = time.Hour
	cfg.MaxUploadBytes = 1 << 20
	return cfg
}
