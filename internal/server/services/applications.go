package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/dbx"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/repositories/repomanager"
)

// ApplicationService implements the board package lifecycle. Visibility is
// role-scoped: applicants and brokers see their own packages, agents see
// everything, board members see packages past draft.
type ApplicationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   Publisher
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(db *sql.DB, m repomanager.RepositoryManager, p Publisher) *ApplicationService {
	return &ApplicationService{db: db, repomanager: m, publisher: p}
}

// CreateApplicationInput carries the fields for a new draft application.
type CreateApplicationInput struct {
	Building    string
	Unit        string
	ApplicantID string
	BrokerID    string
}

// Create opens a new draft. Applicants create for themselves; brokers create
// on behalf of an applicant and become the package's broker.
func (s *ApplicationService) Create(ctx context.Context, actor Actor, in CreateApplicationInput) (*models.Application, error) {
	if strings.TrimSpace(in.Building) == "" || strings.TrimSpace(in.Unit) == "" {
		return nil, fmt.Errorf("building and unit are required")
	}

	app := &models.Application{
		Building:  in.Building,
		Unit:      in.Unit,
		Status:    models.StatusDraft,
		CreatedBy: actor.ID,
	}
	switch actor.Role {
	case models.RoleApplicant:
		app.ApplicantID = actor.ID
		app.BrokerID = in.BrokerID
	case models.RoleBroker:
		if in.ApplicantID == "" {
			return nil, fmt.Errorf("applicant_id is required")
		}
		app.ApplicantID = in.ApplicantID
		app.BrokerID = actor.ID
	default:
		return nil, common.ErrorForbidden
	}

	created, err := s.repomanager.Applications(s.db).Create(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("error creating application: %w", err)
	}
	return created, nil
}

// Get returns one application if the actor is allowed to see it.
func (s *ApplicationService) Get(ctx context.Context, actor Actor, id string) (*models.Application, error) {
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, app) {
		return nil, common.ErrorForbidden
	}
	return app, nil
}

// List returns the applications visible to the actor, newest first.
func (s *ApplicationService) List(ctx context.Context, actor Actor) ([]*models.Application, error) {
	repo := s.repomanager.Applications(s.db)
	switch actor.Role {
	case models.RoleAgent:
		return repo.ListAll(ctx)
	case models.RoleBoard:
		return repo.ListPastDraft(ctx)
	case models.RoleApplicant:
		return repo.ListByApplicant(ctx, actor.ID)
	case models.RoleBroker:
		return repo.ListByBroker(ctx, actor.ID)
	default:
		return nil, common.ErrorForbidden
	}
}

// Submit hands a draft over for review. Only the package's applicant or
// broker may submit.
func (s *ApplicationService) Submit(ctx context.Context, actor Actor, id string) (*models.Application, error) {
	return s.transition(ctx, actor, id, models.StatusSubmitted, func(app *models.Application) bool {
		return isOwner(actor, app)
	})
}

// StartReview moves a submitted application into review. Agents only.
func (s *ApplicationService) StartReview(ctx context.Context, actor Actor, id string) (*models.Application, error) {
	return s.transition(ctx, actor, id, models.StatusInReview, func(*models.Application) bool {
		return actor.Role == models.RoleAgent
	})
}

// RequestInfo sends an application back to its owners with an RFI message.
// The status change and the message are committed together: a needs_info
// application always has at least one open RFI explaining what is missing.
func (s *ApplicationService) RequestInfo(ctx context.Context, actor Actor, id, body string) (*models.Application, *models.Message, error) {
	if actor.Role != models.RoleAgent && actor.Role != models.RoleBoard {
		return nil, nil, common.ErrorForbidden
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil, fmt.Errorf("an RFI must say what information is needed")
	}

	app, err := s.repomanager.Applications(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !models.ValidTransition(app.Status, models.StatusNeedsInfo) {
		return nil, nil, common.ErrInvalidTransition
	}

	var msg *models.Message
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Applications(tx).UpdateStatus(ctx, id, app.Status, models.StatusNeedsInfo, nil, nil); err != nil {
			return err
		}
		var createErr error
		msg, createErr = s.repomanager.Messages(tx).Create(ctx, &models.Message{
			ApplicationID: id,
			AuthorID:      actor.ID,
			Body:          body,
		})
		return createErr
	})
	if err != nil {
		return nil, nil, err
	}

	app.Status = models.StatusNeedsInfo
	s.publishStatus(ctx, actor, app)
	s.publish(ctx, &realtime.Event{
		Type:          realtime.EventMessageCreated,
		ApplicationID: id,
		ActorID:       actor.ID,
		Data:          map[string]any{"message_id": msg.ID},
	})
	return app, msg, nil
}

// ResumeReview returns a needs_info application to review after the missing
// information arrived. Agents only.
func (s *ApplicationService) ResumeReview(ctx context.Context, actor Actor, id string) (*models.Application, error) {
	return s.transition(ctx, actor, id, models.StatusInReview, func(*models.Application) bool {
		return actor.Role == models.RoleAgent
	})
}

// Decide records the board's decision on an application in review.
func (s *ApplicationService) Decide(ctx context.Context, actor Actor, id string, approve bool) (*models.Application, error) {
	to := models.StatusRejected
	if approve {
		to = models.StatusApproved
	}
	return s.transition(ctx, actor, id, to, func(*models.Application) bool {
		return actor.Role == models.RoleBoard
	})
}

// transition loads the application, checks authorization and the status
// machine, and performs the compare-and-swap update. Timestamp columns are
// filled according to the target status.
func (s *ApplicationService) transition(ctx context.Context, actor Actor, id, to string, allowed func(*models.Application) bool) (*models.Application, error) {
	repo := s.repomanager.Applications(s.db)
	app, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowed(app) {
		return nil, common.ErrorForbidden
	}
	if !models.ValidTransition(app.Status, to) {
		return nil, common.ErrInvalidTransition
	}

	now := time.Now()
	var submittedAt, decidedAt *time.Time
	if to == models.StatusSubmitted {
		submittedAt = &now
	}
	if models.TerminalStatus(to) {
		decidedAt = &now
	}

	if err := repo.UpdateStatus(ctx, id, app.Status, to, submittedAt, decidedAt); err != nil {
		return nil, err
	}

	app.Status = to
	if submittedAt != nil {
		app.SubmittedAt = submittedAt
	}
	if decidedAt != nil {
		app.DecidedAt = decidedAt
	}
	s.publishStatus(ctx, actor, app)
	return app, nil
}

func (s *ApplicationService) publishStatus(ctx context.Context, actor Actor, app *models.Application) {
	s.publish(ctx, &realtime.Event{
		Type:          realtime.EventApplicationStatus,
		ApplicationID: app.ID,
		ActorID:       actor.ID,
		Data:          map[string]any{"status": app.Status},
	})
}

// publish delivers an event best-effort. The row mutation already committed;
// a realtime delivery failure must not turn it into a caller-visible error.
func (s *ApplicationService) publish(ctx context.Context, event *realtime.Event) {
	_ = s.publisher.Publish(ctx, event)
}

// canSee implements the role-scoped visibility rules.
func canSee(actor Actor, app *models.Application) bool {
	switch actor.Role {
	case models.RoleAgent:
		return true
	case models.RoleBoard:
		return app.Status != models.StatusDraft
	case models.RoleApplicant:
		return app.ApplicantID == actor.ID
	case models.RoleBroker:
		return app.BrokerID == actor.ID
	}
	return false
}

// isOwner reports whether the actor is the package's applicant or broker.
func isOwner(actor Actor, app *models.Application) bool {
	switch actor.Role {
	case models.RoleApplicant:
		return app.ApplicantID == actor.ID
	case models.RoleBroker:
		return app.BrokerID == actor.ID
	}
	return false
}
