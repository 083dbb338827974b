package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mpodriezov/boardpack/internal/common"
	"github.com/mpodriezov/boardpack/internal/server/models"
	"github.com/mpodriezov/boardpack/internal/server/realtime"
	"github.com/mpodriezov/boardpack/internal/server/repositories/repomanager"
)

// MessageService manages the RFI threads attached to applications. Anyone
// who can see an application may read and post; resolving is reserved for
// agents and board members.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	publisher   Publisher
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, p Publisher) *MessageService {
	return &MessageService{db: db, repomanager: m, publisher: p}
}

// List returns the messages of an application, oldest first.
func (s *MessageService) List(ctx context.Context, actor Actor, applicationID string) ([]*models.Message, error) {
	if err := s.checkVisibility(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	return s.repomanager.Messages(s.db).ListByApplication(ctx, applicationID)
}

// Create posts a message on an application's thread.
func (s *MessageService) Create(ctx context.Context, actor Actor, applicationID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("message body is required")
	}
	if err := s.checkVisibility(ctx, actor, applicationID); err != nil {
		return nil, err
	}

	msg, err := s.repomanager.Messages(s.db).Create(ctx, &models.Message{
		ApplicationID: applicationID,
		AuthorID:      actor.ID,
		Body:          body,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating message: %w", err)
	}

	_ = s.publisher.Publish(ctx, &realtime.Event{
		Type:          realtime.EventMessageCreated,
		ApplicationID: applicationID,
		ActorID:       actor.ID,
		Data:          map[string]any{"message_id": msg.ID},
	})
	return msg, nil
}

// Resolve closes an open RFI, recording who resolved it. Resolving an
// already-resolved message yields common.ErrorConflict.
func (s *MessageService) Resolve(ctx context.Context, actor Actor, messageID string) (*models.Message, error) {
	if actor.Role != models.RoleAgent && actor.Role != models.RoleBoard {
		return nil, common.ErrorForbidden
	}

	msg, err := s.repomanager.Messages(s.db).GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Messages(s.db).Resolve(ctx, messageID, actor.ID); err != nil {
		return nil, err
	}

	// Re-read to pick up resolved_at.
	resolved, err := s.repomanager.Messages(s.db).GetByID(ctx, messageID)
	if err != nil {
		resolved = msg
		resolved.Resolved = true
		resolved.ResolvedBy = actor.ID
	}

	_ = s.publisher.Publish(ctx, &realtime.Event{
		Type:          realtime.EventMessageResolved,
		ApplicationID: msg.ApplicationID,
		ActorID:       actor.ID,
		Data:          map[string]any{"message_id": messageID},
	})
	return resolved, nil
}

func (s *MessageService) checkVisibility(ctx context.Context, actor Actor, applicationID string) error {
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if !canSee(actor, app) {
		return common.ErrorForbidden
	}
	return nil
}
