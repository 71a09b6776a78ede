package app

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"raterocket/internal/model"
)

// SessionService covers session browsing and bookkeeping around the
// conversation turns.
type SessionService struct {
	sessionStore SessionStore
	cache        SessionCache
}

func NewSessionService(sessionStore SessionStore, cache SessionCache) *SessionService {
	return &SessionService{
		sessionStore: sessionStore,
		cache:        cache,
	}
}

func (s *SessionService) ListSessions(userID uint, limit int) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessionStore.ListByUser(userID, limit)
}

// GetSession fetches a session with its messages and re-hydrates the
// session cache so follow-up turns read warm state.
func (s *SessionService) GetSession(ctx context.Context, userID uint, sessionID string) (*model.Session, error) {
	if userID == 0 || sessionID == "" {
		return nil, ErrInvalidInput
	}

	session, err := s.sessionStore.GetByUserAndID(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if err := s.cache.SaveConversation(ctx, sessionID, model.Turns(session.Messages)); err != nil {
		return nil, err
	}
	if session.Type == model.SessionTypeUpload {
		if fields := session.DocumentFields(); fields != nil {
			if err := s.cache.SavePreviousInfo(ctx, sessionID, fields); err != nil {
				return nil, err
			}
		}
		if session.DocumentID != "" {
			if err := s.cache.SaveDocumentID(ctx, sessionID, session.DocumentID); err != nil {
				return nil, err
			}
		}
	}
	return session, nil
}

func (s *SessionService) UpdateMessageFeedback(userID uint, sessionID string, index int, feedback string, rating int) error {
	if userID == 0 || sessionID == "" || index < 0 {
		return ErrInvalidInput
	}
	err := s.sessionStore.UpdateMessageFeedback(userID, sessionID, index, feedback, rating)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMessageNotFound
	}
	return err
}

func (s *SessionService) UpdateSessionTitle(userID uint, sessionID, title string) error {
	if userID == 0 || sessionID == "" || strings.TrimSpace(title) == "" {
		return ErrInvalidInput
	}
	err := s.sessionStore.UpdateTitle(userID, sessionID, title)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}
