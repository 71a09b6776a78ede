package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"raterocket/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// Upsert creates the session or, when the id already exists, refreshes
// its type and document linkage. Title is owned by the mirror worker
// and is never touched here.
func (r *SessionRepository) Upsert(session *model.Session) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "document_id", "document_info", "updated_at"}),
	}).Create(session).Error
	if err != nil {
		return fmt.Errorf("upsert session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByUserAndID(userID uint, sessionID string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}

	messages, err := r.listMessages(sessionID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages
	return &session, nil
}

// GetByUserAndDocumentID finds the user's session linked to a ledger
// document, if any.
func (r *SessionRepository) GetByUserAndDocumentID(userID uint, documentID string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("user_id = ? AND document_id = ?", userID, documentID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by document failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) ListByUser(userID uint, limit int) ([]model.Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var sessions []model.Session
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

// ReplaceMessages rewrites the session's conversation wholesale with
// the cache-resident snapshot. An empty title never overwrites the
// stored one.
func (r *SessionRepository) ReplaceMessages(sessionID string, turns []model.ChatTurn, title string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if len(turns) > 0 {
			messages := make([]model.Message, 0, len(turns))
			for i, turn := range turns {
				messages = append(messages, model.Message{
					SessionID: sessionID,
					Seq:       i,
					Role:      turn.Role,
					Content:   turn.Content,
				})
			}
			if err := tx.Create(&messages).Error; err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if strings.TrimSpace(title) != "" {
			updates["title"] = title
		}
		return tx.Model(&model.Session{}).Where("id = ?", sessionID).Updates(updates).Error
	})
	if err != nil {
		return fmt.Errorf("replace session messages failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateDocumentInfo(sessionID string, fields *model.LoanFields) error {
	var session model.Session
	session.SetDocumentFields(fields)
	if err := r.db.Model(&model.Session{}).Where("id = ?", sessionID).
		Update("document_info", session.DocumentInfo).Error; err != nil {
		return fmt.Errorf("update session document info failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateTitle(userID uint, sessionID, title string) error {
	result := r.db.Model(&model.Session{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Update("title", title)
	if result.Error != nil {
		return fmt.Errorf("update session title failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateMessageFeedback attaches feedback to the message at the given
// conversation index.
func (r *SessionRepository) UpdateMessageFeedback(userID uint, sessionID string, index int, feedback string, rating int) error {
	session, err := r.GetByUserAndID(userID, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return gorm.ErrRecordNotFound
	}

	result := r.db.Model(&model.Message{}).
		Where("session_id = ? AND seq = ?", sessionID, index).
		Updates(map[string]interface{}{
			"feedback_text":   feedback,
			"feedback_rating": rating,
		})
	if result.Error != nil {
		return fmt.Errorf("update message feedback failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SessionRepository) listMessages(sessionID string) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("session_id = ?", sessionID).Order("seq ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list session messages failed: %w", err)
	}
	return messages, nil
}
