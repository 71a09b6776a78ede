package app

import (
	"context"
	"time"

	"raterocket/internal/ai"
	"raterocket/internal/model"
)

// ExtractionGateway is the reasoning service the orchestrator consumes.
// Timeouts and retries are the gateway's own concern.
type ExtractionGateway interface {
	ClassifyIntent(ctx context.Context, message string, history []model.ChatTurn) (*ai.IntentResult, error)
	ExtractQuery(ctx context.Context, message string, history []model.ChatTurn) (string, error)
	GenerateResponse(ctx context.Context, intent, historyText, contextText string) (*ai.GeneratedReply, error)
	CheckRelevance(ctx context.Context, text string) (*ai.RelevanceResult, error)
	ExtractFields(ctx context.Context, text string) (*ai.ExtractionResult, error)
	ExtractFieldsIncremental(ctx context.Context, message string, history []model.ChatTurn, previous *model.LoanFields) (*ai.RefinementResult, error)
}

// SessionCache is the fast, TTL-bounded store for per-session turn
// state.
type SessionCache interface {
	GetConversation(ctx context.Context, sessionID string) ([]model.ChatTurn, error)
	SaveConversation(ctx context.Context, sessionID string, turns []model.ChatTurn) error
	GetPreviousInfo(ctx context.Context, sessionID string) (*model.LoanFields, error)
	SavePreviousInfo(ctx context.Context, sessionID string, fields *model.LoanFields) error
	GetDocumentID(ctx context.Context, sessionID string) (string, error)
	SaveDocumentID(ctx context.Context, sessionID, documentID string) error
}

// SessionStore is the durable session ledger. Upsert must tolerate an
// existing session id; Create must not.
type SessionStore interface {
	Create(session *model.Session) error
	Upsert(session *model.Session) error
	GetByUserAndID(userID uint, sessionID string) (*model.Session, error)
	GetByUserAndDocumentID(userID uint, documentID string) (*model.Session, error)
	ListByUser(userID uint, limit int) ([]model.Session, error)
	ReplaceMessages(sessionID string, turns []model.ChatTurn, title string) error
	UpdateDocumentInfo(sessionID string, fields *model.LoanFields) error
	UpdateTitle(userID uint, sessionID, title string) error
	UpdateMessageFeedback(userID uint, sessionID string, index int, feedback string, rating int) error
}

// DocumentStore is the durable loan document ledger.
type DocumentStore interface {
	Insert(doc *model.LoanDocument) error
	Update(doc *model.LoanDocument) error
	GetByDocumentID(documentID string) (*model.LoanDocument, error)
	FindSimilar(fields *model.LoanFields) ([]model.LoanDocument, error)
	Search(query string) (string, error)
	SoftDelete(documentID string) error
}

// MirrorPublisher hands conversation snapshots to the async ledger
// mirror.
type MirrorPublisher interface {
	Publish(ctx context.Context, snapshot model.ConversationSnapshot) error
}

// UserStore is the durable user record store.
type UserStore interface {
	Create(user *model.User) error
	GetByEmail(email string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
	UpdateName(id uint, name string) error
}

// OTPStore issues and verifies one-time login codes.
type OTPStore interface {
	Create(ctx context.Context, email string) (string, time.Time, error)
	Extend(ctx context.Context, email string) (string, time.Time, error)
	Verify(ctx context.Context, email, otp string) (bool, error)
	TTL() time.Duration
}

// DocumentParser converts raw file bytes to text.
type DocumentParser func(content []byte, filename string) (string, error)
