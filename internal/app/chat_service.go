package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"raterocket/internal/ai"
	"raterocket/internal/model"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrMirrorEnqueue   = errors.New("conversation mirror enqueue failed")
)

// Fixed user-visible texts for the short-circuited turn outcomes.
const (
	refusalMessage = "I'm sorry, I don't understand that. Please ask me about lending or loan options."
	apologyMessage = "I'm sorry, I couldn't generate a response. Please try again."
)

// ChatService runs the freeform chat turn: classify intent, optionally
// consult the knowledge base, generate a reply and persist the
// conversation.
type ChatService struct {
	sessionStore SessionStore
	docStore     DocumentStore
	cache        SessionCache
	gateway      ExtractionGateway
	publisher    MirrorPublisher
	log          *zap.Logger
}

type ConverseInput struct {
	UserID    uint
	SessionID string // empty starts a new session
	Message   string
}

type ConverseResult struct {
	Response         string  `json:"response"`
	SessionID        string  `json:"session_id"`
	Intent           string  `json:"intent"`
	IntentConfidence float64 `json:"intent_confidence"`
	IntentReason     string  `json:"intent_reason"`
}

func NewChatService(
	sessionStore SessionStore,
	docStore DocumentStore,
	cache SessionCache,
	gateway ExtractionGateway,
	publisher MirrorPublisher,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		sessionStore: sessionStore,
		docStore:     docStore,
		cache:        cache,
		gateway:      gateway,
		publisher:    publisher,
		log:          log,
	}
}

func (s *ChatService) Converse(ctx context.Context, input ConverseInput) (*ConverseResult, error) {
	if input.UserID == 0 || strings.TrimSpace(input.Message) == "" {
		return nil, ErrInvalidInput
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		if err := s.sessionStore.Create(&model.Session{
			ID:     sessionID,
			UserID: input.UserID,
			Type:   model.SessionTypeChat,
		}); err != nil {
			return nil, err
		}
	}

	conversation, err := s.cache.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	intentRes, err := s.gateway.ClassifyIntent(ctx, input.Message, conversation)
	if err != nil {
		return nil, err
	}

	result := &ConverseResult{
		SessionID:        sessionID,
		Intent:           intentRes.Intent,
		IntentConfidence: intentRes.Confidence,
		IntentReason:     intentRes.Reason,
	}

	// Out of scope short-circuits without touching any state.
	if intentRes.Intent == ai.IntentOutOfScope {
		result.Response = refusalMessage
		return result, nil
	}

	contextText := ""
	if intentRes.Intent == ai.IntentSpecificLender || intentRes.Intent == ai.IntentFilteredLenderList {
		query, err := s.gateway.ExtractQuery(ctx, input.Message, conversation)
		if err != nil {
			return nil, err
		}
		// An empty lookup result is a valid answer, not an error.
		contextText, err = s.docStore.Search(query)
		if err != nil {
			return nil, err
		}
	}

	reply, err := s.gateway.GenerateResponse(ctx, intentRes.Intent, ai.RenderHistory(conversation), contextText)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		// Recoverable no-op: apologize without mutating the session.
		result.Response = apologyMessage
		return result, nil
	}

	conversation = append(conversation,
		model.ChatTurn{Role: "user", Content: input.Message},
		model.ChatTurn{Role: "assistant", Content: reply.Response},
	)
	if err := s.cache.SaveConversation(ctx, sessionID, conversation); err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, model.ConversationSnapshot{
		SessionID: sessionID,
		Messages:  conversation,
		Title:     reply.ChatTitle,
	}); err != nil {
		return nil, ErrMirrorEnqueue
	}

	result.Response = reply.Response
	return result, nil
}
