package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"raterocket/internal/ai"
	"raterocket/internal/model"
)

func newChatFixture(gateway *fakeGateway) (*ChatService, *fakeSessionStore, *fakeDocStore, *fakeCache, *fakePublisher) {
	sessions := newFakeSessionStore()
	docs := newFakeDocStore()
	cache := newFakeCache()
	publisher := &fakePublisher{}
	svc := NewChatService(sessions, docs, cache, gateway, publisher, zap.NewNop())
	return svc, sessions, docs, cache, publisher
}

func TestConverseNewSessionAppendsTurnPair(t *testing.T) {
	gateway := &fakeGateway{
		intent: &ai.IntentResult{Intent: ai.IntentGeneralLoan, Confidence: 0.9},
		reply:  &ai.GeneratedReply{Response: "A fixed rate stays constant.", ChatTitle: "Fixed rates"},
	}
	svc, sessions, _, cache, publisher := newChatFixture(gateway)

	result, err := svc.Converse(context.Background(), ConverseInput{
		UserID:  1,
		Message: "What is a fixed rate?",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)
	assert.Equal(t, "A fixed rate stays constant.", result.Response)
	assert.Equal(t, ai.IntentGeneralLoan, result.Intent)

	created, ok := sessions.sessions[result.SessionID]
	require.True(t, ok)
	assert.Equal(t, model.SessionTypeChat, created.Type)

	turns := cache.conversations[result.SessionID]
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "What is a fixed rate?", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "Fixed rates", publisher.published[0].Title)
	assert.Len(t, publisher.published[0].Messages, 2)
}

func TestConverseExistingSessionGrowsConversation(t *testing.T) {
	gateway := &fakeGateway{
		intent: &ai.IntentResult{Intent: ai.IntentGeneralLoan},
		reply:  &ai.GeneratedReply{Response: "Usually 30 years."},
	}
	svc, _, _, cache, _ := newChatFixture(gateway)
	cache.conversations["sess-1"] = []model.ChatTurn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}

	result, err := svc.Converse(context.Background(), ConverseInput{
		UserID:    1,
		SessionID: "sess-1",
		Message:   "How long is a loan term?",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", result.SessionID)
	assert.Len(t, cache.conversations["sess-1"], 4)
}

func TestConverseOutOfScopeLeavesStateUntouched(t *testing.T) {
	gateway := &fakeGateway{
		intent: &ai.IntentResult{Intent: ai.IntentOutOfScope, Confidence: 0.97, Reason: "weather question"},
	}
	svc, sessions, _, cache, publisher := newChatFixture(gateway)
	cache.conversations["sess-1"] = []model.ChatTurn{{Role: "user", Content: "hi"}}
	sessions.sessions["sess-1"] = &model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeChat}

	result, err := svc.Converse(context.Background(), ConverseInput{
		UserID:    1,
		SessionID: "sess-1",
		Message:   "What's the weather?",
	})
	require.NoError(t, err)
	assert.Equal(t, refusalMessage, result.Response)
	assert.Equal(t, ai.IntentOutOfScope, result.Intent)
	assert.Equal(t, 0.97, result.IntentConfidence)

	assert.Len(t, cache.conversations["sess-1"], 1)
	assert.Empty(t, publisher.published)
}

func TestConverseLenderIntentSearchesKnowledgeBase(t *testing.T) {
	gateway := &fakeGateway{
		intent: &ai.IntentResult{Intent: ai.IntentSpecificLender},
		query:  "Acme Mortgage",
		reply:  &ai.GeneratedReply{Response: "Acme offers 30-year fixed loans."},
	}
	svc, _, docs, _, _ := newChatFixture(gateway)
	docs.searchText = "lender: Acme Mortgage, type: fixed"

	result, err := svc.Converse(context.Background(), ConverseInput{
		UserID:  1,
		Message: "Tell me about Acme Mortgage",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme offers 30-year fixed loans.", result.Response)
}

func TestConverseEmptyReplyApologizesWithoutMutation(t *testing.T) {
	gateway := &fakeGateway{
		intent: &ai.IntentResult{Intent: ai.IntentGeneralLoan},
		reply:  nil,
	}
	svc, _, _, cache, publisher := newChatFixture(gateway)
	cache.conversations["sess-1"] = []model.ChatTurn{{Role: "user", Content: "hi"}}

	result, err := svc.Converse(context.Background(), ConverseInput{
		UserID:    1,
		SessionID: "sess-1",
		Message:   "question",
	})
	require.NoError(t, err)
	assert.Equal(t, apologyMessage, result.Response)
	assert.Len(t, cache.conversations["sess-1"], 1)
	assert.Empty(t, publisher.published)
}

func TestConverseMirrorFailureIsHard(t *testing.T) {
	gateway := &fakeGateway{
		intent: &ai.IntentResult{Intent: ai.IntentGeneralLoan},
		reply:  &ai.GeneratedReply{Response: "answer"},
	}
	svc, _, _, _, publisher := newChatFixture(gateway)
	publisher.err = errors.New("broker down")

	_, err := svc.Converse(context.Background(), ConverseInput{
		UserID:  1,
		Message: "question",
	})
	assert.ErrorIs(t, err, ErrMirrorEnqueue)
}

func TestConverseRejectsBlankMessage(t *testing.T) {
	svc, _, _, _, _ := newChatFixture(&fakeGateway{})

	_, err := svc.Converse(context.Background(), ConverseInput{UserID: 1, Message: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Converse(context.Background(), ConverseInput{UserID: 0, Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
