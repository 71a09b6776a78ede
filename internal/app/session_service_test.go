package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raterocket/internal/model"
)

func TestGetSessionRehydratesUploadCache(t *testing.T) {
	sessions := newFakeSessionStore()
	cache := newFakeCache()
	svc := NewSessionService(sessions, cache)

	session := &model.Session{
		ID:         "sess-1",
		UserID:     1,
		Type:       model.SessionTypeUpload,
		DocumentID: "doc-1",
		Messages: []model.Message{
			{SessionID: "sess-1", Seq: 0, Role: "user", Content: uploadedDocumentTurn},
			{SessionID: "sess-1", Seq: 1, Role: "assistant", Content: "extracted"},
		},
	}
	session.SetDocumentFields(&model.LoanFields{BorrowerName: strPtr("Jane Roe")})
	sessions.sessions["sess-1"] = session

	got, err := svc.GetSession(context.Background(), 1, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)

	assert.Len(t, cache.conversations["sess-1"], 2)
	assert.Equal(t, "doc-1", cache.documentIDs["sess-1"])
	require.NotNil(t, cache.previousInfo["sess-1"])
	assert.Equal(t, "Jane Roe", *cache.previousInfo["sess-1"].BorrowerName)
}

func TestGetSessionChatTypeSkipsDocumentKeys(t *testing.T) {
	sessions := newFakeSessionStore()
	cache := newFakeCache()
	svc := NewSessionService(sessions, cache)
	sessions.sessions["sess-1"] = &model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeChat}

	_, err := svc.GetSession(context.Background(), 1, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, cache.documentIDs)
	assert.Empty(t, cache.previousInfo)
}

func TestGetSessionEnforcesOwnership(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := NewSessionService(sessions, newFakeCache())
	sessions.sessions["sess-1"] = &model.Session{ID: "sess-1", UserID: 2, Type: model.SessionTypeChat}

	_, err := svc.GetSession(context.Background(), 1, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateSessionTitleValidation(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := NewSessionService(sessions, newFakeCache())
	sessions.sessions["sess-1"] = &model.Session{ID: "sess-1", UserID: 1}

	err := svc.UpdateSessionTitle(1, "sess-1", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = svc.UpdateSessionTitle(1, "missing", "New title")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.UpdateSessionTitle(1, "sess-1", "New title"))
	assert.Equal(t, "New title", sessions.sessions["sess-1"].Title)
}

func TestUpdateMessageFeedbackMapsNotFound(t *testing.T) {
	sessions := newFakeSessionStore()
	svc := NewSessionService(sessions, newFakeCache())
	sessions.sessions["sess-1"] = &model.Session{
		ID:     "sess-1",
		UserID: 1,
		Messages: []model.Message{
			{Seq: 0, Role: "user", Content: "hi"},
			{Seq: 1, Role: "assistant", Content: "hello"},
		},
	}

	require.NoError(t, svc.UpdateMessageFeedback(1, "sess-1", 1, "helpful", 5))

	err := svc.UpdateMessageFeedback(1, "sess-1", 9, "helpful", 5)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	err = svc.UpdateMessageFeedback(1, "sess-1", -1, "helpful", 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
