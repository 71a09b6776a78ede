package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raterocket/internal/model"
)

func TestSessionCreateRejectsDuplicateID(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))

	require.NoError(t, repo.Create(&model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeChat}))
	err := repo.Create(&model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeChat})
	assert.Error(t, err)
}

func TestSessionUpsertRefreshesExistingRow(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))

	first := &model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeUpload, DocumentID: "doc-old"}
	first.SetDocumentFields(&model.LoanFields{BorrowerName: strPtr("Jane Roe")})
	require.NoError(t, repo.Upsert(first))
	require.NoError(t, repo.UpdateTitle(1, "sess-1", "First upload"))

	second := &model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeUpload, DocumentID: "doc-new"}
	second.SetDocumentFields(&model.LoanFields{BorrowerName: strPtr("Jane Roe"), LoanAmount: f64Ptr(300000)})
	require.NoError(t, repo.Upsert(second))

	got, err := repo.GetByUserAndID(1, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "doc-new", got.DocumentID)
	require.NotNil(t, got.DocumentFields())
	assert.Equal(t, 300000.0, *got.DocumentFields().LoanAmount)
	// Title belongs to the mirror worker; an upsert never clears it.
	assert.Equal(t, "First upload", got.Title)

	var count int64
	require.NoError(t, repo.db.Model(&model.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReplaceMessagesEmptyTitleKeepsStoredTitle(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))

	require.NoError(t, repo.Create(&model.Session{ID: "sess-1", UserID: 1, Type: model.SessionTypeChat, Title: "Fixed rates"}))
	require.NoError(t, repo.ReplaceMessages("sess-1", []model.ChatTurn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, ""))

	got, err := repo.GetByUserAndID(1, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Fixed rates", got.Title)
	require.Len(t, got.Messages, 2)

	require.NoError(t, repo.ReplaceMessages("sess-1", []model.ChatTurn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "more"},
		{Role: "assistant", Content: "sure"},
	}, "Rate questions"))

	got, err = repo.GetByUserAndID(1, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Rate questions", got.Title)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "more", got.Messages[2].Content)
}
