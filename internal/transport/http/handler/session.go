package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"raterocket/internal/app"
	"raterocket/internal/model"
	"raterocket/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
}

type UpdateFeedbackRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	MessageIndex *int   `json:"message_index" binding:"required"`
	Feedback     string `json:"feedback"`
	Rating       int    `json:"rating" binding:"min=0,max=5"`
}

type UpdateTitleRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Title     string `json:"title" binding:"required,max=128"`
}

func NewSessionHandler(sessionService *app.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	sessions, err := h.sessionService.ListSessions(userID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sessions failed")
		}
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, gin.H{
			"session_id": session.ID,
			"type":       session.Type,
			"title":      session.Title,
			"updated_at": session.UpdatedAt,
		})
	}
	response.OK(c, gin.H{"sessions": items})
}

// GetSession returns a session with its full message history and warms
// the turn cache for follow-ups.
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		sessionID = strings.TrimSpace(c.GetHeader(sessionIDHeader))
	}
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing session_id")
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get session failed")
		}
		return
	}

	messages := make([]gin.H, 0, len(session.Messages))
	for _, msg := range session.Messages {
		messages = append(messages, gin.H{
			"role":            msg.Role,
			"content":         msg.Content,
			"feedback_text":   msg.FeedbackText,
			"feedback_rating": msg.FeedbackRating,
		})
	}

	data := gin.H{
		"session_id": session.ID,
		"type":       session.Type,
		"title":      session.Title,
		"messages":   messages,
	}
	if session.Type == model.SessionTypeUpload {
		data["document_id"] = session.DocumentID
		data["document_info"] = session.DocumentFields()
	}
	response.OK(c, data)
}

func (h *SessionHandler) UpdateMessageFeedback(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	err := h.sessionService.UpdateMessageFeedback(userID, req.SessionID, *req.MessageIndex, req.Feedback, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrMessageNotFound):
			response.Error(c, http.StatusNotFound, response.CodeMessageNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update message feedback failed")
		}
		return
	}

	response.OK(c, gin.H{
		"session_id":    req.SessionID,
		"message_index": *req.MessageIndex,
	})
}

func (h *SessionHandler) UpdateSessionTitle(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	err := h.sessionService.UpdateSessionTitle(userID, req.SessionID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update session title failed")
		}
		return
	}

	response.OK(c, gin.H{
		"session_id": req.SessionID,
		"title":      req.Title,
	})
}
