package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"raterocket/internal/app"
	"raterocket/internal/transport/http/response"
)

const sessionIDHeader = "Session-Id"

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatTurnRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Converse runs one freeform chat turn. A missing Session-Id header
// starts a new chat session.
func (h *ChatHandler) Converse(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ChatTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Converse(c.Request.Context(), app.ConverseInput{
		UserID:    userID,
		SessionID: strings.TrimSpace(c.GetHeader(sessionIDHeader)),
		Message:   req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrMirrorEnqueue):
			response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "chat turn failed")
		}
		return
	}

	response.OK(c, result)
}
