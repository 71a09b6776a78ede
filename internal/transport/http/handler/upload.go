package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"raterocket/internal/app"
	"raterocket/internal/extract"
	"raterocket/internal/transport/http/response"
)

type UploadHandler struct {
	uploadService *app.UploadService
}

type RefineRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewUploadHandler(uploadService *app.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload ingests a loan document from a multipart form. A missing
// Session-Id header starts a new upload session.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file upload")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
		return
	}

	result, err := h.uploadService.IngestDocument(c.Request.Context(), app.IngestInput{
		UserID:    userID,
		SessionID: strings.TrimSpace(c.GetHeader(sessionIDHeader)),
		Content:   content,
		Filename:  fileHeader.Filename,
	})
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFormat, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrMirrorEnqueue):
			response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "document upload failed")
		}
		return
	}

	// document_id is an explicit null for outcomes that report no
	// document to the caller.
	var documentID interface{}
	if result.DocumentID != "" {
		documentID = result.DocumentID
	}

	response.OK(c, gin.H{
		"outcome":        result.Outcome,
		"session_id":     result.SessionID,
		"document_id":    documentID,
		"message":        result.Message,
		"extracted_info": result.ExtractedInfo,
		"confidence":     result.Confidence,
		"consent":        result.Consent,
		"is_updated":     result.IsUpdated,
	})
}

// Refine runs a follow-up turn on an existing upload session.
func (h *UploadHandler) Refine(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID := strings.TrimSpace(c.GetHeader(sessionIDHeader))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing Session-Id header")
		return
	}

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.uploadService.RefineDocument(c.Request.Context(), app.RefineInput{
		SessionID: sessionID,
		Message:   req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "refinement turn failed")
		}
		return
	}

	response.OK(c, gin.H{
		"session_id":     result.SessionID,
		"message":        result.Message,
		"extracted_info": result.ExtractedInfo,
		"consent":        result.Consent,
	})
}
