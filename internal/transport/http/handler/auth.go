package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"raterocket/internal/app"
	"raterocket/internal/transport/http/middleware"
	"raterocket/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type LoginRequest struct {
	Email string `json:"email" binding:"required,email,max=128"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email,max=128"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

type UpdateUserRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login requests an OTP for the given email. The code travels only
// through the mail channel.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	expiry, err := h.authService.RequestOTP(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "send otp failed")
		}
		return
	}

	response.OK(c, gin.H{
		"email":      req.Email,
		"expires_at": expiry.Unix(),
	})
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	expiry, err := h.authService.ResendOTP(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resend otp failed")
		}
		return
	}

	response.OK(c, gin.H{
		"email":      req.Email,
		"expires_at": expiry.Unix(),
	})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidOTP):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidOTP, err.Error())
		case errors.Is(err, app.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "verify otp failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token":          result.Token,
		"is_first_login": result.IsFirstLogin,
		"user": gin.H{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.Name,
		},
	})
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.authService.UpdateName(userID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update user failed")
		}
		return
	}

	response.OK(c, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}
