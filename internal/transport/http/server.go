package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"raterocket/internal/ai"
	appsvc "raterocket/internal/app"
	"raterocket/internal/bootstrap"
	"raterocket/internal/cache"
	"raterocket/internal/extract"
	"raterocket/internal/pkg/mailer"
	rabbitmqClient "raterocket/internal/platform/rabbitmq"
	"raterocket/internal/repository"
	"raterocket/internal/transport/http/handler"
	"raterocket/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)

	sessionCache := cache.NewSessionCache(app.Redis, time.Duration(app.Config.Redis.ConversationTTLSeconds)*time.Second)
	otpCache := cache.NewOTPCache(app.Redis, time.Duration(app.Config.Redis.OTPTTLSeconds)*time.Second)
	publisher := rabbitmqClient.NewSnapshotPublisher(app.MQConn, app.Config.RabbitMQ.SessionMirrorQueue)
	gateway := ai.NewClient(ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	})
	otpSender := mailer.NewSMTPSender(
		app.Config.SMTP.Host,
		app.Config.SMTP.Port,
		app.Config.SMTP.Username,
		app.Config.SMTP.Password,
		app.Config.SMTP.Sender,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		otpCache,
		otpSender,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(sessionRepo, documentRepo, sessionCache, gateway, publisher, app.Log)
	uploadService := appsvc.NewUploadService(sessionRepo, documentRepo, sessionCache, gateway, publisher, extract.Text, app.Log)
	sessionService := appsvc.NewSessionService(sessionRepo, sessionCache)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	sessionHandler := handler.NewSessionHandler(sessionService)

	router.POST("/login", authHandler.Login)
	router.POST("/resend_otp", authHandler.ResendOTP)
	router.POST("/verify_otp", authHandler.VerifyOTP)

	authed := router.Group("/")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/update_user", authHandler.UpdateUser)
	authed.POST("/kv-chat", chatHandler.Converse)
	authed.POST("/upload", uploadHandler.Upload)
	authed.POST("/upload_chat", uploadHandler.Refine)
	authed.GET("/sessions", sessionHandler.ListSessions)
	authed.GET("/session", sessionHandler.GetSession)
	authed.POST("/update_message_feedback", sessionHandler.UpdateMessageFeedback)
	authed.POST("/update_session_title", sessionHandler.UpdateSessionTitle)

	return router
}
