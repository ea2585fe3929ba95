package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mamoski/relaydeck/internal/config"
	"github.com/mamoski/relaydeck/internal/service"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Auth      *service.AuthService
	Submit    *service.SubmitService
	Telemetry *service.TelemetryService
	Flusher   *service.OutboxFlusher
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := service.NewRedisClient(&cfg.Redis)

	// Initialize services
	userStore := service.NewUserAccounts(db)
	sessionStore := service.NewRedisSessions(redisClient)
	authService, err := service.NewAuthService(&cfg.Auth, userStore, sessionStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	// Audit trail for session activity
	authService.OnSessionChange(func(event service.SessionEvent) {
		logger.Info("Session change",
			zap.String("event", event.Type),
			zap.String("user_id", event.Identity.UserID),
			zap.String("email", event.Identity.Email))
	})

	relayClient, err := service.NewRelayClient(&cfg.Relay, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize relay client: %w", err)
	}

	uploadStore := service.NewUploadStore(db, logger)
	submitService := service.NewSubmitService(relayClient, uploadStore, logger)
	telemetryService := service.NewTelemetryService(uploadStore, logger)
	flusher := service.NewOutboxFlusher(&cfg.Outbox, logger, uploadStore)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Logger:    logger,
		Auth:      authService,
		Submit:    submitService,
		Telemetry: telemetryService,
		Flusher:   flusher,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", s.handleSignUp)
			auth.POST("/login", s.handleLogin)
			auth.POST("/logout", s.handleLogout)
			auth.GET("/session", s.requireSession, s.handleSession)
			auth.POST("/totp/enroll", s.requireSession, s.handleEnrollTOTP)
		}

		api.GET("/platforms", s.handlePlatforms)

		uploads := api.Group("/uploads", s.requireSession)
		{
			uploads.POST("", s.handleSubmitUpload)
			uploads.GET("", s.handleListUploads)
		}

		api.GET("/analytics/summary", s.requireSession, s.handleAnalyticsSummary)
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Start outbox flusher
	if err := s.Flusher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start outbox flusher: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop outbox flusher first
	s.Flusher.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
