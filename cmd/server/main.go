package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biolab/datalab/internal/assistant"
	"github.com/biolab/datalab/internal/auth"
	"github.com/biolab/datalab/internal/config"
	"github.com/biolab/datalab/internal/database"
	"github.com/biolab/datalab/internal/events"
	"github.com/biolab/datalab/internal/gate"
	"github.com/biolab/datalab/internal/mail"
	"github.com/biolab/datalab/internal/middleware"
	"github.com/biolab/datalab/internal/ratelimit"
	"github.com/biolab/datalab/internal/token"
	"github.com/biolab/datalab/internal/user"
	"github.com/biolab/datalab/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const minSecretLength = 32

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting DataLab", zap.String("env", cfg.Env))

	ctx := context.Background()

	// Connect to PostgreSQL
	db, err := database.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Connect to Redis
	redisClient, err := database.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	health := database.NewHealth(2 * time.Second)
	health.Register("postgres", db.PingContext)
	health.Register("redis", database.RedisPing(redisClient))

	// Session authority
	sessions, err := token.NewService(cfg.Session.Secret)
	if errors.Is(err, token.ErrMissingSecret) {
		logger.Fatal("Refusing to start without a signing secret", zap.Error(err))
	}
	if err != nil {
		logger.Fatal("Failed to initialize session service", zap.Error(err))
	}
	if len(cfg.Session.Secret) < minSecretLength {
		logger.Warn("JWT_SECRET is shorter than recommended", zap.Int("min_length", minSecretLength))
	}

	policy, err := gate.NewPolicy(sessions, cfg.Gate.LandingPath, append(
		gate.RulesFromPrefixes(gate.Protected, cfg.Gate.ProtectedPaths),
		gate.RulesFromPrefixes(gate.Public, cfg.Gate.PublicPaths)...,
	)...)
	if err != nil {
		logger.Fatal("Invalid gate configuration", zap.Error(err))
	}

	// Initialize services
	accounts := user.NewRepository(db)
	rateLimiter := ratelimit.NewLimiter(
		redisClient,
		cfg.RateLimit.Window,
		cfg.RateLimit.MaxAttempts,
		cfg.RateLimit.LockoutDuration,
		logger,
	)
	authService := auth.NewService(accounts, sessions, rateLimiter, logger)

	var eventStore events.Store = events.NewMemoryStore()
	if cfg.Events.Store == "redis" {
		eventStore = events.NewRedisStore(redisClient, events.RedisKey)
	}
	logger.Info("Calendar store selected", zap.String("store", cfg.Events.Store))

	// Initialize handlers
	authHandler := auth.NewHandler(authService, cfg.Session.CookieName, cfg.SecureCookies())
	eventsHandler := events.NewHandler(eventStore, logger)
	pages := web.NewHandler()

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(web.Templates())

	// Global middleware
	allowedOrigins := middleware.ParseAllowedOrigins(cfg.CORS.AllowedOrigins)
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.PageGate(policy, cfg.Session.CookieName, cfg.SecureCookies(), logger))

	// Operational routes
	router.GET("/health", health.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Pages
	router.GET("/", pages.Landing)
	router.GET("/datalab", pages.Dashboard)
	router.GET("/datalab/*section", pages.Dashboard)

	requireSession := middleware.Auth(sessions, logger)
	api := router.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/verify", authHandler.Verify)
		authGroup.GET("/me", requireSession, authHandler.Me)
	}

	calendar := api.Group("/calendar", requireSession)
	{
		calendar.GET("/events", eventsHandler.List)
		calendar.POST("/events", eventsHandler.Create)
		calendar.DELETE("/events/:id", eventsHandler.Delete)
	}

	// Collaborator routes are only served when configured
	if cfg.OpenAI.Enabled() {
		assistantHandler := assistant.NewHandler(assistant.NewService(cfg.OpenAI, nil, logger))
		group := api.Group("/assistant", requireSession)
		group.POST("/chat", assistantHandler.Chat)
		group.POST("/transcribe", assistantHandler.Transcribe)
	} else {
		logger.Info("Assistant disabled (OPENAI_API_KEY not set)")
	}

	if cfg.Graph.Enabled() {
		mailHandler := mail.NewHandler(mail.NewGraphClient(ctx, cfg.Graph, logger))
		api.POST("/email/send", requireSession, middleware.RequirePermission("email:send"), mailHandler.Send)
	} else {
		logger.Info("Email disabled (GRAPH_* not configured)")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
