// @title Quiz RAG API
// @version 1.0
// @description Generates multiple-choice quizzes from PDFs and video transcripts and grades the answers.
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "quiz-rag/cmd/api/docs"
	"quiz-rag/internal/app"
	"quiz-rag/internal/config"
	"quiz-rag/internal/handler"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		appLogger.Fatal("Failed to create upload directory", zap.String("dir", cfg.Server.UploadDir), zap.Error(err))
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLogger.Warn("Failed to close connections", zap.Error(err))
		}
	}()

	sessionHandler := handler.NewSessionHandler(a.Sessions, a.Ingestion, a.Quizzes, cfg.Server.UploadDir)
	attemptHandler := handler.NewAttemptHandler(a.Attempts)
	validationMiddleware := middleware.NewValidationMiddleware(a.Sessions)

	server := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	server.Use(requestLogger())
	server.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	server.Use(recover.New())

	server.Get("/swagger/*", swagger.HandlerDefault)
	server.Get("/healthz", handler.Health(a.Sessions))

	handler.RegisterRoutes(server.Group("/api"), sessionHandler, attemptHandler, validationMiddleware)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := server.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
