package handler

import (
	"quiz-rag/internal/dto"
	"quiz-rag/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /healthz [get]
func Health(sessions SessionCounter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Sessions: sessions.Len()})
	}
}

// RegisterRoutes mounts the API under api.
func RegisterRoutes(api fiber.Router, sessions *SessionHandler, attempts *AttemptHandler, vm *middleware.ValidationMiddleware) {
	api.Post("/sessions", sessions.CreateSession)

	load := vm.LoadSession()
	api.Delete("/sessions/:id", load, sessions.DeleteSession)
	api.Post("/sessions/:id/resource", load, sessions.IngestResource)
	api.Post("/sessions/:id/quiz", load, sessions.GenerateQuiz)
	api.Get("/sessions/:id/quiz", load, sessions.GetQuiz)
	api.Put("/sessions/:id/quiz/answers/:index", load, sessions.SelectAnswer)
	api.Post("/sessions/:id/quiz/submit", load, sessions.SubmitQuiz)

	api.Get("/users/:userID/attempts", attempts.ListAttempts)
}
