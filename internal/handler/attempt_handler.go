package handler

import (
	"quiz-rag/internal/dto"
	"quiz-rag/internal/service"
	"quiz-rag/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AttemptHandler serves saved quiz attempts
type AttemptHandler struct {
	service   service.AttemptService
	validator *validation.Validator
}

// NewAttemptHandler creates a new AttemptHandler instance
func NewAttemptHandler(service service.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service, validator: validation.NewValidator()}
}

// ListAttempts godoc
// @Summary List a user's attempts
// @Description Returns the most recent saved attempts, newest first.
// @Tags attempts
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} dto.AttemptListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /users/{userID}/attempts [get]
func (h *AttemptHandler) ListAttempts(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if errs := h.validator.ValidateUserID(userID); len(errs) > 0 {
		return errs
	}

	attempts, err := h.service.ListAttempts(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAttemptListResponse(userID, attempts))
}
