package middleware

import (
	"context"

	"quiz-rag/internal/service"
	"quiz-rag/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const sessionLocalKey = "session"

// SessionGetter looks up live sessions.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*service.Session, error)
}

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
	sessions  SessionGetter
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(sessions SessionGetter) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
		sessions:  sessions,
	}
}

// LoadSession validates the :id path parameter and stores the session it
// names for the handler.
func (vm *ValidationMiddleware) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateSessionID(id); len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		sess, err := vm.sessions.Get(c.UserContext(), id)
		if err != nil {
			return err
		}

		c.Locals(sessionLocalKey, sess)
		return c.Next()
	}
}

// SessionFrom returns the session stored by LoadSession, or nil.
func SessionFrom(c *fiber.Ctx) *service.Session {
	sess, _ := c.Locals(sessionLocalKey).(*service.Session)
	return sess
}
