package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/service"
	"quiz-rag/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestErrorHandler_DomainErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewInvalidInputError("bad"), http.StatusBadRequest},
		{domain.NewNotFoundError("gone"), http.StatusNotFound},
		{domain.NewQuizStaleError("01HZX3J6Q4E3W1B7D0ZC8K2M9T"), http.StatusConflict},
		{domain.NewNoResourceError(), http.StatusConflict},
		{domain.NewNoQuizError(), http.StatusConflict},
		{domain.NewSourceUnavailableError("no transcript", nil), http.StatusUnprocessableEntity},
		{domain.NewEmbeddingFailureError("down", errors.New("x")), http.StatusServiceUnavailable},
		{domain.NewLLMServiceError(errors.New("timeout")), http.StatusServiceUnavailable},
		{domain.NewDimensionMismatchError(3, 2), http.StatusServiceUnavailable},
		{domain.NewInternalError("boom", nil), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", domain.NewNoQuizError()), http.StatusConflict},
	}

	for _, tt := range tests {
		app := newTestApp()
		app.Get("/", func(c *fiber.Ctx) error { return tt.err })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())

		var body ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, tt.status, body.Status)
		assert.NotEmpty(t, body.Code)
	}
}

func TestErrorHandler_StaleQuizDetails(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error { return domain.NewQuizStaleError("Q1") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, string(domain.CodeQuizStale), body.Code)
	assert.Equal(t, "Q1", body.Details["quiz_id"])
}

func TestErrorHandler_ValidationErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error {
		return domain.ValidationErrors{domain.NewMissingFieldError("user_id")}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ValidationErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, string(domain.CodeValidation), body.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "user_id", body.Errors[0].Field)
}

func TestErrorHandler_FiberAndUnknownErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusRequestEntityTooLarge, "too big") })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("secret detail") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "Internal server error", body.Message)
}

type stubSessions map[string]*service.Session

func (s stubSessions) Get(_ context.Context, id string) (*service.Session, error) {
	if sess, ok := s[id]; ok {
		return sess, nil
	}
	return nil, domain.NewNotFoundError("session not found")
}

func TestLoadSession(t *testing.T) {
	id := util.NewULID()
	sessions := stubSessions{id: service.NewSession(id, nil, nil)}

	app := newTestApp()
	vm := NewValidationMiddleware(sessions)
	app.Get("/sessions/:id", vm.LoadSession(), func(c *fiber.Ctx) error {
		return c.SendString(SessionFrom(c).ID)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, id, string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sessions/not-a-ulid", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sessions/"+util.NewULID(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
