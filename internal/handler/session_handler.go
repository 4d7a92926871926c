package handler

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/dto"
	"quiz-rag/internal/logger"
	"quiz-rag/internal/middleware"
	"quiz-rag/internal/service"
	"quiz-rag/internal/util"
	"quiz-rag/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultNumQuestions = 5

// SessionStore creates and ends sessions.
type SessionStore interface {
	Create(ctx context.Context, credential string) (*service.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionHandler handles session, resource and quiz requests
type SessionHandler struct {
	sessions  SessionStore
	ingestion service.IngestionService
	quizzes   service.QuizService
	validator *validation.Validator
	uploadDir string
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(sessions SessionStore, ingestion service.IngestionService, quizzes service.QuizService, uploadDir string) *SessionHandler {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &SessionHandler{
		sessions:  sessions,
		ingestion: ingestion,
		quizzes:   quizzes,
		validator: validation.NewValidator(),
		uploadDir: uploadDir,
	}
}

// CreateSession godoc
// @Summary Start a session
// @Description Creates an empty session. api_key optionally overrides the server's provider key.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest false "Session options"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}
	}

	sess, err := h.sessions.Create(c.UserContext(), strings.TrimSpace(req.APIKey))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SessionResponse{SessionID: sess.ID})
}

// DeleteSession godoc
// @Summary End a session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	if err := h.sessions.Delete(c.UserContext(), sess.ID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IngestResource godoc
// @Summary Load a learning resource
// @Description Upload a PDF as multipart field "file", or send a JSON body with video_url.
// @Description Replaces the session's resource and discards its quiz.
// @Tags sessions
// @Accept mpfd,json
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file false "PDF document"
// @Param request body dto.IngestVideoRequest false "Video transcript source"
// @Success 200 {object} dto.ResourceResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /sessions/{id}/resource [post]
func (h *SessionHandler) IngestResource(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	var (
		src         domain.Source
		displayName string
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return domain.ValidationErrors{domain.NewMissingFieldError("file")}
		}
		path := filepath.Join(h.uploadDir, util.NewULID()+filepath.Ext(fh.Filename))
		if err := c.SaveFile(fh, path); err != nil {
			return domain.NewInternalError("Failed to store upload", err)
		}
		defer func() {
			if err := os.Remove(path); err != nil {
				logger.Get().Warn("Failed to remove upload", zap.String("path", path), zap.Error(err))
			}
		}()
		src = domain.Source{Path: path}
		displayName = filepath.Base(fh.Filename)
	} else {
		var req dto.IngestVideoRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}
		if errs := h.validator.ValidateVideoURL(req.VideoURL); len(errs) > 0 {
			return errs
		}
		src = domain.Source{URL: strings.TrimSpace(req.VideoURL)}
	}

	res, err := h.ingestion.Ingest(c.UserContext(), sess, src, displayName)
	if err != nil {
		return err
	}
	return c.JSON(dto.ResourceResponse{
		ResourceID:   res.ResourceID,
		ResourceName: res.ResourceName,
		ChunkCount:   res.ChunkCount,
		Dimensions:   res.Dimensions,
	})
}

// GenerateQuiz godoc
// @Summary Generate a quiz
// @Description Generates num_questions (default 5, 1..10) questions from the session's resource.
// @Description The answer key is withheld. questions is empty when the model output could not be parsed.
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.GenerateQuizRequest false "Question count"
// @Success 201 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /sessions/{id}/quiz [post]
func (h *SessionHandler) GenerateQuiz(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	req := dto.GenerateQuizRequest{NumQuestions: defaultNumQuestions}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}
	}
	if errs := h.validator.ValidateNumQuestions(req.NumQuestions); len(errs) > 0 {
		return errs
	}

	generated, err := h.quizzes.Generate(c.UserContext(), sess, req.NumQuestions)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizResponse(generated.Quiz, nil, generated.Status.String()))
}

// GetQuiz godoc
// @Summary Get the current quiz
// @Tags quiz
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.QuizResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/quiz [get]
func (h *SessionHandler) GetQuiz(c *fiber.Ctx) error {
	snap := middleware.SessionFrom(c).Snapshot()
	if snap.Quiz == nil {
		if snap.ChunkCount == 0 {
			return domain.NewNoResourceError()
		}
		return domain.NewNoQuizError()
	}
	return c.JSON(dto.NewQuizResponse(snap.Quiz, snap.Selections, ""))
}

// SelectAnswer godoc
// @Summary Record a choice
// @Description Records the selected option for one question of the current quiz.
// @Tags quiz
// @Accept json
// @Param id path string true "Session ID"
// @Param index path int true "Question index"
// @Param request body dto.SelectAnswerRequest true "Choice"
// @Success 204
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/quiz/answers/{index} [put]
func (h *SessionHandler) SelectAnswer(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	index, err := c.ParamsInt("index")
	if err != nil {
		return domain.ValidationErrors{domain.NewInvalidFormatError("index", c.Params("index"))}
	}

	var req dto.SelectAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateSelection(req.QuizID, req.Option); len(errs) > 0 {
		return errs
	}

	if err := h.quizzes.Select(sess, req.QuizID, index, req.Option); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitQuiz godoc
// @Summary Submit the current quiz
// @Description Grades the quiz and saves the attempt under user_id. A failed save is reported in warning.
// @Tags quiz
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SubmitQuizRequest true "Submission"
// @Success 200 {object} dto.SubmitQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/quiz/submit [post]
func (h *SessionHandler) SubmitQuiz(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	var req dto.SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if errs := h.validator.ValidateSubmit(req.QuizID, req.UserID); len(errs) > 0 {
		return errs
	}

	res, err := h.quizzes.Submit(c.UserContext(), sess, req.UserID, req.QuizID, dto.ToSelections(req.Selections))
	if err != nil {
		return err
	}
	return c.JSON(dto.SubmitQuizResponse{
		Score:     res.Score,
		Total:     res.Total,
		Saved:     res.Saved,
		AttemptID: res.AttemptID,
		Warning:   res.Warning,
		Review:    res.Results,
	})
}
