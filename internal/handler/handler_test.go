package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/dto"
	"quiz-rag/internal/handler"
	"quiz-rag/internal/middleware"
	"quiz-rag/internal/service"
	"quiz-rag/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Manual Mocks ---

type MockSessionStore struct {
	CreateFunc func(ctx context.Context, credential string) (*service.Session, error)
	GetFunc    func(ctx context.Context, id string) (*service.Session, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *MockSessionStore) Create(ctx context.Context, credential string) (*service.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, credential)
	}
	panic("MockSessionStore.CreateFunc not implemented")
}
func (m *MockSessionStore) Get(ctx context.Context, id string) (*service.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	panic("MockSessionStore.GetFunc not implemented")
}
func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	panic("MockSessionStore.DeleteFunc not implemented")
}
func (m *MockSessionStore) Len() int { return 1 }

type MockIngestionService struct {
	IngestFunc func(ctx context.Context, sess *service.Session, src domain.Source, displayName string) (*service.IngestResult, error)
}

func (m *MockIngestionService) Ingest(ctx context.Context, sess *service.Session, src domain.Source, displayName string) (*service.IngestResult, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, sess, src, displayName)
	}
	panic("MockIngestionService.IngestFunc not implemented")
}

type MockQuizService struct {
	GenerateFunc func(ctx context.Context, sess *service.Session, n int) (*service.GeneratedQuiz, error)
	SelectFunc   func(sess *service.Session, quizID string, index int, option string) error
	SubmitFunc   func(ctx context.Context, sess *service.Session, userID, quizID string, selections []domain.Selection) (*service.SubmitResult, error)
}

func (m *MockQuizService) Generate(ctx context.Context, sess *service.Session, n int) (*service.GeneratedQuiz, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, sess, n)
	}
	panic("MockQuizService.GenerateFunc not implemented")
}
func (m *MockQuizService) Select(sess *service.Session, quizID string, index int, option string) error {
	if m.SelectFunc != nil {
		return m.SelectFunc(sess, quizID, index, option)
	}
	panic("MockQuizService.SelectFunc not implemented")
}
func (m *MockQuizService) Submit(ctx context.Context, sess *service.Session, userID, quizID string, selections []domain.Selection) (*service.SubmitResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, sess, userID, quizID, selections)
	}
	panic("MockQuizService.SubmitFunc not implemented")
}

type MockAttemptService struct {
	ListAttemptsFunc func(ctx context.Context, userID string) ([]*domain.QuizAttempt, error)
}

func (m *MockAttemptService) ListAttempts(ctx context.Context, userID string) ([]*domain.QuizAttempt, error) {
	if m.ListAttemptsFunc != nil {
		return m.ListAttemptsFunc(ctx, userID)
	}
	panic("MockAttemptService.ListAttemptsFunc not implemented")
}

// --- Fixture ---

type fixture struct {
	app       *fiber.App
	store     *MockSessionStore
	ingestion *MockIngestionService
	quizzes   *MockQuizService
	attempts  *MockAttemptService
	session   *service.Session
	uploadDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sess := service.NewSession(util.NewULID(), nil, nil)
	f := &fixture{
		store:     &MockSessionStore{},
		ingestion: &MockIngestionService{},
		quizzes:   &MockQuizService{},
		attempts:  &MockAttemptService{},
		session:   sess,
		uploadDir: t.TempDir(),
	}
	f.store.GetFunc = func(_ context.Context, id string) (*service.Session, error) {
		if id == sess.ID {
			return sess, nil
		}
		return nil, domain.NewNotFoundError("session not found")
	}

	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	f.app.Get("/healthz", handler.Health(f.store))
	handler.RegisterRoutes(
		f.app.Group("/api"),
		handler.NewSessionHandler(f.store, f.ingestion, f.quizzes, f.uploadDir),
		handler.NewAttemptHandler(f.attempts),
		middleware.NewValidationMiddleware(f.store),
	)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func sampleQuiz() *domain.Quiz {
	return domain.NewQuiz(util.NewULID(), []domain.QuizQuestion{
		{Question: "Capital of France?", Options: []string{"Paris", "London", "Rome"}, CorrectAnswer: "A", Explanation: "Paris."},
		{Question: "Capital of Spain?", Options: []string{"Lisbon", "Madrid"}, CorrectAnswer: "Madrid"},
	})
}

// --- Tests ---

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.HealthResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	var gotCredential string
	f.store.CreateFunc = func(_ context.Context, credential string) (*service.Session, error) {
		gotCredential = credential
		return f.session, nil
	}

	resp := f.do(t, http.MethodPost, "/api/sessions", dto.CreateSessionRequest{APIKey: " sk-test "})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var body dto.SessionResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, f.session.ID, body.SessionID)
	assert.Equal(t, "sk-test", gotCredential)

	resp = f.do(t, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, gotCredential)
}

func TestCreateSession_ProviderError(t *testing.T) {
	f := newFixture(t)
	f.store.CreateFunc = func(context.Context, string) (*service.Session, error) {
		return nil, domain.NewInvalidInputError("an OpenAI API key is required")
	}
	resp := f.do(t, http.MethodPost, "/api/sessions", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	var deleted string
	f.store.DeleteFunc = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}

	resp := f.do(t, http.MethodDelete, "/api/sessions/"+f.session.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, f.session.ID, deleted)

	resp = f.do(t, http.MethodDelete, "/api/sessions/"+util.NewULID(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIngestResource_Video(t *testing.T) {
	f := newFixture(t)
	const videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	f.ingestion.IngestFunc = func(_ context.Context, sess *service.Session, src domain.Source, displayName string) (*service.IngestResult, error) {
		assert.Same(t, f.session, sess)
		assert.Equal(t, domain.Source{URL: videoURL}, src)
		assert.Empty(t, displayName)
		return &service.IngestResult{ResourceName: videoURL, ChunkCount: 3, Dimensions: 2}, nil
	}

	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/resource", dto.IngestVideoRequest{VideoURL: videoURL})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.ResourceResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, videoURL, body.ResourceName)
	assert.Equal(t, 3, body.ChunkCount)
}

func TestIngestResource_InvalidVideoURL(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/resource", dto.IngestVideoRequest{VideoURL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestResource_SourceUnavailable(t *testing.T) {
	f := newFixture(t)
	f.ingestion.IngestFunc = func(context.Context, *service.Session, domain.Source, string) (*service.IngestResult, error) {
		return nil, domain.NewSourceUnavailableError("no transcript available", nil)
	}
	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/resource",
		dto.IngestVideoRequest{VideoURL: "https://youtu.be/abc"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestIngestResource_PDFUpload(t *testing.T) {
	f := newFixture(t)
	var storedPath string
	f.ingestion.IngestFunc = func(_ context.Context, _ *service.Session, src domain.Source, displayName string) (*service.IngestResult, error) {
		storedPath = src.Path
		assert.Equal(t, f.uploadDir, filepath.Dir(src.Path))
		content, err := os.ReadFile(src.Path)
		assert.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 fake", string(content))
		assert.Equal(t, "notes.pdf", displayName)
		return &service.IngestResult{ResourceName: displayName, ChunkCount: 2}, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+f.session.ID+"/resource", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotEmpty(t, storedPath)
	_, err = os.Stat(storedPath)
	assert.True(t, os.IsNotExist(err), "upload is removed after ingestion")
}

func TestIngestResource_MultipartWithoutFile(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("other", "x"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+f.session.ID+"/resource", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateQuiz(t *testing.T) {
	f := newFixture(t)
	quiz := sampleQuiz()
	var gotN int
	f.quizzes.GenerateFunc = func(_ context.Context, _ *service.Session, n int) (*service.GeneratedQuiz, error) {
		gotN = n
		return &service.GeneratedQuiz{Quiz: quiz, Status: domain.SynthesisParsed}, nil
	}

	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz", nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 5, gotN, "defaults to five questions")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_answer")
	var body dto.QuizResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, quiz.ID, body.QuizID)
	assert.Equal(t, "parsed", body.Status)
	require.Len(t, body.Questions, 2)
	assert.Equal(t, []string{"Paris", "London", "Rome"}, body.Questions[0].Options)

	resp = f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz", dto.GenerateQuizRequest{NumQuestions: 2})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, gotN)
}

func TestGenerateQuiz_OutOfRange(t *testing.T) {
	f := newFixture(t)
	for _, n := range []int{-1, 11} {
		resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz", dto.GenerateQuizRequest{NumQuestions: n})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, n)
	}
}

func TestGenerateQuiz_ParseFailedIsEmptyArray(t *testing.T) {
	f := newFixture(t)
	f.quizzes.GenerateFunc = func(context.Context, *service.Session, int) (*service.GeneratedQuiz, error) {
		return &service.GeneratedQuiz{Quiz: domain.NewQuiz(util.NewULID(), nil), Status: domain.SynthesisParseFailed}, nil
	}

	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz", dto.GenerateQuizRequest{NumQuestions: 3})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `"questions":[]`)
	assert.Contains(t, string(raw), `"status":"parse_failed"`)
}

func TestGenerateQuiz_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewNoResourceError(), http.StatusConflict},
		{domain.NewLLMServiceError(errors.New("timeout")), http.StatusServiceUnavailable},
		{domain.NewEmbeddingFailureError("down", nil), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.quizzes.GenerateFunc = func(context.Context, *service.Session, int) (*service.GeneratedQuiz, error) {
			return nil, tt.err
		}
		resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz", nil)
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
	}
}

func TestGetQuiz_NoResource(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/sessions/"+f.session.ID+"/quiz", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body middleware.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, string(domain.CodeNoResource), body.Code)
}

func TestSelectAnswer(t *testing.T) {
	f := newFixture(t)
	quizID := util.NewULID()
	var got struct {
		quizID string
		index  int
		option string
	}
	f.quizzes.SelectFunc = func(_ *service.Session, id string, index int, option string) error {
		got.quizID, got.index, got.option = id, index, option
		return nil
	}

	resp := f.do(t, http.MethodPut, "/api/sessions/"+f.session.ID+"/quiz/answers/1",
		dto.SelectAnswerRequest{QuizID: quizID, Option: "Madrid"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, quizID, got.quizID)
	assert.Equal(t, 1, got.index)
	assert.Equal(t, "Madrid", got.option)
}

func TestSelectAnswer_Invalid(t *testing.T) {
	f := newFixture(t)
	quizID := util.NewULID()

	resp := f.do(t, http.MethodPut, "/api/sessions/"+f.session.ID+"/quiz/answers/first",
		dto.SelectAnswerRequest{QuizID: quizID, Option: "Madrid"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/sessions/"+f.session.ID+"/quiz/answers/0",
		dto.SelectAnswerRequest{QuizID: quizID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.quizzes.SelectFunc = func(*service.Session, string, int, string) error {
		return domain.NewQuizStaleError(quizID)
	}
	resp = f.do(t, http.MethodPut, "/api/sessions/"+f.session.ID+"/quiz/answers/0",
		dto.SelectAnswerRequest{QuizID: quizID, Option: "Paris"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitQuiz(t *testing.T) {
	f := newFixture(t)
	quizID := util.NewULID()
	var gotSelections []domain.Selection
	f.quizzes.SubmitFunc = func(_ context.Context, _ *service.Session, userID, id string, selections []domain.Selection) (*service.SubmitResult, error) {
		assert.Equal(t, "learner", userID)
		assert.Equal(t, quizID, id)
		gotSelections = selections
		return &service.SubmitResult{
			GradeResult: domain.GradeResult{Score: 1, Total: 2, Results: []domain.QuestionResult{
				{Index: 0, Selected: "Paris", Answered: true, SelectedLetter: "A", Correct: true, Gradable: true, CorrectOption: "Paris"},
				{Index: 1, Gradable: true, CorrectOption: "Madrid"},
			}},
			Saved:   false,
			Warning: "score could not be saved: connection refused",
		}, nil
	}

	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz/submit",
		dto.SubmitQuizRequest{QuizID: quizID, UserID: "learner", Selections: []string{"Paris", ""}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.SubmitQuizResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Score)
	assert.Equal(t, 2, body.Total)
	assert.False(t, body.Saved)
	assert.Contains(t, body.Warning, "could not be saved")
	require.Len(t, body.Review, 2)
	assert.Equal(t, "Madrid", body.Review[1].CorrectOption)
	assert.Equal(t, []domain.Selection{domain.Select("Paris"), {}}, gotSelections)
}

func TestSubmitQuiz_RecordedSelections(t *testing.T) {
	f := newFixture(t)
	f.quizzes.SubmitFunc = func(_ context.Context, _ *service.Session, _, _ string, selections []domain.Selection) (*service.SubmitResult, error) {
		assert.Nil(t, selections, "omitted selections grade the recorded choices")
		return &service.SubmitResult{GradeResult: domain.GradeResult{Results: []domain.QuestionResult{}}}, nil
	}
	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz/submit",
		dto.SubmitQuizRequest{QuizID: util.NewULID(), UserID: "learner"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitQuiz_Validation(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/api/sessions/"+f.session.ID+"/quiz/submit", dto.SubmitQuizRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body middleware.ValidationErrorResponse
	decodeBody(t, resp, &body)
	assert.Len(t, body.Errors, 2)
}

func TestSessionRoutes_BadSessionID(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/sessions/xyz/quiz", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/sessions/"+util.NewULID()+"/quiz", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListAttempts(t *testing.T) {
	f := newFixture(t)
	f.attempts.ListAttemptsFunc = func(_ context.Context, userID string) ([]*domain.QuizAttempt, error) {
		assert.Equal(t, "learner", userID)
		return []*domain.QuizAttempt{{ID: "A1", UserID: userID, ResourceTitle: "capitals.pdf", Score: 1, TotalQuestions: 2}}, nil
	}

	resp := f.do(t, http.MethodGet, "/api/users/learner/attempts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.AttemptListResponse
	decodeBody(t, resp, &body)
	require.Len(t, body.Attempts, 1)
	assert.Equal(t, "capitals.pdf", body.Attempts[0].ResourceTitle)

	f.attempts.ListAttemptsFunc = func(context.Context, string) ([]*domain.QuizAttempt, error) {
		return nil, domain.NewInternalError("Failed to list quiz attempts", errors.New("db down"))
	}
	resp = f.do(t, http.MethodGet, "/api/users/learner/attempts", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
