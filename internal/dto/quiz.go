package dto

import (
	"time"

	"quiz-rag/internal/domain"
)

// CreateSessionRequest starts a session.
// @Description api_key overrides the server's provider key for this session only
type CreateSessionRequest struct {
	APIKey string `json:"api_key,omitempty"`
}

// SessionResponse identifies a session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// IngestVideoRequest is the JSON form of a resource upload.
type IngestVideoRequest struct {
	VideoURL string `json:"video_url"`
}

// ResourceResponse describes the active resource of a session.
// @Description Result of ingesting a PDF or video transcript
type ResourceResponse struct {
	ResourceID   string `json:"resource_id,omitempty"`
	ResourceName string `json:"resource_name"`
	ChunkCount   int    `json:"chunk_count"`
	Dimensions   int    `json:"dimensions,omitempty"`
}

// GenerateQuizRequest asks for a new quiz.
type GenerateQuizRequest struct {
	NumQuestions int `json:"num_questions"`
}

// QuestionView is a question without its answer.
type QuestionView struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Selected string   `json:"selected,omitempty"`
}

// QuizResponse is the current quiz of a session. The answer key is withheld.
// @Description questions is empty when the model output could not be parsed
type QuizResponse struct {
	QuizID    string         `json:"quiz_id"`
	Status    string         `json:"status,omitempty"`
	Questions []QuestionView `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

// SelectAnswerRequest records one choice.
type SelectAnswerRequest struct {
	QuizID string `json:"quiz_id"`
	Option string `json:"option"`
}

// SubmitQuizRequest grades a quiz. An empty string in selections leaves that
// question unanswered; omitting selections grades the recorded choices.
type SubmitQuizRequest struct {
	QuizID     string   `json:"quiz_id"`
	UserID     string   `json:"user_id"`
	Selections []string `json:"selections,omitempty"`
}

// SubmitQuizResponse is the score and per-question review.
// @Description saved is false when the attempt could not be persisted
type SubmitQuizResponse struct {
	Score     int                     `json:"score"`
	Total     int                     `json:"total"`
	Saved     bool                    `json:"saved"`
	AttemptID string                  `json:"attempt_id,omitempty"`
	Warning   string                  `json:"warning,omitempty"`
	Review    []domain.QuestionResult `json:"review"`
}

// AttemptResponse is one saved attempt.
type AttemptResponse struct {
	AttemptID      string    `json:"attempt_id"`
	ResourceID     string    `json:"resource_id,omitempty"`
	ResourceTitle  string    `json:"resource_title,omitempty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

// AttemptListResponse is a user's attempt history, newest first.
type AttemptListResponse struct {
	UserID   string            `json:"user_id"`
	Attempts []AttemptResponse `json:"attempts"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// NewQuizResponse renders quiz with the learner's recorded choices.
func NewQuizResponse(quiz *domain.Quiz, selections []domain.Selection, status string) QuizResponse {
	views := make([]QuestionView, len(quiz.Questions))
	for i, q := range quiz.Questions {
		views[i] = QuestionView{Index: i, Question: q.Question, Options: q.Options}
		if i < len(selections) && selections[i].Made {
			views[i].Selected = selections[i].Option
		}
	}
	return QuizResponse{
		QuizID:    quiz.ID,
		Status:    status,
		Questions: views,
		CreatedAt: quiz.CreatedAt,
	}
}

// ToSelections converts request strings into selections.
func ToSelections(in []string) []domain.Selection {
	if in == nil {
		return nil
	}
	out := make([]domain.Selection, len(in))
	for i, s := range in {
		if s != "" {
			out[i] = domain.Select(s)
		}
	}
	return out
}

// NewAttemptListResponse converts repository attempts.
func NewAttemptListResponse(userID string, attempts []*domain.QuizAttempt) AttemptListResponse {
	out := AttemptListResponse{UserID: userID, Attempts: make([]AttemptResponse, 0, len(attempts))}
	for _, a := range attempts {
		out.Attempts = append(out.Attempts, AttemptResponse{
			AttemptID:      a.ID,
			ResourceID:     a.ResourceID,
			ResourceTitle:  a.ResourceTitle,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			AttemptedAt:    a.AttemptedAt,
		})
	}
	return out
}
