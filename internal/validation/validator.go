package validation

import (
	"net/url"
	"regexp"
	"strings"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/util"
)

const (
	MinQuestions = 1
	MaxQuestions = 10
	maxUserIDLen = 64
)

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]+$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSessionID checks that id is a ULID.
func (v *Validator) ValidateSessionID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !util.IsULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", id))
	}
	return errors
}

// ValidateNumQuestions checks the requested question count.
func (v *Validator) ValidateNumQuestions(n int) domain.ValidationErrors {
	if n < MinQuestions || n > MaxQuestions {
		return domain.ValidationErrors{domain.NewOutOfRangeError("num_questions", n, MinQuestions, MaxQuestions)}
	}
	return nil
}

// ValidateVideoURL accepts absolute http(s) URLs only.
func (v *Validator) ValidateVideoURL(raw string) domain.ValidationErrors {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("video_url")}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.ValidationErrors{domain.NewInvalidFormatError("video_url", raw)}
	}
	return nil
}

// ValidateUserID checks the identifier attempts are saved under.
func (v *Validator) ValidateUserID(userID string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(userID) == "" {
		errors = append(errors, domain.NewMissingFieldError("user_id"))
	} else if len(userID) > maxUserIDLen || !userIDPattern.MatchString(userID) {
		errors = append(errors, domain.NewInvalidFormatError("user_id", userID))
	}
	return errors
}

// ValidateSelection checks a choice recorded for one question. The question
// index is checked against the quiz itself.
func (v *Validator) ValidateSelection(quizID, option string) domain.ValidationErrors {
	errors := v.validateQuizID(quizID)
	if strings.TrimSpace(option) == "" {
		errors = append(errors, domain.NewMissingFieldError("option"))
	}
	return errors
}

// ValidateSubmit checks a submission request.
func (v *Validator) ValidateSubmit(quizID, userID string) domain.ValidationErrors {
	errors := v.validateQuizID(quizID)
	errors = append(errors, v.ValidateUserID(userID)...)
	return errors
}

func (v *Validator) validateQuizID(quizID string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(quizID) == "" {
		errors = append(errors, domain.NewMissingFieldError("quiz_id"))
	} else if !util.IsULID(quizID) {
		errors = append(errors, domain.NewInvalidFormatError("quiz_id", quizID))
	}
	return errors
}
