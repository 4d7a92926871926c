package domain

import (
	"context"
	"strings"
	"time"
)

// QuizQuestion is one generated multiple-choice item. The JSON tags are the
// schema the model is asked to produce.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// AnswerKeyKind tells how a correct_answer string was expressed.
type AnswerKeyKind int

const (
	// KeyByText means correct_answer holds the option text.
	KeyByText AnswerKeyKind = iota
	// KeyByLetter means correct_answer is a single letter A, B, C...
	KeyByLetter
)

// AnswerKey is a correct_answer resolved once when the quiz is built.
// Text is always the trimmed raw value so text comparison keeps working for
// letter keys too.
type AnswerKey struct {
	Kind  AnswerKeyKind
	Index int
	Text  string
}

// ResolveAnswerKey normalizes correct_answer by trimming surrounding
// whitespace and classifies it.
func ResolveAnswerKey(correctAnswer string) AnswerKey {
	trimmed := strings.TrimSpace(correctAnswer)
	if len(trimmed) == 1 && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
		return AnswerKey{Kind: KeyByLetter, Index: int(trimmed[0] - 'A'), Text: trimmed}
	}
	return AnswerKey{Kind: KeyByText, Index: -1, Text: trimmed}
}

// OptionLetter maps an option index to its letter label.
func OptionLetter(index int) string {
	if index < 0 || index > 25 {
		return ""
	}
	return string(rune('A' + index))
}

// Matches applies the grading rule to one selection: the key equals either
// the selected option's letter or the trimmed selected text.
func (k AnswerKey) Matches(options []string, sel Selection) bool {
	if !sel.Made {
		return false
	}
	if idx := indexOf(options, sel.Option); idx >= 0 && k.Text == OptionLetter(idx) {
		return true
	}
	return k.Text == strings.TrimSpace(sel.Option)
}

// CorrectOption returns the option text the key points at. ok is false when
// the key names no option, which makes the question ungradable.
func (k AnswerKey) CorrectOption(options []string) (option string, ok bool) {
	for i, o := range options {
		if k.Kind == KeyByLetter && i == k.Index {
			return o, true
		}
		if strings.TrimSpace(o) == k.Text {
			return o, true
		}
	}
	return "", false
}

func indexOf(options []string, selected string) int {
	for i, o := range options {
		if o == selected {
			return i
		}
	}
	return -1
}

// Selection is a learner's choice for one question. Made is false when the
// question was left unanswered.
type Selection struct {
	Option string
	Made   bool
}

// Select builds a selection for the given option text.
func Select(option string) Selection {
	return Selection{Option: option, Made: true}
}

// Quiz is an ordered set of questions with their keys resolved.
type Quiz struct {
	ID        string
	Questions []QuizQuestion
	Keys      []AnswerKey
	CreatedAt time.Time
}

// NewQuiz resolves every answer key up front.
func NewQuiz(id string, questions []QuizQuestion) *Quiz {
	if questions == nil {
		questions = []QuizQuestion{}
	}
	keys := make([]AnswerKey, len(questions))
	for i, q := range questions {
		keys[i] = ResolveAnswerKey(q.CorrectAnswer)
	}
	return &Quiz{
		ID:        id,
		Questions: questions,
		Keys:      keys,
		CreatedAt: time.Now(),
	}
}

// Ungradable lists the indexes of questions whose key names no option.
func (q *Quiz) Ungradable() []int {
	var out []int
	for i, k := range q.Keys {
		if _, ok := k.CorrectOption(q.Questions[i].Options); !ok {
			out = append(out, i)
		}
	}
	return out
}

// SynthesisStatus tags the outcome of quiz generation.
type SynthesisStatus int

const (
	SynthesisParsed SynthesisStatus = iota
	SynthesisParseFailed
)

func (s SynthesisStatus) String() string {
	if s == SynthesisParseFailed {
		return "parse_failed"
	}
	return "parsed"
}

// SynthesisResult is what the generator produced. On ParseFailed, Questions
// is empty, Raw holds the model output and Err the parse error.
type SynthesisResult struct {
	Status    SynthesisStatus
	Questions []QuizQuestion
	Raw       string
	Err       error
}

// Parsed reports whether the model output was a well-formed question list.
func (r SynthesisResult) Parsed() bool {
	return r.Status == SynthesisParsed
}

// QuizGenerationService turns retrieved context into quiz questions.
type QuizGenerationService interface {
	Synthesize(ctx context.Context, contextText string, numQuestions int) (SynthesisResult, error)
}

// QuestionResult is the graded outcome of one question, with review data.
type QuestionResult struct {
	Index          int    `json:"index"`
	Question       string `json:"question"`
	Selected       string `json:"selected,omitempty"`
	Answered       bool   `json:"answered"`
	SelectedLetter string `json:"selected_letter,omitempty"`
	Correct        bool   `json:"correct"`
	Gradable       bool   `json:"gradable"`
	CorrectOption  string `json:"correct_option,omitempty"`
	Explanation    string `json:"explanation"`
}

// GradeResult is the score of a whole quiz.
type GradeResult struct {
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}
