package service

import (
	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
)

// Grade scores selections against the quiz. selections[i] answers question
// i; missing entries count as unanswered. Questions whose key names no
// option are reported as ungradable and never count as correct.
func Grade(quiz *domain.Quiz, selections []domain.Selection) domain.GradeResult {
	result := domain.GradeResult{
		Total:   len(quiz.Questions),
		Results: make([]domain.QuestionResult, len(quiz.Questions)),
	}

	for i, q := range quiz.Questions {
		var sel domain.Selection
		if i < len(selections) {
			sel = selections[i]
		}
		key := quiz.Keys[i]
		correctOption, gradable := key.CorrectOption(q.Options)

		qr := domain.QuestionResult{
			Index:         i,
			Question:      q.Question,
			Answered:      sel.Made,
			Gradable:      gradable,
			CorrectOption: correctOption,
			Explanation:   q.Explanation,
		}
		if sel.Made {
			qr.Selected = sel.Option
			for j, o := range q.Options {
				if o == sel.Option {
					qr.SelectedLetter = domain.OptionLetter(j)
					break
				}
			}
		}

		if gradable && key.Matches(q.Options, sel) {
			qr.Correct = true
			result.Score++
		}
		result.Results[i] = qr
	}
	return result
}

// logUngradable warns about questions whose answer key cannot be resolved.
func logUngradable(quiz *domain.Quiz) {
	for _, i := range quiz.Ungradable() {
		logger.Get().Warn("Generated question has an answer key that matches no option",
			zap.String("quizID", quiz.ID),
			zap.Int("question", i),
			zap.String("correct_answer", quiz.Questions[i].CorrectAnswer),
			zap.Strings("options", quiz.Questions[i].Options),
		)
	}
}
