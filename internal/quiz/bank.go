package quiz

import (
	"errors"
	"fmt"
	"strings"

	"manara/internal/model"
)

var (
	// ErrEmptyField is returned by question validation when a required
	// field is blank.
	ErrEmptyField = errors.New("all question fields are required")
	// ErrAnswerNotInOptions is returned when the correct answer does
	// not appear among the options.
	ErrAnswerNotInOptions = errors.New("correct answer must be one of the options")
	// ErrOptionCount is returned when a question does not carry exactly
	// four options.
	ErrOptionCount = fmt.Errorf("a question needs exactly %d options", model.OptionCount)
)

// ValidateInput checks an editing-panel payload before it is allowed
// to touch the bank: no blank fields, exactly four options, and the
// bank invariant correctAnswer ∈ options.
func ValidateInput(in *model.QuestionInput) error {
	if strings.TrimSpace(in.Prompt) == "" || strings.TrimSpace(in.CorrectAnswer) == "" {
		return ErrEmptyField
	}
	if len(in.Options) != model.OptionCount {
		return ErrOptionCount
	}
	for _, opt := range in.Options {
		if strings.TrimSpace(opt) == "" {
			return ErrEmptyField
		}
	}
	for _, opt := range in.Options {
		if opt == in.CorrectAnswer {
			return nil
		}
	}
	return ErrAnswerNotInOptions
}

// Eligible filters the ordered bank down to the questions still in
// rotation for the given progress record: not completed, and under the
// per-user repeat budget. Questions that exhausted their budget are
// gone for good without being marked complete.
func Eligible(bank []model.Question, progress *model.UserProgress) []model.Question {
	out := make([]model.Question, 0, len(bank))
	for _, q := range bank {
		if progress.IsCompleted(q.ID) {
			continue
		}
		if progress.RepeatsFor(q.ID) >= model.MaxRepeatCount {
			continue
		}
		out = append(out, q)
	}
	return out
}

// MatchAnswer compares a submitted choice to the stored answer.
// Comparison is whitespace-trimmed and case-insensitive, so
// " Merge Sort " matches "Merge Sort".
func MatchAnswer(choice, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(choice), strings.TrimSpace(correct))
}
