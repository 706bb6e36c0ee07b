// Package scoring implements the pure answer-scoring rules and the rollup
// recomputation. It performs no I/O: the same (question, response) pair
// always yields the same outcome.
package scoring

import (
	"github.com/prepnova/mocktest-backend/internal/model"
)

// Marking scheme.
const (
	MarksCorrect   = 4
	MarksIncorrect = -1
)

// Outcome is the result of scoring one response against one answer key.
type Outcome struct {
	Verdict model.Verdict
	Delta   int
}

// Score evaluates a submitted response against the question's answer key.
//
// A response of the wrong modality — or no response at all — leaves the
// verdict undetermined with a zero delta: the question counts as
// unattempted, not incorrect. Once a response of the right modality is
// present it is always determined; an option id that matches no option on
// the question scores incorrect.
func Score(q *model.Question, resp Response) Outcome {
	undetermined := Outcome{Verdict: model.VerdictUndetermined, Delta: 0}

	switch q.QuestionType {
	case model.QuestionTypeMCQ:
		optionID, ok := resp.OptionID()
		if !ok {
			return undetermined
		}
		correct := q.CorrectOption()
		if correct == nil {
			// Malformed key: nothing to compare against.
			return undetermined
		}
		if optionID == correct.ID {
			return Outcome{Verdict: model.VerdictCorrect, Delta: MarksCorrect}
		}
		return Outcome{Verdict: model.VerdictIncorrect, Delta: MarksIncorrect}

	case model.QuestionTypeNumerical:
		value, ok := resp.Value()
		if !ok {
			return undetermined
		}
		if q.NumericalAnswer == nil {
			return undetermined
		}
		if value == *q.NumericalAnswer {
			return Outcome{Verdict: model.VerdictCorrect, Delta: MarksCorrect}
		}
		return Outcome{Verdict: model.VerdictIncorrect, Delta: MarksIncorrect}
	}

	return undetermined
}
