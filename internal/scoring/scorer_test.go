package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
)

func mcqQuestion(correctIdx int, optionIDs ...uuid.UUID) *model.Question {
	q := &model.Question{
		ID:           uuid.New(),
		Subject:      model.SubjectPhysics,
		QuestionType: model.QuestionTypeMCQ,
	}
	for i, id := range optionIDs {
		q.Options = append(q.Options, model.Option{
			ID:        id,
			Text:      "option",
			IsCorrect: i == correctIdx,
		})
	}
	return q
}

func numericalQuestion(key float64) *model.Question {
	return &model.Question{
		ID:              uuid.New(),
		Subject:         model.SubjectMathematics,
		QuestionType:    model.QuestionTypeNumerical,
		NumericalAnswer: &key,
	}
}

func TestScoreMCQ(t *testing.T) {
	optA := uuid.New()
	optB := uuid.New()
	optC := uuid.New()
	unknown := uuid.New()

	tests := []struct {
		name    string
		resp    Response
		verdict model.Verdict
		delta   int
	}{
		{name: "correct option", resp: SelectedOption(optB), verdict: model.VerdictCorrect, delta: 4},
		{name: "wrong option", resp: SelectedOption(optA), verdict: model.VerdictIncorrect, delta: -1},
		{name: "other wrong option", resp: SelectedOption(optC), verdict: model.VerdictIncorrect, delta: -1},
		{name: "unknown option id scores incorrect", resp: SelectedOption(unknown), verdict: model.VerdictIncorrect, delta: -1},
		{name: "no response", resp: None(), verdict: model.VerdictUndetermined, delta: 0},
		{name: "wrong modality", resp: NumericalValue(3), verdict: model.VerdictUndetermined, delta: 0},
	}

	q := mcqQuestion(1, optA, optB, optC)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(q, tc.resp)
			if got.Verdict != tc.verdict {
				t.Fatalf("verdict = %s, want %s", got.Verdict, tc.verdict)
			}
			if got.Delta != tc.delta {
				t.Fatalf("delta = %d, want %d", got.Delta, tc.delta)
			}
		})
	}
}

func TestScoreMCQMalformedKey(t *testing.T) {
	optA := uuid.New()
	q := mcqQuestion(-1, optA) // no option flagged correct
	got := Score(q, SelectedOption(optA))
	if got.Verdict != model.VerdictUndetermined || got.Delta != 0 {
		t.Fatalf("got %+v, want undetermined/0", got)
	}
}

func TestScoreNumerical(t *testing.T) {
	tests := []struct {
		name    string
		key     float64
		resp    Response
		verdict model.Verdict
		delta   int
	}{
		{name: "exact match", key: 12.5, resp: NumericalValue(12.5), verdict: model.VerdictCorrect, delta: 4},
		{name: "wrong value", key: 12.5, resp: NumericalValue(12.4), verdict: model.VerdictIncorrect, delta: -1},
		{name: "integer key", key: 42, resp: NumericalValue(42), verdict: model.VerdictCorrect, delta: 4},
		{name: "no response", key: 12.5, resp: None(), verdict: model.VerdictUndetermined, delta: 0},
		{name: "wrong modality", key: 12.5, resp: SelectedOption(uuid.New()), verdict: model.VerdictUndetermined, delta: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(numericalQuestion(tc.key), tc.resp)
			if got.Verdict != tc.verdict {
				t.Fatalf("verdict = %s, want %s", got.Verdict, tc.verdict)
			}
			if got.Delta != tc.delta {
				t.Fatalf("delta = %d, want %d", got.Delta, tc.delta)
			}
		})
	}
}

func TestScoreNumericalCanonicalization(t *testing.T) {
	// "12.50" must equal a key of 12.5 — numeric equality, not string.
	resp, err := ParseNumerical("12.50")
	if err != nil {
		t.Fatalf("ParseNumerical: %v", err)
	}
	got := Score(numericalQuestion(12.5), resp)
	if got.Verdict != model.VerdictCorrect || got.Delta != 4 {
		t.Fatalf("got %+v, want correct/+4", got)
	}

	if _, err := ParseNumerical("not-a-number"); err == nil {
		t.Fatal("expected parse error for non-numeric input")
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	optA := uuid.New()
	optB := uuid.New()
	q := mcqQuestion(0, optA, optB)
	resp := SelectedOption(optB)

	first := Score(q, resp)
	for i := 0; i < 10; i++ {
		if got := Score(q, resp); got != first {
			t.Fatalf("re-scoring diverged: %+v vs %+v", got, first)
		}
	}
}
