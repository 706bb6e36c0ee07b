package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
)

type entrySpec struct {
	subject model.Subject
	verdict model.Verdict
	score   int
}

func buildEntries(specs []entrySpec) ([]model.AnswerEntry, func(uuid.UUID) (model.Subject, bool)) {
	subjects := make(map[uuid.UUID]model.Subject, len(specs))
	entries := make([]model.AnswerEntry, 0, len(specs))
	for _, s := range specs {
		qid := uuid.New()
		subjects[qid] = s.subject
		entries = append(entries, model.AnswerEntry{
			QuestionID: qid,
			Verdict:    s.verdict,
			Score:      s.score,
		})
	}
	return entries, func(id uuid.UUID) (model.Subject, bool) {
		s, ok := subjects[id]
		return s, ok
	}
}

func TestRecomputeMixedSubjects(t *testing.T) {
	entries, subjectOf := buildEntries([]entrySpec{
		{model.SubjectPhysics, model.VerdictCorrect, 4},
		{model.SubjectPhysics, model.VerdictCorrect, 4},
		{model.SubjectPhysics, model.VerdictIncorrect, -1},
		{model.SubjectChemistry, model.VerdictIncorrect, -1},
		{model.SubjectChemistry, model.VerdictUndetermined, 0},
		{model.SubjectMathematics, model.VerdictCorrect, 4},
	})

	r := Recompute(entries, subjectOf)

	want := map[model.Subject]model.SubjectScore{
		model.SubjectPhysics:     {Total: 3, Correct: 2, Incorrect: 1, Score: 7},
		model.SubjectChemistry:   {Total: 1, Correct: 0, Incorrect: 1, Score: -1},
		model.SubjectMathematics: {Total: 1, Correct: 1, Incorrect: 0, Score: 4},
	}
	for subj, ws := range want {
		if got := r.SubjectScores[subj]; got != ws {
			t.Fatalf("%s rollup = %+v, want %+v", subj, got, ws)
		}
	}
	if r.TotalScore != 10 {
		t.Fatalf("total score = %d, want 10", r.TotalScore)
	}
	if r.Attempted != 5 {
		t.Fatalf("attempted = %d, want 5", r.Attempted)
	}
	if r.Correct != 3 || r.Incorrect != 2 {
		t.Fatalf("correct/incorrect = %d/%d, want 3/2", r.Correct, r.Incorrect)
	}
}

func TestRecomputeEmptyEntries(t *testing.T) {
	r := Recompute(nil, func(uuid.UUID) (model.Subject, bool) { return "", false })

	if len(r.SubjectScores) != len(model.Subjects) {
		t.Fatalf("expected a rollup for each subject, got %d", len(r.SubjectScores))
	}
	for subj, ss := range r.SubjectScores {
		if ss != (model.SubjectScore{}) {
			t.Fatalf("%s rollup = %+v, want zero", subj, ss)
		}
	}
	if r.TotalScore != 0 || r.Attempted != 0 {
		t.Fatalf("expected zero totals, got %+v", r)
	}
}

func TestRecomputeIgnoresUnknownQuestions(t *testing.T) {
	entries, _ := buildEntries([]entrySpec{
		{model.SubjectPhysics, model.VerdictCorrect, 4},
	})
	r := Recompute(entries, func(uuid.UUID) (model.Subject, bool) { return "", false })
	if r.Attempted != 0 || r.TotalScore != 0 {
		t.Fatalf("unresolvable entries must not count, got %+v", r)
	}
}

func TestRecomputeIgnoresStoredRollups(t *testing.T) {
	// Recompute takes only the entries; totals must match the marking
	// scheme regardless of what a prior (possibly partial) write stored.
	entries, subjectOf := buildEntries([]entrySpec{
		{model.SubjectPhysics, model.VerdictCorrect, 999}, // stale stored delta
	})
	r := Recompute(entries, subjectOf)
	if got := r.SubjectScores[model.SubjectPhysics].Score; got != 4 {
		t.Fatalf("score = %d, want 4 (derived from verdict, not stored delta)", got)
	}
}

func TestRecomputeScenarioRevision(t *testing.T) {
	// Physics Q1 answered correct then revised to incorrect: rollup flips
	// from {1,1,0,4} to {1,0,1,-1} and total score from 4 to -1.
	qid := uuid.New()
	subjectOf := func(id uuid.UUID) (model.Subject, bool) { return model.SubjectPhysics, id == qid }

	first := Recompute([]model.AnswerEntry{{QuestionID: qid, Verdict: model.VerdictCorrect, Score: 4}}, subjectOf)
	if ss := first.SubjectScores[model.SubjectPhysics]; ss != (model.SubjectScore{Total: 1, Correct: 1, Incorrect: 0, Score: 4}) {
		t.Fatalf("first rollup = %+v", ss)
	}
	if first.TotalScore != 4 {
		t.Fatalf("first total = %d, want 4", first.TotalScore)
	}

	second := Recompute([]model.AnswerEntry{{QuestionID: qid, Verdict: model.VerdictIncorrect, Score: -1}}, subjectOf)
	if ss := second.SubjectScores[model.SubjectPhysics]; ss != (model.SubjectScore{Total: 1, Correct: 0, Incorrect: 1, Score: -1}) {
		t.Fatalf("second rollup = %+v", ss)
	}
	if second.TotalScore != -1 {
		t.Fatalf("second total = %d, want -1", second.TotalScore)
	}
}
