package scoring

import (
	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
)

// Recompute derives the full rollups from an entry collection. It never
// reads previously stored rollups, so it converges even after a partial
// write. subjectOf resolves a question id to its subject; entries whose
// question cannot be resolved are skipped.
//
// Subject totals count only entries with a determined verdict, which keeps
// attempted = Σ subject totals = correct + incorrect.
func Recompute(entries []model.AnswerEntry, subjectOf func(uuid.UUID) (model.Subject, bool)) model.Rollups {
	subjects := make(map[model.Subject]model.SubjectScore, len(model.Subjects))
	for _, s := range model.Subjects {
		subjects[s] = model.SubjectScore{}
	}

	for _, e := range entries {
		subj, ok := subjectOf(e.QuestionID)
		if !ok {
			continue
		}
		ss, ok := subjects[subj]
		if !ok {
			continue
		}
		switch e.Verdict {
		case model.VerdictCorrect:
			ss.Total++
			ss.Correct++
		case model.VerdictIncorrect:
			ss.Total++
			ss.Incorrect++
		}
		subjects[subj] = ss
	}

	rollups := model.Rollups{SubjectScores: subjects}
	for s, ss := range subjects {
		ss.Score = MarksCorrect*ss.Correct + MarksIncorrect*ss.Incorrect
		subjects[s] = ss
		rollups.TotalScore += ss.Score
		rollups.Attempted += ss.Total
		rollups.Correct += ss.Correct
		rollups.Incorrect += ss.Incorrect
	}
	return rollups
}
