package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
)

// fakeRow feeds canned column values into a scan helper.
type fakeRow struct {
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch target := d.(type) {
		case *uuid.UUID:
			*target = r.values[i].(uuid.UUID)
		case *time.Time:
			*target = r.values[i].(time.Time)
		case **time.Time:
			*target = r.values[i].(*time.Time)
		case *map[model.Subject]model.SubjectScore:
			*target = r.values[i].(map[model.Subject]model.SubjectScore)
		case *int:
			*target = r.values[i].(int)
		}
	}
	return nil
}

func TestScanResult(t *testing.T) {
	id := uuid.New()
	candidateID := uuid.New()
	testID := uuid.New()
	started := time.Now().Add(-time.Hour)
	finished := time.Now()
	scores := map[model.Subject]model.SubjectScore{
		model.SubjectPhysics: {Total: 2, Correct: 1, Incorrect: 1, Score: 3},
	}

	row := &fakeRow{values: []any{
		id, candidateID, testID, started, &finished,
		scores, 3, 2, 1, 1,
	}}

	res, err := scanResult(row)
	if err != nil {
		t.Fatalf("scanResult: %v", err)
	}
	if res.ID != id || res.CandidateID != candidateID || res.TestID != testID {
		t.Error("identity columns not mapped")
	}
	if !res.Finalized() {
		t.Error("finished_at set but Finalized() is false")
	}
	if res.TotalScore != 3 || res.Attempted != 2 || res.Correct != 1 || res.Incorrect != 1 {
		t.Errorf("rollups = %+v, want {3 2 1 1}", res.Rollups)
	}
	if got := res.SubjectScores[model.SubjectPhysics]; got.Score != 3 {
		t.Errorf("physics score = %d, want 3", got.Score)
	}
}

func TestFreshAttemptHasSubjectScoresMap(t *testing.T) {
	res := &model.Result{
		CandidateID: uuid.New(),
		TestID:      uuid.New(),
		Rollups:     model.Rollups{SubjectScores: map[model.Subject]model.SubjectScore{}},
	}
	if res.SubjectScores == nil {
		t.Fatal("fresh attempt must carry an initialized subject_scores map")
	}
	if res.Finalized() {
		t.Error("fresh attempt must not be finalized")
	}
}
