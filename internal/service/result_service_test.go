package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prepnova/mocktest-backend/internal/model"
)

// fakeResultStore is an in-memory ResultStore keyed by (candidate, test),
// mirroring the unique constraint on the results table.
type fakeResultStore struct {
	results map[[2]uuid.UUID]*model.Result
	saves   int
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{results: make(map[[2]uuid.UUID]*model.Result)}
}

func cloneResult(r *model.Result) *model.Result {
	out := *r
	out.Entries = append([]model.AnswerEntry(nil), r.Entries...)
	return &out
}

func (f *fakeResultStore) GetByCandidateAndTest(_ context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	r, ok := f.results[[2]uuid.UUID{candidateID, testID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneResult(r), nil
}

func (f *fakeResultStore) Create(_ context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	key := [2]uuid.UUID{candidateID, testID}
	if r, ok := f.results[key]; ok {
		return cloneResult(r), nil
	}
	r := &model.Result{
		ID:          uuid.New(),
		CandidateID: candidateID,
		TestID:      testID,
		StartedAt:   time.Now(),
	}
	f.results[key] = r
	return cloneResult(r), nil
}

func (f *fakeResultStore) SaveEntryAndRollups(_ context.Context, resultID uuid.UUID, entry *model.AnswerEntry, rollups *model.Rollups) error {
	f.saves++
	for _, r := range f.results {
		if r.ID != resultID {
			continue
		}
		replaced := false
		for i := range r.Entries {
			if r.Entries[i].QuestionID == entry.QuestionID {
				r.Entries[i] = *entry
				replaced = true
				break
			}
		}
		if !replaced {
			r.Entries = append(r.Entries, *entry)
		}
		r.Rollups = *rollups
		return nil
	}
	return errors.New("result not found")
}

func (f *fakeResultStore) Finalize(_ context.Context, candidateID, testID uuid.UUID, finishedAt time.Time) (bool, error) {
	r, ok := f.results[[2]uuid.UUID{candidateID, testID}]
	if !ok || r.FinishedAt != nil {
		return false, nil
	}
	r.FinishedAt = &finishedAt
	return true, nil
}

type fakeQuestionCatalog struct {
	questions map[uuid.UUID]*model.Question
}

func (f *fakeQuestionCatalog) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return q, nil
}

func (f *fakeQuestionCatalog) SubjectsByTest(_ context.Context, testID uuid.UUID) (map[uuid.UUID]model.Subject, error) {
	subjects := make(map[uuid.UUID]model.Subject)
	for id, q := range f.questions {
		if q.TestID == testID {
			subjects[id] = q.Subject
		}
	}
	return subjects, nil
}

// fixture builds a test with one MCQ physics question and one numerical
// chemistry question.
type fixture struct {
	svc        *ResultService
	store      *fakeResultStore
	candidate  uuid.UUID
	test       uuid.UUID
	mcq        *model.Question
	numerical  *model.Question
	correctOpt uuid.UUID
	wrongOpt   uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		store:     newFakeResultStore(),
		candidate: uuid.New(),
		test:      uuid.New(),
	}
	f.correctOpt = uuid.New()
	f.wrongOpt = uuid.New()
	f.mcq = &model.Question{
		ID:           uuid.New(),
		TestID:       f.test,
		Subject:      model.SubjectPhysics,
		QuestionType: model.QuestionTypeMCQ,
		Options: []model.Option{
			{ID: f.correctOpt, Text: "a", IsCorrect: true},
			{ID: f.wrongOpt, Text: "b"},
		},
	}
	answer := 12.5
	f.numerical = &model.Question{
		ID:              uuid.New(),
		TestID:          f.test,
		Subject:         model.SubjectChemistry,
		QuestionType:    model.QuestionTypeNumerical,
		NumericalAnswer: &answer,
	}
	catalog := &fakeQuestionCatalog{questions: map[uuid.UUID]*model.Question{
		f.mcq.ID:       f.mcq,
		f.numerical.ID: f.numerical,
	}}
	f.svc = NewResultService(f.store, catalog, nil)
	return f
}

func strp(s string) *string { return &s }

func TestSubmitAnswerCreatesAttemptAndScores(t *testing.T) {
	f := newFixture()

	result, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	entry := result.EntryFor(f.mcq.ID)
	if entry == nil {
		t.Fatal("expected an entry for the question")
	}
	if entry.Verdict != model.VerdictCorrect || entry.Score != 4 {
		t.Errorf("entry = %s/%d, want CORRECT/4", entry.Verdict, entry.Score)
	}
	if entry.MarkedForReview {
		t.Error("save_and_next should not flag for review")
	}
	if result.TotalScore != 4 || result.Attempted != 1 {
		t.Errorf("rollups = score %d attempted %d, want 4/1", result.TotalScore, result.Attempted)
	}
	if got := result.SubjectScores[model.SubjectPhysics]; got.Correct != 1 || got.Score != 4 {
		t.Errorf("physics rollup = %+v, want 1 correct, score 4", got)
	}
}

func TestSubmitAnswerIsIdempotent(t *testing.T) {
	f := newFixture()
	req := &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	}

	first, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, req)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, req)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if len(second.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(second.Entries))
	}
	if first.TotalScore != second.TotalScore || first.Attempted != second.Attempted {
		t.Errorf("rollups changed on identical resubmit: %+v vs %+v", first.Rollups, second.Rollups)
	}
}

func TestSubmitAnswerRevisionFlipsScore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitAnswer(ctx, f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	result, err := f.svc.SubmitAnswer(ctx, f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.wrongOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	})
	if err != nil {
		t.Fatalf("revision: %v", err)
	}

	if result.TotalScore != -1 {
		t.Errorf("total after revision = %d, want -1", result.TotalScore)
	}
	entry := result.EntryFor(f.mcq.ID)
	if entry.Verdict != model.VerdictIncorrect {
		t.Errorf("verdict = %s, want INCORRECT", entry.Verdict)
	}
	if len(result.Entries) != 1 {
		t.Errorf("entries = %d, want 1 after revision", len(result.Entries))
	}
	physics := result.SubjectScores[model.SubjectPhysics]
	if physics.Total != 1 || physics.Correct != 0 || physics.Incorrect != 1 || physics.Score != -1 {
		t.Errorf("physics rollup after revision = %+v, want {1 0 1 -1}", physics)
	}
}

func TestSubmitAnswerRejectsMalformedIDs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		req  *model.SubmitAnswerRequest
	}{
		{
			name: "question id",
			req: &model.SubmitAnswerRequest{
				QuestionID:       "not-a-uuid",
				SelectedOptionID: strp(f.correctOpt.String()),
				Action:           model.AnswerActionSaveAndNext,
			},
		},
		{
			name: "option id",
			req: &model.SubmitAnswerRequest{
				QuestionID:       f.mcq.ID.String(),
				SelectedOptionID: strp("not-a-uuid"),
				Action:           model.AnswerActionSaveAndNext,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.SubmitAnswer(ctx, f.candidate, f.test, tc.req)
			if !errors.Is(err, ErrInvalidReference) {
				t.Errorf("err = %v, want ErrInvalidReference", err)
			}
		})
	}
}

func TestSubmitAnswerReviewOnlyPreservesResponse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitAnswer(ctx, f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:     f.numerical.ID.String(),
		NumericalValue: strp("12.50"),
		Action:         model.AnswerActionSaveAndNext,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	marked := true
	result, err := f.svc.SubmitAnswer(ctx, f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:      f.numerical.ID.String(),
		MarkedForReview: &marked,
		Action:          model.AnswerActionMarkForReview,
	})
	if err != nil {
		t.Fatalf("review update: %v", err)
	}

	entry := result.EntryFor(f.numerical.ID)
	if !entry.MarkedForReview {
		t.Error("review flag not set")
	}
	if entry.NumericalValue == nil || *entry.NumericalValue != 12.5 {
		t.Errorf("stored value = %v, want 12.5 preserved", entry.NumericalValue)
	}
	if entry.Verdict != model.VerdictCorrect || result.TotalScore != 4 {
		t.Errorf("verdict/score lost on review update: %s/%d", entry.Verdict, result.TotalScore)
	}
}

func TestSubmitAnswerReviewOnlyOnUnansweredQuestion(t *testing.T) {
	f := newFixture()
	marked := true

	result, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:      f.mcq.ID.String(),
		MarkedForReview: &marked,
		Action:          model.AnswerActionMarkForReview,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	entry := result.EntryFor(f.mcq.ID)
	if entry == nil || !entry.MarkedForReview {
		t.Fatal("expected a review-flagged entry")
	}
	if entry.Verdict != model.VerdictUndetermined || entry.Score != 0 {
		t.Errorf("entry = %s/%d, want UNDETERMINED/0", entry.Verdict, entry.Score)
	}
	if result.Attempted != 0 {
		t.Errorf("attempted = %d, want 0 for review-only entry", result.Attempted)
	}
}

func TestSubmitAnswerRejectsFinalizedAttempt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.store.Create(ctx, f.candidate, f.test); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.Finalize(ctx, f.candidate, f.test, time.Now()); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.SubmitAnswer(ctx, f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	})
	if !errors.Is(err, ErrResultFinalized) {
		t.Errorf("err = %v, want ErrResultFinalized", err)
	}
}

func TestSubmitAnswerRejectsForeignQuestion(t *testing.T) {
	f := newFixture()

	// Same question id, different test in the URL.
	otherTest := uuid.New()
	_, err := f.svc.SubmitAnswer(context.Background(), f.candidate, otherTest, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	})
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("err = %v, want ErrQuestionNotFound", err)
	}
}

func TestSubmitAnswerRejectsAmbiguousResponse(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		NumericalValue:   strp("3"),
		Action:           model.AnswerActionSaveAndNext,
	})
	if !errors.Is(err, ErrAmbiguousResponse) {
		t.Errorf("err = %v, want ErrAmbiguousResponse", err)
	}
}

func TestSubmitAnswerRejectsMalformedNumerical(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:     f.numerical.ID.String(),
		NumericalValue: strp("12.5.0"),
		Action:         model.AnswerActionSaveAndNext,
	})
	if !errors.Is(err, ErrBadNumericalValue) {
		t.Errorf("err = %v, want ErrBadNumericalValue", err)
	}
}

func TestSubmitAnswerUnknownOptionScoresIncorrect(t *testing.T) {
	f := newFixture()

	result, err := f.svc.SubmitAnswer(context.Background(), f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(uuid.New().String()),
		Action:           model.AnswerActionSaveAndNext,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	entry := result.EntryFor(f.mcq.ID)
	if entry.Verdict != model.VerdictIncorrect || entry.Score != -1 {
		t.Errorf("entry = %s/%d, want INCORRECT/-1", entry.Verdict, entry.Score)
	}
}

func TestAttemptsAreIsolatedByTest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	secondTest := uuid.New()
	answer := 1.0
	otherQuestion := &model.Question{
		ID:              uuid.New(),
		TestID:          secondTest,
		Subject:         model.SubjectMathematics,
		QuestionType:    model.QuestionTypeNumerical,
		NumericalAnswer: &answer,
	}
	catalog := &fakeQuestionCatalog{questions: map[uuid.UUID]*model.Question{
		f.mcq.ID:         f.mcq,
		f.numerical.ID:   f.numerical,
		otherQuestion.ID: otherQuestion,
	}}
	svc := NewResultService(f.store, catalog, nil)

	if _, err := svc.SubmitAnswer(ctx, f.candidate, f.test, &model.SubmitAnswerRequest{
		QuestionID:       f.mcq.ID.String(),
		SelectedOptionID: strp(f.correctOpt.String()),
		Action:           model.AnswerActionSaveAndNext,
	}); err != nil {
		t.Fatalf("first test submit: %v", err)
	}
	if _, err := svc.SubmitAnswer(ctx, f.candidate, secondTest, &model.SubmitAnswerRequest{
		QuestionID:     otherQuestion.ID.String(),
		NumericalValue: strp("1"),
		Action:         model.AnswerActionSaveAndNext,
	}); err != nil {
		t.Fatalf("second test submit: %v", err)
	}

	first, err := svc.GetResult(ctx, f.candidate, f.test)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.GetResult(ctx, f.candidate, secondTest)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == second.ID {
		t.Error("attempts at different tests share a result row")
	}
	if len(first.Entries) != 1 || len(second.Entries) != 1 {
		t.Errorf("entries leaked across attempts: %d and %d", len(first.Entries), len(second.Entries))
	}
}
