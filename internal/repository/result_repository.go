package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnova/mocktest-backend/internal/model"
)

// ResultRepository handles exam attempt data access. An attempt row is
// unique per (candidate_id, test_id) and carries the rollup columns;
// per-question answers live in answer_entries keyed by (result_id, question_id).
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, candidate_id, test_id, started_at, finished_at,
	subject_scores, total_score, attempted, correct, incorrect`

func scanResult(row interface{ Scan(...any) error }) (*model.Result, error) {
	res := &model.Result{}
	err := row.Scan(&res.ID, &res.CandidateID, &res.TestID, &res.StartedAt, &res.FinishedAt,
		&res.SubjectScores, &res.TotalScore, &res.Attempted, &res.Correct, &res.Incorrect)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetByCandidateAndTest retrieves an attempt by its composite key,
// answer entries included. Returns pgx.ErrNoRows when the candidate
// has not started this test.
func (r *ResultRepository) GetByCandidateAndTest(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results
		 WHERE candidate_id = $1 AND test_id = $2`, candidateID, testID))
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ResultRepository) loadEntries(ctx context.Context, res *model.Result) error {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, selected_option_id, numerical_value, verdict, score, marked_for_review, updated_at
		 FROM answer_entries
		 WHERE result_id = $1
		 ORDER BY updated_at`, res.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e model.AnswerEntry
		if err := rows.Scan(&e.QuestionID, &e.SelectedOptionID, &e.NumericalValue,
			&e.Verdict, &e.Score, &e.MarkedForReview, &e.UpdatedAt); err != nil {
			return err
		}
		res.Entries = append(res.Entries, e)
	}
	return rows.Err()
}

// Create starts an attempt for (candidate, test). Safe under concurrent
// first submits: the loser of the insert race refetches the winner's row.
func (r *ResultRepository) Create(ctx context.Context, candidateID, testID uuid.UUID) (*model.Result, error) {
	res := &model.Result{
		CandidateID: candidateID,
		TestID:      testID,
		Rollups:     model.Rollups{SubjectScores: map[model.Subject]model.SubjectScore{}},
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (candidate_id, test_id)
		 VALUES ($1, $2)
		 ON CONFLICT (candidate_id, test_id) DO NOTHING
		 RETURNING id, started_at`,
		candidateID, testID,
	).Scan(&res.ID, &res.StartedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Another request created the attempt first.
		return r.GetByCandidateAndTest(ctx, candidateID, testID)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SaveEntryAndRollups upserts one answer entry and writes the recomputed
// rollups in a single transaction, so a reader never observes an entry
// without its matching aggregate.
func (r *ResultRepository) SaveEntryAndRollups(ctx context.Context, resultID uuid.UUID, entry *model.AnswerEntry, rollups *model.Rollups) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO answer_entries (result_id, question_id, selected_option_id, numerical_value, verdict, score, marked_for_review, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (result_id, question_id) DO UPDATE SET
			selected_option_id = EXCLUDED.selected_option_id,
			numerical_value = EXCLUDED.numerical_value,
			verdict = EXCLUDED.verdict,
			score = EXCLUDED.score,
			marked_for_review = EXCLUDED.marked_for_review,
			updated_at = EXCLUDED.updated_at`,
		resultID, entry.QuestionID, entry.SelectedOptionID, entry.NumericalValue,
		entry.Verdict, entry.Score, entry.MarkedForReview, entry.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE results SET
			subject_scores = $1,
			total_score = $2,
			attempted = $3,
			correct = $4,
			incorrect = $5
		 WHERE id = $6`,
		rollups.SubjectScores, rollups.TotalScore, rollups.Attempted,
		rollups.Correct, rollups.Incorrect, resultID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Finalize closes the attempt. Idempotent: a second call finds
// finished_at already set and reports false with no error.
func (r *ResultRepository) Finalize(ctx context.Context, candidateID, testID uuid.UUID, finishedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE results SET finished_at = $1
		 WHERE candidate_id = $2 AND test_id = $3 AND finished_at IS NULL`,
		finishedAt, candidateID, testID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinalizeBatch closes every open attempt in the batch with a single
// statement. Used by the deadline worker after a test's clock expires.
func (r *ResultRepository) FinalizeBatch(ctx context.Context, resultIDs []uuid.UUID, finishedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE results SET finished_at = $1
		 FROM UNNEST($2::uuid[]) AS batch(id)
		 WHERE results.id = batch.id AND results.finished_at IS NULL`,
		finishedAt, resultIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResultSummary is a rollup row joined with its candidate, for the
// admin result listing.
type ResultSummary struct {
	ResultID      uuid.UUID                             `json:"result_id"`
	CandidateID   uuid.UUID                             `json:"candidate_id"`
	CandidateName string                                `json:"candidate_name"`
	Email         string                                `json:"email"`
	StartedAt     time.Time                             `json:"started_at"`
	FinishedAt    *time.Time                            `json:"finished_at"`
	SubjectScores map[model.Subject]model.SubjectScore  `json:"subject_scores"`
	TotalScore    int                                   `json:"total_score"`
	Attempted     int                                   `json:"attempted"`
	Correct       int                                   `json:"correct"`
	Incorrect     int                                   `json:"incorrect"`
}

// ListByTest pages through attempt rollups for a test, highest score first.
func (r *ResultRepository) ListByTest(ctx context.Context, testID uuid.UUID, limit, offset int) ([]ResultSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE test_id = $1`, testID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT r.id, c.id, c.name, c.email, r.started_at, r.finished_at,
			r.subject_scores, r.total_score, r.attempted, r.correct, r.incorrect
		 FROM results r
		 JOIN candidates c ON c.id = r.candidate_id
		 WHERE r.test_id = $1
		 ORDER BY r.total_score DESC, r.started_at
		 LIMIT $2 OFFSET $3`, testID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []ResultSummary
	for rows.Next() {
		var s ResultSummary
		if err := rows.Scan(&s.ResultID, &s.CandidateID, &s.CandidateName, &s.Email,
			&s.StartedAt, &s.FinishedAt, &s.SubjectScores, &s.TotalScore,
			&s.Attempted, &s.Correct, &s.Incorrect); err != nil {
			return nil, 0, err
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

// ListOpenByTest returns attempts of a test that have not been finalized.
// The deadline worker uses this to close out stragglers after expiry.
func (r *ResultRepository) ListOpenByTest(ctx context.Context, testID uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM results
		 WHERE test_id = $1 AND finished_at IS NULL`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// AttemptInfoByCandidate maps test id to attempt state for a candidate.
// Backs the lobby listing so each test can show whether the candidate
// already finished it and with what score.
func (r *ResultRepository) AttemptInfoByCandidate(ctx context.Context, candidateID uuid.UUID) (map[uuid.UUID]model.AttemptInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT test_id, finished_at, total_score
		 FROM results WHERE candidate_id = $1`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	info := make(map[uuid.UUID]model.AttemptInfo)
	for rows.Next() {
		var testID uuid.UUID
		var a model.AttemptInfo
		if err := rows.Scan(&testID, &a.FinishedAt, &a.TotalScore); err != nil {
			return nil, err
		}
		info[testID] = a
	}
	return info, rows.Err()
}
