package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnova/mocktest-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, test_id, subject, question_type, question_text,
	options, numerical_answer, images, order_num`

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.TestID, &q.Subject, &q.QuestionType, &q.QuestionText,
		&q.Options, &q.NumericalAnswer, &q.Images, &q.OrderNum)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a question by id, options included.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

// ListByTest retrieves every question of a test ordered by subject then position.
func (r *QuestionRepository) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE test_id = $1
		 ORDER BY subject, order_num`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// SubjectsByTest returns the subject of every question in a test.
// Used by score aggregation to bucket answer entries per subject.
func (r *QuestionRepository) SubjectsByTest(ctx context.Context, testID uuid.UUID) (map[uuid.UUID]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject FROM questions WHERE test_id = $1`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := make(map[uuid.UUID]model.Subject)
	for rows.Next() {
		var id uuid.UUID
		var subject model.Subject
		if err := rows.Scan(&id, &subject); err != nil {
			return nil, err
		}
		subjects[id] = subject
	}
	return subjects, rows.Err()
}

// CountByTest returns the number of questions in a test.
func (r *QuestionRepository) CountByTest(ctx context.Context, testID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE test_id = $1`, testID).Scan(&count)
	return count, err
}

// Create inserts a new question. Options are stored as JSONB.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (test_id, subject, question_type, question_text, options, numerical_answer, images, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.TestID, q.Subject, q.QuestionType, q.QuestionText, q.Options, q.NumericalAnswer, q.Images, q.OrderNum,
	).Scan(&q.ID)
}
