package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// QuestionRepository handles persistence for questions.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, asker_id, founder_id, question, answer, category, anonymous, is_answered,
	answered_at, created_at, updated_at`

func scanQuestion(row rowScanner) (types.Question, error) {
	var q types.Question
	var answeredAt sql.NullTime
	err := row.Scan(
		&q.ID,
		&q.AskerID,
		&q.FounderID,
		&q.Text,
		&q.Answer,
		&q.Category,
		&q.Anonymous,
		&q.IsAnswered,
		&answeredAt,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Question{}, ErrNotFound
		}
		return types.Question{}, err
	}
	if answeredAt.Valid {
		at := answeredAt.Time
		q.AnsweredAt = &at
	}
	return q, nil
}

func (r *QuestionRepository) Get(ctx context.Context, id int) (types.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	return scanQuestion(r.db.QueryRowContext(ctx, query, id))
}

func (r *QuestionRepository) ListByFounder(ctx context.Context, founderID int) ([]types.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE founder_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, founderID)
}

func (r *QuestionRepository) ListByAsker(ctx context.Context, askerID int) ([]types.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE asker_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, askerID)
}

func (r *QuestionRepository) list(ctx context.Context, query string, args ...any) ([]types.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]types.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionRepository) Create(ctx context.Context, q types.Question) (types.Question, error) {
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	const query = `
		INSERT INTO questions (asker_id, founder_id, question, category, anonymous, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		q.AskerID,
		q.FounderID,
		q.Text,
		q.Category,
		q.Anonymous,
		q.CreatedAt,
		q.UpdatedAt,
	).Scan(&q.ID); err != nil {
		return types.Question{}, err
	}
	return q, nil
}

// Update writes the text, category, anonymity and answer fields of q.
func (r *QuestionRepository) Update(ctx context.Context, q types.Question) (types.Question, error) {
	q.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE questions
		SET question = $1,
			category = $2,
			anonymous = $3,
			answer = $4,
			is_answered = $5,
			answered_at = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING ` + questionColumns
	return scanQuestion(r.db.QueryRowContext(
		ctx,
		query,
		q.Text,
		q.Category,
		q.Anonymous,
		q.Answer,
		q.IsAnswered,
		q.AnsweredAt,
		q.UpdatedAt,
		q.ID,
	))
}

func (r *QuestionRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM questions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
