package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-showdown/internal/domain"
)

// QuestionSetLoader loads question set JSONB from Postgres.
type QuestionSetLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionSetLoader(pool *pgxpool.Pool) *QuestionSetLoader {
	return &QuestionSetLoader{pool: pool}
}

func (l *QuestionSetLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var (
		title, category string
		raw             []byte
	)
	err := l.pool.QueryRow(ctx, `SELECT title, category, data FROM question_sets WHERE id=$1`, setID).Scan(&title, &category, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
	}
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	set.ID = setID
	if set.Title == "" {
		set.Title = title
	}
	if set.Category == "" {
		set.Category = category
	}
	return set, nil
}

// SaveQuestionSet upserts a set; used by seeding and tests.
func (l *QuestionSetLoader) SaveQuestionSet(ctx context.Context, set domain.QuestionSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO question_sets (id, title, category, data) VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, category=EXCLUDED.category, data=EXCLUDED.data`,
		set.ID, set.Title, set.Category, string(data))
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}
