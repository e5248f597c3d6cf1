package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"trivia-showdown/internal/domain"
)

type soloScoreRow struct {
	bun.BaseModel `bun:"table:solo_scores"`

	ID         int64     `bun:"id,pk,autoincrement"`
	Name       string    `bun:"name,notnull"`
	SetID      string    `bun:"set_id"`
	Score      int       `bun:"score,notnull"`
	Correct    int       `bun:"correct"`
	Total      int       `bun:"total"`
	DurationMs int64     `bun:"duration_ms"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

// SoloScoreStore persists the solo leaderboard with bun.
type SoloScoreStore struct {
	db *bun.DB
}

func NewSoloScoreStore(db *bun.DB) *SoloScoreStore {
	return &SoloScoreStore{db: db}
}

func (s *SoloScoreStore) Add(ctx context.Context, score domain.SoloScore) error {
	row := &soloScoreRow{
		Name:       score.Name,
		SetID:      score.SetID,
		Score:      score.Score,
		Correct:    score.Correct,
		Total:      score.Total,
		DurationMs: score.DurationMs,
		CreatedAt:  score.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert solo score: %w", err)
	}
	return nil
}

func (s *SoloScoreStore) Top(ctx context.Context, limit int) ([]domain.SoloScore, error) {
	var rows []soloScoreRow
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("score DESC").
		OrderExpr("duration_ms ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select solo scores: %w", err)
	}
	out := make([]domain.SoloScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SoloScore{
			Name:       r.Name,
			SetID:      r.SetID,
			Score:      r.Score,
			Correct:    r.Correct,
			Total:      r.Total,
			DurationMs: r.DurationMs,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

func (s *SoloScoreStore) Clear(ctx context.Context) error {
	if _, err := s.db.NewTruncateTable().Model((*soloScoreRow)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("clear solo scores: %w", err)
	}
	return nil
}

func (s *SoloScoreStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*soloScoreRow)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune solo scores: %w", err)
	}
	return res.RowsAffected()
}
