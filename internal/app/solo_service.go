package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"strings"
	"time"

	"trivia-showdown/internal/domain"
)

// SoloScoreRepository stores finished solo runs (in-memory, Postgres, etc).
type SoloScoreRepository interface {
	Add(ctx context.Context, score domain.SoloScore) error
	Top(ctx context.Context, limit int) ([]domain.SoloScore, error)
	Clear(ctx context.Context) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const (
	defaultSoloLimit = 20
	maxSoloLimit     = 100
)

// SoloService manages the solo leaderboard.
type SoloService struct {
	repo      SoloScoreRepository
	passcode  string
	retention time.Duration
	now       func() time.Time
}

func NewSoloService(repo SoloScoreRepository, ownerPasscode string, retention time.Duration) *SoloService {
	return &SoloService{repo: repo, passcode: ownerPasscode, retention: retention, now: time.Now}
}

// Submit records a solo result and prunes entries older than the retention window.
func (s *SoloService) Submit(ctx context.Context, score domain.SoloScore) error {
	if score.Score < 0 || score.DurationMs < 0 || score.Correct < 0 || score.Correct > score.Total {
		return fmt.Errorf("%w: malformed solo score", domain.ErrInvalidConfig)
	}
	score.Name = cleanName(score.Name)
	score.CreatedAt = s.now()
	if err := s.repo.Add(ctx, score); err != nil {
		return err
	}

	if s.retention > 0 {
		removed, err := s.repo.DeleteBefore(ctx, s.now().Add(-s.retention))
		if err != nil {
			log.Printf("prune solo scores: %v", err)
		} else if removed > 0 {
			log.Printf("pruned %d solo scores", removed)
		}
	}
	return nil
}

// Top returns the best runs by score desc, then duration asc.
func (s *SoloService) Top(ctx context.Context, limit int) ([]domain.SoloScore, error) {
	if limit <= 0 {
		limit = defaultSoloLimit
	}
	return s.repo.Top(ctx, min(limit, maxSoloLimit))
}

// Clear wipes the leaderboard when the owner passcode matches.
func (s *SoloService) Clear(ctx context.Context, passcode string) error {
	if s.passcode == "" || subtle.ConstantTimeCompare([]byte(s.passcode), []byte(strings.TrimSpace(passcode))) != 1 {
		return domain.ErrInvalidPin
	}
	return s.repo.Clear(ctx)
}
