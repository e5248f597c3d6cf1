package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-showdown/internal/domain"
)

// SoloScoreStore is an in-memory implementation of app.SoloScoreRepository.
type SoloScoreStore struct {
	mu     sync.RWMutex
	scores []domain.SoloScore
}

func NewSoloScoreStore() *SoloScoreStore {
	return &SoloScoreStore{}
}

func (s *SoloScoreStore) Add(_ context.Context, score domain.SoloScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = append(s.scores, score)
	return nil
}

func (s *SoloScoreStore) Top(_ context.Context, limit int) ([]domain.SoloScore, error) {
	s.mu.RLock()
	out := append([]domain.SoloScore(nil), s.scores...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DurationMs < out[j].DurationMs
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SoloScoreStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = nil
	return nil
}

func (s *SoloScoreStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.scores[:0]
	var removed int64
	for _, sc := range s.scores {
		if sc.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, sc)
	}
	s.scores = kept
	return removed, nil
}
