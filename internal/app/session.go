package app

import (
	"context"
	"sync"
	"time"

	"trivia-showdown/internal/domain"
)

// Session is the per-client context: the latest record of one match, the
// subscription delivering it and, for players, the player id.
type Session struct {
	MatchID  string
	PlayerID string

	service *MatchService
	updates <-chan domain.Match
	cancel  func()

	mu      sync.RWMutex
	current domain.Match
}

// NewSession subscribes to a match and waits for the initial snapshot.
// playerID is empty for host sessions.
func (s *MatchService) NewSession(ctx context.Context, matchID, playerID string) (*Session, error) {
	updates, cancel, err := s.Subscribe(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var initial domain.Match
	select {
	case m, ok := <-updates:
		if !ok {
			cancel()
			return nil, domain.ErrMatchNotFound
		}
		initial = m
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	return &Session{
		MatchID:  matchID,
		PlayerID: playerID,
		service:  s,
		updates:  updates,
		cancel:   cancel,
		current:  initial,
	}, nil
}

// Current returns the latest delivered record.
func (s *Session) Current() domain.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// View derives the client view from the latest record.
func (s *Session) View(now time.Time) domain.MatchView {
	return domain.NewMatchView(s.Current(), s.PlayerID, now)
}

// Run stores each delivered snapshot and hands it to onChange until the
// subscription is closed or ctx is done.
func (s *Session) Run(ctx context.Context, onChange func(domain.Match)) error {
	for {
		select {
		case m, ok := <-s.updates:
			if !ok {
				return nil
			}
			s.mu.Lock()
			s.current = m
			s.mu.Unlock()
			if onChange != nil {
				onChange(m)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Submit sends an answer on behalf of the session's player.
func (s *Session) Submit(ctx context.Context, idx, ms int) (SubmitResult, error) {
	if s.PlayerID == "" {
		return SubmitResult{}, domain.ErrPlayerNotFound
	}
	return s.service.SubmitAnswer(ctx, s.MatchID, s.PlayerID, idx, ms)
}

// Close cancels the subscription. It is safe to call more than once.
func (s *Session) Close() {
	s.cancel()
}
