package memory

import (
	"context"
	"log"
	"sync"

	"trivia-showdown/internal/domain"
)

// MatchStore is an in-memory implementation of app.MatchStore. Records are
// kept as field maps so patches behave exactly like the Redis backend.
type MatchStore struct {
	mu      sync.Mutex
	records map[string]*record
	codes   map[string]string
}

type record struct {
	fields      map[string]string
	version     int64
	subscribers map[chan domain.Match]struct{}
}

func NewMatchStore() *MatchStore {
	return &MatchStore{
		records: make(map[string]*record),
		codes:   make(map[string]string),
	}
}

func (s *MatchStore) Create(_ context.Context, m domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[m.ID] = &record{
		fields:      domain.EncodeMatch(m),
		version:     1,
		subscribers: make(map[chan domain.Match]struct{}),
	}
	s.codes[m.Code] = m.ID
	return nil
}

func (s *MatchStore) Get(_ context.Context, matchID string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[matchID]
	if !ok {
		return domain.Match{}, domain.ErrMatchNotFound
	}
	return rec.decode(matchID)
}

func (s *MatchStore) FindByCode(_ context.Context, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[code]
	if !ok {
		return "", domain.ErrMatchNotFound
	}
	return id, nil
}

func (s *MatchStore) Update(_ context.Context, matchID string, patch *domain.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	s.applyLocked(matchID, rec, patch)
	return nil
}

func (s *MatchStore) CompareAndUpdate(_ context.Context, matchID string, version int64, patch *domain.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if rec.version != version {
		return domain.ErrVersionConflict
	}
	s.applyLocked(matchID, rec, patch)
	return nil
}

func (s *MatchStore) Watch(_ context.Context, matchID string) (<-chan domain.Match, func(), error) {
	ch := make(chan domain.Match, 8)

	s.mu.Lock()
	rec, ok := s.records[matchID]
	if !ok {
		s.mu.Unlock()
		return nil, nil, domain.ErrMatchNotFound
	}
	initial, err := rec.decode(matchID)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	rec.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := rec.subscribers[ch]; ok {
			delete(rec.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *MatchStore) applyLocked(matchID string, rec *record, patch *domain.Patch) {
	patch.ApplyTo(rec.fields)
	rec.version++
	s.broadcastLocked(matchID, rec)
}

func (s *MatchStore) broadcastLocked(matchID string, rec *record) {
	if len(rec.subscribers) == 0 {
		return
	}
	m, err := rec.decode(matchID)
	if err != nil {
		log.Printf("match %s: decode for broadcast failed: %v", matchID, err)
		return
	}
	for ch := range rec.subscribers {
		select {
		case ch <- m:
		default:
			// slow subscriber: drop its oldest snapshot, the newest one wins
			select {
			case <-ch:
			default:
			}
			ch <- m
		}
	}
}

func (r *record) decode(matchID string) (domain.Match, error) {
	m, err := domain.DecodeMatch(matchID, r.fields)
	if err != nil {
		return domain.Match{}, err
	}
	m.Version = r.version
	return m, nil
}
