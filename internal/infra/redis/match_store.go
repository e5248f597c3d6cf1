package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-showdown/internal/domain"
)

// MatchStore keeps one hash per match (field path -> value) and publishes the
// new version on a per-match channel after every write.
//
//	HSET    match:{id} <field> <value> ... _version <n>
//	SET     match:code:{CODE} {id}
//	PUBLISH match:{id}:changes <n>
type MatchStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMatchStore(client *redis.Client, ttl time.Duration) *MatchStore {
	return &MatchStore{client: client, ttl: ttl}
}

// applyPatch checks existence and, when ARGV[1] is set, the expected version,
// then applies (op, field, value) triples, bumps _version and publishes it.
var applyPatch = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if ARGV[1] ~= '' then
  local current = redis.call('HGET', KEYS[1], '_version')
  if current ~= ARGV[1] then
    return -2
  end
end
for i = 3, #ARGV, 3 do
  if ARGV[i] == 'nx' then
    redis.call('HSETNX', KEYS[1], ARGV[i + 1], ARGV[i + 2])
  else
    redis.call('HSET', KEYS[1], ARGV[i + 1], ARGV[i + 2])
  end
end
local version = redis.call('HINCRBY', KEYS[1], '_version', 1)
redis.call('PUBLISH', ARGV[2], version)
return version
`)

func (s *MatchStore) Create(ctx context.Context, m domain.Match) error {
	fields := domain.EncodeMatch(m)
	fields[domain.FieldVersion] = "1"

	values := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(m.ID))
		pipe.HSet(ctx, s.key(m.ID), values...)
		pipe.Set(ctx, s.codeKey(m.Code), m.ID, s.ttl)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key(m.ID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *MatchStore) Get(ctx context.Context, matchID string) (domain.Match, error) {
	fields, err := s.client.HGetAll(ctx, s.key(matchID)).Result()
	if err != nil {
		return domain.Match{}, fmt.Errorf("get match: %w", err)
	}
	if len(fields) == 0 {
		return domain.Match{}, domain.ErrMatchNotFound
	}
	return domain.DecodeMatch(matchID, fields)
}

func (s *MatchStore) FindByCode(ctx context.Context, code string) (string, error) {
	id, err := s.client.Get(ctx, s.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrMatchNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find match by code: %w", err)
	}
	return id, nil
}

func (s *MatchStore) Update(ctx context.Context, matchID string, patch *domain.Patch) error {
	return s.apply(ctx, matchID, "", patch)
}

func (s *MatchStore) CompareAndUpdate(ctx context.Context, matchID string, version int64, patch *domain.Patch) error {
	return s.apply(ctx, matchID, strconv.FormatInt(version, 10), patch)
}

func (s *MatchStore) apply(ctx context.Context, matchID, expected string, patch *domain.Patch) error {
	args := make([]interface{}, 0, 2+len(patch.Writes())*3)
	args = append(args, expected, s.channel(matchID))
	for _, w := range patch.Writes() {
		op := "set"
		if w.OnlyIfAbsent {
			op = "nx"
		}
		args = append(args, op, w.Field, w.Value)
	}

	res, err := applyPatch.Run(ctx, s.client, []string{s.key(matchID)}, args...).Int64()
	if err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}
	switch res {
	case -1:
		return domain.ErrMatchNotFound
	case -2:
		return domain.ErrVersionConflict
	}
	return nil
}

// Watch subscribes to the change channel and re-reads the full hash on each
// notification. Snapshots at or below the last delivered version are skipped.
func (s *MatchStore) Watch(ctx context.Context, matchID string) (<-chan domain.Match, func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel(matchID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}
	initial, err := s.Get(ctx, matchID)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan domain.Match, 8)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	out <- initial
	go func() {
		defer close(out)
		last := initial.Version
		notifications := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-notifications:
				if !ok {
					return
				}
				m, err := s.Get(context.Background(), matchID)
				if err != nil {
					log.Printf("match %s: reload after change failed: %v", matchID, err)
					continue
				}
				if m.Version <= last {
					continue
				}
				last = m.Version
				select {
				case out <- m:
				case <-done:
					return
				}
			}
		}
	}()
	return out, cancel, nil
}

func (s *MatchStore) key(matchID string) string {
	return "match:" + matchID
}

func (s *MatchStore) codeKey(code string) string {
	return "match:code:" + code
}

func (s *MatchStore) channel(matchID string) string {
	return "match:" + matchID + ":changes"
}
