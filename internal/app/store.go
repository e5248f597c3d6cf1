package app

import (
	"context"

	"trivia-showdown/internal/domain"
)

// MatchStore abstracts the document store holding one record per match
// (in-memory, Redis, etc).
//
// Every successful write bumps the record version. CompareAndUpdate applies
// the patch only if the stored version still equals version, otherwise it
// returns domain.ErrVersionConflict. Watch delivers the full record first and
// after every change; the returned func cancels delivery and closes the channel.
type MatchStore interface {
	Create(ctx context.Context, m domain.Match) error
	Get(ctx context.Context, matchID string) (domain.Match, error)
	FindByCode(ctx context.Context, code string) (string, error)
	Update(ctx context.Context, matchID string, patch *domain.Patch) error
	CompareAndUpdate(ctx context.Context, matchID string, version int64, patch *domain.Patch) error
	Watch(ctx context.Context, matchID string) (<-chan domain.Match, func(), error)
}

// QuestionSetRepository loads question set content (from cache/backing store).
type QuestionSetRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}
