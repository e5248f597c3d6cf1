package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"trivia-showdown/internal/domain"
	"trivia-showdown/internal/metrics"
)

// txFunc computes the patch to commit from a snapshot. Returning an error
// aborts the transaction without writing; an empty patch commits nothing.
type txFunc func(m domain.Match) (*domain.Patch, error)

// runTransaction reads the record with its version, computes a patch and
// commits it with a compare-and-swap. Version conflicts are retried with
// exponential backoff until MaxAttempts is reached.
func (s *MatchService) runTransaction(ctx context.Context, matchID string, fn txFunc) error {
	attempts := 0
	op := func() error {
		attempts++
		m, err := s.store.Get(ctx, matchID)
		if err != nil {
			return backoff.Permanent(err)
		}
		patch, err := fn(m)
		if err != nil {
			return backoff.Permanent(err)
		}
		if patch.Empty() {
			return nil
		}
		err = s.store.CompareAndUpdate(ctx, matchID, m.Version, patch)
		if err != nil && !errors.Is(err, domain.ErrVersionConflict) {
			return backoff.Permanent(err)
		}
		return err
	}

	retries := uint64(max(s.opts.MaxAttempts, 1) - 1)
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), retries), ctx)
	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		metrics.TransactionRetries.Inc()
	})
	if errors.Is(err, domain.ErrVersionConflict) {
		metrics.TransactionsExhausted.Inc()
		log.Printf("match %s: transaction gave up after %d attempts", matchID, attempts)
		return fmt.Errorf("%w (%d attempts)", domain.ErrConflictRetryExhausted, attempts)
	}
	return err
}

func (s *MatchService) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.InitialBackoff
	b.MaxInterval = s.opts.MaxBackoff
	b.MaxElapsedTime = 0
	return b
}
