package vault

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries bounds retries of transient read failures
	DefaultMaxRetries = 3

	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

// Retrying retries idempotent reads that fail with ErrTransient.
// Mutations are passed through untouched so a bulk operation never
// dispatches the same delete or create twice.
type Retrying struct {
	Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
	log        zerolog.Logger
}

// NewRetrying wraps c with exponential backoff on transient read failures
func NewRetrying(c Client, maxRetries uint64, log zerolog.Logger) *Retrying {
	return &Retrying{
		Client:     c,
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			exp := backoff.NewExponentialBackOff()
			exp.InitialInterval = defaultInitialInterval
			exp.MaxInterval = defaultMaxInterval
			return exp
		},
		log: log,
	}
}

// ListItems lists items, retrying transient failures
func (r *Retrying) ListItems(ctx context.Context, vaultRef string, kind Kind) ([]Item, error) {
	return retryRead(ctx, r, "list_items", func() ([]Item, error) {
		return r.Client.ListItems(ctx, vaultRef, kind)
	})
}

// ListDeleted lists soft-deleted items, retrying transient failures
func (r *Retrying) ListDeleted(ctx context.Context, vaultRef string) ([]Item, error) {
	return retryRead(ctx, r, "list_deleted", func() ([]Item, error) {
		return r.Client.ListDeleted(ctx, vaultRef)
	})
}

// GetValue fetches a value, retrying transient failures
func (r *Retrying) GetValue(ctx context.Context, vaultRef, name string) (SecretValue, error) {
	return retryRead(ctx, r, "get_value", func() (SecretValue, error) {
		return r.Client.GetValue(ctx, vaultRef, name)
	})
}

func retryRead[T any](ctx context.Context, r *Retrying, op string, fn func() (T, error)) (T, error) {
	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		v, err := fn()
		if err != nil && !errors.Is(err, ErrTransient) {
			return v, backoff.Permanent(err)
		}
		if err != nil {
			r.log.Debug().Str("op", op).Int("attempt", attempt).Err(err).Msg("transient vault failure")
		}
		return v, err
	}, policy)
}
