package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
)

// RetryPolicy задаёт повтор записи при недоступности хранилища.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxRetries      uint64
}

// DefaultRetry используется для второй записи составных операций.
var DefaultRetry = RetryPolicy{InitialInterval: 100 * time.Millisecond, MaxRetries: 3}

// Retry повторяет fn, пока хранилище отвечает ErrUnavailable.
// Остальные ошибки возвращаются сразу.
func (p RetryPolicy) Retry(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
	return backoff.Retry(func() error {
		err := fn()
		if err == nil || errors.Is(err, ErrUnavailable) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}
