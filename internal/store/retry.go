package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/monitoring"
)

// The registry database intermittently drops connections, so every
// read and write is independently retried. No transaction spans more
// than one operation here.
const retryAttempts = 3

var retryBackoff = 500 * time.Millisecond

func withRetry[T any](ctx context.Context, label string, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == retryAttempts {
			break
		}
		monitoring.StoreRetries.Inc()
		log.Warn().Err(err).
			Str("op", label).
			Int("attempt", attempt).
			Msg("Company store operation failed, retrying")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return zero, lastErr
}
