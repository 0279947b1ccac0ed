// Package oauth keeps provider app tokens warm. Client-credentials grants
// carry no refresh token, so the keeper re-grants before expiry and persists
// the new token in the oauth_tokens table. Checks are jittered so multiple
// instances don't stampede the token endpoint.
package oauth

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tunebridge/backend/db"
)

// FetchFunc performs a provider-specific app-token grant.
type FetchFunc func(ctx context.Context) (access string, expiry time.Time, err error)

// StartKeeper launches a goroutine that keeps the provider's app token fresh.
// provider: key in the oauth_tokens table.
// interval: how often to wake up and check.
// window: re-grant when remaining lifetime <= window.
func StartKeeper(ctx context.Context, dbc *sql.DB, provider string, interval, window time.Duration, fn FetchFunc) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	// Randomize initial delay to spread load across instances.
	//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
	initialJitter := time.Duration(rand.Int63n(int64(interval / 2)))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			// Per-iteration jitter of up to 20% of the interval.
			jitterRange := int64(interval / 5)
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
			jitter := time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
			nextSleep := interval + jitter
			if nextSleep < interval/2 {
				nextSleep = interval / 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}

			_, _, exp, _, err := db.GetOAuthToken(ctx, dbc, provider)
			if err == nil && time.Until(exp) > window {
				continue
			}

			// Small pre-grant jitter to avoid stampedes when many pods see the
			// same expiry.
			//nolint:gosec // G404: math/rand is sufficient for jitter, not used for security
			pre := time.Duration(rand.Int63n(int64(5 * time.Second)))
			select {
			case <-ctx.Done():
				return
			case <-time.After(pre):
			}

			ctx2, cancel := context.WithTimeout(ctx, 15*time.Second)
			access, newExp, err := fn(ctx2)
			cancel()
			if err != nil {
				slog.Warn("app token grant failed", slog.String("provider", provider), slog.Any("err", err))
				continue
			}
			if err := db.UpsertOAuthToken(ctx, dbc, provider, access, "", newExp, ""); err != nil {
				slog.Warn("app token persist failed", slog.String("provider", provider), slog.Any("err", err))
				continue
			}
			slog.Info("app token refreshed", slog.String("provider", provider), slog.Time("expires_at", newExp))
		}
	}()
}
