package obs

import (
	"context"
	"time"

	"manifest-service/internal/platform/logger"
)

// Time logs the duration of op when the returned func runs.
// Use as: defer obs.Time(ctx, "trips.Create")(&err)
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)
		l := logger.FromContext(ctx)

		if errp != nil && *errp != nil {
			l.Warn().Str("op", op).Int64("dur_ms", dur.Milliseconds()).Err(*errp).Msg("op failed")
			return
		}
		l.Debug().Str("op", op).Int64("dur_ms", dur.Milliseconds()).Msg("op done")
	}
}
