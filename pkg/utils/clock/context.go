package clock

import (
	"context"
	"time"
)

type ctxClockKey struct{}

type Clock func() time.Time

// Now returns the context clock time truncated to microseconds, in UTC.
// Truncation keeps timestamps stable across storage backends.
func Now(ctx context.Context) time.Time {
	clock, ok := ctx.Value(ctxClockKey{}).(Clock)
	if !ok {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return clock().UTC().Truncate(time.Microsecond)
}

func Since(ctx context.Context, t time.Time) time.Duration {
	return Now(ctx).Sub(t)
}

func With(ctx context.Context, clock Clock) context.Context {
	return context.WithValue(ctx, ctxClockKey{}, clock)
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// From returns the Clock stored in ctx, if any.
func From(ctx context.Context) (Clock, bool) {
	c, ok := ctx.Value(ctxClockKey{}).(Clock)
	return c, ok
}
