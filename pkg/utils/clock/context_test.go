package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/utils/clock"
)

func TestClock(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 30, 0, 123456789, time.UTC)
	ctx := clock.With(context.Background(), clock.Fixed(now))

	gt.Equal(t, clock.Now(ctx), now.Truncate(time.Microsecond))
	gt.Equal(t, clock.Since(ctx, now.Add(-time.Hour).Truncate(time.Microsecond)), time.Hour)
}

func TestClockDefault(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	gt.True(t, clock.Now(context.Background()).After(before))
}
