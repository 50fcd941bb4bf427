package browse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sburl/ebay-oauth-go/internal/browse"
)

func TestRateLimiter_DailyLimit(t *testing.T) {
	t.Parallel()

	r := browse.NewRateLimiter(1000, 1000, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Wait(context.Background()))
	}
	assert.Equal(t, int64(3), r.DailyCount())

	err := r.Wait(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, browse.ErrDailyLimitReached)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	t.Parallel()

	now := time.Now()
	r := browse.NewRateLimiter(1000, 1000, 1,
		browse.WithRateLimiterNowFunc(func() time.Time { return now }),
	)

	require.NoError(t, r.Wait(context.Background()))
	require.ErrorIs(t, r.Wait(context.Background()), browse.ErrDailyLimitReached)

	// A day later the window rolls over and the quota is back.
	now = now.Add(25 * time.Hour)
	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, int64(1), r.DailyCount())
}
