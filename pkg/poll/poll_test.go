package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUntilReturnsTerminalValue(t *testing.T) {
	var calls int32
	got, err := Until(context.Background(), Options{Interval: time.Millisecond}, func(ctx context.Context) (string, bool, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return "in_progress", false, nil
		}
		return "completed", true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUntilPropagatesCheckError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Until(context.Background(), Options{Interval: time.Millisecond}, func(ctx context.Context) (int, bool, error) {
		return 0, false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestUntilMaxWait(t *testing.T) {
	opts := Options{Interval: time.Millisecond, MaxWait: 20 * time.Millisecond}
	_, err := Until(context.Background(), opts, func(ctx context.Context) (string, bool, error) {
		return "queued", false, nil
	})
	assert.ErrorIs(t, err, ErrDeadline)
}

func TestUntilMaxWaitDuringCheck(t *testing.T) {
	opts := Options{Interval: time.Millisecond, MaxWait: 10 * time.Millisecond}
	_, err := Until(context.Background(), opts, func(ctx context.Context) (string, bool, error) {
		<-ctx.Done()
		return "", false, ctx.Err()
	})
	assert.ErrorIs(t, err, ErrDeadline)
}

func TestUntilCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	_, err := Until(ctx, Options{Interval: time.Millisecond, MaxWait: time.Minute}, func(context.Context) (string, bool, error) {
		if atomic.AddInt32(&calls, 1) == 2 {
			cancel()
		}
		return "in_progress", false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDeadline)
}
