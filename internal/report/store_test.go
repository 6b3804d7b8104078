package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardklafter/PriceYakalytics/internal/tracking"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, time.Minute), mr
}

func TestStoresTakeOnce(t *testing.T) {
	t.Parallel()

	redisStore, _ := newRedisStore(t)

	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(time.Minute),
	}

	for name, s := range stores {
		s := s
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			got, err := s.Take(ctx, "user-1")
			require.NoError(t, err)
			assert.Nil(t, got)

			in := Report{
				TrackingID: "GA-1",
				Attempted:  3,
				Failures:   []Failure{{AccountID: "a2", Error: "boom"}},
			}
			require.NoError(t, s.Save(ctx, "user-1", in))

			got, err = s.Take(ctx, "user-1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "GA-1", got.TrackingID)
			assert.Equal(t, 3, got.Attempted)
			assert.Equal(t, in.Failures, got.Failures)

			got, err = s.Take(ctx, "user-1")
			require.NoError(t, err)
			assert.Nil(t, got)

			assert.Error(t, s.Save(ctx, "", in))
		})
	}
}

func TestRedisStoreExpires(t *testing.T) {
	t.Parallel()

	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "user-1", Report{TrackingID: "GA-1"}))
	assert.Equal(t, time.Minute, mr.TTL("sync_report:user-1"))

	mr.FastForward(2 * time.Minute)

	got, err := s.Take(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreExpires(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(context.Background(), "user-1", Report{TrackingID: "GA-1"}))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	got, err := s.Take(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFromResult(t *testing.T) {
	t.Parallel()

	res := tracking.Result{Outcomes: []tracking.Outcome{
		{AccountID: "a1"},
		{AccountID: "a2", Err: &tracking.AccountWriteError{AccountID: "a2", Err: errors.New("boom")}},
		{AccountID: "a3", Skipped: true},
	}}

	r := FromResult("GA-1", res)
	assert.Equal(t, "GA-1", r.TrackingID)
	assert.Equal(t, 3, r.Attempted)
	require.Len(t, r.Failures, 1)
	assert.Equal(t, "a2", r.Failures[0].AccountID)
	assert.Contains(t, r.Failures[0].Error, "boom")
}
