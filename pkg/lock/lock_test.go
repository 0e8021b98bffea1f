package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire fails while held", func(t *testing.T) {
		l := NewLocalLocker()
		release, ok, err := l.TryAcquire(ctx, "sweep", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = l.TryAcquire(ctx, "sweep", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		release()
		_, ok, _ = l.TryAcquire(ctx, "sweep", time.Minute)
		assert.True(t, ok)
	})

	t.Run("expired lease can be taken", func(t *testing.T) {
		l := NewLocalLocker()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		_, ok, _ := l.TryAcquire(ctx, "sweep", time.Second)
		require.True(t, ok)

		now = now.Add(2 * time.Second)
		_, ok, _ = l.TryAcquire(ctx, "sweep", time.Second)
		assert.True(t, ok)
	})

	t.Run("stale release keeps the new holder", func(t *testing.T) {
		l := NewLocalLocker()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		staleRelease, _, _ := l.TryAcquire(ctx, "sweep", time.Second)
		now = now.Add(2 * time.Second)
		_, ok, _ := l.TryAcquire(ctx, "sweep", time.Minute)
		require.True(t, ok)

		staleRelease()
		_, ok, _ = l.TryAcquire(ctx, "sweep", time.Minute)
		assert.False(t, ok)
	})
}
