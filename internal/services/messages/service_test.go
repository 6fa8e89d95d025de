package messages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/storage/memory"
)

func TestListForUserNewestFirst(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store := memory.New(memory.WithClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := store.CreateMessage(ctx, domain.NewNotification("u1", content))
		require.NoError(t, err)
	}
	_, err := store.CreateMessage(ctx, domain.NewNotification("u2", "other"))
	require.NoError(t, err)

	msgs, err := New(store).ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "third", msgs[0].Content)
	assert.Equal(t, "first", msgs[2].Content)
}
