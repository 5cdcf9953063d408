package chat

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	domainchat "github.com/geocoder89/inkpost/internal/domain/chat"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(room string, i int) domainchat.Message {
	return domainchat.Message{
		Room:      room,
		AccountID: "acc",
		Username:  "sam",
		Body:      fmt.Sprintf("m%d", i),
		SentAt:    time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func bodies(msgs []domainchat.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Body)
	}
	return out
}

func exerciseHistory(t *testing.T, h History) {
	t.Helper()
	ctx := context.Background()

	empty, err := h.Recent(ctx, "quiet")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Append(ctx, msg("general", i)))
	}
	require.NoError(t, h.Append(ctx, msg("other", 9)))

	got, err := h.Recent(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m4", "m5"}, bodies(got))

	got, err = h.Recent(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []string{"m9"}, bodies(got))
}

func TestMemoryHistory_CapsPerRoom(t *testing.T) {
	exerciseHistory(t, NewMemoryHistory(3))
}

func TestRedisHistory_CapsPerRoom(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Del(ctx, historyKey("general"), historyKey("other"), historyKey("quiet")).Err())

	exerciseHistory(t, NewRedisHistory(client, 3))
}
