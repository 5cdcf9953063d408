package chat

import (
	"context"
	"fmt"
	"sync"

	domainchat "github.com/geocoder89/inkpost/internal/domain/chat"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const defaultHistoryLimit = 50

// History keeps the most recent messages per room, oldest first.
type History interface {
	Append(ctx context.Context, msg domainchat.Message) error
	Recent(ctx context.Context, room string) ([]domainchat.Message, error)
}

type MemoryHistory struct {
	mu    sync.Mutex
	limit int
	rooms map[string][]domainchat.Message
}

func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &MemoryHistory{limit: limit, rooms: make(map[string][]domainchat.Message)}
}

func (h *MemoryHistory) Append(_ context.Context, msg domainchat.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.rooms[msg.Room], msg)
	if len(msgs) > h.limit {
		msgs = append([]domainchat.Message(nil), msgs[len(msgs)-h.limit:]...)
	}
	h.rooms[msg.Room] = msgs
	return nil
}

func (h *MemoryHistory) Recent(_ context.Context, room string) ([]domainchat.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]domainchat.Message(nil), h.rooms[room]...), nil
}

// RedisHistory stores each room as a capped list at chat:history:<room>.
type RedisHistory struct {
	client *redis.Client
	limit  int
}

func NewRedisHistory(client *redis.Client, limit int) *RedisHistory {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &RedisHistory{client: client, limit: limit}
}

func historyKey(room string) string {
	return "chat:history:" + room
}

func (h *RedisHistory) Append(ctx context.Context, msg domainchat.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := historyKey(msg.Room)

	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-h.limit), -1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Recent(ctx context.Context, room string) ([]domainchat.Message, error) {
	raw, err := h.client.LRange(ctx, historyKey(room), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat history: %w", err)
	}

	out := make([]domainchat.Message, 0, len(raw))
	for _, item := range raw {
		var m domainchat.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
