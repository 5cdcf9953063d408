package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainchat "github.com/geocoder89/inkpost/internal/domain/chat"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Broker fans a message out to every subscriber of its room.
type Broker interface {
	Publish(ctx context.Context, msg domainchat.Message) error
}

// LocalBroker delivers straight to this process's hub. Single node only.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, msg domainchat.Message) error {
	frame, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	b.hub.Broadcast(msg.Room, frame)
	return nil
}

const roomChannelPrefix = "chat:room:"

// RedisBroker publishes on chat:room:<room> so every API instance subscribed
// through Run delivers to its own local members.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
	log    *slog.Logger
}

func NewRedisBroker(client *redis.Client, hub *Hub, log *slog.Logger) *RedisBroker {
	if log == nil {
		log = slog.Default()
	}
	return &RedisBroker{client: client, hub: hub, log: log}
}

func (b *RedisBroker) Publish(ctx context.Context, msg domainchat.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := b.client.Publish(ctx, roomChannelPrefix+msg.Room, payload).Err(); err != nil {
		return fmt.Errorf("publish chat message: %w", err)
	}
	return nil
}

// Run blocks relaying published messages into the hub until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, roomChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe chat rooms: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}

			var msg domainchat.Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.log.Warn("chat_bad_payload", "channel", m.Channel, "err", err)
				continue
			}
			msg.Room = strings.TrimPrefix(m.Channel, roomChannelPrefix)

			frame, err := encodeMessage(msg)
			if err != nil {
				continue
			}
			b.hub.Broadcast(msg.Room, frame)
		}
	}
}
