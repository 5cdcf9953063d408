package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainchat "github.com/geocoder89/inkpost/internal/domain/chat"
	"github.com/geocoder89/inkpost/internal/observability"
	"github.com/goccy/go-json"
)

var (
	errBadFrame    = errors.New("frame must be a JSON object")
	errUnknownType = errors.New("unknown frame type")
)

// Relay turns client frames into hub membership changes and room messages.
type Relay struct {
	hub     *Hub
	history History
	broker  Broker
	prom    *observability.Prom
	log     *slog.Logger
	now     func() time.Time
}

func NewRelay(hub *Hub, history History, broker Broker, prom *observability.Prom, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		hub:     hub,
		history: history,
		broker:  broker,
		prom:    prom,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// HandleFrame processes one inbound frame. Failures are reported back to the
// sender as an error frame and never close the connection.
func (r *Relay) HandleFrame(ctx context.Context, c *Client, raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		r.prom.ChatFrame("invalid", "error")
		c.Send(encodeError("", errBadFrame.Error()))
		return
	}

	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Room = strings.TrimSpace(in.Room)

	var err error
	switch in.Type {
	case TypeJoin:
		err = r.join(ctx, c, in.Room)
	case TypeMessage:
		err = r.message(ctx, c, in.Room, in.Body)
	case TypeLeave:
		err = r.leave(c, in.Room)
	default:
		in.Type = "unknown"
		err = errUnknownType
	}

	if err == nil {
		r.prom.ChatFrame(in.Type, "ok")
		return
	}

	r.prom.ChatFrame(in.Type, "error")
	c.Send(encodeError(in.Room, r.publicReason(ctx, c, in, err)))
}

func (r *Relay) publicReason(ctx context.Context, c *Client, in Inbound, err error) string {
	switch {
	case errors.Is(err, domainchat.ErrInvalidRoom),
		errors.Is(err, domainchat.ErrInvalidBody),
		errors.Is(err, domainchat.ErrNotInRoom),
		errors.Is(err, errUnknownType):
		return err.Error()
	}

	r.log.ErrorContext(ctx, "chat_frame_failed",
		"type", in.Type,
		"room", in.Room,
		"account_id", c.AccountID,
		"err", err,
	)
	return "internal error"
}

func (r *Relay) join(ctx context.Context, c *Client, room string) error {
	if !domainchat.ValidRoom(room) {
		return domainchat.ErrInvalidRoom
	}

	if err := r.hub.Join(c, room); err != nil {
		return err
	}

	msgs, err := r.history.Recent(ctx, room)
	if err != nil {
		return err
	}

	frame, err := encodeHistory(room, msgs)
	if err != nil {
		return err
	}
	c.Send(frame)
	return nil
}

func (r *Relay) message(ctx context.Context, c *Client, room, body string) error {
	if !domainchat.ValidRoom(room) {
		return domainchat.ErrInvalidRoom
	}
	if !c.InRoom(room) {
		return domainchat.ErrNotInRoom
	}

	body = strings.TrimSpace(body)
	if err := domainchat.ValidateBody(body); err != nil {
		return err
	}

	msg := domainchat.Message{
		Room:      room,
		AccountID: c.AccountID,
		Username:  c.Username,
		Body:      body,
		SentAt:    r.now(),
	}

	if err := r.history.Append(ctx, msg); err != nil {
		return err
	}

	return r.broker.Publish(ctx, msg)
}

func (r *Relay) leave(c *Client, room string) error {
	if !domainchat.ValidRoom(room) {
		return domainchat.ErrInvalidRoom
	}
	return r.hub.Leave(c, room)
}
