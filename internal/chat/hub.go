package chat

import (
	"context"
	"errors"
	"sync"
)

var ErrHubStopped = errors.New("chat hub is not running")

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opJoin
	opLeave
)

type op struct {
	kind   opKind
	client *Client
	room   string
	done   chan struct{}
}

// Hub owns room membership. Every change goes through the Run loop in order,
// and the room map is read under an RWMutex for broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[*Client]struct{}

	ops     chan op
	stopped chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
		ops:     make(chan op, 256),
		stopped: make(chan struct{}),
	}
}

// Run applies membership changes until ctx is done, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for _, c := range h.clients {
			c.closeSend()
		}
		h.clients = make(map[string]*Client)
		h.rooms = make(map[string]map[*Client]struct{})
		h.mu.Unlock()
		close(h.stopped)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case o := <-h.ops:
			h.apply(o)
			close(o.done)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

func (h *Hub) Register(c *Client) error { return h.submit(opRegister, c, "") }
func (h *Hub) Unregister(c *Client) error { return h.submit(opUnregister, c, "") }
func (h *Hub) Join(c *Client, room string) error { return h.submit(opJoin, c, room) }
func (h *Hub) Leave(c *Client, room string) error { return h.submit(opLeave, c, room) }

// submit blocks until the change is applied, so a join is visible to the
// very next frame from the same client.
func (h *Hub) submit(kind opKind, c *Client, room string) error {
	o := op{kind: kind, client: c, room: room, done: make(chan struct{})}

	select {
	case h.ops <- o:
	case <-h.stopped:
		return ErrHubStopped
	}

	select {
	case <-o.done:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	}
}

func (h *Hub) apply(o op) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch o.kind {
	case opRegister:
		h.clients[o.client.ID] = o.client
	case opUnregister:
		h.removeClientLocked(o.client)
	case opJoin:
		if _, ok := h.clients[o.client.ID]; !ok {
			return
		}
		members, ok := h.rooms[o.room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[o.room] = members
		}
		members[o.client] = struct{}{}
		o.client.addRoom(o.room)
	case opLeave:
		h.leaveLocked(o.client, o.room)
		o.client.removeRoom(o.room)
	}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// removeClientLocked is safe to call twice for the same client.
func (h *Hub) removeClientLocked(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}

	for _, room := range c.Rooms() {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c.ID)
	c.closeSend()
}

// Broadcast queues frame for every local member of room and returns how many
// accepted it.
func (h *Hub) Broadcast(room string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.rooms[room] {
		if c.Send(frame) {
			n++
		}
	}
	return n
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
