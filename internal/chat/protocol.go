package chat

import (
	domainchat "github.com/geocoder89/inkpost/internal/domain/chat"
	"github.com/goccy/go-json"
)

const (
	TypeJoin    = "join"
	TypeMessage = "message"
	TypeLeave   = "leave"
	TypeHistory = "history"
	TypeError   = "error"
)

// Inbound is every frame a client may send.
type Inbound struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Body string `json:"body,omitempty"`
}

type historyFrame struct {
	Type     string               `json:"type"`
	Room     string               `json:"room"`
	Messages []domainchat.Message `json:"messages"`
}

type messageFrame struct {
	Type    string             `json:"type"`
	Room    string             `json:"room"`
	Message domainchat.Message `json:"message"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Room  string `json:"room,omitempty"`
	Error string `json:"error"`
}

func encodeHistory(room string, msgs []domainchat.Message) ([]byte, error) {
	if msgs == nil {
		msgs = []domainchat.Message{}
	}
	return json.Marshal(historyFrame{Type: TypeHistory, Room: room, Messages: msgs})
}

func encodeMessage(msg domainchat.Message) ([]byte, error) {
	return json.Marshal(messageFrame{Type: TypeMessage, Room: msg.Room, Message: msg})
}

func encodeError(room, reason string) []byte {
	b, _ := json.Marshal(errorFrame{Type: TypeError, Room: room, Error: reason})
	return b
}
