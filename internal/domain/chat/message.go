package chat

import (
	"errors"
	"regexp"
	"time"
	"unicode/utf8"
)

const MaxBodyRunes = 2000

var (
	ErrInvalidRoom = errors.New("room must be 1-64 characters of letters, digits, '-' or '_'")
	ErrInvalidBody = errors.New("message body must be 1-2000 characters")
	ErrNotInRoom   = errors.New("join the room before sending to it")
)

var roomPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Message struct {
	Room      string    `json:"room"`
	AccountID string    `json:"accountId"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}

func ValidRoom(room string) bool {
	return roomPattern.MatchString(room)
}

func ValidateBody(body string) error {
	n := utf8.RuneCountInString(body)
	if n == 0 || n > MaxBodyRunes {
		return ErrInvalidBody
	}
	return nil
}
