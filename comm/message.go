package comm

import (
	"fmt"
	"strings"

	"github.com/satori/go.uuid"
)

// Structs

// Message represents one sync transmission between replicas. It
// consists of the name of the originating replica, a delivery
// tag unique per transmission and the marshalled operation
// record to apply at the receiver's sequence replica.
type Message struct {
	Sender  string
	Tag     string
	Payload string
}

// Functions

// NewMessage returns a Message wrapping the supplied payload,
// carrying a fresh delivery tag.
func NewMessage(sender string, payload string) *Message {

	return &Message{
		Sender:  sender,
		Tag:     uuid.NewV4().String(),
		Payload: payload,
	}
}

// String marshals given Message m into string representation so
// that we can send it out onto the connection.
func (m *Message) String() string {
	return fmt.Sprintf("%s|%s|%s", m.Sender, m.Tag, m.Payload)
}

// Parse takes in supplied string representing a received message
// and parses it back into message struct form.
func Parse(msg string) (*Message, error) {

	// Remove attached newline symbol.
	msg = strings.TrimRight(msg, "\r\n")

	// Split message at pipe symbol at maximum two times.
	parts := strings.SplitN(msg, "|", 3)

	// Messages with less than three parts are discarded.
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid sync message")
	}

	// Check sender part of message.
	if len(parts[0]) < 1 {
		return nil, fmt.Errorf("invalid sync message because sender replica name is missing")
	}

	// Check delivery tag part of message.
	if len(parts[1]) < 1 {
		return nil, fmt.Errorf("invalid sync message because delivery tag is missing")
	}

	return &Message{
		Sender:  parts[0],
		Tag:     parts[1],
		Payload: parts[2],
	}, nil
}
