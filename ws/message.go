package ws

import (
	"github.com/goccy/go-json"
)

// Inbound message types.
const (
	MessageUsername   = "username"
	MessageUseCard    = "use card"
	MessageMoreCards  = "more cards"
	MessageMiddleCard = "middle card"
)

// Message is the outbound envelope.
type Message struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Inbound is a decoded client message. Value is decoded by the handler.
type Inbound struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// PayloadMatch is sent to both connections of a new pairing.
type PayloadMatch struct {
	RoomName string `json:"room_name"`
	Ticket   string `json:"ticket,omitempty"`
}

// frame is one unit of egress: an encoded message or a close directive.
type frame struct {
	data  []byte
	close bool
}

func encode(v any) (frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return frame{}, err
	}
	return frame{data: b}, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
