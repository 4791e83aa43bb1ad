package tokens

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/judgegodwins/pericon-server/util"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

// Payload is the body of a room ticket: it admits its holder to one room
// until ExpiredAt.
type Payload struct {
	ID        uuid.UUID `json:"id"`
	RoomID    string    `json:"room_id" validate:"required,roomcode"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

func NewPayload(roomID string, duration time.Duration) (*Payload, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payload := &Payload{
		ID:        id,
		RoomID:    roomID,
		IssuedAt:  now,
		ExpiredAt: now.Add(duration),
	}

	if err := util.Validate.Struct(payload); err != nil {
		return nil, err
	}

	return payload, nil
}

// Valid checks the expiry and the room code shape.
func (p *Payload) Valid() error {
	if time.Now().After(p.ExpiredAt) {
		return ErrExpiredToken
	}
	if err := util.Validate.Struct(p); err != nil {
		return ErrInvalidToken
	}
	return nil
}
