package tokens

import (
	"fmt"
	"time"
)

const (
	KindJWT    = "jwt"
	KindPaseto = "paseto"
)

// Maker issues and verifies room tickets.
type Maker interface {
	CreateToken(roomID string, duration time.Duration) (string, *Payload, error)
	VerifyToken(token string) (*Payload, error)
}

// NewMaker picks the token format by kind.
func NewMaker(kind, symmetricKey string) (Maker, error) {
	switch kind {
	case KindJWT:
		return NewJWTMaker(symmetricKey)
	case KindPaseto:
		return NewPasetoMaker(symmetricKey)
	default:
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}
}
