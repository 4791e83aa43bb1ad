package game

import "errors"

// Error classes. Every error returned by Service wraps exactly one of them.
var (
	ErrProtocol           = errors.New("protocol error")
	ErrCapacity           = errors.New("capacity error")
	ErrStateInconsistency = errors.New("state inconsistency")
)

// Error is a client-facing failure. Its message is what the client sees.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrRoomFull = newError(ErrCapacity, "the room is full")

	ErrNoUsername         = newError(ErrProtocol, "send a username first")
	ErrInvalidUsername    = newError(ErrProtocol, "username must be 1-32 characters and not \"draw\"")
	ErrUsernameChange     = newError(ErrProtocol, "this connection already has a username")
	ErrInvalidCard        = newError(ErrProtocol, "invalid card")
	ErrWaitingForOpponent = newError(ErrProtocol, "waiting for an opponent")
	ErrGameOver           = newError(ErrProtocol, "the game is over")
	ErrUnknownMessage     = newError(ErrProtocol, "unknown message type")
	ErrMalformedMessage   = newError(ErrProtocol, "messages must be JSON objects with a type and a value")

	ErrUnknownPlayer = newError(ErrStateInconsistency, "player is not part of this room")
	ErrCardNotInHand = newError(ErrStateInconsistency, "card is not in your hand")
	ErrAlreadyPlayed = newError(ErrStateInconsistency, "you already played this turn")
)
