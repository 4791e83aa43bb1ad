package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretKeySize = 32

type JWTMaker struct {
	secretKey []byte
}

func NewJWTMaker(secretKey string) (*JWTMaker, error) {
	if len(secretKey) < minSecretKeySize {
		return nil, fmt.Errorf("invalid key size: must be at least %d characters", minSecretKeySize)
	}
	return &JWTMaker{secretKey: []byte(secretKey)}, nil
}

func (m *JWTMaker) CreateToken(roomID string, duration time.Duration) (string, *Payload, error) {
	payload, err := NewPayload(roomID, duration)
	if err != nil {
		return "", nil, err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":  payload.ID.String(),
		"room": payload.RoomID,
		"iat":  payload.IssuedAt.Unix(),
		"exp":  payload.ExpiredAt.Unix(),
	})

	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", nil, err
	}

	return signed, payload, nil
}

func (m *JWTMaker) VerifyToken(tokenString string) (*Payload, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	jti, ok1 := claims["jti"].(string)
	room, ok2 := claims["room"].(string)
	iat, err1 := claims.GetIssuedAt()
	exp, err2 := claims.GetExpirationTime()
	if !ok1 || !ok2 || err1 != nil || err2 != nil || iat == nil || exp == nil {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(jti)
	if err != nil {
		return nil, ErrInvalidToken
	}

	payload := &Payload{
		ID:        id,
		RoomID:    room,
		IssuedAt:  iat.Time,
		ExpiredAt: exp.Time,
	}
	if err := payload.Valid(); err != nil {
		return nil, err
	}

	return payload, nil
}
