package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TokenKindJWT    = "jwt"
	TokenKindPaseto = "paseto"
)

type Config struct {
	Port              string        `mapstructure:"PORT" validate:"required,number"`
	MaxPoints         int           `mapstructure:"MAX_POINTS" validate:"required,min=1"`
	RedisAddress      string        `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword     string        `mapstructure:"REDIS_PW"`
	RedisDB           int           `mapstructure:"REDIS_DB" validate:"min=0"`
	RoomTTL           time.Duration `mapstructure:"ROOM_TTL" validate:"required"`
	TokenKind         string        `mapstructure:"TOKEN_KIND" validate:"required,oneof=jwt paseto"`
	TokenSymmetricKey string        `mapstructure:"TOKEN_SYMMETRIC_KEY" validate:"required,len=32"`
	TicketTTL         time.Duration `mapstructure:"TICKET_TTL" validate:"required"`
	RequireTicket     bool          `mapstructure:"REQUIRE_TICKET"`
	AllowedOrigins    []string      `mapstructure:"ALLOWED_ORIGINS" validate:"required,min=1"`
}

// LoadConfig reads the environment (and a .env file when present). Unset
// optional variables fall back to defaults.
func LoadConfig() (*Config, error) {
	godotenv.Load()

	maxPoints, err := intEnv("MAX_POINTS", 3)
	if err != nil {
		return nil, err
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	roomTTL, err := durationEnv("ROOM_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}

	ticketTTL, err := durationEnv("TICKET_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	requireTicket, err := boolEnv("REQUIRE_TICKET", false)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:              stringEnv("PORT", "8000"),
		MaxPoints:         maxPoints,
		RedisAddress:      os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PW"),
		RedisDB:           redisDB,
		RoomTTL:           roomTTL,
		TokenKind:         stringEnv("TOKEN_KIND", TokenKindJWT),
		TokenSymmetricKey: os.Getenv("TOKEN_SYMMETRIC_KEY"),
		TicketTTL:         ticketTTL,
		RequireTicket:     requireTicket,
		AllowedOrigins:    splitList(stringEnv("ALLOWED_ORIGINS", "*")),
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%v: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
