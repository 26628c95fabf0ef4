package config

import (
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	Host string
	Port int

	RedisURL    string
	DatabaseURL string

	// OriginAllowlist is empty when any origin may connect.
	OriginAllowlist []string

	ResultWebhookURL string
	MessagesDir      string

	HideOpponentHands bool

	RoomTTLSec int
	MoveRetry  int
	MaxRooms   int

	WSPingSec   int
	WSQueueSize int
}

// Addr is the listen address built from Host and Port.
func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *AppConfig) RoomTTL() time.Duration {
	return time.Duration(c.RoomTTLSec) * time.Second
}

func (c *AppConfig) WSPingInterval() time.Duration {
	return time.Duration(c.WSPingSec) * time.Second
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Host:              "0.0.0.0",
		Port:              3001,
		HideOpponentHands: true,
		RoomTTLSec:        86400,
		MoveRetry:         5,
		MaxRooms:          500,
		WSPingSec:         30,
		WSQueueSize:       64,
	}

	if v := strings.TrimSpace(os.Getenv("HOST")); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return nil, errors.New("PORT must be a number between 1 and 65535")
		}
		cfg.Port = n
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.ResultWebhookURL = strings.TrimSpace(os.Getenv("RESULT_WEBHOOK_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.OriginAllowlist = splitList(os.Getenv("ORIGIN_ALLOWLIST"))

	if v := strings.TrimSpace(os.Getenv("HIDE_OPPONENT_HANDS")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.HideOpponentHands = b
		}
	}
	positiveInt("ROOM_TTL_SEC", &cfg.RoomTTLSec)
	positiveInt("MOVE_RETRY", &cfg.MoveRetry)
	positiveInt("MAX_ROOMS", &cfg.MaxRooms)
	positiveInt("WS_PING_SEC", &cfg.WSPingSec)
	positiveInt("WS_QUEUE_SIZE", &cfg.WSQueueSize)

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}

// positiveInt overwrites *dst when key holds a positive integer; other values are ignored.
func positiveInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
