package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"corridors-server/internal/shared/config"
)

// RedisSink publishes messages to per-guild pub/sub channels. The bot
// process subscribes to "<prefix>:guild:<id>" and relays into chat.
type RedisSink struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisSink(cfg config.RedisConfig, logger *slog.Logger) (*RedisSink, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Host + ":" + cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis sink connected", "component", "redis_sink", "addr", opts.Addr)
	return &RedisSink{client: client, prefix: cfg.ChannelPrefix, logger: logger}, nil
}

func (s *RedisSink) channel(guildID int64) string {
	return fmt.Sprintf("%s:guild:%d", s.prefix, guildID)
}

func (s *RedisSink) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel(msg.GuildID), payload).Err(); err != nil {
		s.logger.Error("Failed to publish message",
			"component", "redis_sink", "guild_id", msg.GuildID, "error", err)
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
