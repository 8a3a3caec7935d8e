package cache

import (
	"context"
	"time"

	"github.com/kasuganosora/neonmaze/cache/local"
	cacheredis "github.com/kasuganosora/neonmaze/cache/redis"
)

// Well-known keys and channels shared by the server components.
const (
	// KeySessionPrefix maps a guest token to its player ID.
	KeySessionPrefix = "session:"
	// KeyOnline is the set of connected player IDs.
	KeyOnline = "online"
	// KeyLeaderboard scores players by rounds survived.
	KeyLeaderboard = "leaderboard:survived"
	// KeyRecentRounds holds the newest round summaries, newest first.
	KeyRecentRounds = "rounds:recent"
	// ChannelRounds carries finished round summaries as JSON.
	ChannelRounds = "rounds"
)

// Cache defines the KV / Set / ZSet / List operations the server uses.
type Cache interface {
	// KV
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Set
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// ZSet
	ZIncrBy(ctx context.Context, key string, delta float64, member string) (float64, error)
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZScore(ctx context.Context, key, member string) (float64, error)

	// List
	LPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LTrim(ctx context.Context, key string, start, stop int64) error
}

// ScoredMember is one sorted-set entry.
type ScoredMember = local.ScoredMember

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub defines channel publish/subscribe operations.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// CacheConfig holds configuration for both Redis and LocalCache.
type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

func (cfg CacheConfig) redis() cacheredis.Config {
	return cacheredis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}

// NewCache returns a Cache backed by Redis if RedisAddr is set,
// otherwise an in-process LocalCache.
func NewCache(cfg CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.NewCache(cfg.redis())
	}
	return local.NewCache(local.Config{GCInterval: cfg.LocalGCInterval})
}

// NewPubSub returns a PubSub backed by Redis if RedisAddr is set,
// otherwise an in-process fan-out.
func NewPubSub(cfg CacheConfig) (PubSub, error) {
	if cfg.RedisAddr != "" {
		rps, err := cacheredis.NewPubSub(cfg.redis())
		if err != nil {
			return nil, err
		}
		return bridge[*cacheredis.RedisMessage]{
			publish:   rps.Publish,
			subscribe: rps.Subscribe,
			convert: func(m *cacheredis.RedisMessage) *Message {
				return &Message{Channel: m.Channel, Payload: m.Payload}
			},
		}, nil
	}
	lps := local.NewPubSub(cfg.LocalPubSubBuf)
	return bridge[*local.LocalMessage]{
		publish:   lps.Publish,
		subscribe: lps.Subscribe,
		convert: func(m *local.LocalMessage) *Message {
			return &Message{Channel: m.Channel, Payload: m.Payload}
		},
	}, nil
}

// bridge adapts a backend's message type to cache.Message.
type bridge[M any] struct {
	publish   func(ctx context.Context, channel, message string) error
	subscribe func(ctx context.Context, channels ...string) (<-chan M, func(), error)
	convert   func(M) *Message
}

func (b bridge[M]) Publish(ctx context.Context, channel, message string) error {
	return b.publish(ctx, channel, message)
}

func (b bridge[M]) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	in, cancel, err := b.subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Message, 256)
	go func() {
		defer close(out)
		for msg := range in {
			out <- b.convert(msg)
		}
	}()
	return out, cancel, nil
}
