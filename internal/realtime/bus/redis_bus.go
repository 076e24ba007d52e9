package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime"
)

const DefaultChannel = "cesizen:realtime"

const redisDialTimeout = 5 * time.Second

// RedisConfig points every API instance at one pub/sub channel so a
// broadcast from any of them reaches the SSE clients of all of them.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Options builds the go-redis client options shared by the bus and the
// metrics collector.
func (c RedisConfig) Options() *goredis.Options {
	return &goredis.Options{
		Addr:        strings.TrimSpace(c.Addr),
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: redisDialTimeout,
	}
}

// envelope is the pub/sub payload. Origin identifies the publishing
// instance in logs; every instance, including the origin, delivers it.
type envelope struct {
	Origin  string              `json:"origin"`
	SentAt  time.Time           `json:"sentAt"`
	Message realtime.SSEMessage `json:"message"`
}

type redisBus struct {
	log      *logger.Logger
	rdb      *goredis.Client
	channel  string
	instance string
}

func NewRedisBus(cfg RedisConfig, log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, errors.New("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(cfg.Options())
	pingCtx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	instance := uuid.NewString()
	return &redisBus{
		log:      log.With("service", "RedisSSEBus", "channel", channel, "instance", instance),
		rdb:      rdb,
		channel:  channel,
		instance: instance,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	raw, err := encodeEnvelope(b.instance, msg)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// StartForwarder subscribes synchronously so a failed subscription surfaces
// at startup, then pumps messages into onMsg until ctx ends.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go b.pump(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) pump(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.SSEMessage)) {
	defer sub.Close()
	incoming := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-incoming:
			if !ok {
				b.log.Warn("redis subscription closed")
				return
			}
			if m == nil {
				continue
			}
			env, err := decodeEnvelope([]byte(m.Payload))
			if err != nil {
				b.log.Warn("dropping realtime payload", "error", err)
				continue
			}
			onMsg(env.Message)
		}
	}
}

func (b *redisBus) Close() error {
	return b.rdb.Close()
}

func encodeEnvelope(origin string, msg realtime.SSEMessage) ([]byte, error) {
	if msg.Channel == "" {
		return nil, errors.New("realtime message without channel")
	}
	return json.Marshal(envelope{Origin: origin, SentAt: time.Now().UTC(), Message: msg})
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Message.Channel == "" {
		return envelope{}, errors.New("envelope without channel")
	}
	return env, nil
}
