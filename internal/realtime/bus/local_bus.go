package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
	"github.com/cesizen/cesizen-backend/internal/realtime"
)

// localBus delivers in-process for single-instance deployments.
type localBus struct {
	log *logger.Logger

	mu     sync.RWMutex
	onMsg  func(m realtime.SSEMessage)
	closed bool
}

func NewLocalBus(log *logger.Logger) Bus {
	return &localBus{log: log.With("service", "LocalSSEBus")}
}

func (b *localBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("local SSE bus closed")
	}
	if b.onMsg != nil {
		b.onMsg(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.onMsg = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.onMsg = nil
		b.mu.Unlock()
	}()
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.onMsg = nil
	return nil
}

// New picks Redis when an address is configured and the local bus otherwise.
func New(cfg RedisConfig, log *logger.Logger) (Bus, error) {
	if cfg.Addr == "" {
		return NewLocalBus(log), nil
	}
	return NewRedisBus(cfg, log)
}
