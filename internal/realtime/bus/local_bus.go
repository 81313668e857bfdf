package bus

import (
	"context"
	"sync"

	"github.com/newomen/newme-backend/internal/platform/logger"
	"github.com/newomen/newme-backend/internal/realtime"
)

// localBus delivers events in-process. Used when REDIS_ADDR is unset, which
// limits fan-out to clients connected to this node.
type localBus struct {
	log *logger.Logger

	mu    sync.RWMutex
	onMsg func(m realtime.Message)
}

func NewLocalBus(log *logger.Logger) Bus {
	return &localBus{log: log.With("component", "LocalBus")}
}

func (b *localBus) Publish(ctx context.Context, msg realtime.Message) error {
	b.mu.RLock()
	onMsg := b.onMsg
	b.mu.RUnlock()
	if onMsg != nil {
		onMsg(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error {
	b.mu.Lock()
	b.onMsg = onMsg
	b.mu.Unlock()
	return nil
}

func (b *localBus) Close() error { return nil }
