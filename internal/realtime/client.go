package realtime

import (
	"sync"

	"github.com/google/uuid"
)

const outboundBuffer = 16

// SSEClient is one open event stream. Its channel set is guarded by the
// hub lock; Outbound is closed once by SSEHub.CloseClient.
type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan SSEMessage

	channels  map[string]struct{}
	done      chan struct{}
	closeOnce sync.Once
	sent      uint64
}

func newSSEClient(userID uuid.UUID) *SSEClient {
	return &SSEClient{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan SSEMessage, outboundBuffer),
		channels: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// nextEventID numbers events on this stream; only the serving goroutine calls it.
func (c *SSEClient) nextEventID() uint64 {
	c.sent++
	return c.sent
}
