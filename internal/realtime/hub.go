package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const (
	defaultHeartbeat = 15 * time.Second
	// retryMillis is the reconnect delay advertised to browsers.
	retryMillis = 3000
)

// SSEHub fans messages out to the clients subscribed to their channel.
// It is process local; cross-instance delivery goes through a bus.
type SSEHub struct {
	log       *logger.Logger
	heartbeat time.Duration

	mu      sync.RWMutex
	members map[string]map[uuid.UUID]*SSEClient
	dropped atomic.Uint64
}

type HubOption func(*SSEHub)

func WithHeartbeat(d time.Duration) HubOption {
	return func(h *SSEHub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

func NewSSEHub(log *logger.Logger, opts ...HubOption) *SSEHub {
	h := &SSEHub{
		log:       log.With("component", "SSEHub"),
		heartbeat: defaultHeartbeat,
		members:   make(map[string]map[uuid.UUID]*SSEClient),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SSEHub) NewSSEClient(userID uuid.UUID) *SSEClient {
	return newSSEClient(userID)
}

// Subscribe adds client to each non-blank channel.
func (h *SSEHub) Subscribe(client *SSEClient, channels ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		if ch == "" {
			continue
		}
		set, ok := h.members[ch]
		if !ok {
			set = make(map[uuid.UUID]*SSEClient)
			h.members[ch] = set
		}
		set[client.ID] = client
		client.channels[ch] = struct{}{}
	}
	h.log.Debug("SSE client subscribed", "client_id", client.ID, "channels", len(client.channels))
}

// Unsubscribe drops client from channels, or from all of them when none
// are given.
func (h *SSEHub) Unsubscribe(client *SSEClient, channels ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(channels) == 0 {
		for ch := range client.channels {
			channels = append(channels, ch)
		}
	}
	for _, ch := range channels {
		ch = strings.TrimSpace(ch)
		delete(client.channels, ch)
		set := h.members[ch]
		delete(set, client.ID)
		if len(set) == 0 {
			delete(h.members, ch)
		}
	}
}

func (h *SSEHub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members[channel])
}

// Dropped counts messages discarded because a client buffer was full.
func (h *SSEHub) Dropped() uint64 {
	return h.dropped.Load()
}

// Broadcast never blocks: a slow client misses messages rather than
// stalling the publisher.
func (h *SSEHub) Broadcast(msg SSEMessage) {
	if msg.Channel == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.members[msg.Channel] {
		select {
		case c.Outbound <- msg:
		default:
			h.dropped.Add(1)
			h.log.Warn("SSE buffer full, message dropped", "client_id", c.ID, "channel", msg.Channel)
		}
	}
}

// ServeHTTP streams client's messages until the request ends or the client
// is closed. Comment lines keep idle proxies from timing out.
func (h *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *SSEClient) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	_, _ = fmt.Fprintf(w, "retry: %d\n: connected\n\n", retryMillis)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			if err := writeEvent(w, client.nextEventID(), msg); err != nil {
				h.log.Warn("SSE write failed", "client_id", client.ID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, id uint64, msg SSEMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Event, err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, msg.Event, payload)
	return err
}

// CloseClient unsubscribes client and closes its stream. Repeat calls are
// no-ops.
func (h *SSEHub) CloseClient(client *SSEClient) {
	client.closeOnce.Do(func() {
		close(client.done)
		h.Unsubscribe(client)
		close(client.Outbound)
	})
}
