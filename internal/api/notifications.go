package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// ─── Live Notifications ─────────────────────────────────────────────────────
// Ledger notifications (coins earned, coins spent, redemption rejected) are
// fanned out to every connected client over Server-Sent Events.
//
// GET /api/rewards/notifications/live
//   data: {"type":"coins_earned","amount":3,"reason":"Product Analysis (...)", ...}

var _ domain.Notifier = (*NotificationHub)(nil)

// NotificationHub broadcasts ledger notifications to SSE subscribers.
type NotificationHub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	dropped int
}

// NewNotificationHub creates an empty hub.
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{clients: make(map[chan []byte]struct{})}
}

// Notify implements domain.Notifier. Slow clients miss messages rather than
// block the ledger.
func (h *NotificationHub) Notify(n domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.dropped++
		}
	}
}

// Subscribe registers a client. The returned func unregisters it.
func (h *NotificationHub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// ClientCount returns the number of connected clients.
func (h *NotificationHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were skipped for slow clients.
func (h *NotificationHub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// HandleSSE serves the live feed.
func (h *NotificationHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsub := h.Subscribe()
	defer unsub()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
