package gateway

import (
	"encoding/json"
	"sync"

	"github.com/polyphony-chat/symfonia-sub000/internal/events"
)

// Dispatch is an event queued on a user inbox. The sequence number is deliberately absent: it is per-session and
// assigned by each session's inbox writer at send time.
type Dispatch struct {
	Name events.DispatchName
	Data json.RawMessage
}

// Inbox is the per-user broadcast channel. There is one inbox per user, not per session; every session of the user
// subscribes independently and consumes at its own pace. Publishing is non-blocking: when a slow session's buffer is
// full the oldest queued event is dropped to make room, and the session is not killed for overflowing.
type Inbox struct {
	mu     sync.RWMutex
	subs   map[string]chan Dispatch
	buffer int
}

// NewInbox creates an inbox whose per-session buffers hold up to buffer events.
func NewInbox(buffer int) *Inbox {
	if buffer < 1 {
		buffer = 1
	}
	return &Inbox{subs: make(map[string]chan Dispatch), buffer: buffer}
}

// Subscribe registers a session-token keyed consumer and returns its receive channel. Subscribing twice with the same
// token replaces the previous subscription.
func (in *Inbox) Subscribe(token string) <-chan Dispatch {
	in.mu.Lock()
	defer in.mu.Unlock()
	ch := make(chan Dispatch, in.buffer)
	in.subs[token] = ch
	return ch
}

// Unsubscribe removes a session's consumer.
func (in *Inbox) Unsubscribe(token string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.subs, token)
}

// Publish enqueues the event for every subscribed session, dropping the oldest queued event on overflow.
func (in *Inbox) Publish(d Dispatch) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	for _, ch := range in.subs {
		select {
		case ch <- d:
			continue
		default:
		}
		// Buffer full: evict the oldest entry, then retry once. A concurrent consumer may have drained the channel
		// in between, in which case the retry lands normally.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- d:
		default:
		}
	}
}

// Subscribers returns the number of sessions currently consuming the inbox.
func (in *Inbox) Subscribers() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.subs)
}
