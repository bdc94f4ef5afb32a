package gateway

import (
	"context"
	"time"
)

// RunEviction drops resumable sessions whose disconnection window has expired. It wakes on the configured cadence,
// snapshots expiry candidates under a read lock, then removes them under a write lock; an aggregate count is logged
// once a minute. It blocks until the context is cancelled.
func (r *Registry) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var evicted int
	lastReport := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted += r.evictExpired(now)
			if now.Sub(lastReport) >= time.Minute {
				r.log.Info().Int("evicted", evicted).Int("remaining", r.ResumableCount()).
					Msg("Resumable session eviction report")
				evicted = 0
				lastReport = now
			}
		}
	}
}

// evictExpired removes every tombstone older than the resume window and returns how many were dropped.
func (r *Registry) evictExpired(now time.Time) int {
	r.mu.RLock()
	var expired []string
	for token, entry := range r.resumable {
		if now.Sub(entry.DisconnectedAt) > r.resumeWindow {
			expired = append(expired, token)
		}
	}
	r.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for _, token := range expired {
		entry, ok := r.resumable[token]
		if !ok || now.Sub(entry.DisconnectedAt) <= r.resumeWindow {
			continue
		}
		delete(r.resumable, token)
		dropped++
	}
	return dropped
}
