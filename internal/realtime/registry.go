package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nacnacnacnac/naberlamusic-sub000/internal/playback"
)

// Registry holds the live playback sessions keyed by session id. A
// session outlives its player connection so a remounting screen can
// reattach and diagnostics stay inspectable; the reaper eventually drops
// sessions nobody touched.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*playback.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*playback.Session)}
}

func (r *Registry) Add(s *playback.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

func (r *Registry) Get(id string) (*playback.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// List returns session ids in no particular order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// ReapIdle removes sessions whose last activity is older than idleAfter
// and returns how many were dropped. Their counters and history die with
// them.
func (r *Registry) ReapIdle(idleAfter time.Duration) int {
	cutoff := time.Now().Add(-idleAfter)

	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}

// StartReaper starts a background worker that periodically drops idle
// sessions.
func (r *Registry) StartReaper(ctx context.Context, interval, idleAfter time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				if n := r.ReapIdle(idleAfter); n > 0 {
					log.Printf("realtime: reaped %d idle sessions", n)
				}
			}
		}
	}()
}
