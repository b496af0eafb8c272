package dashboard

import (
	"sync"
	"time"

	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/gateway"

	"github.com/sirupsen/logrus"
)

type session struct {
	dashboard *Dashboard
	lastSeen  time.Time
}

// Registry keeps one Dashboard per admin session key.
type Registry struct {
	gw      gateway.Store
	log     *logrus.Entry
	observe coordinator.Observer
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewRegistry(gw gateway.Store, log *logrus.Entry, observe coordinator.Observer) *Registry {
	return &Registry{
		gw:       gw,
		log:      log,
		observe:  observe,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// Get returns the session's dashboard, creating it on first use.
func (r *Registry) Get(key string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		s = &session{dashboard: New(r.gw, r.log.WithField("session", key), r.observe)}
		r.sessions[key] = s
	}
	s.lastSeen = r.now()
	return s.dashboard
}

func (r *Registry) Drop(key string) {
	r.mu.Lock()
	delete(r.sessions, key)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// MarkResourcesStale forces every session to refetch the resource directory
// on its next read.
func (r *Registry) MarkResourcesStale() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.dashboard.Resources().MarkStale()
	}
}

// MarkAllStale forces every session to refetch on its next read.
func (r *Registry) MarkAllStale() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		s.dashboard.MarkStale()
	}
}

// Sweep drops sessions not seen for longer than idle and returns how many
// were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	dropped := 0
	for key, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, key)
			dropped++
		}
	}
	return dropped
}
