// Package cache holds the last successful full fetch of events and groups.
package cache

import (
	"slices"
	"sync"

	"communityhub-backend/internal/models"
)

// Cache has no TTL. It is replaced wholesale on refetch and shrinks only
// when a delete is confirmed by the backend.
type Cache struct {
	mu     sync.RWMutex
	loaded bool
	events []models.Event
	groups []models.Group
}

func New() *Cache {
	return &Cache{}
}

func (c *Cache) Replace(events []models.Event, groups []models.Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = slices.Clone(events)
	c.groups = slices.Clone(groups)
	c.loaded = true
}

// ReplaceEvents swaps the event set and keeps the cached groups.
func (c *Cache) ReplaceEvents(events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = slices.Clone(events)
	c.loaded = true
}

// Remove drops the event with the given id and reports whether it was present.
func (c *Cache) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.events, func(e models.Event) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	c.events = slices.Delete(c.events, i, i+1)
	return true
}

// Snapshot returns a copy of the events that the caller may reorder freely.
func (c *Cache) Snapshot() []models.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.events)
}

func (c *Cache) Groups() []models.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.groups)
}

func (c *Cache) Find(id int64) (models.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}
