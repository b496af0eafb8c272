// Package coordinator runs event mutations for one admin session: one
// mutation in flight at a time, and an explicit confirmation step before a
// delete reaches the backend.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"communityhub-backend/internal/cache"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/sirupsen/logrus"
)

type Phase int

const (
	Idle Phase = iota
	Submitting
)

func (p Phase) String() string {
	if p == Submitting {
		return "submitting"
	}
	return "idle"
}

var (
	ErrBusy            = errors.New("another change is still being saved")
	ErrNoPendingDelete = errors.New("no delete is awaiting confirmation")
)

// Observer is told the outcome of every mutation that reached the backend.
type Observer func(op string, err error)

// Confirmation is a delete waiting for the user's answer.
type Confirmation struct {
	Event  models.Event `json:"event"`
	Prompt string       `json:"prompt"`
}

func deletePrompt(title string) string {
	return fmt.Sprintf(`Are you sure you want to delete "%s"? This action cannot be undone.`, title)
}

type Coordinator struct {
	gw      gateway.Gateway
	cache   *cache.Cache
	log     *logrus.Entry
	observe Observer

	mu      sync.Mutex
	phase   Phase
	pending *Confirmation
}

func New(gw gateway.Gateway, c *cache.Cache, log *logrus.Entry, observe Observer) *Coordinator {
	if observe == nil {
		observe = func(string, error) {}
	}
	return &Coordinator{gw: gw, cache: c, log: log, observe: observe}
}

func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Submitting {
		return ErrBusy
	}
	c.phase = Submitting
	return nil
}

func (c *Coordinator) finish() {
	c.mu.Lock()
	c.phase = Idle
	c.mu.Unlock()
}

// refetch reloads the whole event set after a create or update. When it
// fails the cache keeps its last good contents.
func (c *Coordinator) refetch(ctx context.Context) error {
	events, err := c.gw.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}
	c.cache.ReplaceEvents(events)
	return nil
}

// Create validates and submits a new event, then refetches the list.
func (c *Coordinator) Create(ctx context.Context, d models.EventDraft) (models.Event, error) {
	d = d.Normalize()
	if err := Validate(d); err != nil {
		return models.Event{}, err
	}
	if err := c.begin(); err != nil {
		return models.Event{}, err
	}
	defer c.finish()

	created, err := c.gw.CreateEvent(ctx, d)
	c.observe("create", err)
	if err != nil {
		c.log.WithError(err).Warn("Failed to create event")
		return models.Event{}, err
	}
	c.log.WithFields(logrus.Fields{"event_id": created.ID, "title": created.Title}).Info("Event created")

	return created, c.refetch(ctx)
}

// Update validates and submits changes to an existing event, then refetches
// the list.
func (c *Coordinator) Update(ctx context.Context, id int64, d models.EventDraft) (models.Event, error) {
	d = d.Normalize()
	if err := Validate(d); err != nil {
		return models.Event{}, err
	}
	if err := c.begin(); err != nil {
		return models.Event{}, err
	}
	defer c.finish()

	updated, err := c.gw.UpdateEvent(ctx, id, d)
	c.observe("update", err)
	if err != nil {
		c.log.WithError(err).WithField("event_id", id).Warn("Failed to update event")
		return models.Event{}, err
	}
	c.log.WithField("event_id", id).Info("Event updated")

	return updated, c.refetch(ctx)
}

// RequestDelete opens the confirmation step for a cached event. Nothing is
// sent to the backend yet.
func (c *Coordinator) RequestDelete(id int64) (Confirmation, error) {
	e, ok := c.cache.Find(id)
	if !ok {
		return Confirmation{}, fmt.Errorf("delete event %d: %w", id, gateway.ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Submitting {
		return Confirmation{}, ErrBusy
	}
	conf := Confirmation{Event: e, Prompt: deletePrompt(e.Title)}
	c.pending = &conf
	return conf, nil
}

func (c *Coordinator) Pending() (Confirmation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Confirmation{}, false
	}
	return *c.pending, true
}

// CancelDelete closes the confirmation step without side effects.
func (c *Coordinator) CancelDelete() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// ConfirmDelete deletes the pending event and drops it from the cache
// without refetching. The confirmation is closed whatever the outcome.
func (c *Coordinator) ConfirmDelete(ctx context.Context) (models.Event, error) {
	c.mu.Lock()
	if c.phase == Submitting {
		c.mu.Unlock()
		return models.Event{}, ErrBusy
	}
	if c.pending == nil {
		c.mu.Unlock()
		return models.Event{}, ErrNoPendingDelete
	}
	target := c.pending.Event
	c.pending = nil
	c.phase = Submitting
	c.mu.Unlock()
	defer c.finish()

	err := c.gw.DeleteEvent(ctx, target.ID)
	c.observe("delete", err)
	if err != nil {
		c.log.WithError(err).WithField("event_id", target.ID).Warn("Failed to delete event")
		return models.Event{}, err
	}

	c.cache.Remove(target.ID)
	c.log.WithField("event_id", target.ID).Info("Event deleted")
	return target, nil
}
