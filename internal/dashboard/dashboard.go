// Package dashboard ties the cache, the list view state and the mutation
// coordinators together for one admin session.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"communityhub-backend/internal/cache"
	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"
	"communityhub-backend/internal/viewmodel"

	"github.com/sirupsen/logrus"
)

type Dashboard struct {
	gw    gateway.Gateway
	cache *cache.Cache
	coord *coordinator.Coordinator
	res   *coordinator.Resources
	log   *logrus.Entry

	mu    sync.Mutex
	state viewmodel.State
	stale bool
	// gen counts change notifications; Load only clears stale when none
	// arrived while it was fetching.
	gen uint64
}

func New(gw gateway.Store, log *logrus.Entry, observe coordinator.Observer) *Dashboard {
	c := cache.New()
	return &Dashboard{
		gw:    gw,
		cache: c,
		coord: coordinator.New(gw, c, log, observe),
		res:   coordinator.NewResources(gw, log, observe),
		log:   log,
		state: viewmodel.DefaultState(),
	}
}

func (d *Dashboard) Coordinator() *coordinator.Coordinator { return d.coord }

// Resources runs the session's resource directory changes.
func (d *Dashboard) Resources() *coordinator.Resources { return d.res }

// Loaded reports whether at least one fetch has succeeded.
func (d *Dashboard) Loaded() bool { return d.cache.Loaded() }

func (d *Dashboard) Groups() []models.Group { return d.cache.Groups() }

// Event looks an event up in the cache.
func (d *Dashboard) Event(id int64) (models.Event, bool) { return d.cache.Find(id) }

func (d *Dashboard) State() viewmodel.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// MarkStale makes the next read refetch everything. Change notifications
// call it instead of patching the cache.
func (d *Dashboard) MarkStale() {
	d.mu.Lock()
	d.stale = true
	d.gen++
	d.mu.Unlock()
}

// Load fetches events and groups and replaces the cache. On failure the
// cache keeps its last good contents.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	gen := d.gen
	d.mu.Unlock()

	events, err := d.gw.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	groups, err := d.gw.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	d.cache.Replace(events, groups)

	d.mu.Lock()
	if d.gen == gen {
		d.stale = false
	}
	d.mu.Unlock()

	d.log.WithFields(logrus.Fields{"events": len(events), "groups": len(groups)}).Debug("Dashboard loaded")
	return nil
}

func (d *Dashboard) ensureLoaded(ctx context.Context) error {
	d.mu.Lock()
	need := d.stale || !d.cache.Loaded()
	d.mu.Unlock()
	if !need {
		return nil
	}
	return d.Load(ctx)
}

// apply runs a state transition and recomputes the view. A load error is
// returned together with a view over whatever the cache still holds.
func (d *Dashboard) apply(ctx context.Context, next func(s viewmodel.State, total int) viewmodel.State) (viewmodel.View, error) {
	loadErr := d.ensureLoaded(ctx)
	events := d.cache.Snapshot()

	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.state
	if next != nil {
		s = next(s, len(viewmodel.Filter(events, s.Filter)))
	}
	v := viewmodel.Compute(events, s)
	d.state = v.State
	return v, loadErr
}

func (d *Dashboard) View(ctx context.Context) (viewmodel.View, error) {
	return d.apply(ctx, nil)
}

func (d *Dashboard) SetFilter(ctx context.Context, f viewmodel.FilterState) (viewmodel.View, error) {
	return d.apply(ctx, func(s viewmodel.State, _ int) viewmodel.State { return s.WithFilter(f) })
}

func (d *Dashboard) ToggleSort(ctx context.Context, field viewmodel.SortField) (viewmodel.View, error) {
	return d.apply(ctx, func(s viewmodel.State, _ int) viewmodel.State { return s.ToggleSort(field) })
}

func (d *Dashboard) SetSort(ctx context.Context, sort viewmodel.SortState) (viewmodel.View, error) {
	return d.apply(ctx, func(s viewmodel.State, _ int) viewmodel.State { return s.WithSort(sort) })
}

func (d *Dashboard) SetPage(ctx context.Context, page int) (viewmodel.View, error) {
	return d.apply(ctx, func(s viewmodel.State, total int) viewmodel.State { return s.WithPage(page, total) })
}

func (d *Dashboard) Next(ctx context.Context) (viewmodel.View, error) {
	return d.apply(ctx, func(s viewmodel.State, total int) viewmodel.State { return s.Next(total) })
}

func (d *Dashboard) Prev(ctx context.Context) (viewmodel.View, error) {
	return d.apply(ctx, func(s viewmodel.State, total int) viewmodel.State { return s.Prev(total) })
}
