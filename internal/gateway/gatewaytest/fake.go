// Package gatewaytest provides an in-memory gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"
)

// Fake stores events, groups and the resource directory in memory. Errors
// set in Fail are returned by the named operation ("list", "groups", "get",
// "create", "update", "delete", "upcoming", "ping", "categories",
// "resources", "resource_get", "resource_create", "resource_update",
// "resource_delete") until cleared.
type Fake struct {
	mu     sync.Mutex
	nextID int64
	events []models.Event
	groups []models.Group
	fail   map[string]error
	calls  map[string]int

	nextResourceID int64
	categories     []models.ResourceCategory
	resources      []models.Resource

	// Gate, when set, blocks the create, update and delete operations of
	// both events and resources until it is closed or receives a value.
	Gate chan struct{}

	// OnCall, when set, runs at the start of every operation.
	OnCall func(op string)
}

var _ gateway.Gateway = (*Fake)(nil)

func New(groups ...models.Group) *Fake {
	return &Fake{
		nextID:         1,
		nextResourceID: 1,
		groups:         groups,
		fail:           map[string]error{},
		calls:          map[string]int{},
	}
}

// Seed adds events as if they had been created earlier.
func (f *Fake) Seed(events ...models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range events {
		if e.ID == 0 {
			e.ID = f.nextID
		}
		if e.ID >= f.nextID {
			f.nextID = e.ID + 1
		}
		e.GroupName = f.groupName(e.GroupID)
		f.events = append(f.events, e)
	}
}

func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Calls reports how often op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	gate := f.Gate
	hook := f.OnCall
	f.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	if gate != nil && writes[op] {
		<-gate
	}
	return err
}

var writes = map[string]bool{
	"create": true, "update": true, "delete": true,
	"resource_create": true, "resource_update": true, "resource_delete": true,
}

func (f *Fake) groupName(id int64) string {
	for _, g := range f.groups {
		if g.ID == id {
			return g.Name
		}
	}
	return models.UnknownGroup
}

func (f *Fake) hasGroup(id int64) bool {
	return slices.ContainsFunc(f.groups, func(g models.Group) bool { return g.ID == id })
}

func (f *Fake) ListEvents(ctx context.Context) ([]models.Event, error) {
	if err := f.enter("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.events)
	slices.SortStableFunc(out, func(a, b models.Event) int { return -compareDates(a.Date, b.Date) })
	return out, nil
}

func compareDates(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (f *Fake) ListGroups(ctx context.Context) ([]models.Group, error) {
	if err := f.enter("groups"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g.WithSlug())
	}
	return out, nil
}

func (f *Fake) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	if err := f.enter("get"); err != nil {
		return models.Event{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Event{}, fmt.Errorf("get event %d: %w", id, gateway.ErrNotFound)
}

func (f *Fake) apply(e *models.Event, d models.EventDraft) {
	e.Title = d.Title
	e.Date = d.Date
	e.StartTime = d.StartTime
	e.EndTime = d.EndTime
	e.Location = d.Location
	e.Description = d.Description
	e.ImageURL = d.ImageURL
	e.GroupID = d.GroupID
	e.GroupName = f.groupName(d.GroupID)
	e.IsFeatured = d.IsFeatured
	e.UpdatedAt = time.Now().UTC()
}

func (f *Fake) CreateEvent(ctx context.Context, d models.EventDraft) (models.Event, error) {
	if err := f.enter("create"); err != nil {
		return models.Event{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasGroup(d.GroupID) {
		return models.Event{}, gateway.NewValidationError("group_id", "Selected group does not exist")
	}
	e := models.Event{ID: f.nextID, CreatedAt: time.Now().UTC()}
	f.nextID++
	f.apply(&e, d)
	f.events = append(f.events, e)
	return e, nil
}

func (f *Fake) UpdateEvent(ctx context.Context, id int64, d models.EventDraft) (models.Event, error) {
	if err := f.enter("update"); err != nil {
		return models.Event{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == id {
			if !f.hasGroup(d.GroupID) {
				return models.Event{}, gateway.NewValidationError("group_id", "Selected group does not exist")
			}
			f.apply(&f.events[i], d)
			return f.events[i], nil
		}
	}
	return models.Event{}, fmt.Errorf("update event %d: %w", id, gateway.ErrNotFound)
}

func (f *Fake) DeleteEvent(ctx context.Context, id int64) error {
	if err := f.enter("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.events, func(e models.Event) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("delete event %d: %w", id, gateway.ErrNotFound)
	}
	f.events = slices.Delete(f.events, i, i+1)
	return nil
}

func (f *Fake) UpcomingEvents(ctx context.Context, q gateway.UpcomingQuery) ([]models.Event, error) {
	if err := f.enter("upcoming"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, e := range f.events {
		if e.Date < q.From {
			continue
		}
		if q.GroupID != nil && e.GroupID != *q.GroupID {
			continue
		}
		if q.FeaturedOnly && !e.IsFeatured {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b models.Event) int {
		if c := compareDates(a.Date, b.Date); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *Fake) Ping(ctx context.Context) error {
	return f.enter("ping")
}
