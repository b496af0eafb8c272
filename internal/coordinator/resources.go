package coordinator

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// ResourceConfirmation is a resource delete waiting for the user's answer.
type ResourceConfirmation struct {
	Resource models.Resource `json:"resource"`
	Prompt   string          `json:"prompt"`
}

// Resources runs directory mutations for one admin session with the same
// single-flight and confirm-before-delete rules as Coordinator. It keeps
// its own copy of the directory, inactive entries included.
type Resources struct {
	gw      gateway.Resources
	log     *logrus.Entry
	observe Observer

	mu      sync.Mutex
	phase   Phase
	pending *ResourceConfirmation
	dir     models.ResourceDirectory
	loaded  bool
	stale   bool
	gen     uint64
}

func NewResources(gw gateway.Resources, log *logrus.Entry, observe Observer) *Resources {
	if observe == nil {
		observe = func(string, error) {}
	}
	return &Resources{gw: gw, log: log, observe: observe}
}

func (r *Resources) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Loaded reports whether at least one fetch has succeeded.
func (r *Resources) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// MarkStale makes the next Directory call refetch.
func (r *Resources) MarkStale() {
	r.mu.Lock()
	r.stale = true
	r.gen++
	r.mu.Unlock()
}

// Load fetches categories and resources, inactive ones included. On failure
// the last good copy is kept.
func (r *Resources) Load(ctx context.Context) error {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	categories, err := r.gw.ListCategories(ctx, true)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	resources, err := r.gw.ListResources(ctx, gateway.ResourceQuery{IncludeInactive: true})
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}

	r.mu.Lock()
	r.dir = models.ResourceDirectory{Categories: categories, Resources: resources}
	r.loaded = true
	if r.gen == gen {
		r.stale = false
	}
	r.mu.Unlock()
	return nil
}

// Directory returns the cached directory, loading it first when it is
// missing or stale. A load error comes back with the last good copy.
func (r *Resources) Directory(ctx context.Context) (models.ResourceDirectory, error) {
	r.mu.Lock()
	need := r.stale || !r.loaded
	r.mu.Unlock()

	var err error
	if need {
		err = r.Load(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.ResourceDirectory{
		Categories: slices.Clone(r.dir.Categories),
		Resources:  slices.Clone(r.dir.Resources),
	}, err
}

// Find looks a resource up in the cached directory.
func (r *Resources) Find(id int64) (models.Resource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.dir.Resources, func(res models.Resource) bool { return res.ID == id })
	if i < 0 {
		return models.Resource{}, false
	}
	return r.dir.Resources[i], true
}

func (r *Resources) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == Submitting {
		return ErrBusy
	}
	r.phase = Submitting
	return nil
}

func (r *Resources) finish() {
	r.mu.Lock()
	r.phase = Idle
	r.mu.Unlock()
}

// Create validates and submits a new resource, then refetches the directory.
func (r *Resources) Create(ctx context.Context, d models.ResourceDraft) (models.Resource, error) {
	d = d.Normalize()
	if err := ValidateResource(d); err != nil {
		return models.Resource{}, err
	}
	if err := r.begin(); err != nil {
		return models.Resource{}, err
	}
	defer r.finish()

	created, err := r.gw.CreateResource(ctx, d)
	r.observe("resource_create", err)
	if err != nil {
		r.log.WithError(err).Warn("Failed to create resource")
		return models.Resource{}, err
	}
	r.log.WithFields(logrus.Fields{"resource_id": created.ID, "name": created.Name}).Info("Resource created")

	return created, r.Load(ctx)
}

// Update validates and submits changes to a resource, then refetches the
// directory.
func (r *Resources) Update(ctx context.Context, id int64, d models.ResourceDraft) (models.Resource, error) {
	d = d.Normalize()
	if err := ValidateResource(d); err != nil {
		return models.Resource{}, err
	}
	if err := r.begin(); err != nil {
		return models.Resource{}, err
	}
	defer r.finish()

	updated, err := r.gw.UpdateResource(ctx, id, d)
	r.observe("resource_update", err)
	if err != nil {
		r.log.WithError(err).WithField("resource_id", id).Warn("Failed to update resource")
		return models.Resource{}, err
	}
	r.log.WithField("resource_id", id).Info("Resource updated")

	return updated, r.Load(ctx)
}

// RequestDelete opens the confirmation step for a cached resource.
func (r *Resources) RequestDelete(id int64) (ResourceConfirmation, error) {
	res, ok := r.Find(id)
	if !ok {
		return ResourceConfirmation{}, fmt.Errorf("delete resource %d: %w", id, gateway.ErrNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == Submitting {
		return ResourceConfirmation{}, ErrBusy
	}
	conf := ResourceConfirmation{Resource: res, Prompt: deletePrompt(res.Name)}
	r.pending = &conf
	return conf, nil
}

func (r *Resources) Pending() (ResourceConfirmation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return ResourceConfirmation{}, false
	}
	return *r.pending, true
}

func (r *Resources) CancelDelete() {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

// ConfirmDelete deletes the pending resource and drops it from the cached
// directory. The confirmation is closed whatever the outcome.
func (r *Resources) ConfirmDelete(ctx context.Context) (models.Resource, error) {
	r.mu.Lock()
	if r.phase == Submitting {
		r.mu.Unlock()
		return models.Resource{}, ErrBusy
	}
	if r.pending == nil {
		r.mu.Unlock()
		return models.Resource{}, ErrNoPendingDelete
	}
	target := r.pending.Resource
	r.pending = nil
	r.phase = Submitting
	r.mu.Unlock()
	defer r.finish()

	err := r.gw.DeleteResource(ctx, target.ID)
	r.observe("resource_delete", err)
	if err != nil {
		r.log.WithError(err).WithField("resource_id", target.ID).Warn("Failed to delete resource")
		return models.Resource{}, err
	}

	r.mu.Lock()
	r.dir.Resources = slices.DeleteFunc(r.dir.Resources, func(res models.Resource) bool { return res.ID == target.ID })
	r.mu.Unlock()
	r.log.WithField("resource_id", target.ID).Info("Resource deleted")
	return target, nil
}
