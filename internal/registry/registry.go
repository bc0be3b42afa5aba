// =============================================================================
// Labor Ledger - Reference Registry
// =============================================================================
//
// The registry is the authoritative list of workers and job sites. Imports
// only ever read it; it changes through explicit add, edit, remove and
// roster-merge operations.
//
// LOOKUP CACHE:
//   Name lookups are served from maps built on first use and dropped on
//   every mutation, so a lookup never sees a stale entry.
//
// PERSISTENCE:
//   Every mutation rewrites the whole "workers" or "sites" value.
//
// =============================================================================

package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ginjaninja78/labor-ledger/internal/storage"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

var (
	// ErrDuplicateName is returned when adding an entity whose name exists.
	ErrDuplicateName = errors.New("name already registered")

	// ErrNotFound is returned when editing or removing an unknown name.
	ErrNotFound = errors.New("name not registered")
)

// Registry holds workers and sites.
type Registry struct {
	mu       sync.Mutex
	store    storage.Store
	validate *validator.Validate
	now      func() time.Time

	workers []types.Worker
	sites   []types.Site

	workerIndex map[string]int
	siteIndex   map[string]int
}

// Open loads both registries from the store.
func Open(ctx context.Context, store storage.Store) (*Registry, error) {
	workers, err := storage.LoadList[types.Worker](ctx, store, storage.KeyWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to load workers: %w", err)
	}
	sites, err := storage.LoadList[types.Site](ctx, store, storage.KeySites)
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}
	return &Registry{
		store:    store,
		validate: validator.New(),
		now:      time.Now,
		workers:  workers,
		sites:    sites,
	}, nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Workers returns a copy of every registered worker.
func (r *Registry) Workers() []types.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Worker(nil), r.workers...)
}

// Sites returns a copy of every registered site.
func (r *Registry) Sites() []types.Site {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Site(nil), r.sites...)
}

// Counts returns the registry sizes.
func (r *Registry) Counts() (workers, sites int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workers), len(r.sites)
}

// FindWorker looks a worker up by exact name. When stored data repeats a
// name, the first entry wins.
func (r *Registry) FindWorker(name string) (types.Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workerIndex == nil {
		r.workerIndex = make(map[string]int, len(r.workers))
		for i, w := range r.workers {
			if _, ok := r.workerIndex[w.Name]; !ok {
				r.workerIndex[w.Name] = i
			}
		}
	}
	i, ok := r.workerIndex[name]
	if !ok {
		return types.Worker{}, false
	}
	return r.workers[i], true
}

// FindSite looks a site up by exact name.
func (r *Registry) FindSite(name string) (types.Site, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.siteIndex == nil {
		r.siteIndex = make(map[string]int, len(r.sites))
		for i, s := range r.sites {
			if _, ok := r.siteIndex[s.Name]; !ok {
				r.siteIndex[s.Name] = i
			}
		}
	}
	i, ok := r.siteIndex[name]
	if !ok {
		return types.Site{}, false
	}
	return r.sites[i], true
}

// HasWorker reports whether name is a registered worker.
func (r *Registry) HasWorker(name string) bool {
	_, ok := r.FindWorker(name)
	return ok
}

// HasSite reports whether name is a registered site.
func (r *Registry) HasSite(name string) bool {
	_, ok := r.FindSite(name)
	return ok
}

// =============================================================================
// WORKER MUTATIONS
// =============================================================================

// AddWorker registers a new worker. The name must be unique.
func (r *Registry) AddWorker(ctx context.Context, w types.Worker) (types.Worker, error) {
	w.Name = strings.TrimSpace(w.Name)
	if err := r.validate.Struct(w); err != nil {
		return types.Worker{}, fmt.Errorf("invalid worker: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.workers, func(x types.Worker) bool { return x.Name == w.Name }) >= 0 {
		return types.Worker{}, fmt.Errorf("worker %q: %w", w.Name, ErrDuplicateName)
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = r.now()
	}

	next := append(append([]types.Worker(nil), r.workers...), w)
	if err := r.saveWorkers(ctx, next); err != nil {
		return types.Worker{}, err
	}
	return w, nil
}

// UpdateWorker replaces the pay fields of the worker with the same name.
func (r *Registry) UpdateWorker(ctx context.Context, w types.Worker) error {
	if err := r.validate.Struct(w); err != nil {
		return fmt.Errorf("invalid worker: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.workers, func(x types.Worker) bool { return x.Name == w.Name })
	if i < 0 {
		return fmt.Errorf("worker %q: %w", w.Name, ErrNotFound)
	}
	next := append([]types.Worker(nil), r.workers...)
	next[i].DailyRate = w.DailyRate
	next[i].MonthlySalary = w.MonthlySalary
	return r.saveWorkers(ctx, next)
}

// RemoveWorker deletes the worker with the given name.
func (r *Registry) RemoveWorker(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.workers, func(x types.Worker) bool { return x.Name == name })
	if i < 0 {
		return fmt.Errorf("worker %q: %w", name, ErrNotFound)
	}
	next := append(append([]types.Worker(nil), r.workers[:i]...), r.workers[i+1:]...)
	return r.saveWorkers(ctx, next)
}

// MergeWorkers adds every roster entry whose name is not yet registered.
// Existing workers are left untouched. It returns how many were added.
func (r *Registry) MergeWorkers(ctx context.Context, roster []types.Worker) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]bool, len(r.workers))
	for _, w := range r.workers {
		known[w.Name] = true
	}

	next := append([]types.Worker(nil), r.workers...)
	added := 0
	for _, w := range roster {
		w.Name = strings.TrimSpace(w.Name)
		if w.Name == "" || known[w.Name] {
			continue
		}
		if err := r.validate.Struct(w); err != nil {
			return 0, fmt.Errorf("invalid roster entry %q: %w", w.Name, err)
		}
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = r.now()
		}
		known[w.Name] = true
		next = append(next, w)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := r.saveWorkers(ctx, next); err != nil {
		return 0, err
	}
	return added, nil
}

// =============================================================================
// SITE MUTATIONS
// =============================================================================

// AddSite registers a new site. The name must be unique.
func (r *Registry) AddSite(ctx context.Context, s types.Site) (types.Site, error) {
	s.Name = strings.TrimSpace(s.Name)
	if err := r.validate.Struct(s); err != nil {
		return types.Site{}, fmt.Errorf("invalid site: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.sites, func(x types.Site) bool { return x.Name == s.Name }) >= 0 {
		return types.Site{}, fmt.Errorf("site %q: %w", s.Name, ErrDuplicateName)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}

	next := append(append([]types.Site(nil), r.sites...), s)
	if err := r.saveSites(ctx, next); err != nil {
		return types.Site{}, err
	}
	return s, nil
}

// UpdateSite replaces the address and manager of the site with the same name.
func (r *Registry) UpdateSite(ctx context.Context, s types.Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.sites, func(x types.Site) bool { return x.Name == s.Name })
	if i < 0 {
		return fmt.Errorf("site %q: %w", s.Name, ErrNotFound)
	}
	next := append([]types.Site(nil), r.sites...)
	next[i].Address = s.Address
	next[i].Manager = s.Manager
	return r.saveSites(ctx, next)
}

// RemoveSite deletes the site with the given name.
func (r *Registry) RemoveSite(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := indexOf(r.sites, func(x types.Site) bool { return x.Name == name })
	if i < 0 {
		return fmt.Errorf("site %q: %w", name, ErrNotFound)
	}
	next := append(append([]types.Site(nil), r.sites[:i]...), r.sites[i+1:]...)
	return r.saveSites(ctx, next)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// saveWorkers persists next and, only on success, swaps it in and drops the
// lookup cache. Callers hold r.mu.
func (r *Registry) saveWorkers(ctx context.Context, next []types.Worker) error {
	if err := storage.SaveJSON(ctx, r.store, storage.KeyWorkers, next); err != nil {
		return err
	}
	r.workers = next
	r.workerIndex = nil
	return nil
}

func (r *Registry) saveSites(ctx context.Context, next []types.Site) error {
	if err := storage.SaveJSON(ctx, r.store, storage.KeySites, next); err != nil {
		return err
	}
	r.sites = next
	r.siteIndex = nil
	return nil
}

func indexOf[T any](list []T, match func(T) bool) int {
	for i, v := range list {
		if match(v) {
			return i
		}
	}
	return -1
}
