// Package templates owns the template catalog and the active-template id,
// and applies a template over the live daily schedule.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/daybook-app/daybook/internal/daybook"
	derrs "github.com/daybook-app/daybook/internal/errors"
	"github.com/daybook-app/daybook/internal/tasks"
)

// Repo holds the catalog of templates plus which one is currently applied.
//
// Applying a template overwrites the schedule owned by the injected task
// repository: both share dailyTasks as the single source of truth.
type Repo struct {
	store daybook.Store
	tasks *tasks.Repo

	mu        sync.Mutex
	catalog   []daybook.Template
	activeID  int
	hasActive bool
}

func New(store daybook.Store, taskRepo *tasks.Repo) *Repo {
	return &Repo{store: store, tasks: taskRepo}
}

// Load reads the catalog and the active id from their two keys. A missing
// key means an empty catalog or no active template, not an error.
func (r *Repo) Load(ctx context.Context) error {
	var catalog []daybook.Template
	raw, err := r.store.Get(ctx, daybook.KeyTemplates)
	switch {
	case errors.Is(err, daybook.ErrNotFound):
		// Nothing stored yet.
	case err != nil:
		return fmt.Errorf("error loading templates: %s", err)
	default:
		if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
			return fmt.Errorf("error decoding templates: %s", err)
		}
	}

	var (
		activeID  int
		hasActive bool
	)
	raw, err = r.store.Get(ctx, daybook.KeyActiveTemplateID)
	switch {
	case errors.Is(err, daybook.ErrNotFound):
		// No template has been applied yet.
	case err != nil:
		return fmt.Errorf("error loading active template id: %s", err)
	default:
		id, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("error decoding active template id: %s", err)
		}
		activeID, hasActive = id, true
	}

	r.mu.Lock()
	r.catalog = catalog
	r.activeID = activeID
	r.hasActive = hasActive
	r.mu.Unlock()

	return nil
}

// Catalog returns the current set of templates.
func (r *Repo) Catalog() []daybook.Template {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.catalog)
}

// ActiveID reports the id of the last applied template, if any.
func (r *Repo) ActiveID() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.activeID, r.hasActive
}

// SetCatalog replaces the stored catalog.
func (r *Repo) SetCatalog(ctx context.Context, catalog []daybook.Template) error {
	cloned := slices.Clone(catalog)
	if cloned == nil {
		cloned = []daybook.Template{}
	}

	r.mu.Lock()
	r.catalog = cloned
	r.mu.Unlock()

	raw, err := json.Marshal(cloned)
	if err != nil {
		return fmt.Errorf("error encoding templates: %s", err)
	}
	if err := r.store.Set(ctx, daybook.KeyTemplates, string(raw)); err != nil {
		return fmt.Errorf("error persisting templates: %s", err)
	}

	return nil
}

// Find looks a template up in the catalog by id.
func (r *Repo) Find(id int) (daybook.Template, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.catalog {
		if t.ID == id {
			return t, true
		}
	}
	return daybook.Template{}, false
}

// Apply overwrites the daily schedule with the template's items and records
// the template as active.
//
// A malformed template aborts before any state changes. The two persists
// (schedule + active id) go to independent keys and are issued together;
// a write failure is reported but the in-memory state is not rolled back.
func (r *Repo) Apply(ctx context.Context, t daybook.Template) error {
	if t.ID == 0 || t.Items == nil {
		return derrs.E("invalid template data", http.StatusBadRequest,
			derrs.Detail{Field: "template", Error: "id and items are required"})
	}

	r.mu.Lock()
	r.activeID = t.ID
	r.hasActive = true
	r.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		return r.tasks.Replace(ctx, t.Items)
	})
	g.Go(func() error {
		if err := r.store.Set(ctx, daybook.KeyActiveTemplateID, strconv.Itoa(t.ID)); err != nil {
			return fmt.Errorf("error persisting active template id: %s", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return derrs.E(err, http.StatusInternalServerError)
	}

	return nil
}
