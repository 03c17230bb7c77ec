// Package tasks owns the daily schedule: loading it, deriving the
// nearby-hours view, and applying content edits.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/daybook-app/daybook/internal/daybook"
)

const placeholderContent = "... .... .... ...."

// Placeholders is the schedule shown before anything has been stored.
//
// Display-only: it is never written back to the store, so a first-run user
// still reads as "nothing stored" on the next launch.
func Placeholders() []daybook.Task {
	return []daybook.Task{
		{ID: 1, Content: placeholderContent, Time: "00"},
		{ID: 2, Content: placeholderContent, Time: "01"},
		{ID: 3, Content: placeholderContent, Time: "02"},
	}
}

// Repo holds the live daily schedule.
//
// The in-memory copy is authoritative for the session; the store is read
// once at startup and written through on every mutation.
type Repo struct {
	store daybook.Store

	mu    sync.Mutex
	tasks []daybook.Task // nil until something has been stored
}

func New(store daybook.Store) *Repo {
	return &Repo{store: store}
}

// Load reads the persisted schedule. When nothing has ever been stored it
// returns the placeholder seed without persisting or adopting it.
func (r *Repo) Load(ctx context.Context) ([]daybook.Task, error) {
	raw, err := r.store.Get(ctx, daybook.KeyDailyTasks)
	if errors.Is(err, daybook.ErrNotFound) {
		return Placeholders(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading daily tasks: %s", err)
	}

	var tasks []daybook.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("error decoding daily tasks: %s", err)
	}

	r.mu.Lock()
	r.tasks = tasks
	r.mu.Unlock()

	return slices.Clone(tasks), nil
}

// Current returns the session's schedule, falling back to the placeholder
// seed when nothing has been stored or applied yet.
func (r *Repo) Current() []daybook.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tasks == nil {
		return Placeholders()
	}
	return slices.Clone(r.tasks)
}

// Nearby filters tasks down to those pinned to the current, previous or
// next hour, preserving their relative order. Pure function of its inputs.
func Nearby(tasks []daybook.Task, hour int) []daybook.Task {
	prev, next := PrevHour(hour), NextHour(hour)

	out := []daybook.Task{}
	for _, t := range tasks {
		h, err := strconv.Atoi(t.Time)
		if err != nil {
			continue
		}
		if h == prev || h == hour || h == next {
			out = append(out, t)
		}
	}

	return out
}

// EditContent replaces the content of the task with the given id and writes
// the whole collection back. An unknown id is a no-op, not an error.
//
// A failed write is logged and the in-memory edit kept: the next successful
// write carries it along.
func (r *Repo) EditContent(ctx context.Context, id int, content string) []daybook.Task {
	r.mu.Lock()
	edited := false
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Content = content
			edited = true
		}
	}
	out := slices.Clone(r.tasks)
	r.mu.Unlock()

	if !edited {
		return out
	}

	r.persist(ctx, out)
	return out
}

// Replace overwrites the schedule with items (applying a template) and
// persists the result. The in-memory state is updated even when the write
// fails; the failure is returned for the caller to surface.
func (r *Repo) Replace(ctx context.Context, items []daybook.Task) error {
	tasks := slices.Clone(items)
	if tasks == nil {
		tasks = []daybook.Task{}
	}

	r.mu.Lock()
	r.tasks = tasks
	r.mu.Unlock()

	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("error encoding daily tasks: %s", err)
	}
	if err := r.store.Set(ctx, daybook.KeyDailyTasks, string(raw)); err != nil {
		return fmt.Errorf("error persisting daily tasks: %s", err)
	}

	return nil
}

func (r *Repo) persist(ctx context.Context, tasks []daybook.Task) {
	if tasks == nil {
		tasks = []daybook.Task{}
	}

	raw, err := json.Marshal(tasks)
	if err != nil {
		slog.Error("error encoding daily tasks", "error", err)
		return
	}
	if err := r.store.Set(ctx, daybook.KeyDailyTasks, string(raw)); err != nil {
		slog.Error("error persisting daily tasks", "error", err)
	}
}
