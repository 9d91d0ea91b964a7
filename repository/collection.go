// Package repository gives typed access to the user's records on top of a
// storage.Store. Loads never fail: a missing record is replaced by defaults
// and a backend error degrades to defaults. Writes surface their errors.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"disciplinebaby/events"
	"disciplinebaby/storage"
)

// ErrNotFound is returned when an operation names an id that does not exist.
var ErrNotFound = errors.New("record not found")

// Identity tells a Collection how to read and assign an item's id and owner.
// Create, when set, fills defaults on items about to be inserted.
type Identity[T any] struct {
	ID     func(*T) string
	SetID  func(item *T, id, userID string)
	Create func(*T)
}

// Collection manages an ordered list of T stored under one key. New items go
// to the front.
type Collection[T any] struct {
	store    storage.Store
	key      storage.Key
	identity Identity[T]
	defaults func() []T
	bus      *events.Bus
	log      *slog.Logger
	newID    func() string
	group    singleflight.Group
}

func NewCollection[T any](store storage.Store, key storage.Key, identity Identity[T], defaults func() []T, bus *events.Bus, log *slog.Logger) *Collection[T] {
	return &Collection[T]{
		store:    store,
		key:      key,
		identity: identity,
		defaults: defaults,
		bus:      bus,
		log:      log.With("kind", key.Kind),
		newID:    NewID,
	}
}

// NewID returns a fresh time-ordered identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load returns the stored list. A missing list is replaced by the defaults,
// which are also written back; on a backend error the defaults are returned
// without writing.
func (c *Collection[T]) Load(ctx context.Context) []T {
	v, _, _ := c.group.Do("load", func() (any, error) {
		items, found, err := c.read(ctx)
		if err != nil {
			c.log.Warn("load failed, using defaults", "error", err)
			return c.defaults(), nil
		}
		if found {
			return items, nil
		}
		items = c.defaults()
		if err := c.store.Put(ctx, c.key, items); err != nil {
			c.log.Warn("could not persist defaults", "error", err)
		}
		return items, nil
	})
	return slices.Clone(v.([]T))
}

// Find returns the item with id from Load.
func (c *Collection[T]) Find(ctx context.Context, id string) (T, bool) {
	for _, item := range c.Load(ctx) {
		if c.identity.ID(&item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// current is the list writes start from. Unlike Load it reports backend
// errors so a write never replaces real data with defaults.
func (c *Collection[T]) current(ctx context.Context) ([]T, error) {
	items, found, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return c.defaults(), nil
	}
	return items, nil
}

func (c *Collection[T]) read(ctx context.Context) ([]T, bool, error) {
	var items []T
	found, err := c.store.Get(ctx, c.key, &items)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

func (c *Collection[T]) write(ctx context.Context, items []T) error {
	if err := c.store.Put(ctx, c.key, items); err != nil {
		return fmt.Errorf("save %s: %w", c.key.Kind, err)
	}
	if c.bus != nil {
		c.bus.Publish(events.Updated(string(c.key.Kind), c.key.UserID))
	}
	return nil
}

// Save applies patch, a JSON object. With an empty id it creates a new item
// from patch and puts it first. Otherwise the fields in patch are merged into
// the item with that id; an unknown id changes nothing and reports false.
func (c *Collection[T]) Save(ctx context.Context, patch []byte, id string) (T, bool, error) {
	var zero T
	if id == "" {
		var item T
		if err := json.Unmarshal(patch, &item); err != nil {
			return zero, false, fmt.Errorf("decode %s: %w", c.key.Kind, err)
		}
		created, err := c.Insert(ctx, item)
		return created, err == nil, err
	}

	var updated T
	var ok bool
	err := c.mutate(ctx, func(items []T) ([]T, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return nil, nil
		}
		merged, err := mergePatch(items[i], patch)
		if err != nil {
			return nil, fmt.Errorf("merge %s %s: %w", c.key.Kind, id, err)
		}
		c.identity.SetID(&merged, id, c.key.UserID)
		items[i] = merged
		updated, ok = merged, true
		return items, nil
	})
	return updated, ok, err
}

// Insert stores item first in the list under a fresh id.
func (c *Collection[T]) Insert(ctx context.Context, item T) (T, error) {
	var created T
	err := c.mutate(ctx, func(items []T) ([]T, error) {
		id := c.newID()
		for c.indexOf(items, id) >= 0 {
			id = c.newID()
		}
		c.identity.SetID(&item, id, c.key.UserID)
		if c.identity.Create != nil {
			c.identity.Create(&item)
		}
		created = item
		return append([]T{item}, items...), nil
	})
	return created, err
}

// Update applies fn to the item with id. fn reports whether it changed
// anything; nothing is written otherwise. ErrNotFound is returned for an
// unknown id.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) bool) (T, bool, error) {
	var result T
	var changed, found bool
	err := c.mutate(ctx, func(items []T) ([]T, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return nil, nil
		}
		found = true
		if !fn(&items[i]) {
			result = items[i]
			return nil, nil
		}
		result, changed = items[i], true
		return items, nil
	})
	if err != nil {
		return result, false, err
	}
	if !found {
		return result, false, ErrNotFound
	}
	return result, changed, nil
}

// Delete removes the item with id. Deleting an unknown id is not an error
// and writes nothing; the result reports whether an item was removed.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	removed := false
	err := c.mutate(ctx, func(items []T) ([]T, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return nil, nil
		}
		removed = true
		return slices.Delete(items, i, i+1), nil
	})
	return removed, err
}

// ReplaceAll overwrites the stored list.
func (c *Collection[T]) ReplaceAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.write(ctx, items)
}

// mutate reads the current list, lets fn edit it and writes the result.
// A nil result from fn means there is nothing to write.
func (c *Collection[T]) mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	items, err := c.current(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.key.Kind, err)
	}
	next, err := fn(items)
	if err != nil || next == nil {
		return err
	}
	return c.write(ctx, next)
}

func (c *Collection[T]) indexOf(items []T, id string) int {
	for i := range items {
		if c.identity.ID(&items[i]) == id {
			return i
		}
	}
	return -1
}

// mergePatch overlays the top-level fields of patch onto item.
func mergePatch[T any](item T, patch []byte) (T, error) {
	var merged T
	base, err := json.Marshal(item)
	if err != nil {
		return merged, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return merged, err
	}
	overlay := map[string]json.RawMessage{}
	if len(patch) > 0 {
		if err := json.Unmarshal(patch, &overlay); err != nil {
			return merged, err
		}
	}
	for k, v := range overlay {
		fields[k] = v
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return merged, err
	}
	if err := json.Unmarshal(out, &merged); err != nil {
		return merged, err
	}
	return merged, nil
}
