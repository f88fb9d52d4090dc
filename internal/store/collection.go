package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Record is anything a Collection can hold.
type Record interface {
	RecordID() string
	Validate() error
}

// Collection owns an ordered list of records mirrored to one local storage
// key as a bare JSON array. Every mutation rewrites the whole array.
type Collection[T Record] struct {
	store *Store
	key   string
	log   *slog.Logger
	items []T
}

func NewCollection[T Record](s *Store, key string, log *slog.Logger) *Collection[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Collection[T]{store: s, key: key, log: log}
}

// Load replaces the in-memory list with what is stored. A value that does
// not parse is logged and treated as no saved data.
func (c *Collection[T]) Load() error {
	raw, ok, err := c.store.GetItem(c.key)
	if err != nil {
		return err
	}
	c.items = nil
	if !ok {
		return nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.log.Error("failed to parse saved collection", "key", c.key, "err", err)
		return nil
	}
	c.items = items
	return nil
}

// All returns a copy of the records in insertion order.
func (c *Collection[T]) All() []T {
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) Len() int { return len(c.items) }

// Get finds a record by id.
func (c *Collection[T]) Get(id string) (T, bool) {
	for _, it := range c.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Append validates rec, appends it and persists the collection.
func (c *Collection[T]) Append(rec T) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("append to %s: %w", c.key, err)
	}
	next := append(c.All(), rec)
	if err := c.persist(next); err != nil {
		return err
	}
	c.items = next
	c.log.Info("record saved", "key", c.key, "id", rec.RecordID(), "count", len(next))
	return nil
}

// Remove filters out id and persists the rest. Unknown ids leave the
// collection untouched and report false.
func (c *Collection[T]) Remove(id string) (bool, error) {
	next := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if it.RecordID() != id {
			next = append(next, it)
		}
	}
	if len(next) == len(c.items) {
		return false, nil
	}
	if err := c.persist(next); err != nil {
		return false, err
	}
	c.items = next
	c.log.Info("record deleted", "key", c.key, "id", id, "count", len(next))
	return true, nil
}

func (c *Collection[T]) persist(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.key, err)
	}
	return c.store.SetItem(c.key, string(data))
}
