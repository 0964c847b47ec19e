// Package state keeps a screen's local list and applies optimistic changes with an
// explicit snapshot, attempt, then commit-or-rollback protocol.
package state

import "sync"

// List is a mutex-guarded ordered list.
type List[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewList returns a list holding a copy of items.
func NewList[T any](items []T) *List[T] {
	l := &List[T]{}
	l.Replace(items)
	return l
}

// Replace swaps the whole content.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = clone(items)
}

// Items returns a copy of the current content.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.items)
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Begin snapshots the current content. Mutations made through the returned Txn are
// visible immediately and are undone by Rollback.
func (l *List[T]) Begin() *Txn[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Txn[T]{list: l, snapshot: clone(l.items)}
}

// Txn is one optimistic change to a List.
type Txn[T any] struct {
	list     *List[T]
	snapshot []T
	done     bool
}

// RemoveWhere removes every item matching match and returns how many were removed.
func (t *Txn[T]) RemoveWhere(match func(T) bool) int {
	t.list.mu.Lock()
	defer t.list.mu.Unlock()
	kept := make([]T, 0, len(t.list.items))
	for _, item := range t.list.items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	removed := len(t.list.items) - len(kept)
	t.list.items = kept
	return removed
}

// Apply replaces the content with fn(current).
func (t *Txn[T]) Apply(fn func([]T) []T) {
	t.list.mu.Lock()
	defer t.list.mu.Unlock()
	t.list.items = clone(fn(clone(t.list.items)))
}

// Commit keeps the change. Calling Commit or Rollback again is a no-op.
func (t *Txn[T]) Commit() {
	t.done = true
	t.snapshot = nil
}

// Rollback restores the snapshot taken by Begin.
func (t *Txn[T]) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.list.mu.Lock()
	defer t.list.mu.Unlock()
	t.list.items = t.snapshot
	t.snapshot = nil
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
