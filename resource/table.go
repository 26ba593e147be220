package resource

import (
	"sync"

	"github.com/astcvm/astc-runtime/errors"
)

// Handle is an opaque reference to a value in a Table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// TypeID tags the kind of value a handle refers to. Callers define their
// own identifiers; GetTyped refuses a handle whose stored tag differs.
type TypeID uint32

// Dropper is optionally implemented by values that need cleanup when their
// handle is removed or the table closes.
type Dropper interface {
	Drop()
}

// DefaultCapacity bounds a Table created with capacity 0.
const DefaultCapacity = 4096

// Table is a bounded in-memory handle table. Native values referenced from
// bytecode live here; the bytecode side only ever sees the Handle. Slots
// are reused through a free list, so a stale handle may observe a newer
// value in the same slot; holders must drop handles they no longer own.
type Table struct {
	entries  []entry
	freeList []Handle
	capacity int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       any
	typeID      TypeID
	borrowCount uint32
	valid       bool
}

// NewTable creates a table holding at most capacity live handles.
// Zero means DefaultCapacity.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
		capacity: capacity,
	}
}

// Insert stores a value and returns its handle.
func (t *Table) Insert(typeID TypeID, value any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errors.InvalidInput(errors.PhaseBridge, "resource table closed")
	}
	if t.liveLocked() >= t.capacity {
		return 0, errors.Capacity(errors.PhaseBridge, "resource table", t.capacity)
	}

	e := entry{typeID: typeID, value: value, valid: true}

	if n := len(t.freeList); n > 0 {
		h := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
		return h, nil
	}

	t.entries = append(t.entries, e)
	return Handle(len(t.entries)), nil
}

// Get retrieves a value by handle.
func (t *Table) Get(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.lookupLocked(h)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// GetTyped retrieves a value only if its stored tag matches typeID.
func (t *Table) GetTyped(h Handle, typeID TypeID) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.lookupLocked(h)
	if !ok || e.typeID != typeID {
		return nil, false
	}
	return e.value, true
}

// TypeID returns the stored tag for a handle.
func (t *Table) TypeID(h Handle) (TypeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.lookupLocked(h)
	if !ok {
		return 0, false
	}
	return e.typeID, true
}

// Remove drops a handle and returns its value. A handle with outstanding
// borrows cannot be removed. Values implementing Dropper are dropped.
func (t *Table) Remove(h Handle) (any, bool) {
	t.mu.Lock()
	e, ok := t.lookupLocked(h)
	if !ok || e.borrowCount > 0 {
		t.mu.Unlock()
		return nil, false
	}

	value := e.value
	*e = entry{}
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	return value, true
}

// Borrow marks a handle as lent out, pinning it against removal.
func (t *Table) Borrow(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.lookupLocked(h)
	if !ok {
		return false
	}
	e.borrowCount++
	return true
}

// ReturnBorrow releases one outstanding borrow.
func (t *Table) ReturnBorrow(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.lookupLocked(h)
	if !ok || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.liveLocked()
}

// Each iterates over live handles until fn returns false.
func (t *Table) Each(fn func(Handle, TypeID, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		if t.entries[i].valid {
			if !fn(Handle(i+1), t.entries[i].typeID, t.entries[i].value) {
				return
			}
		}
	}
}

// Close drops every live handle and rejects further inserts.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	for i := range t.entries {
		if t.entries[i].valid {
			if d, ok := t.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			t.entries[i] = entry{}
		}
	}
	t.entries = nil
	t.freeList = nil
	return nil
}

func (t *Table) lookupLocked(h Handle) (*entry, bool) {
	if h == 0 || int(h) > len(t.entries) {
		return nil, false
	}
	e := &t.entries[h-1]
	if !e.valid {
		return nil, false
	}
	return e, true
}

func (t *Table) liveLocked() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}
