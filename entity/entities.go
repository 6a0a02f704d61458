package entity

import (
	"fmt"
	"iter"
	"slices"
)

// DeletionFn is called synchronously with every identifier Entities deletes.
type DeletionFn func(id EntityID)

// Entities is the authoritative table of issued identifiers.
//
// Slot i holds the live identifier for index i when its index field equals i. Free slots
// reuse the index field as the "next" pointer of a FIFO free list whose head and tail are
// cached, so the oldest deleted index is recycled first. Slots whose generation is
// exhausted are dead forever and are never linked into the free list.
//
// Entities performs no locking; callers hand out exclusive access.
type Entities struct {
	data    []EntityID
	head    uint64
	tail    uint64
	hasFree bool
	alive   int

	onDeletion DeletionFn
	notifying  bool
	deferred   []EntityID
}

func NewEntities() *Entities {
	return &Entities{
		data:     make([]EntityID, 0, 64),
		deferred: make([]EntityID, 0, 8),
	}
}

// OnDeletion registers fn as the deletion callback, replacing any previous one.
//
// fn runs after the slot has been released. fn may delete other entities: those deletions
// are queued and run, in request order, once fn returns, each one invoking fn again. A
// queued identifier stays alive until its turn comes.
func (e *Entities) OnDeletion(fn DeletionFn) {
	e.onDeletion = fn
}

// Generate returns a new live identifier, recycling the oldest free slot if there is one.
func (e *Entities) Generate() EntityID {
	e.alive++
	if e.hasFree {
		idx := e.head
		if idx == e.tail {
			e.hasFree = false
		} else {
			e.head = e.data[idx].Index()
		}
		id := e.data[idx].setIndex(idx)
		e.data[idx] = id
		return id
	}
	id := New(uint64(len(e.data)))
	e.data = append(e.data, id)
	return id
}

// BulkGenerate appends n fresh identifiers without touching the free list. The returned
// slice is a view into the table: it must not be modified and is only valid until the
// next mutation of e.
func (e *Entities) BulkGenerate(n int) []EntityID {
	if n <= 0 {
		return nil
	}
	start := len(e.data)
	e.data = slices.Grow(e.data, n)
	for i := 0; i < n; i++ {
		e.data = append(e.data, New(uint64(start+i)))
	}
	e.alive += n
	return e.data[start : start+n : start+n]
}

// IsAlive reports whether id is the live identifier of its index.
func (e *Entities) IsAlive(id EntityID) bool {
	id = id.WithoutFlags()
	idx := id.Index()
	return idx < uint64(len(e.data)) && e.data[idx] == id && !id.IsDead()
}

// DeleteUnchecked deletes id if it is alive and reports whether it was. The identifier's
// generation is bumped so every copy of it becomes stale. An index whose generation is
// exhausted becomes dead forever instead of returning to the free list.
func (e *Entities) DeleteUnchecked(id EntityID) bool {
	id = id.WithoutFlags()
	if !e.IsAlive(id) {
		return false
	}
	if e.notifying {
		e.deferred = append(e.deferred, id)
		return true
	}
	e.release(id)
	e.notify(id)
	return true
}

// CanSpawn reports whether Spawn would accept id, without changing anything.
func (e *Entities) CanSpawn(id EntityID) bool {
	id = id.WithoutFlags()
	if id.IsDead() {
		return false
	}
	idx := id.Index()
	return idx >= uint64(len(e.data)) || e.data[idx].Generation() <= id.Generation()
}

// Spawn reinstates id, typically while rebuilding a registry from serialized data. It
// fails when the slot already carries a fresher generation or is dead forever. Missing
// slots below id's index are created and linked into the free list.
func (e *Entities) Spawn(id EntityID) bool {
	if !e.CanSpawn(id) {
		return false
	}
	id = id.WithoutFlags()
	idx := id.Index()
	if idx >= uint64(len(e.data)) {
		for i := uint64(len(e.data)); i < idx; i++ {
			e.data = append(e.data, New(i))
			e.pushFree(i)
		}
		e.data = append(e.data, id)
		e.alive++
		return true
	}

	if e.data[idx].Index() == idx {
		// Live at an older or equal generation: take over the slot.
		e.data[idx] = id
		return true
	}
	e.unlinkFree(idx)
	e.data[idx] = id
	e.alive++
	return true
}

// Clear kills every live identifier and rebuilds the free list in a single scan. The
// deletion callback is not invoked.
func (e *Entities) Clear() {
	for i, slot := range e.data {
		if slot.Index() != uint64(i) || slot.IsDead() {
			continue
		}
		bumped, err := slot.BumpGeneration()
		if err != nil {
			e.data[i] = bumped.setIndex(nilIndex)
			continue
		}
		e.data[i] = bumped
	}

	e.hasFree = false
	for i, slot := range e.data {
		if slot.IsDead() {
			continue
		}
		e.pushFree(uint64(i))
	}
	e.alive = 0
}

// Len returns the number of live identifiers.
func (e *Entities) Len() int {
	return e.alive
}

// Cap returns the number of slots ever issued, live or not.
func (e *Entities) Cap() int {
	return len(e.data)
}

// All iterates every live identifier in index order.
func (e *Entities) All() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		for i, slot := range e.data {
			if slot.Index() != uint64(i) || slot.IsDead() {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// release bumps the slot generation and links it into the free list.
func (e *Entities) release(id EntityID) {
	idx := id.Index()
	e.alive--
	bumped, err := id.BumpGeneration()
	if err != nil {
		e.data[idx] = bumped.setIndex(nilIndex)
		return
	}
	e.data[idx] = bumped
	e.pushFree(idx)
}

func (e *Entities) notify(id EntityID) {
	if e.onDeletion == nil {
		return
	}
	e.notifying = true
	defer func() {
		e.notifying = false
		e.deferred = e.deferred[:0]
	}()

	e.onDeletion(id)
	for i := 0; i < len(e.deferred); i++ {
		next := e.deferred[i]
		if !e.IsAlive(next) {
			continue
		}
		e.release(next)
		e.onDeletion(next)
	}
}

// pushFree appends idx to the tail of the free list. The slot keeps its generation.
func (e *Entities) pushFree(idx uint64) {
	e.data[idx] = e.data[idx].setIndex(nilIndex)
	if !e.hasFree {
		e.head, e.tail, e.hasFree = idx, idx, true
		return
	}
	e.data[e.tail] = e.data[e.tail].setIndex(idx)
	e.tail = idx
}

// unlinkFree removes idx from the free list. idx must be a free slot.
func (e *Entities) unlinkFree(idx uint64) {
	if !e.hasFree {
		panic(fmt.Sprintf("entity free list is empty but slot %d is not live", idx))
	}
	if e.head == idx {
		if e.tail == idx {
			e.hasFree = false
		} else {
			e.head = e.data[idx].Index()
		}
		return
	}
	prev := e.head
	for {
		next := e.data[prev].Index()
		if next == idx {
			break
		}
		if next == nilIndex {
			panic(fmt.Sprintf("entity free list does not contain slot %d", idx))
		}
		prev = next
	}
	if e.tail == idx {
		e.data[prev] = e.data[prev].setIndex(nilIndex)
		e.tail = prev
		return
	}
	e.data[prev] = e.data[prev].setIndex(e.data[idx].Index())
}
