// Package storage implements the sparse-set component store.
//
// A SparseSet keeps three parallel structures: a bucketed sparse array from entity index to
// dense position, the dense array of identifiers and the data array of components. Lookups
// always confirm the dense identifier, so stale identifiers read as absent.
//
// A SparseSet does no locking. Callers hand out exclusive access for every mutation.
package storage

import (
	"slices"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/tracking"
)

type SparseSet[T any] struct {
	name   string
	sparse sparseArray
	dense  []entity.EntityID
	data   []T

	tracking     tracking.Tracking
	clock        *tracking.Clock
	insertion    []tracking.Timestamp
	modification []tracking.Timestamp
	deletion     []DeletedEntry[T]
	removal      []RemovedEntry

	// Pack regions: [0, inserted) inserted, [inserted, modified) modified, the rest
	// unchanged. Both stay zero unless packed.
	packed   bool
	inserted int
	modified int
}

var _ Store = (*SparseSet[struct{}])(nil)

func New[T any](opts ...Option) *SparseSet[T] {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = tracking.NewClock()
	}
	s := &SparseSet[T]{
		name:     cfg.name,
		tracking: cfg.tracking,
		clock:    cfg.clock,
		packed:   cfg.packed,
	}
	if cfg.capacity > 0 {
		s.Reserve(cfg.capacity)
	}
	return s
}

func (s *SparseSet[T]) Name() string {
	return s.name
}

func (s *SparseSet[T]) Clock() *tracking.Clock {
	return s.clock
}

// Insert adds or replaces the component of id. Replacing the component of the same
// identifier returns the previous value and counts as a modification. A component left
// behind by an older generation of the same index is overwritten and counts as a fresh
// insertion. Dead identifiers are ignored.
func (s *SparseSet[T]) Insert(id entity.EntityID, value T) (prev T, replaced bool) {
	id = id.WithoutFlags()
	if id.IsDead() {
		return prev, false
	}
	now := s.clock.Now()

	if p, ok := s.sparse.get(id.Index()); ok {
		pos := int(p)
		if s.dense[pos].WithoutFlags() == id {
			prev = s.data[pos]
			s.data[pos] = value
			s.markModified(pos, now)
			return prev, true
		}
		s.dense[pos] = id
		s.data[pos] = value
		s.markInserted(pos, now)
		return prev, false
	}

	pos := len(s.dense)
	s.dense = append(s.dense, id)
	s.data = append(s.data, value)
	if s.tracking.Has(tracking.Insertion) {
		s.insertion = append(s.insertion, now)
	}
	if s.tracking.Has(tracking.Modification) {
		s.modification = append(s.modification, tracking.Never(now))
	}
	s.sparse.set(id.Index(), uint32(pos))
	if s.packed {
		s.moveToInserted(pos)
	}
	return prev, false
}

// BulkInsert inserts values[i] for ids[i].
func (s *SparseSet[T]) BulkInsert(ids []entity.EntityID, values []T) error {
	if len(ids) != len(values) {
		return eris.Wrapf(ErrLengthMismatch, "%d identifiers, %d values", len(ids), len(values))
	}
	s.Reserve(len(ids))
	for i, id := range ids {
		s.Insert(id, values[i])
	}
	return nil
}

// Remove takes the component of id out of the store, recording a removal if the store
// tracks removals.
func (s *SparseSet[T]) Remove(id entity.EntityID) (T, bool) {
	pos, ok := s.IndexOf(id)
	if !ok {
		var zero T
		return zero, false
	}
	id = s.dense[pos].WithoutFlags()
	value := s.removeAt(pos)
	if s.tracking.Has(tracking.Removal) {
		s.removal = append(s.removal, RemovedEntry{ID: id, Timestamp: s.clock.Now()})
	}
	return value, true
}

// Delete drops the component of id, keeping its value in a deletion tombstone if the store
// tracks deletions.
func (s *SparseSet[T]) Delete(id entity.EntityID) bool {
	pos, ok := s.IndexOf(id)
	if !ok {
		return false
	}
	id = s.dense[pos].WithoutFlags()
	value := s.removeAt(pos)
	if s.tracking.Has(tracking.Deletion) {
		s.deletion = append(s.deletion, DeletedEntry[T]{ID: id, Timestamp: s.clock.Now(), Value: value})
	}
	return true
}

func (s *SparseSet[T]) Get(id entity.EntityID) (T, bool) {
	pos, ok := s.IndexOf(id)
	if !ok {
		var zero T
		return zero, false
	}
	return s.data[pos], true
}

// GetMut returns a pointer to the component of id and records the modification. The pointer
// is valid until the next insertion, removal or GetMut on the store.
func (s *SparseSet[T]) GetMut(id entity.EntityID) (*T, bool) {
	pos, ok := s.IndexOf(id)
	if !ok {
		return nil, false
	}
	pos = s.markModified(pos, s.clock.Now())
	return &s.data[pos], true
}

func (s *SparseSet[T]) Contains(id entity.EntityID) bool {
	_, ok := s.IndexOf(id)
	return ok
}

// IndexOf returns the dense position of id.
func (s *SparseSet[T]) IndexOf(id entity.EntityID) (int, bool) {
	id = id.WithoutFlags()
	pos, ok := s.sparse.get(id.Index())
	if !ok || s.dense[pos].WithoutFlags() != id {
		return 0, false
	}
	return int(pos), true
}

// IDAt returns the identifier stored at a dense position.
func (s *SparseSet[T]) IDAt(pos int) entity.EntityID {
	return s.dense[pos].WithoutFlags()
}

// At returns the component stored at a dense position without recording anything.
func (s *SparseSet[T]) At(pos int) *T {
	return &s.data[pos]
}

// AtMut returns the component stored at a dense position and stamps its modification. The
// element keeps its position, pack regions included.
func (s *SparseSet[T]) AtMut(pos int) *T {
	if s.tracking.Has(tracking.Modification) {
		s.modification[pos] = s.clock.Now()
	}
	return &s.data[pos]
}

// Clear empties the store. Every cleared component is recorded as a deletion if the store
// tracks deletions, or else as a removal if it tracks removals.
func (s *SparseSet[T]) Clear() {
	now := s.clock.Now()
	switch {
	case s.tracking.Has(tracking.Deletion):
		for i, id := range s.dense {
			s.deletion = append(s.deletion, DeletedEntry[T]{ID: id.WithoutFlags(), Timestamp: now, Value: s.data[i]})
		}
	case s.tracking.Has(tracking.Removal):
		for _, id := range s.dense {
			s.removal = append(s.removal, RemovedEntry{ID: id.WithoutFlags(), Timestamp: now})
		}
	}
	for _, id := range s.dense {
		s.sparse.unset(id.Index())
	}
	clear(s.data)
	s.dense = s.dense[:0]
	s.data = s.data[:0]
	s.insertion = s.insertion[:0]
	s.modification = s.modification[:0]
	s.inserted, s.modified = 0, 0
}

func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

func (s *SparseSet[T]) IsEmpty() bool {
	return len(s.dense) == 0
}

// SailTime is the cost of driving an iteration with this store.
func (s *SparseSet[T]) SailTime() int {
	return len(s.dense)
}

// Dense returns the stored identifiers in dense order. Index i of Dense matches index i of
// Data. The slice must not be modified.
func (s *SparseSet[T]) Dense() []entity.EntityID {
	if !s.packed {
		return s.dense
	}
	out := make([]entity.EntityID, len(s.dense))
	for i, id := range s.dense {
		out[i] = id.WithoutFlags()
	}
	return out
}

// Data returns the stored components in dense order.
func (s *SparseSet[T]) Data() []T {
	return s.data
}

// Reserve grows the store so n more components fit without reallocating.
func (s *SparseSet[T]) Reserve(n int) {
	s.dense = slices.Grow(s.dense, n)
	s.data = slices.Grow(s.data, n)
	if s.tracking.Has(tracking.Insertion) {
		s.insertion = slices.Grow(s.insertion, n)
	}
	if s.tracking.Has(tracking.Modification) {
		s.modification = slices.Grow(s.modification, n)
	}
}

// BucketCount returns how many sparse buckets are allocated.
func (s *SparseSet[T]) BucketCount() int {
	return s.sparse.allocated()
}

// removeAt swap-removes the element at pos against the tail of its region, region by region,
// and returns its value.
func (s *SparseSet[T]) removeAt(pos int) T {
	index := s.dense[pos].Index()
	if pos < s.inserted {
		s.inserted--
		s.swap(pos, s.inserted)
		pos = s.inserted
	}
	if pos < s.modified {
		s.modified--
		s.swap(pos, s.modified)
		pos = s.modified
	}
	last := len(s.dense) - 1
	s.swap(pos, last)

	value := s.data[last]
	var zero T
	s.data[last] = zero
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	if s.tracking.Has(tracking.Insertion) {
		s.insertion = s.insertion[:last]
	}
	if s.tracking.Has(tracking.Modification) {
		s.modification = s.modification[:last]
	}
	s.sparse.unset(index)
	return value
}

func (s *SparseSet[T]) swap(a, b int) {
	if a == b {
		return
	}
	s.dense[a], s.dense[b] = s.dense[b], s.dense[a]
	s.data[a], s.data[b] = s.data[b], s.data[a]
	if s.tracking.Has(tracking.Insertion) {
		s.insertion[a], s.insertion[b] = s.insertion[b], s.insertion[a]
	}
	if s.tracking.Has(tracking.Modification) {
		s.modification[a], s.modification[b] = s.modification[b], s.modification[a]
	}
	s.sparse.set(s.dense[a].Index(), uint32(a))
	s.sparse.set(s.dense[b].Index(), uint32(b))
}

func (s *SparseSet[T]) markInserted(pos int, now tracking.Timestamp) int {
	if s.tracking.Has(tracking.Insertion) {
		s.insertion[pos] = now
	}
	if s.tracking.Has(tracking.Modification) {
		s.modification[pos] = tracking.Never(now)
	}
	if s.packed {
		pos = s.moveToInserted(pos)
	}
	return pos
}

func (s *SparseSet[T]) markModified(pos int, now tracking.Timestamp) int {
	if s.tracking.Has(tracking.Modification) {
		s.modification[pos] = now
	}
	if s.packed {
		pos = s.moveToModified(pos)
	}
	return pos
}
