package storage

import (
	"slices"

	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/tracking"
)

// DeletedEntry is the tombstone of a deleted component. It keeps the last value.
type DeletedEntry[T any] struct {
	ID        entity.EntityID
	Timestamp tracking.Timestamp
	Value     T
}

// RemovedEntry is the tombstone of a removed component.
type RemovedEntry struct {
	ID        entity.EntityID
	Timestamp tracking.Timestamp
}

func (s *SparseSet[T]) Tracking() tracking.Tracking {
	return s.tracking
}

func (s *SparseSet[T]) IsTrackingInsertion() bool {
	return s.tracking.Has(tracking.Insertion)
}

func (s *SparseSet[T]) IsTrackingModification() bool {
	return s.tracking.Has(tracking.Modification)
}

func (s *SparseSet[T]) IsTrackingDeletion() bool {
	return s.tracking.Has(tracking.Deletion)
}

func (s *SparseSet[T]) IsTrackingRemoval() bool {
	return s.tracking.Has(tracking.Removal)
}

// IsInserted reports whether the component of id was inserted within (last, current].
func (s *SparseSet[T]) IsInserted(id entity.EntityID, last, current tracking.Timestamp) bool {
	if !s.IsTrackingInsertion() {
		return false
	}
	pos, ok := s.IndexOf(id)
	return ok && s.insertion[pos].IsWithin(last, current)
}

// IsModified reports whether the component of id was modified within (last, current].
func (s *SparseSet[T]) IsModified(id entity.EntityID, last, current tracking.Timestamp) bool {
	if !s.IsTrackingModification() {
		return false
	}
	pos, ok := s.IndexOf(id)
	return ok && s.modification[pos].IsWithin(last, current)
}

// InsertionAt returns the insertion timestamp of the component at a dense position.
func (s *SparseSet[T]) InsertionAt(pos int) (tracking.Timestamp, bool) {
	if !s.IsTrackingInsertion() {
		return 0, false
	}
	return s.insertion[pos], true
}

// ModificationAt returns the modification timestamp of the component at a dense position.
func (s *SparseSet[T]) ModificationAt(pos int) (tracking.Timestamp, bool) {
	if !s.IsTrackingModification() {
		return 0, false
	}
	return s.modification[pos], true
}

func (s *SparseSet[T]) IsDeleted(id entity.EntityID, last, current tracking.Timestamp) bool {
	id = id.WithoutFlags()
	for _, e := range s.deletion {
		if e.ID == id && e.Timestamp.IsWithin(last, current) {
			return true
		}
	}
	return false
}

func (s *SparseSet[T]) IsRemoved(id entity.EntityID, last, current tracking.Timestamp) bool {
	id = id.WithoutFlags()
	for _, e := range s.removal {
		if e.ID == id && e.Timestamp.IsWithin(last, current) {
			return true
		}
	}
	return false
}

// Deleted returns the deletion tombstones recorded within (last, current].
func (s *SparseSet[T]) Deleted(last, current tracking.Timestamp) []DeletedEntry[T] {
	var out []DeletedEntry[T]
	for _, e := range s.deletion {
		if e.Timestamp.IsWithin(last, current) {
			out = append(out, e)
		}
	}
	return out
}

// Removed returns the removal tombstones recorded within (last, current].
func (s *SparseSet[T]) Removed(last, current tracking.Timestamp) []RemovedEntry {
	var out []RemovedEntry
	for _, e := range s.removal {
		if e.Timestamp.IsWithin(last, current) {
			out = append(out, e)
		}
	}
	return out
}

// DeletedAll returns every deletion tombstone in recording order. The slice must not be
// modified.
func (s *SparseSet[T]) DeletedAll() []DeletedEntry[T] {
	return s.deletion
}

// RemovedAll returns every removal tombstone in recording order. The slice must not be
// modified.
func (s *SparseSet[T]) RemovedAll() []RemovedEntry {
	return s.removal
}

func (s *SparseSet[T]) ClearAllInserted() {
	never := tracking.Never(s.clock.Now())
	for i := range s.insertion {
		s.insertion[i] = never
	}
}

func (s *SparseSet[T]) ClearAllModified() {
	never := tracking.Never(s.clock.Now())
	for i := range s.modification {
		s.modification[i] = never
	}
}

func (s *SparseSet[T]) ClearAllRemovedAndDeleted() {
	clear(s.deletion)
	s.deletion = s.deletion[:0]
	s.removal = s.removal[:0]
}

func (s *SparseSet[T]) ClearAllInsertedOlderThan(ts tracking.Timestamp) {
	never := tracking.Never(s.clock.Now())
	for i, t := range s.insertion {
		if t.IsOlderThan(ts) {
			s.insertion[i] = never
		}
	}
}

func (s *SparseSet[T]) ClearAllModifiedOlderThan(ts tracking.Timestamp) {
	never := tracking.Never(s.clock.Now())
	for i, t := range s.modification {
		if t.IsOlderThan(ts) {
			s.modification[i] = never
		}
	}
}

func (s *SparseSet[T]) ClearAllRemovedAndDeletedOlderThan(ts tracking.Timestamp) {
	s.deletion = slices.DeleteFunc(s.deletion, func(e DeletedEntry[T]) bool {
		return e.Timestamp.IsOlderThan(ts)
	})
	s.removal = slices.DeleteFunc(s.removal, func(e RemovedEntry) bool {
		return e.Timestamp.IsOlderThan(ts)
	})
}

// TakeDeleted drains the deletion tombstones.
func (s *SparseSet[T]) TakeDeleted() []DeletedEntry[T] {
	out := s.deletion
	s.deletion = nil
	return out
}

// TakeRemoved drains the removal tombstones.
func (s *SparseSet[T]) TakeRemoved() []RemovedEntry {
	out := s.removal
	s.removal = nil
	return out
}
