package search

import (
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/storage"
)

// Viewer is a plain read or write view over one store. Filters wrap a Viewer.
type Viewer[T any] interface {
	Component[T]
	store() *storage.SparseSet[T]
	mutable() bool
}

// View reads a store.
type View[T any] struct {
	s *storage.SparseSet[T]
}

func Read[T any](s *storage.SparseSet[T]) *View[T] {
	return &View[T]{s: s}
}

func (v *View[T]) Len() int { return v.s.Len() }
func (v *View[T]) SailTime() int { return v.s.SailTime() }
func (v *View[T]) CanCaptain() bool { return true }
func (v *View[T]) CanSail() bool { return true }
func (v *View[T]) Range() (int, int) { return 0, v.s.Len() }
func (v *View[T]) IDAt(pos int) entity.EntityID { return v.s.IDAt(pos) }
func (v *View[T]) Accept(int, entity.EntityID) bool { return true }
func (v *View[T]) IndexOf(id entity.EntityID) (int, bool) { return v.s.IndexOf(id) }
func (v *View[T]) Source() any { return v.s }
func (v *View[T]) Tracker() Tracker { return Untracked }
func (v *View[T]) Contiguous() bool { return true }
func (v *View[T]) MutablyTracked() bool { return false }
func (v *View[T]) Get(pos int) *T { return v.s.At(pos) }

func (v *View[T]) store() *storage.SparseSet[T] { return v.s }
func (v *View[T]) mutable() bool { return false }

// ViewMut writes a store. Every value handed out is stamped as modified, so a store tracking
// modifications, or keeping pack regions, only accepts a ViewMut behind a change filter.
type ViewMut[T any] struct {
	View[T]
}

func Write[T any](s *storage.SparseSet[T]) *ViewMut[T] {
	return &ViewMut[T]{View[T]{s: s}}
}

func (v *ViewMut[T]) MutablyTracked() bool {
	return v.s.IsTrackingModification() || v.s.IsPacked()
}

func (v *ViewMut[T]) Get(pos int) *T { return v.s.AtMut(pos) }

func (v *ViewMut[T]) mutable() bool { return true }
