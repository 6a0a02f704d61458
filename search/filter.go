package search

import (
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/storage"
	"pkg.world.dev/world-engine/sparse/tracking"
)

// Changed keeps the components of a view whose insertion or modification timestamp falls in
// the window (last, current].
type Changed[T any] struct {
	v             Viewer[T]
	kind          Tracker
	last, current tracking.Timestamp
}

func Inserted[T any](v Viewer[T], last, current tracking.Timestamp) *Changed[T] {
	return &Changed[T]{v: v, kind: TrackInserted, last: last, current: current}
}

func Modified[T any](v Viewer[T], last, current tracking.Timestamp) *Changed[T] {
	return &Changed[T]{v: v, kind: TrackModified, last: last, current: current}
}

func InsertedOrModified[T any](v Viewer[T], last, current tracking.Timestamp) *Changed[T] {
	return &Changed[T]{v: v, kind: TrackInsertedOrModified, last: last, current: current}
}

func (c *Changed[T]) match(pos int) bool {
	s := c.v.store()
	if c.kind != TrackModified {
		if ts, ok := s.InsertionAt(pos); ok && ts.IsWithin(c.last, c.current) {
			return true
		}
	}
	if c.kind != TrackInserted {
		if ts, ok := s.ModificationAt(pos); ok && ts.IsWithin(c.last, c.current) {
			return true
		}
	}
	return false
}

func (c *Changed[T]) Len() int {
	return c.v.Len()
}

func (c *Changed[T]) SailTime() int {
	return scale(c.v.SailTime(), filterPenalty)
}

func (c *Changed[T]) CanCaptain() bool {
	return true
}

func (c *Changed[T]) CanSail() bool {
	return true
}

func (c *Changed[T]) Range() (int, int) {
	return c.v.Range()
}

func (c *Changed[T]) IDAt(pos int) entity.EntityID {
	return c.v.IDAt(pos)
}

func (c *Changed[T]) Accept(pos int, _ entity.EntityID) bool {
	return c.match(pos)
}

func (c *Changed[T]) IndexOf(id entity.EntityID) (int, bool) {
	pos, ok := c.v.IndexOf(id)
	if !ok || !c.match(pos) {
		return 0, false
	}
	return pos, true
}

func (c *Changed[T]) Source() any {
	return c.v.Source()
}

func (c *Changed[T]) Tracker() Tracker {
	return c.kind
}

func (c *Changed[T]) Contiguous() bool {
	return false
}

// MutablyTracked is only true for pack stores, whose regions would move under a mutable
// timestamp filtered pass.
func (c *Changed[T]) MutablyTracked() bool {
	return c.v.mutable() && c.v.store().IsPacked()
}

func (c *Changed[T]) Get(pos int) *T {
	return c.v.Get(pos)
}

func (c *Changed[T]) validate() error {
	s := c.v.store()
	switch c.kind {
	case TrackInserted:
		if !s.IsTrackingInsertion() {
			return ErrUntracked
		}
	case TrackModified:
		if !s.IsTrackingModification() {
			return ErrUntracked
		}
	default:
		if !s.IsTrackingInsertion() && !s.IsTrackingModification() {
			return ErrUntracked
		}
	}
	return nil
}

// Region iterates one pack region of an update packed store as a plain position range.
type Region[T any] struct {
	v    Viewer[T]
	kind Tracker
}

func InsertedRegion[T any](v Viewer[T]) *Region[T] {
	return &Region[T]{v: v, kind: TrackInserted}
}

func ModifiedRegion[T any](v Viewer[T]) *Region[T] {
	return &Region[T]{v: v, kind: TrackModified}
}

func InsertedOrModifiedRegion[T any](v Viewer[T]) *Region[T] {
	return &Region[T]{v: v, kind: TrackInsertedOrModified}
}

func (r *Region[T]) Range() (int, int) {
	s := r.v.store()
	switch r.kind {
	case TrackInserted:
		return s.InsertedRegion()
	case TrackModified:
		return s.ModifiedRegion()
	default:
		return s.InsertedOrModifiedRegion()
	}
}

func (r *Region[T]) Len() int {
	start, end := r.Range()
	return end - start
}

func (r *Region[T]) SailTime() int {
	return r.Len()
}

func (r *Region[T]) CanCaptain() bool {
	return true
}

func (r *Region[T]) CanSail() bool {
	return true
}

func (r *Region[T]) IDAt(pos int) entity.EntityID {
	return r.v.IDAt(pos)
}

func (r *Region[T]) Accept(int, entity.EntityID) bool {
	return true
}

func (r *Region[T]) IndexOf(id entity.EntityID) (int, bool) {
	pos, ok := r.v.IndexOf(id)
	if !ok {
		return 0, false
	}
	start, end := r.Range()
	if pos < start || pos >= end {
		return 0, false
	}
	return pos, true
}

func (r *Region[T]) Source() any {
	return r.v.Source()
}

func (r *Region[T]) Tracker() Tracker {
	return r.kind
}

func (r *Region[T]) Contiguous() bool {
	return true
}

func (r *Region[T]) MutablyTracked() bool {
	return false
}

func (r *Region[T]) Get(pos int) *T {
	return r.v.Get(pos)
}

func (r *Region[T]) validate() error {
	if !r.v.store().IsPacked() {
		return ErrNotPacked
	}
	return nil
}

// Tombstones iterates the deletion tombstones of a store recorded in (last, current]. Its
// values are the deleted components.
type Tombstones[T any] struct {
	s             *storage.SparseSet[T]
	last, current tracking.Timestamp
}

func Deleted[T any](s *storage.SparseSet[T], last, current tracking.Timestamp) *Tombstones[T] {
	return &Tombstones[T]{s: s, last: last, current: current}
}

func (d *Tombstones[T]) Len() int {
	return len(d.s.DeletedAll())
}

func (d *Tombstones[T]) SailTime() int {
	return scale(d.Len(), filterPenalty)
}

func (d *Tombstones[T]) CanCaptain() bool {
	return true
}

func (d *Tombstones[T]) CanSail() bool {
	return true
}

func (d *Tombstones[T]) Range() (int, int) {
	return 0, d.Len()
}

func (d *Tombstones[T]) IDAt(pos int) entity.EntityID {
	return d.s.DeletedAll()[pos].ID
}

func (d *Tombstones[T]) Accept(pos int, _ entity.EntityID) bool {
	return d.s.DeletedAll()[pos].Timestamp.IsWithin(d.last, d.current)
}

// IndexOf returns the most recent tombstone of id in the window.
func (d *Tombstones[T]) IndexOf(id entity.EntityID) (int, bool) {
	id = id.WithoutFlags()
	entries := d.s.DeletedAll()
	for pos := len(entries) - 1; pos >= 0; pos-- {
		if entries[pos].ID == id && entries[pos].Timestamp.IsWithin(d.last, d.current) {
			return pos, true
		}
	}
	return 0, false
}

func (d *Tombstones[T]) Source() any {
	return d.s
}

func (d *Tombstones[T]) Tracker() Tracker {
	return TrackDeleted
}

func (d *Tombstones[T]) Contiguous() bool {
	return false
}

func (d *Tombstones[T]) MutablyTracked() bool {
	return false
}

func (d *Tombstones[T]) Get(pos int) *T {
	return &d.s.DeletedAll()[pos].Value
}

func (d *Tombstones[T]) validate() error {
	if !d.s.IsTrackingDeletion() {
		return ErrUntracked
	}
	return nil
}

// RemovalSource is a store recording removals.
type RemovalSource interface {
	IsTrackingRemoval() bool
	RemovedAll() []storage.RemovedEntry
}

// Removals iterates removal tombstones recorded in (last, current]. It yields no value.
type Removals struct {
	s             RemovalSource
	last, current tracking.Timestamp
}

func Removed(s RemovalSource, last, current tracking.Timestamp) *Removals {
	return &Removals{s: s, last: last, current: current}
}

func (r *Removals) Len() int {
	return len(r.s.RemovedAll())
}

func (r *Removals) SailTime() int {
	return scale(r.Len(), filterPenalty)
}

func (r *Removals) CanCaptain() bool {
	return true
}

func (r *Removals) CanSail() bool {
	return true
}

func (r *Removals) Range() (int, int) {
	return 0, r.Len()
}

func (r *Removals) IDAt(pos int) entity.EntityID {
	return r.s.RemovedAll()[pos].ID
}

func (r *Removals) Accept(pos int, _ entity.EntityID) bool {
	return r.s.RemovedAll()[pos].Timestamp.IsWithin(r.last, r.current)
}

func (r *Removals) IndexOf(id entity.EntityID) (int, bool) {
	id = id.WithoutFlags()
	entries := r.s.RemovedAll()
	for pos := len(entries) - 1; pos >= 0; pos-- {
		if entries[pos].ID == id && entries[pos].Timestamp.IsWithin(r.last, r.current) {
			return pos, true
		}
	}
	return 0, false
}

func (r *Removals) Source() any {
	return r.s
}

func (r *Removals) Tracker() Tracker {
	return TrackRemoved
}

func (r *Removals) Contiguous() bool {
	return false
}

func (r *Removals) MutablyTracked() bool {
	return false
}

func (r *Removals) validate() error {
	if !r.s.IsTrackingRemoval() {
		return ErrUntracked
	}
	return nil
}
