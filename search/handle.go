// Package search plans and runs iterations over several component stores at once.
//
// Every participant of a query is a Handle. The planner picks the cheapest handle able to
// drive the scan by position (the captain) and probes every other handle (the sailors) by
// identifier. A query over a single contiguous handle skips probing altogether.
package search

import (
	"pkg.world.dev/world-engine/sparse/entity"
)

// MaxHandles bounds the number of handles in one query.
const MaxHandles = 8

// Cost multipliers, in tenths.
const (
	notPenalty    = 12
	filterPenalty = 20
)

// Tracker names the change filter a handle applies to its store.
type Tracker uint8

const (
	Untracked Tracker = iota
	TrackInserted
	TrackModified
	TrackInsertedOrModified
	TrackDeleted
	TrackRemoved
)

func (t Tracker) String() string {
	switch t {
	case Untracked:
		return "untracked"
	case TrackInserted:
		return "inserted"
	case TrackModified:
		return "modified"
	case TrackInsertedOrModified:
		return "inserted_or_modified"
	case TrackDeleted:
		return "deleted"
	case TrackRemoved:
		return "removed"
	}
	return "unknown"
}

// Handle is what the planner knows about one participant of a query.
type Handle interface {
	// Len is the number of positions the handle covers when it drives the scan.
	Len() int
	// SailTime estimates the cost of driving the scan with this handle.
	SailTime() int
	CanCaptain() bool
	CanSail() bool
	// Range returns the positions [start, end) scanned when captaining.
	Range() (start, end int)
	// IDAt returns the identifier at a position of Range.
	IDAt(pos int) entity.EntityID
	// Accept reports whether the captain position pos, holding id, passes the handle's filter.
	Accept(pos int, id entity.EntityID) bool
	// IndexOf probes the handle as a sailor. A miss is (_, false), never a panic.
	IndexOf(id entity.EntityID) (int, bool)
	// Source identifies the underlying store. Nil for handles without one.
	Source() any
	Tracker() Tracker
	// Contiguous reports whether every position of Range is accepted.
	Contiguous() bool
	// MutablyTracked reports an unrestricted mutable pass over a store that records
	// modifications.
	MutablyTracked() bool
}

// Component is a handle that also yields a value per row.
type Component[T any] interface {
	Handle
	// Get returns the value at a position returned by Range or IndexOf.
	Get(pos int) *T
}

// Row is one result of a query. Pos[i] is the position of the row inside the i-th handle
// of the query.
type Row struct {
	ID  entity.EntityID
	Pos [MaxHandles]int
}

type validator interface {
	validate() error
}

// composite is implemented by handles wrapping other handles.
type composite interface {
	parts() []Handle
}

func scale(cost, tenths int) int {
	return cost * tenths / 10
}
