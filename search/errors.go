package search

import "github.com/rotisserie/eris"

var (
	ErrEmptyQuery              = eris.New("query has no handles")
	ErrTooManyHandles          = eris.New("query has too many handles")
	ErrMultipleCaptainOnly     = eris.New("more than one handle cannot be probed by identifier")
	ErrNoCaptain               = eris.New("no handle can drive the iteration")
	ErrConflictingTrackers     = eris.New("conflicting change filters on the same store")
	ErrTrackedMutableIteration = eris.New("unrestricted mutable iteration over a modification tracked store")
	ErrUntracked               = eris.New("store does not track the filtered event")
	ErrNotPacked               = eris.New("region filter requires an update packed store")
	ErrInvalidOr               = eris.New("both sides of an or must be able to drive an iteration")
)
