package storage

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/tracking"
)

var ErrLengthMismatch = eris.New("identifier and value counts differ")

// Store is the component-type independent surface of a SparseSet, used by registries that
// hold stores of many component types.
type Store interface {
	Name() string
	Len() int
	SailTime() int
	Contains(id entity.EntityID) bool
	Delete(id entity.EntityID) bool
	Dense() []entity.EntityID
	Clear()

	Tracking() tracking.Tracking
	IsPacked() bool
	ClearAllInsertedOlderThan(ts tracking.Timestamp)
	ClearAllModifiedOlderThan(ts tracking.Timestamp)
	ClearAllRemovedAndDeletedOlderThan(ts tracking.Timestamp)
	ClearInsertedAndModifiedRegions()
}
