package entity_test

import (
	"testing"

	"pkg.world.dev/world-engine/sparse/assert"
	"pkg.world.dev/world-engine/sparse/entity"
)

func TestIDPacksIndexAndGeneration(t *testing.T) {
	id := entity.NewWithGeneration(12345, 7)
	assert.Equal(t, uint64(12345), id.Index())
	assert.Equal(t, uint16(7), id.Generation())
	assert.Check(t, !id.IsDead())

	big := entity.NewWithGeneration(entity.MaxIndex, 3)
	assert.Equal(t, entity.MaxIndex, big.Index())
	assert.Equal(t, uint16(3), big.Generation())
}

func TestIDRejectsOversizedIndex(t *testing.T) {
	assert.Panics(t, func() { entity.New(entity.MaxIndex + 1) })
}

func TestDeadIsDead(t *testing.T) {
	assert.Check(t, entity.Dead.IsDead())
	assert.Equal(t, "EntityID(dead)", entity.Dead.String())
}

func TestBumpGenerationUntilExhausted(t *testing.T) {
	id := entity.NewWithGeneration(4, entity.DeadGeneration-2)

	id, err := id.BumpGeneration()
	assert.NilError(t, err)
	assert.Equal(t, entity.DeadGeneration-1, id.Generation())

	id, err = id.BumpGeneration()
	assert.ErrorIs(t, err, entity.ErrGenerationExhausted)
	assert.Check(t, id.IsDead())
	assert.Equal(t, uint64(4), id.Index())

	again, err := id.BumpGeneration()
	assert.ErrorIs(t, err, entity.ErrGenerationExhausted)
	assert.Equal(t, id, again)
}

func TestFlagsNeverChangeIdentity(t *testing.T) {
	id := entity.NewWithGeneration(9, 2)

	inserted := id.WithInserted()
	assert.Check(t, inserted.IsInserted())
	assert.Check(t, !inserted.IsModified())
	assert.Check(t, inserted != id)
	assert.Check(t, inserted.SameSlot(id))
	assert.Equal(t, id, inserted.WithoutFlags())

	modified := inserted.WithModified()
	assert.Check(t, modified.IsModified())
	assert.Check(t, !modified.IsInserted())
	assert.Equal(t, uint64(9), modified.Index())
	assert.Equal(t, uint16(2), modified.Generation())
}

func TestStaleIDIsNotSameSlot(t *testing.T) {
	id := entity.NewWithGeneration(1, 0)
	next, err := id.BumpGeneration()
	assert.NilError(t, err)
	assert.Check(t, !id.SameSlot(next))
	assert.Equal(t, id.Index(), next.Index())
}
