package world_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/sparse/assert"
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/log"
	"pkg.world.dev/world-engine/sparse/search"
	"pkg.world.dev/world-engine/sparse/storage"
	"pkg.world.dev/world-engine/sparse/tracking"
	"pkg.world.dev/world-engine/sparse/world"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

func TestRegisterAndGet(t *testing.T) {
	w := world.New()
	pos, err := world.Register[Position](w, "position")
	assert.NilError(t, err)
	assert.Equal(t, "position", pos.Name())
	assert.Check(t, pos.Clock() == w.Clock())

	_, err = world.Register[Position](w, "position")
	assert.ErrorIs(t, err, world.ErrDuplicateStore)
	_, err = world.Register[Velocity](w, "")
	assert.ErrorIs(t, err, world.ErrEmptyStoreName)

	got, err := world.Get[Position](w, "position")
	assert.NilError(t, err)
	assert.Check(t, got == pos)

	_, err = world.Get[Velocity](w, "position")
	assert.ErrorIs(t, err, world.ErrStoreType)
	_, err = world.Get[Velocity](w, "velocity")
	assert.ErrorIs(t, err, world.ErrUnknownStore)

	_, ok := w.Store("position")
	assert.Check(t, ok)
	assert.Len(t, w.Stores(), 1)
}

func TestRegisterForcesSharedClock(t *testing.T) {
	w := world.New()
	other := tracking.NewClock()
	s, err := world.Register[Position](w, "position", storage.WithClock(other))
	assert.NilError(t, err)
	assert.Check(t, s.Clock() == w.Clock())
}

func TestDeleteDefersUntilReconcile(t *testing.T) {
	w := world.New()
	pos, err := world.Register[Position](w, "position", storage.WithTracking(tracking.Deletion))
	assert.NilError(t, err)
	vel, err := world.Register[Velocity](w, "velocity")
	assert.NilError(t, err)

	ids := w.SpawnBatch(4)
	for i, id := range ids {
		pos.Insert(id, Position{X: float64(i)})
		if i%2 == 0 {
			vel.Insert(id, Velocity{DX: 1})
		}
	}

	assert.Check(t, w.Delete(ids[0]))
	assert.Check(t, w.Delete(ids[1]))
	assert.Check(t, !w.Delete(ids[1]))
	assert.Check(t, !w.IsAlive(ids[0]))
	assert.Equal(t, 2, w.Pending())
	assert.Check(t, w.IsPending(ids[0]))

	// Components are untouched until reconciliation.
	assert.Check(t, pos.Contains(ids[0]))
	assert.Check(t, vel.Contains(ids[0]))

	assert.Equal(t, 3, w.Reconcile())
	assert.Equal(t, 0, w.Pending())
	assert.Check(t, !pos.Contains(ids[0]))
	assert.Check(t, !pos.Contains(ids[1]))
	assert.Check(t, !vel.Contains(ids[0]))
	assert.Equal(t, 2, pos.Len())
	assert.Equal(t, 1, vel.Len())

	deleted := pos.DeletedAll()
	assert.Len(t, deleted, 2)
	assert.Equal(t, 0.0, deleted[0].Value.X)
	assert.Equal(t, 1.0, deleted[1].Value.X)

	assert.Equal(t, 0, w.Reconcile())
}

func TestReconcileIgnoresRecycledSlots(t *testing.T) {
	w := world.New()
	pos, err := world.Register[Position](w, "position")
	assert.NilError(t, err)

	old := w.Spawn()
	pos.Insert(old, Position{X: 1})
	assert.Check(t, w.Delete(old))

	// The recycled slot's component belongs to the fresh generation and must survive.
	fresh := w.Spawn()
	assert.Equal(t, old.Index(), fresh.Index())
	pos.Insert(fresh, Position{X: 2})

	assert.Equal(t, 0, w.Reconcile())
	got, ok := pos.Get(fresh)
	assert.Check(t, ok)
	assert.Equal(t, 2.0, got.X)
}

func TestDeletionHook(t *testing.T) {
	w := world.New()
	parent := w.Spawn()
	child := w.Spawn()
	var seen []entity.EntityID
	w.OnDeletion(func(id entity.EntityID) {
		seen = append(seen, id)
		if id == parent {
			w.Delete(child)
		}
	})
	assert.Check(t, w.Delete(parent))
	assert.DeepEqual(t, []entity.EntityID{parent, child}, seen)
	assert.Equal(t, 2, w.Pending())
	assert.Equal(t, 0, w.Len())
}

func TestClockAndTracking(t *testing.T) {
	w := world.New()
	pos, err := world.Register[Position](w, "position",
		storage.WithTracking(tracking.Insertion|tracking.Modification|tracking.Removal))
	assert.NilError(t, err)

	last := w.Now()
	w.Advance()
	id := w.Spawn()
	pos.Insert(id, Position{})
	assert.Check(t, pos.IsInserted(id, last, w.Now()))

	modLast := w.Now()
	w.Advance()
	p, _ := pos.GetMut(id)
	p.X = 3
	assert.Check(t, pos.IsModified(id, modLast, w.Now()))
	removed := w.Spawn()
	pos.Insert(removed, Position{})
	pos.Remove(removed)
	assert.Len(t, pos.RemovedAll(), 1)

	w.ClearTracking(w.Advance())
	assert.Check(t, !pos.IsInserted(id, last, w.Now()))
	assert.Check(t, !pos.IsModified(id, modLast, w.Now()))
	assert.Len(t, pos.RemovedAll(), 0)
}

func TestClearRegions(t *testing.T) {
	w := world.New()
	packed, err := world.Register[Position](w, "packed", storage.WithUpdatePack())
	assert.NilError(t, err)
	_, err = world.Register[Velocity](w, "plain")
	assert.NilError(t, err)

	for _, id := range w.SpawnBatch(5) {
		packed.Insert(id, Position{})
	}
	start, end := packed.InsertedRegion()
	assert.Equal(t, 5, end-start)

	w.ClearRegions()
	start, end = packed.InsertedOrModifiedRegion()
	assert.Equal(t, 0, end-start)
}

func TestClear(t *testing.T) {
	w := world.New()
	pos, err := world.Register[Position](w, "position", storage.WithTracking(tracking.Deletion))
	assert.NilError(t, err)
	ids := w.SpawnBatch(3)
	for _, id := range ids {
		pos.Insert(id, Position{})
	}
	w.Delete(ids[0])

	w.Clear()
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0, w.Pending())
	assert.Equal(t, 0, pos.Len())
	assert.Len(t, pos.DeletedAll(), 3)
	for _, id := range ids {
		assert.Check(t, !w.IsAlive(id))
	}
}

func TestQueryAcrossWorldStores(t *testing.T) {
	w := world.New()
	pos, err := world.Register[Position](w, "position")
	assert.NilError(t, err)
	vel, err := world.Register[Velocity](w, "velocity")
	assert.NilError(t, err)

	for i, id := range w.SpawnBatch(100) {
		pos.Insert(id, Position{})
		if i%4 == 0 {
			vel.Insert(id, Velocity{DX: 1, DY: 2})
		}
	}

	moved := 0
	err = search.Each2(search.Write(pos), search.Read(vel), func(_ entity.EntityID, p *Position, v *Velocity) {
		p.X += v.DX
		p.Y += v.DY
		moved++
	})
	assert.NilError(t, err)
	assert.Equal(t, 25, moved)
}

func TestLogWorld(t *testing.T) {
	var buf bytes.Buffer
	zeroLogger := zerolog.New(&buf)
	w := world.New(world.WithLogger(log.Logger{Logger: &zeroLogger}))
	_, err := world.Register[Position](w, "position")
	assert.NilError(t, err)
	buf.Reset()

	w.Spawn()
	w.Log(zerolog.InfoLevel)
	assert.JSONEq(t,
		`{"level":"info","total_entities":1,"total_stores":1,"stores":[{"store_name":"position","len":0}]}`,
		buf.String())
}

func TestRegisterLogsStore(t *testing.T) {
	var buf bytes.Buffer
	zeroLogger := zerolog.New(&buf)
	w := world.New(world.WithLogger(log.Logger{Logger: &zeroLogger}))
	_, err := world.Register[Position](w, "position",
		storage.WithTracking(tracking.Insertion), storage.WithUpdatePack())
	assert.NilError(t, err)
	assert.JSONEq(t,
		`{"level":"debug","store_name":"position","len":0,"tracking":"insertion","packed":true}`,
		buf.String())
}
