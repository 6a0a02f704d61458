package storage_test

import (
	"math/rand"
	"testing"

	"pkg.world.dev/world-engine/sparse/assert"
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/storage"
)

type region int

const (
	unchanged region = iota
	inserted
	modified
)

func idsIn[T any](s *storage.SparseSet[T], start, end int) []entity.EntityID {
	out := make([]entity.EntityID, 0, end-start)
	for pos := start; pos < end; pos++ {
		out = append(out, s.IDAt(pos))
	}
	return out
}

func checkRegions[T any](t *testing.T, s *storage.SparseSet[T], model map[entity.EntityID]region) {
	t.Helper()
	want := map[region][]entity.EntityID{}
	for id, r := range model {
		want[r] = append(want[r], id)
	}
	insStart, insEnd := s.InsertedRegion()
	modStart, modEnd := s.ModifiedRegion()
	assert.Equal(t, 0, insStart)
	assert.Equal(t, insEnd, modStart)

	assert.ElementsMatch(t, want[inserted], idsIn(s, insStart, insEnd))
	assert.ElementsMatch(t, want[modified], idsIn(s, modStart, modEnd))
	assert.ElementsMatch(t, want[unchanged], idsIn(s, modEnd, s.Len()))

	_, both := s.InsertedOrModifiedRegion()
	assert.Equal(t, modEnd, both)
	checkConsistent(t, s)
}

func TestPackRegionsFollowWrites(t *testing.T) {
	s := storage.New[int](storage.WithUpdatePack())
	assert.Check(t, s.IsPacked())
	ids := make([]entity.EntityID, 6)
	for i := range ids {
		ids[i] = entity.New(uint64(i))
		s.Insert(ids[i], i)
	}
	model := map[entity.EntityID]region{}
	for _, id := range ids {
		model[id] = inserted
	}
	checkRegions(t, s, model)

	s.ClearInsertedRegion()
	for _, id := range ids {
		model[id] = unchanged
	}
	checkRegions(t, s, model)

	_, ok := s.GetMut(ids[4])
	assert.Check(t, ok)
	s.Insert(ids[1], 10)
	model[ids[4]], model[ids[1]] = modified, modified
	checkRegions(t, s, model)

	s.Insert(entity.New(9), 9)
	model[entity.New(9)] = inserted
	checkRegions(t, s, model)

	// Modifying an inserted component keeps it inserted.
	s.GetMut(entity.New(9))
	checkRegions(t, s, model)

	s.Remove(ids[4])
	delete(model, ids[4])
	checkRegions(t, s, model)

	s.ClearModifiedRegion()
	model[ids[1]] = unchanged
	checkRegions(t, s, model)

	s.ClearInsertedAndModifiedRegions()
	model[entity.New(9)] = unchanged
	checkRegions(t, s, model)
}

func TestClearInsertedRegionBlockSwap(t *testing.T) {
	for _, tc := range []struct {
		name               string
		inserted, modified int
	}{
		{"more inserted", 5, 2},
		{"more modified", 2, 5},
		{"equal", 3, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := storage.New[int](storage.WithUpdatePack())
			model := map[entity.EntityID]region{}
			next := uint64(0)
			for i := 0; i < tc.modified+3; i++ {
				s.Insert(entity.New(next), int(next))
				model[entity.New(next)] = unchanged
				next++
			}
			s.ClearInsertedRegion()
			for i := 0; i < tc.modified; i++ {
				s.GetMut(entity.New(uint64(i)))
				model[entity.New(uint64(i))] = modified
			}
			for i := 0; i < tc.inserted; i++ {
				s.Insert(entity.New(next), int(next))
				model[entity.New(next)] = inserted
				next++
			}
			checkRegions(t, s, model)

			s.ClearInsertedRegion()
			for id, r := range model {
				if r == inserted {
					model[id] = unchanged
				}
			}
			checkRegions(t, s, model)
			for pos, id := range s.Dense() {
				assert.Equal(t, int(id.Index()), s.Data()[pos])
			}
		})
	}
}

func TestPackStaleOverwriteCountsAsInsertion(t *testing.T) {
	s := storage.New[int](storage.WithUpdatePack())
	old := entity.New(2)
	s.Insert(old, 1)
	s.Insert(entity.New(3), 1)
	s.ClearInsertedRegion()

	fresh, err := old.BumpGeneration()
	assert.NilError(t, err)
	s.Insert(fresh, 2)
	checkRegions(t, s, map[entity.EntityID]region{fresh: inserted, entity.New(3): unchanged})
}

func TestPackRegionsUnderChurn(t *testing.T) {
	s := storage.New[int](storage.WithUpdatePack())
	model := map[entity.EntityID]region{}
	rng := rand.New(rand.NewSource(99))
	for step := 0; step < 3000; step++ {
		id := entity.New(uint64(rng.Intn(200)))
		_, present := model[id]
		switch rng.Intn(8) {
		case 0, 1, 2:
			s.Insert(id, step)
			switch {
			case !present:
				model[id] = inserted
			case model[id] == unchanged:
				model[id] = modified
			}
		case 3, 4:
			if _, ok := s.GetMut(id); ok && model[id] == unchanged {
				model[id] = modified
			}
		case 5:
			s.Remove(id)
			delete(model, id)
		case 6:
			s.ClearInsertedRegion()
			for k, r := range model {
				if r == inserted {
					model[k] = unchanged
				}
			}
		case 7:
			s.ClearModifiedRegion()
			for k, r := range model {
				if r == modified {
					model[k] = unchanged
				}
			}
		}
		if step%250 == 0 {
			checkRegions(t, s, model)
		}
	}
	checkRegions(t, s, model)
}
