package storage

// Pack mode keeps the dense array laid out as [inserted | modified | unchanged]. Every move
// between regions is at most two swaps, so insertion-only or modification-only passes read a
// plain position range. Position is what places an element in a region. The flag bits of a
// dense identifier only record the region it was written into and go stale when a region is
// cleared.

func (s *SparseSet[T]) IsPacked() bool {
	return s.packed
}

// InsertedRegion returns the positions [start, end) of components inserted since the last
// ClearInsertedRegion.
func (s *SparseSet[T]) InsertedRegion() (start, end int) {
	return 0, s.inserted
}

// ModifiedRegion returns the positions [start, end) of components modified, and not
// inserted, since the last ClearModifiedRegion.
func (s *SparseSet[T]) ModifiedRegion() (start, end int) {
	return s.inserted, s.modified
}

func (s *SparseSet[T]) InsertedOrModifiedRegion() (start, end int) {
	return 0, s.modified
}

// ClearInsertedRegion moves inserted components to the unchanged region. It only resets the
// region bounds when nothing is modified; otherwise the smaller of the two regions is block
// swapped so the modified region starts at position zero.
func (s *SparseSet[T]) ClearInsertedRegion() {
	ins, mod := s.inserted, s.modified-s.inserted
	if mod == 0 {
		s.inserted, s.modified = 0, 0
		return
	}
	k := min(ins, mod)
	for i := 0; i < k; i++ {
		s.swap(i, ins+mod-k+i)
	}
	s.inserted, s.modified = 0, mod
}

func (s *SparseSet[T]) ClearModifiedRegion() {
	s.modified = s.inserted
}

func (s *SparseSet[T]) ClearInsertedAndModifiedRegions() {
	s.inserted, s.modified = 0, 0
}

func (s *SparseSet[T]) moveToInserted(pos int) int {
	if pos >= s.inserted {
		if pos >= s.modified {
			s.swap(pos, s.modified)
			pos = s.modified
			s.modified++
		}
		s.swap(pos, s.inserted)
		pos = s.inserted
		s.inserted++
	}
	s.dense[pos] = s.dense[pos].WithInserted()
	return pos
}

func (s *SparseSet[T]) moveToModified(pos int) int {
	if pos < s.inserted {
		return pos
	}
	if pos >= s.modified {
		s.swap(pos, s.modified)
		pos = s.modified
		s.modified++
	}
	s.dense[pos] = s.dense[pos].WithModified()
	return pos
}
