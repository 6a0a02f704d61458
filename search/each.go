package search

import "pkg.world.dev/world-engine/sparse/entity"

// Each1 calls fn for every component of a.
func Each1[A any](a Component[A], fn func(entity.EntityID, *A)) error {
	it, err := New(a)
	if err != nil {
		return err
	}
	for row := range it.All() {
		fn(row.ID, a.Get(row.Pos[0]))
	}
	return nil
}

// Each2 calls fn for every identifier matched by both a and b.
func Each2[A, B any](a Component[A], b Component[B], fn func(entity.EntityID, *A, *B)) error {
	it, err := New(a, b)
	if err != nil {
		return err
	}
	for row := range it.All() {
		fn(row.ID, a.Get(row.Pos[0]), b.Get(row.Pos[1]))
	}
	return nil
}

func Each3[A, B, C any](
	a Component[A], b Component[B], c Component[C],
	fn func(entity.EntityID, *A, *B, *C),
) error {
	it, err := New(a, b, c)
	if err != nil {
		return err
	}
	for row := range it.All() {
		fn(row.ID, a.Get(row.Pos[0]), b.Get(row.Pos[1]), c.Get(row.Pos[2]))
	}
	return nil
}

func Each4[A, B, C, D any](
	a Component[A], b Component[B], c Component[C], d Component[D],
	fn func(entity.EntityID, *A, *B, *C, *D),
) error {
	it, err := New(a, b, c, d)
	if err != nil {
		return err
	}
	for row := range it.All() {
		fn(row.ID, a.Get(row.Pos[0]), b.Get(row.Pos[1]), c.Get(row.Pos[2]), d.Get(row.Pos[3]))
	}
	return nil
}
