package snapshot

import (
	"pkg.world.dev/world-engine/sparse/codec"
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/storage"
)

// Binding connects a typed store to the snapshotter.
type Binding interface {
	Name() string
	Len() int
	// export returns the dense identifiers and the encoded components in matching order.
	export() ([]entity.EntityID, []byte, error)
	// restore inserts the decoded components under ids.
	restore(ids []entity.EntityID, data []byte) error
}

type binding[T any] struct {
	s *storage.SparseSet[T]
}

// Bind exposes s to Save and Load. Components are encoded with codec.Encode.
func Bind[T any](s *storage.SparseSet[T]) Binding {
	return binding[T]{s: s}
}

func (b binding[T]) Name() string {
	return b.s.Name()
}

func (b binding[T]) Len() int {
	return b.s.Len()
}

func (b binding[T]) export() ([]entity.EntityID, []byte, error) {
	bz, err := codec.Encode(b.s.Data())
	if err != nil {
		return nil, nil, err
	}
	return b.s.Dense(), bz, nil
}

func (b binding[T]) restore(ids []entity.EntityID, data []byte) error {
	values, err := codec.Decode[[]T](data)
	if err != nil {
		return err
	}
	return b.s.BulkInsert(ids, values)
}
