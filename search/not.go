package search

import "pkg.world.dev/world-engine/sparse/entity"

// Without matches every identifier its inner handle does not. It can only be probed.
type Without[T any] struct {
	inner Component[T]
}

// Not excludes the identifiers matched by c from a query. Its value is always nil.
func Not[T any](c Component[T]) *Without[T] {
	return &Without[T]{inner: c}
}

func (n *Without[T]) Len() int {
	return n.inner.Len()
}

func (n *Without[T]) SailTime() int {
	return scale(n.inner.SailTime(), notPenalty)
}

func (n *Without[T]) CanCaptain() bool {
	return false
}

func (n *Without[T]) CanSail() bool {
	return n.inner.CanSail()
}

func (n *Without[T]) Range() (int, int) {
	return n.inner.Range()
}

func (n *Without[T]) IDAt(pos int) entity.EntityID {
	return n.inner.IDAt(pos)
}

func (n *Without[T]) Accept(pos int, id entity.EntityID) bool {
	return !n.inner.Accept(pos, id)
}

func (n *Without[T]) IndexOf(id entity.EntityID) (int, bool) {
	_, ok := n.inner.IndexOf(id)
	return -1, !ok
}

func (n *Without[T]) Source() any {
	return n.inner.Source()
}

func (n *Without[T]) Tracker() Tracker {
	return n.inner.Tracker()
}

func (n *Without[T]) Contiguous() bool {
	return false
}

func (n *Without[T]) MutablyTracked() bool {
	return false
}

func (n *Without[T]) Get(int) *T {
	return nil
}

func (n *Without[T]) validate() error {
	if v, ok := n.inner.(validator); ok {
		return v.validate()
	}
	return nil
}
