package search

import "pkg.world.dev/world-engine/sparse/entity"

// Union matches identifiers present in either of two handles. Positions are flattened: the
// first handle's range comes first, followed by the second's. When the union drives a scan,
// the second part skips identifiers the first one already matched.
type Union[A, B any] struct {
	first  Component[A]
	second Component[B]
}

func Or[A, B any](first Component[A], second Component[B]) *Union[A, B] {
	return &Union[A, B]{first: first, second: second}
}

func (u *Union[A, B]) firstLen() int {
	start, end := u.first.Range()
	return end - start
}

// Resolve maps a union position to the side that holds it and the position inside that
// side.
func (u *Union[A, B]) Resolve(pos int) (first bool, inner int) {
	n := u.firstLen()
	if pos < n {
		start, _ := u.first.Range()
		return true, start + pos
	}
	start, _ := u.second.Range()
	return false, start + pos - n
}

// Get returns the value of whichever side holds pos. The other one is nil.
func (u *Union[A, B]) Get(pos int) (*A, *B) {
	first, inner := u.Resolve(pos)
	if first {
		return u.first.Get(inner), nil
	}
	return nil, u.second.Get(inner)
}

func (u *Union[A, B]) Len() int {
	return u.first.Len() + u.second.Len()
}

func (u *Union[A, B]) SailTime() int {
	return u.first.SailTime() + u.second.SailTime()
}

func (u *Union[A, B]) CanCaptain() bool {
	return u.first.CanCaptain() && u.second.CanCaptain()
}

func (u *Union[A, B]) CanSail() bool {
	return u.first.CanSail() && u.second.CanSail()
}

func (u *Union[A, B]) Range() (int, int) {
	return 0, u.firstLen() + u.second.Len()
}

func (u *Union[A, B]) IDAt(pos int) entity.EntityID {
	first, inner := u.Resolve(pos)
	if first {
		return u.first.IDAt(inner)
	}
	return u.second.IDAt(inner)
}

func (u *Union[A, B]) Accept(pos int, id entity.EntityID) bool {
	first, inner := u.Resolve(pos)
	if first {
		return u.first.Accept(inner, id)
	}
	if !u.second.Accept(inner, id) {
		return false
	}
	_, dup := u.first.IndexOf(id)
	return !dup
}

func (u *Union[A, B]) IndexOf(id entity.EntityID) (int, bool) {
	if pos, ok := u.first.IndexOf(id); ok {
		start, _ := u.first.Range()
		return pos - start, true
	}
	if pos, ok := u.second.IndexOf(id); ok {
		start, _ := u.second.Range()
		return u.firstLen() + pos - start, true
	}
	return 0, false
}

func (u *Union[A, B]) Source() any {
	return nil
}

func (u *Union[A, B]) Tracker() Tracker {
	return Untracked
}

func (u *Union[A, B]) Contiguous() bool {
	return false
}

func (u *Union[A, B]) MutablyTracked() bool {
	return u.first.MutablyTracked() || u.second.MutablyTracked()
}

func (u *Union[A, B]) validate() error {
	if !u.first.CanCaptain() || !u.second.CanCaptain() {
		return ErrInvalidOr
	}
	return nil
}

func (u *Union[A, B]) parts() []Handle {
	return []Handle{u.first, u.second}
}
