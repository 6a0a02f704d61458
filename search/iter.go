package search

import (
	"iter"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/sparse/statsd"
)

// Iter walks the rows of a query from both ends. It reads the stores' sizes when it is built:
// structural changes to a store during iteration are a caller bug, value changes are fine.
type Iter struct {
	handles []Handle
	captain int
	sailors []int
	tight   bool

	front, back int
}

// New plans a query. The captain is the handle able to drive the scan with the lowest sail
// time, unless exactly one handle cannot be probed by identifier, in which case it must
// drive.
func New(handles ...Handle) (*Iter, error) {
	if len(handles) == 0 {
		return nil, eris.Wrap(ErrEmptyQuery, "")
	}
	if len(handles) > MaxHandles {
		return nil, eris.Wrapf(ErrTooManyHandles, "%d handles, at most %d", len(handles), MaxHandles)
	}
	if err := check(handles); err != nil {
		return nil, err
	}

	captain := -1
	for i, h := range handles {
		if h.CanSail() {
			continue
		}
		if captain != -1 {
			return nil, eris.Wrapf(ErrMultipleCaptainOnly, "handles %d and %d", captain, i)
		}
		captain = i
	}
	if captain != -1 && !handles[captain].CanCaptain() {
		return nil, eris.Wrapf(ErrNoCaptain, "handle %d can neither drive nor be probed", captain)
	}
	if captain == -1 {
		best := 0
		for i, h := range handles {
			if !h.CanCaptain() {
				continue
			}
			if cost := h.SailTime(); captain == -1 || cost < best {
				captain, best = i, cost
			}
		}
	}
	if captain == -1 {
		return nil, eris.Wrap(ErrNoCaptain, "")
	}

	it := &Iter{
		handles: handles,
		captain: captain,
		sailors: make([]int, 0, len(handles)-1),
	}
	for i := range handles {
		if i != captain {
			it.sailors = append(it.sailors, i)
		}
	}
	it.tight = len(it.sailors) == 0 && handles[captain].Contiguous()
	it.front, it.back = handles[captain].Range()

	if it.tight {
		statsd.Count("search.plan", 1, "path:tight")
	} else {
		statsd.Count("search.plan", 1, "path:mixed")
	}
	return it, nil
}

// MustNew is New for queries known to be valid. It panics on a planning error.
func MustNew(handles ...Handle) *Iter {
	it, err := New(handles...)
	if err != nil {
		panic(eris.ToString(err, true))
	}
	return it
}

// check validates every handle and rejects mutable passes and mixed change filters over the
// same store.
func check(handles []Handle) error {
	trackers := map[any]Tracker{}
	var walk func(h Handle) error
	walk = func(h Handle) error {
		if v, ok := h.(validator); ok {
			if err := v.validate(); err != nil {
				return eris.Wrapf(err, "%T", h)
			}
		}
		if h.MutablyTracked() {
			return eris.Wrapf(ErrTrackedMutableIteration, "%T", h)
		}
		if c, ok := h.(composite); ok {
			for _, part := range c.parts() {
				if err := walk(part); err != nil {
					return err
				}
			}
			return nil
		}
		src := h.Source()
		if src == nil || h.Tracker() == Untracked {
			return nil
		}
		if prev, ok := trackers[src]; ok && prev != h.Tracker() {
			return eris.Wrapf(ErrConflictingTrackers, "%s and %s", prev, h.Tracker())
		}
		trackers[src] = h.Tracker()
		return nil
	}
	for _, h := range handles {
		if err := walk(h); err != nil {
			return err
		}
	}
	return nil
}

// Next returns the next row from the front.
func (it *Iter) Next() (Row, bool) {
	c := it.handles[it.captain]
	for it.front < it.back {
		pos := it.front
		it.front++
		if row, ok := it.probe(c, pos); ok {
			return row, true
		}
	}
	return Row{}, false
}

// NextBack returns the next row from the back.
func (it *Iter) NextBack() (Row, bool) {
	c := it.handles[it.captain]
	for it.back > it.front {
		it.back--
		if row, ok := it.probe(c, it.back); ok {
			return row, true
		}
	}
	return Row{}, false
}

func (it *Iter) probe(c Handle, pos int) (Row, bool) {
	id := c.IDAt(pos)
	row := Row{ID: id}
	row.Pos[it.captain] = pos
	if it.tight {
		return row, true
	}
	if !c.Accept(pos, id) {
		return Row{}, false
	}
	for _, i := range it.sailors {
		p, ok := it.handles[i].IndexOf(id)
		if !ok {
			return Row{}, false
		}
		row.Pos[i] = p
	}
	return row, true
}

// All drains the iterator from the front.
func (it *Iter) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for {
			row, ok := it.Next()
			if !ok || !yield(row) {
				return
			}
		}
	}
}

// Backward drains the iterator from the back.
func (it *Iter) Backward() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for {
			row, ok := it.NextBack()
			if !ok || !yield(row) {
				return
			}
		}
	}
}

// Len is an upper bound of the rows left. It is exact on the tight path.
func (it *Iter) Len() int {
	return it.back - it.front
}

func (it *Iter) IsTight() bool {
	return it.tight
}

// Captain returns the query index of the handle driving the scan.
func (it *Iter) Captain() int {
	return it.captain
}

// Handles returns the number of handles in the query.
func (it *Iter) Handles() int {
	return len(it.handles)
}

// Split divides the remaining positions at their midpoint. Consuming left then right yields
// the rows it would have yielded, in the same order. The halves share no state and can be
// consumed on different goroutines.
func (it *Iter) Split() (left, right *Iter, ok bool) {
	n := it.back - it.front
	if n < 2 {
		return nil, nil, false
	}
	mid := it.front + n/2
	left, right = it.Clone(), it.Clone()
	left.back = mid
	right.front = mid
	return left, right, true
}

func (it *Iter) Clone() *Iter {
	c := *it
	return &c
}
