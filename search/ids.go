package search

import "pkg.world.dev/world-engine/sparse/entity"

// IDList drives a query from a caller supplied list of identifiers. It has no sparse index,
// so it is always the captain.
type IDList struct {
	ids []entity.EntityID
}

func IDs(ids []entity.EntityID) *IDList {
	return &IDList{ids: ids}
}

func (l *IDList) Len() int {
	return len(l.ids)
}

func (l *IDList) SailTime() int {
	return len(l.ids)
}

func (l *IDList) CanCaptain() bool {
	return true
}

func (l *IDList) CanSail() bool {
	return false
}

func (l *IDList) Range() (int, int) {
	return 0, len(l.ids)
}

func (l *IDList) IDAt(pos int) entity.EntityID {
	return l.ids[pos].WithoutFlags()
}

func (l *IDList) Accept(int, entity.EntityID) bool {
	return true
}

// IndexOf scans the list. The planner never probes an IDList; unions use it to skip
// duplicates.
func (l *IDList) IndexOf(id entity.EntityID) (int, bool) {
	id = id.WithoutFlags()
	for pos, other := range l.ids {
		if other.WithoutFlags() == id {
			return pos, true
		}
	}
	return 0, false
}

func (l *IDList) Source() any {
	return nil
}

func (l *IDList) Tracker() Tracker {
	return Untracked
}

func (l *IDList) Contiguous() bool {
	return true
}

func (l *IDList) MutablyTracked() bool {
	return false
}

// Get returns the identifier itself.
func (l *IDList) Get(pos int) *entity.EntityID {
	return &l.ids[pos]
}
