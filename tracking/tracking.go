// Package tracking defines the timestamps and the tracking modes shared by every component
// store.
package tracking

import (
	"strings"

	"github.com/rotisserie/eris"
)

var ErrUnknownTracking = eris.New("unknown tracking mode")

// Tracking is the set of events a store records.
type Tracking uint8

const (
	Insertion Tracking = 1 << iota
	Modification
	Deletion
	Removal

	Nothing Tracking = 0
	All              = Insertion | Modification | Deletion | Removal
)

var names = []struct {
	flag Tracking
	name string
}{
	{Insertion, "insertion"},
	{Modification, "modification"},
	{Deletion, "deletion"},
	{Removal, "removal"},
}

// Has reports whether every event of other is tracked by t.
func (t Tracking) Has(other Tracking) bool {
	return t&other == other
}

func (t Tracking) String() string {
	switch t {
	case Nothing:
		return "nothing"
	case All:
		return "all"
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if t.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Parse reads the format produced by String.
func Parse(s string) (Tracking, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "nothing", "none":
		return Nothing, nil
	case "all":
		return All, nil
	}
	var t Tracking
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range names {
			if n.name == part {
				t |= n.flag
				found = true
				break
			}
		}
		if !found {
			return Nothing, eris.Wrapf(ErrUnknownTracking, "%q", part)
		}
	}
	return t, nil
}
