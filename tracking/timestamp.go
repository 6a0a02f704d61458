package tracking

import "strconv"

const halfRange = 1 << 63

// Timestamp is a wrapping event counter. Timestamps are never compared directly: every
// ordering question is answered with wrapping subtraction relative to a reference, so a
// long-running process crossing the uint64 boundary keeps answering correctly.
type Timestamp uint64

// IsWithin reports whether t happened in the window (last, current].
func (t Timestamp) IsWithin(last, current Timestamp) bool {
	return uint64(current-t) < uint64(current-last)
}

// IsOlderThan reports whether t happened strictly before ref, treating anything more than
// half the counter range away as being in the future.
func (t Timestamp) IsOlderThan(ref Timestamp) bool {
	diff := uint64(ref - t)
	return diff != 0 && diff < halfRange
}

// Never returns a timestamp that falls outside every window ending at current.
func Never(current Timestamp) Timestamp {
	return current - halfRange
}

func (t Timestamp) String() string {
	return strconv.FormatUint(uint64(t), 10)
}
