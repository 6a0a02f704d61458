package storage

import "math"

// BucketSize is the number of entity indices covered by one sparse bucket.
const BucketSize = 256

const tombstone = math.MaxUint32

type bucket [BucketSize]uint32

// sparseArray maps entity indices to dense positions. Buckets are allocated the first time
// an index inside them is written, so a store holding a handful of high indices does not pay
// for every lower one.
type sparseArray struct {
	buckets []*bucket
}

func (s *sparseArray) get(index uint64) (uint32, bool) {
	b := index / BucketSize
	if b >= uint64(len(s.buckets)) || s.buckets[b] == nil {
		return 0, false
	}
	pos := s.buckets[b][index%BucketSize]
	return pos, pos != tombstone
}

func (s *sparseArray) set(index uint64, pos uint32) {
	b := index / BucketSize
	if b >= uint64(len(s.buckets)) {
		grown := make([]*bucket, b+1, max(b+1, uint64(2*len(s.buckets))))
		copy(grown, s.buckets)
		s.buckets = grown
	}
	if s.buckets[b] == nil {
		fresh := new(bucket)
		for i := range fresh {
			fresh[i] = tombstone
		}
		s.buckets[b] = fresh
	}
	s.buckets[b][index%BucketSize] = pos
}

func (s *sparseArray) unset(index uint64) {
	b := index / BucketSize
	if b >= uint64(len(s.buckets)) || s.buckets[b] == nil {
		return
	}
	s.buckets[b][index%BucketSize] = tombstone
}

// allocated returns the number of buckets in use.
func (s *sparseArray) allocated() int {
	n := 0
	for _, b := range s.buckets {
		if b != nil {
			n++
		}
	}
	return n
}
