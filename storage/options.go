package storage

import "pkg.world.dev/world-engine/sparse/tracking"

type settings struct {
	name     string
	tracking tracking.Tracking
	clock    *tracking.Clock
	packed   bool
	capacity int
}

// Option configures a SparseSet at construction.
type Option func(*settings)

// WithName labels the store in logs and snapshots.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithTracking selects the events the store records.
func WithTracking(t tracking.Tracking) Option {
	return func(s *settings) {
		s.tracking = t
	}
}

// WithClock makes the store stamp events with a shared clock instead of its own.
func WithClock(clock *tracking.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithUpdatePack keeps the dense array partitioned into inserted, modified and unchanged
// regions.
func WithUpdatePack() Option {
	return func(s *settings) {
		s.packed = true
	}
}

// WithCapacity preallocates room for n components.
func WithCapacity(n int) Option {
	return func(s *settings) {
		s.capacity = n
	}
}
