// Package world ties an entity allocator to the component stores that reference its
// identifiers. Deleting an entity only records it; Reconcile later removes its components
// from every registered store.
package world

import (
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/log"
	"pkg.world.dev/world-engine/sparse/statsd"
	"pkg.world.dev/world-engine/sparse/storage"
	"pkg.world.dev/world-engine/sparse/tracking"
)

var (
	ErrDuplicateStore = eris.New("store is already registered")
	ErrUnknownStore   = eris.New("store is not registered")
	ErrStoreType      = eris.New("store holds a different component type")
	ErrEmptyStoreName = eris.New("store name must not be empty")
)

type World struct {
	entities *entity.Entities
	clock    *tracking.Clock
	stores   []storage.Store
	byName   map[string]int
	// pending holds the identifiers deleted since the last Reconcile.
	pending *roaring64.Bitmap
	hook    entity.DeletionFn
	logger  log.Logger
}

type Option func(*World)

func WithLogger(logger log.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

func WithClock(clock *tracking.Clock) Option {
	return func(w *World) {
		w.clock = clock
	}
}

func New(opts ...Option) *World {
	w := &World{
		entities: entity.NewEntities(),
		byName:   map[string]int{},
		pending:  roaring64.New(),
		logger:   log.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.clock == nil {
		w.clock = tracking.NewClock()
	}
	w.entities.OnDeletion(w.onDeletion)
	return w
}

// Register creates a store of T under name. The store always shares the world's clock.
func Register[T any](w *World, name string, opts ...storage.Option) (*storage.SparseSet[T], error) {
	if name == "" {
		return nil, eris.Wrap(ErrEmptyStoreName, "")
	}
	if _, ok := w.byName[name]; ok {
		return nil, eris.Wrapf(ErrDuplicateStore, "store %q", name)
	}
	opts = append(opts, storage.WithName(name), storage.WithClock(w.clock))
	s := storage.New[T](opts...)
	w.byName[name] = len(w.stores)
	w.stores = append(w.stores, s)
	w.logger.LogStore(s, zerolog.DebugLevel)
	return s, nil
}

// Get returns the store of T registered under name.
func Get[T any](w *World, name string) (*storage.SparseSet[T], error) {
	s, ok := w.Store(name)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownStore, "store %q", name)
	}
	typed, ok := s.(*storage.SparseSet[T])
	if !ok {
		return nil, eris.Wrapf(ErrStoreType, "store %q is %T", name, s)
	}
	return typed, nil
}

func (w *World) Store(name string) (storage.Store, bool) {
	i, ok := w.byName[name]
	if !ok {
		return nil, false
	}
	return w.stores[i], true
}

// Stores returns every registered store in registration order.
func (w *World) Stores() []storage.Store {
	return w.stores
}

func (w *World) Components() []log.StoreLoggable {
	out := make([]log.StoreLoggable, len(w.stores))
	for i, s := range w.stores {
		out[i] = s
	}
	return out
}

func (w *World) Entities() *entity.Entities {
	return w.entities
}

func (w *World) Clock() *tracking.Clock {
	return w.clock
}

func (w *World) Logger() *log.Logger {
	return &w.logger
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.entities.Len()
}

func (w *World) Spawn() entity.EntityID {
	return w.entities.Generate()
}

// SpawnBatch returns n fresh identifiers. The slice is the caller's to keep.
func (w *World) SpawnBatch(n int) []entity.EntityID {
	return slices.Clone(w.entities.BulkGenerate(n))
}

func (w *World) IsAlive(id entity.EntityID) bool {
	return w.entities.IsAlive(id)
}

// Delete kills id. Its components stay in the stores until Reconcile.
func (w *World) Delete(id entity.EntityID) bool {
	return w.entities.DeleteUnchecked(id)
}

// OnDeletion registers fn to run after the world has recorded a deleted identifier.
func (w *World) OnDeletion(fn entity.DeletionFn) {
	w.hook = fn
}

func (w *World) onDeletion(id entity.EntityID) {
	w.pending.Add(uint64(id.WithoutFlags()))
	if w.hook != nil {
		w.hook(id)
	}
}

// Pending returns the number of deleted identifiers not yet reconciled.
func (w *World) Pending() int {
	return int(w.pending.GetCardinality())
}

// IsPending reports whether id was deleted and its components not yet reconciled.
func (w *World) IsPending(id entity.EntityID) bool {
	return w.pending.Contains(uint64(id.WithoutFlags()))
}

// Reconcile deletes the components of every pending identifier from every store and
// returns the number of components deleted. Deletion-tracking stores record tombstones.
func (w *World) Reconcile() int {
	if w.pending.IsEmpty() {
		return 0
	}
	start := time.Now()
	deleted := 0
	it := w.pending.Iterator()
	for it.HasNext() {
		id := entity.EntityID(it.Next())
		for _, s := range w.stores {
			if s.Delete(id) {
				deleted++
			}
		}
	}
	ids := w.pending.GetCardinality()
	w.pending.Clear()

	statsd.EmitDuration(start, "world.reconcile")
	statsd.Count("world.reconciled", int64(deleted))
	w.logger.Debug().
		Uint64("entities", ids).
		Int("components", deleted).
		Dur("took", time.Since(start)).
		Msg("reconciled deletions")
	return deleted
}

// Now returns the shared clock's current value.
func (w *World) Now() tracking.Timestamp {
	return w.clock.Now()
}

// Advance moves the shared clock forward one tick and returns the new value.
func (w *World) Advance() tracking.Timestamp {
	return w.clock.Tick()
}

// ClearTracking forgets every tracking record older than ts on every store.
func (w *World) ClearTracking(ts tracking.Timestamp) {
	for _, s := range w.stores {
		s.ClearAllInsertedOlderThan(ts)
		s.ClearAllModifiedOlderThan(ts)
		s.ClearAllRemovedAndDeletedOlderThan(ts)
	}
}

// ClearRegions resets the pack regions of every packed store.
func (w *World) ClearRegions() {
	for _, s := range w.stores {
		if s.IsPacked() {
			s.ClearInsertedAndModifiedRegions()
		}
	}
}

// Clear kills every entity and empties every store. No deletion callback runs; stores
// that track deletion record tombstones for what they held.
func (w *World) Clear() {
	w.entities.Clear()
	for _, s := range w.stores {
		s.Clear()
	}
	w.pending.Clear()
	w.logger.Debug().Msg("cleared world")
}

// Log writes the world summary at level.
func (w *World) Log(level zerolog.Level) {
	w.logger.LogWorld(w, level)
}
