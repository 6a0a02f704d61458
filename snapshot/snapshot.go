// Package snapshot saves a world's live entities and component stores to a key/value
// backend and restores them into another world.
//
// Restoring only goes through Entities.Spawn and SparseSet.Insert: store internals are
// never written directly. Tracking state is not saved; restored components count as
// inserted at the restore time.
package snapshot

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pkg.world.dev/world-engine/sparse/codec"
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/log"
	"pkg.world.dev/world-engine/sparse/statsd"
	"pkg.world.dev/world-engine/sparse/tracking"
	"pkg.world.dev/world-engine/sparse/world"
)

var (
	ErrNotFound      = eris.New("snapshot key not found")
	ErrEmptyName     = eris.New("snapshot name must not be empty")
	ErrSpawnConflict = eris.New("entity slot holds a fresher generation")
	ErrDuplicateBind = eris.New("store bound twice")
)

type StoreManifest struct {
	Name string `json:"name"`
	Len  int    `json:"len"`
}

// Manifest describes one saved version of a snapshot.
type Manifest struct {
	Version     uuid.UUID          `json:"version"`
	Name        string             `json:"name"`
	CreatedAt   time.Time          `json:"created_at"`
	Tick        tracking.Timestamp `json:"tick"`
	Compression codec.Compression  `json:"compression"`
	IDFormat    codec.IDFormat     `json:"id_format"`
	Entities    int                `json:"entities"`
	Stores      []StoreManifest    `json:"stores"`
}

type Snapshotter struct {
	kv          PrimitiveStorage
	compression codec.Compression
	format      codec.IDFormat
	logger      log.Logger
	tracer      trace.Tracer
	// manifests caches encoded manifests by snapshot name. Nil disables caching.
	manifests *freecache.Cache
}

// ManifestCacheSize is the default size in bytes of the manifest cache.
const ManifestCacheSize = 1 << 20

type Option func(*Snapshotter)

func WithCompression(c codec.Compression) Option {
	return func(s *Snapshotter) {
		s.compression = c
	}
}

func WithIDFormat(f codec.IDFormat) Option {
	return func(s *Snapshotter) {
		s.format = f
	}
}

func WithLogger(logger log.Logger) Option {
	return func(s *Snapshotter) {
		s.logger = logger
	}
}

// WithManifestCache sets the manifest cache size in bytes. Zero disables the cache.
func WithManifestCache(size int) Option {
	return func(s *Snapshotter) {
		if size <= 0 {
			s.manifests = nil
			return
		}
		s.manifests = freecache.NewCache(size)
	}
}

func New(kv PrimitiveStorage, opts ...Option) *Snapshotter {
	s := &Snapshotter{
		kv:          kv,
		compression: codec.Zstd,
		format:      codec.Compact,
		logger:      log.Nop(),
		tracer:      otel.Tracer("snapshot"),
		manifests:   freecache.NewCache(ManifestCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Snapshotter) span(ctx context.Context, op, name string) (context.Context, trace.Span, []string) {
	tags := []string{"snapshot:" + name, "compression:" + s.compression.String()}
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(statsd.Attributes(tags)...))
	return ctx, span, tags
}

func failSpan(span trace.Span, err error) error {
	span.SetStatus(codes.Error, eris.ToString(err, true))
	span.RecordError(err)
	return err
}

func checkBindings(bindings []Binding) error {
	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if _, ok := seen[b.Name()]; ok {
			return eris.Wrapf(ErrDuplicateBind, "store %q", b.Name())
		}
		seen[b.Name()] = struct{}{}
	}
	return nil
}

// Save writes the live entities of w and the bound stores under name. The new version is
// written in one transaction; the keys of the version it replaces are deleted afterwards.
func (s *Snapshotter) Save(ctx context.Context, name string, w *world.World, bindings ...Binding) (Manifest, error) {
	if name == "" {
		return Manifest{}, eris.Wrap(ErrEmptyName, "")
	}
	if err := checkBindings(bindings); err != nil {
		return Manifest{}, err
	}
	start := time.Now()
	ctx, span, tags := s.span(ctx, "snapshot.save", name)
	defer span.End()

	previous, err := s.Manifest(ctx, name)
	if err != nil && !eris.Is(err, ErrNotFound) {
		return Manifest{}, failSpan(span, err)
	}
	hasPrevious := err == nil

	m := Manifest{
		Version:     uuid.New(),
		Name:        name,
		CreatedAt:   time.Now().UTC(),
		Tick:        w.Now(),
		Compression: s.compression,
		IDFormat:    s.format,
		Entities:    w.Len(),
		Stores:      make([]StoreManifest, 0, len(bindings)),
	}
	version := m.Version.String()

	tx, err := s.kv.StartTransaction(ctx)
	if err != nil {
		return Manifest{}, failSpan(span, err)
	}

	live := make([]entity.EntityID, 0, w.Len())
	for id := range w.Entities().All() {
		live = append(live, id)
	}
	if err := s.putIDs(ctx, tx, entitiesKey(name, version), live); err != nil {
		return Manifest{}, failSpan(span, err)
	}

	for _, b := range bindings {
		ids, data, err := b.export()
		if err != nil {
			return Manifest{}, failSpan(span, eris.Wrapf(err, "failed to encode store %q", b.Name()))
		}
		if err := s.putIDs(ctx, tx, storeIDsKey(name, version, b.Name()), ids); err != nil {
			return Manifest{}, failSpan(span, err)
		}
		if err := s.putBlock(ctx, tx, storeDataKey(name, version, b.Name()), data); err != nil {
			return Manifest{}, failSpan(span, err)
		}
		m.Stores = append(m.Stores, StoreManifest{Name: b.Name(), Len: len(ids)})
	}

	bz, err := json.Marshal(m)
	if err != nil {
		return Manifest{}, failSpan(span, eris.Wrap(err, ""))
	}
	if err := tx.Set(ctx, manifestKey(name), bz); err != nil {
		return Manifest{}, failSpan(span, err)
	}
	if err := tx.EndTransaction(ctx); err != nil {
		s.forget(name)
		return Manifest{}, failSpan(span, err)
	}
	s.remember(name, bz)

	if hasPrevious {
		if err := s.deleteVersion(ctx, name, previous.Version.String()); err != nil {
			s.logger.Warn().Err(err).Str("snapshot", name).Msg("failed to delete previous snapshot version")
		}
	}

	statsd.EmitDuration(start, "snapshot.save", tags...)
	trace := s.logger.CreateTraceLogger(version)
	trace.Info().
		Str("snapshot", name).
		Int("entities", m.Entities).
		Int("stores", len(m.Stores)).
		Dur("took", time.Since(start)).
		Msg("saved snapshot")
	return m, nil
}

// Load restores the snapshot name into w. Bound stores missing from the snapshot are left
// untouched. The world's clock is moved to the saved tick if that is later than its own.
// Every saved identifier is checked before any is spawned, so an ErrSpawnConflict leaves w
// unchanged.
func (s *Snapshotter) Load(ctx context.Context, name string, w *world.World, bindings ...Binding) (Manifest, error) {
	if err := checkBindings(bindings); err != nil {
		return Manifest{}, err
	}
	start := time.Now()
	ctx, span, tags := s.span(ctx, "snapshot.load", name)
	defer span.End()

	m, err := s.Manifest(ctx, name)
	if err != nil {
		return Manifest{}, failSpan(span, err)
	}
	version := m.Version.String()

	live, err := s.getIDs(ctx, entitiesKey(name, version), m.IDFormat)
	if err != nil {
		return Manifest{}, failSpan(span, err)
	}
	for _, id := range live {
		if !w.Entities().CanSpawn(id) {
			return Manifest{}, failSpan(span, eris.Wrapf(ErrSpawnConflict, "entity %s", id))
		}
	}
	if w.Now().IsOlderThan(m.Tick) {
		w.Clock().Set(m.Tick)
	}
	for _, id := range live {
		w.Entities().Spawn(id)
	}

	saved := make(map[string]struct{}, len(m.Stores))
	for _, sm := range m.Stores {
		saved[sm.Name] = struct{}{}
	}
	for _, b := range bindings {
		if _, ok := saved[b.Name()]; !ok {
			storeLogger := s.logger.CreateStoreLogger(b.Name())
			storeLogger.Warn().Str("snapshot", name).Msg("store missing from snapshot")
			continue
		}
		ids, err := s.getIDs(ctx, storeIDsKey(name, version, b.Name()), m.IDFormat)
		if err != nil {
			return Manifest{}, failSpan(span, err)
		}
		data, err := s.getBlock(ctx, storeDataKey(name, version, b.Name()))
		if err != nil {
			return Manifest{}, failSpan(span, err)
		}
		if err := b.restore(ids, data); err != nil {
			return Manifest{}, failSpan(span, eris.Wrapf(err, "failed to restore store %q", b.Name()))
		}
	}

	statsd.EmitDuration(start, "snapshot.load", tags...)
	trace := s.logger.CreateTraceLogger(version)
	trace.Info().
		Str("snapshot", name).
		Int("entities", len(live)).
		Dur("took", time.Since(start)).
		Msg("loaded snapshot")
	return m, nil
}

// Manifest returns the current manifest of name.
func (s *Snapshotter) Manifest(ctx context.Context, name string) (Manifest, error) {
	bz, cached := s.cached(name)
	if !cached {
		var err error
		bz, err = s.kv.GetBytes(ctx, manifestKey(name))
		if err != nil {
			return Manifest{}, err
		}
		s.remember(name, bz)
	}
	var m Manifest
	if err := json.Unmarshal(bz, &m); err != nil {
		return Manifest{}, eris.Wrapf(err, "corrupt manifest for snapshot %q", name)
	}
	return m, nil
}

// List returns the names of every saved snapshot.
func (s *Snapshotter) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, manifestPattern())
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = nameFromManifestKey(key)
	}
	return names, nil
}

// Delete removes the snapshot name and all of its data.
func (s *Snapshotter) Delete(ctx context.Context, name string) error {
	m, err := s.Manifest(ctx, name)
	if err != nil {
		return err
	}
	s.forget(name)
	if err := s.deleteVersion(ctx, name, m.Version.String()); err != nil {
		return err
	}
	return s.kv.Delete(ctx, manifestKey(name))
}

func (s *Snapshotter) cached(name string) ([]byte, bool) {
	if s.manifests == nil {
		return nil, false
	}
	bz, err := s.manifests.Get([]byte(name))
	if err != nil {
		return nil, false
	}
	return bz, true
}

func (s *Snapshotter) remember(name string, bz []byte) {
	if s.manifests == nil {
		return
	}
	if err := s.manifests.Set([]byte(name), bz, 0); err != nil {
		s.logger.Debug().Err(err).Str("snapshot", name).Msg("manifest not cached")
	}
}

func (s *Snapshotter) forget(name string) {
	if s.manifests != nil {
		s.manifests.Del([]byte(name))
	}
}

func (s *Snapshotter) deleteVersion(ctx context.Context, name, version string) error {
	keys, err := s.kv.Keys(ctx, versionPattern(name, version))
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, keys...)
}

func (s *Snapshotter) putIDs(ctx context.Context, kv PrimitiveStorage, key string, ids []entity.EntityID) error {
	bz, err := codec.EncodeIDs(ids, s.format)
	if err != nil {
		return err
	}
	return s.putBlock(ctx, kv, key, bz)
}

func (s *Snapshotter) putBlock(ctx context.Context, kv PrimitiveStorage, key string, data []byte) error {
	block, err := codec.Compress(data, s.compression)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, block)
}

func (s *Snapshotter) getIDs(ctx context.Context, key string, format codec.IDFormat) ([]entity.EntityID, error) {
	bz, err := s.getBlock(ctx, key)
	if err != nil {
		return nil, err
	}
	return codec.DecodeIDs(bz, format)
}

func (s *Snapshotter) getBlock(ctx context.Context, key string) ([]byte, error) {
	block, err := s.kv.GetBytes(ctx, key)
	if err != nil {
		return nil, err
	}
	return codec.Decompress(block)
}
