package config_test

import (
	"testing"

	"pkg.world.dev/world-engine/sparse/assert"
	"pkg.world.dev/world-engine/sparse/codec"
	"pkg.world.dev/world-engine/sparse/config"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Default()
	assert.NilError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, codec.Zstd, cfg.Compression())
	assert.Equal(t, codec.Compact, cfg.IDFormat())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPARSE_LOG_LEVEL", "debug")
	t.Setenv("SPARSE_LOG_PRETTY", "true")
	t.Setenv("SPARSE_STATSD_ADDRESS", "localhost:8125")
	t.Setenv("SPARSE_STATSD_TAGS", "env:test region:eu")
	t.Setenv("SPARSE_REDIS_ADDRESS", "redis:6379")
	t.Setenv("SPARSE_SNAPSHOT_COMPRESSION", "lz4")
	t.Setenv("SPARSE_SNAPSHOT_ID_FORMAT", "readable")
	t.Setenv("SPARSE_PARALLEL_CHUNK", "64")

	cfg, err := config.Load()
	assert.NilError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Check(t, cfg.LogPretty)
	assert.Equal(t, "localhost:8125", cfg.StatsdAddress)
	assert.DeepEqual(t, []string{"env:test", "region:eu"}, cfg.StatsdTags)
	assert.Equal(t, "redis:6379", cfg.RedisAddress)
	assert.Equal(t, codec.LZ4, cfg.Compression())
	assert.Equal(t, codec.Readable, cfg.IDFormat())
	assert.Equal(t, 64, cfg.ParallelChunk)
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Setenv("SPARSE_PARALLEL_CHUNK", "8")
	cfg, err := config.Load()
	assert.NilError(t, err)
	assert.Equal(t, 8, cfg.ParallelChunk)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)

	cfg = config.Default()
	cfg.ParallelChunk = 0
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidChunk)

	cfg = config.Default()
	cfg.SnapshotCompression = "gzip"
	assert.ErrorIs(t, cfg.Validate(), codec.ErrUnknownCompression)

	cfg = config.Default()
	cfg.SnapshotIDFormat = "binary"
	assert.ErrorIs(t, cfg.Validate(), codec.ErrUnknownIDFormat)

	t.Setenv("SPARSE_LOG_LEVEL", "nope")
	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}
