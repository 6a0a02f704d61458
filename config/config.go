// Package config loads runtime settings from SPARSE_* environment variables.
package config

import (
	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/sparse/codec"
	"pkg.world.dev/world-engine/sparse/search"
)

var (
	ErrInvalidLogLevel = eris.New("invalid log level")
	ErrInvalidChunk    = eris.New("parallel chunk must be positive")
)

type Config struct {
	LogLevel  string `config:"SPARSE_LOG_LEVEL"`
	LogPretty bool   `config:"SPARSE_LOG_PRETTY"`

	// StatsdAddress enables metrics when set. Tags are whitespace separated key:value pairs.
	StatsdAddress string   `config:"SPARSE_STATSD_ADDRESS"`
	StatsdTags    []string `config:"SPARSE_STATSD_TAGS"`

	RedisAddress  string `config:"SPARSE_REDIS_ADDRESS"`
	RedisPassword string `config:"SPARSE_REDIS_PASSWORD"`

	// SnapshotCompression is one of none, zstd or lz4. SnapshotIDFormat is readable or compact.
	SnapshotCompression string `config:"SPARSE_SNAPSHOT_COMPRESSION"`
	SnapshotIDFormat    string `config:"SPARSE_SNAPSHOT_ID_FORMAT"`

	ParallelChunk int `config:"SPARSE_PARALLEL_CHUNK"`
}

func Default() Config {
	return Config{
		LogLevel:            zerolog.InfoLevel.String(),
		RedisAddress:        "localhost:6379",
		SnapshotCompression: codec.Zstd.String(),
		SnapshotIDFormat:    codec.Compact.String(),
		ParallelChunk:       search.DefaultChunk,
	}
}

// Load reads the environment over Default and validates the result.
func Load() (Config, error) {
	cfg := Default()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to read environment")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return eris.Wrapf(ErrInvalidLogLevel, "%q", c.LogLevel)
	}
	if _, err := codec.ParseCompression(c.SnapshotCompression); err != nil {
		return err
	}
	if _, err := codec.ParseIDFormat(c.SnapshotIDFormat); err != nil {
		return err
	}
	if c.ParallelChunk <= 0 {
		return eris.Wrapf(ErrInvalidChunk, "got %d", c.ParallelChunk)
	}
	return nil
}

// Compression returns the parsed SnapshotCompression. Call Validate first.
func (c Config) Compression() codec.Compression {
	comp, _ := codec.ParseCompression(c.SnapshotCompression)
	return comp
}

// IDFormat returns the parsed SnapshotIDFormat. Call Validate first.
func (c Config) IDFormat() codec.IDFormat {
	format, _ := codec.ParseIDFormat(c.SnapshotIDFormat)
	return format
}
