// Package log wraps zerolog with event builders for stores, query plans and worlds.
package log

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/sparse/tracking"
)

// StoreLoggable is the part of a component store that gets logged.
type StoreLoggable interface {
	Name() string
	Len() int
	Tracking() tracking.Tracking
	IsPacked() bool
}

// Plannable is the part of a planned query that gets logged.
type Plannable interface {
	Handles() int
	Captain() int
	IsTight() bool
	Len() int
}

type Loggable interface {
	Len() int
	Components() []StoreLoggable
}

type Logger struct {
	*zerolog.Logger
}

// New builds a Logger writing to w at the given level. pretty switches to console output.
func New(w io.Writer, level string, pretty bool) (Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return Logger{}, eris.Wrapf(err, "unknown log level %q", level)
	}
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	zeroLogger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return Logger{&zeroLogger}, nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	zeroLogger := zerolog.Nop()
	return Logger{&zeroLogger}
}

func (_ *Logger) loadStoreIntoArrayLogger(store StoreLoggable, arrayLogger *zerolog.Array) *zerolog.Array {
	dictLogger := zerolog.Dict()
	dictLogger = dictLogger.Str("store_name", store.Name())
	dictLogger = dictLogger.Int("len", store.Len())
	return arrayLogger.Dict(dictLogger)
}

func (l *Logger) loadStoresToEvent(zeroLoggerEvent *zerolog.Event, target Loggable) *zerolog.Event {
	stores := target.Components()
	zeroLoggerEvent.Int("total_stores", len(stores))
	arrayLogger := zerolog.Arr()
	for _, store := range stores {
		arrayLogger = l.loadStoreIntoArrayLogger(store, arrayLogger)
	}
	return zeroLoggerEvent.Array("stores", arrayLogger)
}

// LogStore logs the size and tracking mode of a single store.
func (l *Logger) LogStore(store StoreLoggable, level zerolog.Level) {
	l.WithLevel(level).
		Str("store_name", store.Name()).
		Int("len", store.Len()).
		Str("tracking", store.Tracking().String()).
		Bool("packed", store.IsPacked()).
		Send()
}

// LogPlan logs the planner's decision for a query.
func (l *Logger) LogPlan(plan Plannable, level zerolog.Level) {
	path := "mixed"
	if plan.IsTight() {
		path = "tight"
	}
	l.WithLevel(level).
		Int("handles", plan.Handles()).
		Int("captain", plan.Captain()).
		Str("path", path).
		Int("len", plan.Len()).
		Send()
}

// LogWorld logs every registered store along with the number of live entities.
func (l *Logger) LogWorld(target Loggable, level zerolog.Level) {
	zeroLoggerEvent := l.WithLevel(level)
	zeroLoggerEvent.Int("total_entities", target.Len())
	l.loadStoresToEvent(zeroLoggerEvent, target).Send()
}

// CreateStoreLogger creates a sub Logger with the entry {"store" : name}.
func (l *Logger) CreateStoreLogger(name string) Logger {
	zeroLogger := l.Logger.With().
		Str("store", name).Logger()
	return Logger{
		&zeroLogger,
	}
}

// CreateTraceLogger creates a trace Logger. Using a single id you can use this Logger to follow and log a data path.
func (l *Logger) CreateTraceLogger(traceID string) zerolog.Logger {
	return l.Logger.With().
		Str("trace_id", traceID).
		Logger()
}
