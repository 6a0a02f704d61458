package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"pkg.world.dev/world-engine/sparse/assert"
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/log"
	"pkg.world.dev/world-engine/sparse/search"
	"pkg.world.dev/world-engine/sparse/storage"
	"pkg.world.dev/world-engine/sparse/tracking"
)

type EnergyComponent struct {
	Amt int64
	Cap int64
}

type AlphaComponent struct {
	Name string
}

type fakeWorld struct {
	entities int
	stores   []log.StoreLoggable
}

func (f fakeWorld) Len() int                        { return f.entities }
func (f fakeWorld) Components() []log.StoreLoggable { return f.stores }

func bufferLogger() (*bytes.Buffer, log.Logger) {
	var buf bytes.Buffer
	zeroLogger := zerolog.New(&buf)
	return &buf, log.Logger{Logger: &zeroLogger}
}

func TestStoreLogging(t *testing.T) {
	buf, logger := bufferLogger()
	energy := storage.New[EnergyComponent](
		storage.WithName("energy"),
		storage.WithTracking(tracking.Insertion|tracking.Removal),
		storage.WithUpdatePack(),
	)
	energy.Insert(entity.New(0), EnergyComponent{Amt: 1, Cap: 2})
	energy.Insert(entity.New(1), EnergyComponent{Amt: 3, Cap: 4})

	logger.LogStore(energy, zerolog.InfoLevel)
	assert.JSONEq(t,
		`{"level":"info","store_name":"energy","len":2,"tracking":"insertion|removal","packed":true}`,
		buf.String())
}

func TestWorldLogging(t *testing.T) {
	buf, logger := bufferLogger()
	energy := storage.New[EnergyComponent](storage.WithName("energy"))
	alpha := storage.New[AlphaComponent](storage.WithName("alpha"))
	alpha.Insert(entity.New(3), AlphaComponent{"a"})

	logger.LogWorld(fakeWorld{entities: 4, stores: []log.StoreLoggable{energy, alpha}}, zerolog.DebugLevel)
	assert.JSONEq(t, `{
		"level":"debug",
		"total_entities":4,
		"total_stores":2,
		"stores":[{"store_name":"energy","len":0},{"store_name":"alpha","len":1}]
	}`, buf.String())
}

func TestPlanLogging(t *testing.T) {
	buf, logger := bufferLogger()
	energy := storage.New[EnergyComponent]()
	alpha := storage.New[AlphaComponent]()
	for i := 0; i < 10; i++ {
		energy.Insert(entity.New(uint64(i)), EnergyComponent{})
	}
	alpha.Insert(entity.New(2), AlphaComponent{})

	logger.LogPlan(search.MustNew(search.Read(energy), search.Read(alpha)), zerolog.InfoLevel)
	assert.JSONEq(t, `{"level":"info","handles":2,"captain":1,"path":"mixed","len":1}`, buf.String())

	buf.Reset()
	logger.LogPlan(search.MustNew(search.Read(energy)), zerolog.InfoLevel)
	assert.JSONEq(t, `{"level":"info","handles":1,"captain":0,"path":"tight","len":10}`, buf.String())
}

func TestSubLoggers(t *testing.T) {
	buf, logger := bufferLogger()
	storeLogger := logger.CreateStoreLogger("energy")
	storeLogger.Info().Msg("cleared")
	assert.JSONEq(t, `{"level":"info","store":"energy","message":"cleared"}`, buf.String())

	buf.Reset()
	traceLogger := logger.CreateTraceLogger("snapshot-1")
	traceLogger.Warn().Msg("saving")
	assert.JSONEq(t, `{"level":"warn","trace_id":"snapshot-1","message":"saving"}`, buf.String())
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.New(&buf, "warn", false)
	assert.NilError(t, err)
	logger.Info().Msg("hidden")
	assert.Equal(t, 0, buf.Len())
	logger.Error().Msg("shown")
	assert.Check(t, strings.Contains(buf.String(), `"message":"shown"`))

	buf.Reset()
	pretty, err := log.New(&buf, "debug", true)
	assert.NilError(t, err)
	pretty.Debug().Msg("console")
	assert.Check(t, strings.Contains(buf.String(), "console"))
	assert.Check(t, !strings.HasPrefix(buf.String(), "{"))

	_, err = log.New(&buf, "shouting", false)
	assert.ErrorContains(t, err, "shouting")

	nop := log.Nop()
	nop.Error().Msg("nothing")
}
