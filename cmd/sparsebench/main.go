// Command sparsebench drives a movement workload through the sparse stores and planner.
//
// Profiling:
// go build ./cmd/sparsebench
// ./sparsebench --profile=cpu
// go tool pprof -http=":8000" ./sparsebench cpu.pprof
package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"pkg.world.dev/world-engine/sparse/config"
	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/log"
	"pkg.world.dev/world-engine/sparse/search"
	"pkg.world.dev/world-engine/sparse/snapshot"
	"pkg.world.dev/world-engine/sparse/statsd"
	"pkg.world.dev/world-engine/sparse/storage"
	"pkg.world.dev/world-engine/sparse/tracking"
	"pkg.world.dev/world-engine/sparse/world"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Health struct {
	Current int
}

type flags struct {
	rounds   int
	entities int
	churn    float64
	parallel bool
	profile  string
	snapshot string
}

func parseFlags() flags {
	var f flags
	pflag.IntVar(&f.rounds, "rounds", 100, "number of ticks to run")
	pflag.IntVar(&f.entities, "entities", 100_000, "number of entities spawned up front")
	pflag.Float64Var(&f.churn, "churn", 0.01, "fraction of entities deleted and respawned every tick")
	pflag.BoolVar(&f.parallel, "parallel", false, "run the movement pass with ParEach")
	pflag.StringVar(&f.profile, "profile", "", "cpu, mem or empty to disable profiling")
	pflag.StringVar(&f.snapshot, "snapshot", "", "save the final world under this snapshot name")
	pflag.Parse()
	return f
}

func main() {
	f := parseFlags()
	cfg, err := config.Load()
	if err != nil {
		panic(eris.ToString(err, true))
	}
	logger, err := log.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		panic(eris.ToString(err, true))
	}
	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, cfg.StatsdTags); err != nil {
			logger.Warn().Err(err).Msg("statsd disabled")
		}
	}

	switch f.profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	if err := run(context.Background(), f, cfg, logger); err != nil {
		logger.Fatal().Msg(eris.ToString(err, true))
	}
}

func run(ctx context.Context, f flags, cfg config.Config, logger log.Logger) error {
	w := world.New(world.WithLogger(logger))
	positions, err := world.Register[Position](w, "position",
		storage.WithCapacity(f.entities),
		storage.WithTracking(tracking.Modification))
	if err != nil {
		return err
	}
	velocities, err := world.Register[Velocity](w, "velocity", storage.WithCapacity(f.entities))
	if err != nil {
		return err
	}
	health, err := world.Register[Health](w, "health",
		storage.WithTracking(tracking.Insertion|tracking.Deletion),
		storage.WithUpdatePack())
	if err != nil {
		return err
	}

	spawn := func(id entity.EntityID, i int) {
		positions.Insert(id, Position{})
		if i%2 == 0 {
			velocities.Insert(id, Velocity{DX: 1, DY: 0.5})
		}
		if i%5 == 0 {
			health.Insert(id, Health{Current: 100})
		}
	}
	for i, id := range w.SpawnBatch(f.entities) {
		spawn(id, i)
	}

	churn := int(float64(f.entities) * f.churn)
	start := time.Now()
	for round := 0; round < f.rounds; round++ {
		last := w.Now()
		w.Advance()

		if err := move(ctx, f, cfg, logger, positions, velocities); err != nil {
			return err
		}

		spawned := 0
		err := search.Each1(search.InsertedRegion(search.Write(health)), func(_ entity.EntityID, h *Health) {
			h.Current--
			spawned++
		})
		if err != nil {
			return err
		}

		deleted := 0
		for id := range w.Entities().All() {
			if deleted == churn {
				break
			}
			w.Delete(id)
			deleted++
		}
		w.Reconcile()
		for i, id := range w.SpawnBatch(deleted) {
			spawn(id, i)
		}

		moved := 0
		err = search.Each1(search.Modified(search.Read(positions), last, w.Now()), func(entity.EntityID, *Position) {
			moved++
		})
		if err != nil {
			return err
		}
		logger.Debug().Int("round", round).Int("moved", moved).Int("fresh_health", spawned).Msg("tick")

		health.ClearInsertedAndModifiedRegions()
		w.ClearTracking(last)
	}
	logger.Info().
		Int("rounds", f.rounds).
		Int("entities", w.Len()).
		Dur("took", time.Since(start)).
		Msg("workload finished")
	w.Log(zerolog.InfoLevel)

	if f.snapshot == "" {
		return nil
	}
	kv, err := snapshot.NewRedisStorageFromAddress(ctx, cfg.RedisAddress, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer kv.Close(ctx)
	snap := snapshot.New(kv,
		snapshot.WithCompression(cfg.Compression()),
		snapshot.WithIDFormat(cfg.IDFormat()),
		snapshot.WithLogger(logger))
	_, err = snap.Save(ctx, f.snapshot, w,
		snapshot.Bind(positions), snapshot.Bind(velocities), snapshot.Bind(health))
	return err
}

// move writes every moving position on purpose. The planner refuses search.Write over the
// modification tracked position store, so rows are read through a view and written back with
// AtMut, which stamps exactly the rows it touches and never moves them.
func move(
	ctx context.Context, f flags, cfg config.Config, logger log.Logger,
	positions *storage.SparseSet[Position], velocities *storage.SparseSet[Velocity],
) error {
	vel := search.Read(velocities)
	it, err := search.New(search.Read(positions), vel)
	if err != nil {
		return err
	}
	logger.LogPlan(it, zerolog.DebugLevel)
	step := func(row search.Row) error {
		p, v := positions.AtMut(row.Pos[0]), vel.Get(row.Pos[1])
		p.X += v.DX
		p.Y += v.DY
		return nil
	}
	if f.parallel {
		return search.ParEach(ctx, it, cfg.ParallelChunk, step)
	}
	for row := range it.All() {
		if err := step(row); err != nil {
			return err
		}
	}
	return nil
}
