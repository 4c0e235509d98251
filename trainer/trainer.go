// Package trainer evolves NEAT drivers on a track. Each generation races
// every genome together in one episode; a genome's fitness is its car's
// score.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/baldhumanity/neat-racer/neat"
	"github.com/baldhumanity/neat-racer/neat/nn"
	"github.com/baldhumanity/neat-racer/render"
	"github.com/baldhumanity/neat-racer/sim"
	"github.com/baldhumanity/neat-racer/track"
)

// ErrTrackMismatch is returned when resuming a checkpoint recorded on a
// different track.
var ErrTrackMismatch = errors.New("trainer: checkpoint was recorded on a different track")

// Checkpoint metadata keys.
const (
	MetaRunID = "run_id"
	MetaTrack = "track"
)

// Options controls everything outside the race itself.
type Options struct {
	// CheckpointPrefix enables checkpoints, saved to the prefix followed by
	// the generation number.
	CheckpointPrefix string
	CheckpointEvery  int
	// Surface draws every tick when set; Pacer paces the ticks.
	Surface render.Surface
	Pacer   sim.Pacer
	// Workers bounds concurrent network builds; 0 uses GOMAXPROCS.
	Workers int
}

// Trainer owns a population and races it generation by generation.
type Trainer struct {
	RunID string

	cfg     *sim.Config
	neatCfg *neat.Config
	track   *track.Track
	logger  *zap.Logger
	opts    Options

	pop   *neat.Population
	stats *neat.StatisticsReporter
}

// New starts a fresh run. The NEAT config must have one input per sensor
// and at least two outputs.
func New(cfg *sim.Config, neatCfg *neat.Config, tr *track.Track, logger *zap.Logger, opts Options) (*Trainer, error) {
	if err := checkShape(cfg, neatCfg); err != nil {
		return nil, err
	}
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pop, err := neat.NewPopulation(neatCfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("failed to create population: %w", err)
	}
	t := newTrainer(cfg, neatCfg, tr, logger, opts, pop, uuid.NewString())
	t.logger.Info("training started",
		zap.Int64("seed", seed),
		zap.Int("pop_size", neatCfg.Neat.PopSize),
		zap.String("track", tr.Name))
	return t, nil
}

// Resume continues the run saved at path. The checkpoint must have been
// recorded on a track with the same fingerprint as tr.
func Resume(path string, cfg *sim.Config, neatCfg *neat.Config, tr *track.Track, logger *zap.Logger, opts Options) (*Trainer, error) {
	if err := checkShape(cfg, neatCfg); err != nil {
		return nil, err
	}
	cp, err := neat.LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	if got, want := cp.Metadata[MetaTrack], tr.FingerprintHex(); got != want {
		return nil, fmt.Errorf("%w: checkpoint %s, track %q %s", ErrTrackMismatch, got, tr.Name, want)
	}
	pop, err := cp.Restore(neatCfg)
	if err != nil {
		return nil, err
	}
	runID := cp.Metadata[MetaRunID]
	if runID == "" {
		runID = uuid.NewString()
	}
	t := newTrainer(cfg, neatCfg, tr, logger, opts, pop, runID)
	t.logger.Info("training resumed", zap.String("checkpoint", path), zap.Int("generation", pop.Generation))
	return t, nil
}

func newTrainer(cfg *sim.Config, neatCfg *neat.Config, tr *track.Track, logger *zap.Logger, opts Options, pop *neat.Population, runID string) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))
	t := &Trainer{
		RunID:   runID,
		cfg:     cfg,
		neatCfg: neatCfg,
		track:   tr,
		logger:  logger,
		opts:    opts,
		pop:     pop,
		stats:   neat.NewStatisticsReporter(),
	}
	pop.AddReporter(neat.NewLogReporter(logger, true))
	pop.AddReporter(t.stats)
	return t
}

func checkShape(cfg *sim.Config, neatCfg *neat.Config) error {
	if n := len(cfg.Sensors.Angles); neatCfg.Genome.NumInputs != n {
		return fmt.Errorf("config error: num_inputs is %d but there are %d sensors", neatCfg.Genome.NumInputs, n)
	}
	if neatCfg.Genome.NumOutputs < 2 {
		return fmt.Errorf("config error: num_outputs must be at least 2 (left, right), got %d", neatCfg.Genome.NumOutputs)
	}
	if !neatCfg.Genome.FeedForward {
		return fmt.Errorf("config error: feed_forward must be True")
	}
	return nil
}

// Population returns the evolving population.
func (t *Trainer) Population() *neat.Population { return t.pop }

// Stats returns the per-generation statistics collected so far.
func (t *Trainer) Stats() *neat.StatisticsReporter { return t.stats }

// Best returns the fittest genome seen, or nil before the first generation.
func (t *Trainer) Best() *neat.Genome { return t.pop.BestGenome }

// Metadata is stored with every checkpoint.
func (t *Trainer) Metadata() map[string]string {
	return map[string]string{
		MetaRunID: t.RunID,
		MetaTrack: t.track.FingerprintHex(),
	}
}

// Run evolves for at most generations generations, or until the fitness
// threshold is met or ctx is cancelled; generations <= 0 means no limit.
// With checkpoints enabled the final state is saved however the run ends.
func (t *Trainer) Run(ctx context.Context, generations int) (*neat.Genome, error) {
	var cp *neat.Checkpointer
	if t.opts.CheckpointPrefix != "" {
		cp = neat.NewCheckpointer(t.pop, t.opts.CheckpointEvery, t.opts.CheckpointPrefix, t.Metadata(), t.logger)
		t.pop.AddReporter(cp)
		defer t.pop.RemoveReporter(cp)
	}

	best, err := t.pop.Run(ctx, t.Evaluate, generations)
	if cp != nil && cp.Stale() {
		if _, serr := cp.Save(); serr != nil {
			return best, errors.Join(err, serr)
		}
	}
	if err != nil {
		return best, err
	}
	if best != nil {
		t.logger.Info("training finished",
			zap.Int("generation", t.pop.Generation),
			zap.Int("best_key", best.Key),
			zap.Float64("best_fitness", best.Fitness))
	}
	return best, nil
}

// Evaluate is a neat.FitnessFunc: it races every genome in one episode and
// stores each car's score as the genome's fitness. A genome whose network
// cannot be built scores 0.
func (t *Trainer) Evaluate(ctx context.Context, genomes map[int]*neat.Genome) error {
	keys := make([]int, 0, len(genomes))
	for k := range genomes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	brains, err := t.buildNetworks(ctx, keys, genomes)
	if err != nil {
		return err
	}
	entrants := make([]sim.Entrant, 0, len(keys))
	for i, k := range keys {
		genomes[k].Fitness = 0
		if brains[i] != nil {
			entrants = append(entrants, sim.Entrant{ID: k, Brain: brains[i]})
		}
	}
	if len(entrants) == 0 {
		t.logger.Warn("no genome produced a network", zap.Int("genomes", len(keys)))
		return nil
	}

	ep, err := sim.NewEpisode(t.cfg, t.track, entrants, t.logger)
	if err != nil {
		return err
	}
	ep.Generation = t.pop.Generation
	if err := ep.Run(ctx, t.opts.Surface, t.opts.Pacer); err != nil {
		return err
	}
	for id, score := range ep.Scores() {
		genomes[id].Fitness = score
	}
	return nil
}

// buildNetworks builds one network per key concurrently. A failed build
// leaves a nil slot and is logged; only cancellation is an error.
func (t *Trainer) buildNetworks(ctx context.Context, keys []int, genomes map[int]*neat.Genome) ([]sim.Network, error) {
	workers := t.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	brains := make([]sim.Network, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			net, err := nn.CreateFeedForwardNetwork(genomes[k], &t.neatCfg.Genome)
			if err != nil {
				t.logger.Warn("network build failed", zap.Int("genome", k), zap.Error(err))
				return nil
			}
			brains[i] = net
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return brains, nil
}

// Replay races g alone, drawing on s when it is set, and returns its score.
func (t *Trainer) Replay(ctx context.Context, g *neat.Genome, s render.Surface, p sim.Pacer) (float64, error) {
	if g == nil {
		return 0, errors.New("trainer: no genome to replay")
	}
	net, err := nn.CreateFeedForwardNetwork(g, &t.neatCfg.Genome)
	if err != nil {
		return 0, fmt.Errorf("failed to build network for genome %d: %w", g.Key, err)
	}
	ep, err := sim.NewEpisode(t.cfg, t.track, []sim.Entrant{{ID: g.Key, Brain: net}}, t.logger)
	if err != nil {
		return 0, err
	}
	ep.Generation = t.pop.Generation
	if err := ep.Run(ctx, s, p); err != nil {
		return ep.Scores()[g.Key], err
	}
	score := ep.Scores()[g.Key]
	t.logger.Info("replay finished", zap.Int("genome", g.Key), zap.Float64("fitness", score), zap.Int("ticks", ep.Tick()))
	return score, nil
}
