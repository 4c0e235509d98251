package neat

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Reporter receives progress events from a Population. Embed BaseReporter
// to implement only the events of interest.
type Reporter interface {
	StartGeneration(generation int)
	EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet)
	PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome)
	CompleteExtinction()
	FoundSolution(config *Config, generation int, best *Genome)
	SpeciesStagnant(sid int, species *Species)
	Info(msg string, fields ...zap.Field)
}

// BaseReporter implements Reporter with no-ops.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int)                                         {}
func (BaseReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet)           {}
func (BaseReporter) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {}
func (BaseReporter) CompleteExtinction()                                         {}
func (BaseReporter) FoundSolution(*Config, int, *Genome)                         {}
func (BaseReporter) SpeciesStagnant(int, *Species)                               {}
func (BaseReporter) Info(string, ...zap.Field)                                   {}

// ReporterSet fans each event out to every registered reporter.
type ReporterSet struct {
	reporters []Reporter
}

func (rs *ReporterSet) Add(r Reporter) { rs.reporters = append(rs.reporters, r) }

func (rs *ReporterSet) Remove(r Reporter) {
	for i, x := range rs.reporters {
		if x == r {
			rs.reporters = append(rs.reporters[:i], rs.reporters[i+1:]...)
			return
		}
	}
}

func (rs *ReporterSet) StartGeneration(gen int) {
	for _, r := range rs.reporters {
		r.StartGeneration(gen)
	}
}

func (rs *ReporterSet) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	for _, r := range rs.reporters {
		r.EndGeneration(config, population, species)
	}
}

func (rs *ReporterSet) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	for _, r := range rs.reporters {
		r.PostEvaluate(config, population, species, best)
	}
}

func (rs *ReporterSet) CompleteExtinction() {
	for _, r := range rs.reporters {
		r.CompleteExtinction()
	}
}

func (rs *ReporterSet) FoundSolution(config *Config, generation int, best *Genome) {
	for _, r := range rs.reporters {
		r.FoundSolution(config, generation, best)
	}
}

func (rs *ReporterSet) SpeciesStagnant(sid int, species *Species) {
	for _, r := range rs.reporters {
		r.SpeciesStagnant(sid, species)
	}
}

func (rs *ReporterSet) Info(msg string, fields ...zap.Field) {
	for _, r := range rs.reporters {
		r.Info(msg, fields...)
	}
}

// LogReporter writes generation summaries to a zap logger.
type LogReporter struct {
	logger        *zap.Logger
	speciesDetail bool

	generation     int
	generationTime time.Time
	times          []time.Duration
	extinctions    int
}

// NewLogReporter returns a reporter logging to logger. With speciesDetail
// every species is logged after each generation at debug level.
func NewLogReporter(logger *zap.Logger, speciesDetail bool) *LogReporter {
	return &LogReporter{logger: logger, speciesDetail: speciesDetail}
}

func (r *LogReporter) StartGeneration(generation int) {
	r.generation = generation
	r.generationTime = time.Now()
	r.logger.Info("generation started", zap.Int("generation", generation))
}

func (r *LogReporter) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	r.logger.Info("population speciated",
		zap.Int("generation", r.generation),
		zap.Int("members", len(population)),
		zap.Int("species", len(species.Species)))

	if r.speciesDetail {
		for _, sid := range species.SortedKeys() {
			s := species.Species[sid]
			r.logger.Debug("species",
				zap.Int("id", sid),
				zap.Int("age", r.generation-s.Created),
				zap.Int("size", len(s.Members)),
				zap.Float64("fitness", s.Fitness),
				zap.Float64("adjusted_fitness", s.AdjustedFitness),
				zap.Int("stagnation", r.generation-s.LastImproved))
		}
	}

	elapsed := time.Since(r.generationTime)
	r.times = append(r.times, elapsed)
	if len(r.times) > 10 {
		r.times = r.times[1:]
	}
	var total time.Duration
	for _, t := range r.times {
		total += t
	}
	r.logger.Info("generation finished",
		zap.Int("generation", r.generation),
		zap.Int("extinctions", r.extinctions),
		zap.Duration("elapsed", elapsed),
		zap.Duration("average", total/time.Duration(len(r.times))))
}

func (r *LogReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	fields := []zap.Field{
		zap.Int("generation", r.generation),
		zap.Float64("mean_fitness", Mean(fitnesses)),
		zap.Float64("stdev_fitness", Stdev(fitnesses)),
	}
	if best != nil {
		nodes, conns := best.Size()
		sid, _ := species.GetSpeciesID(best.Key)
		fields = append(fields,
			zap.Float64("best_fitness", best.Fitness),
			zap.Int("best_nodes", nodes),
			zap.Int("best_connections", conns),
			zap.Int("best_species", sid),
			zap.Int("best_key", best.Key))
	}
	r.logger.Info("population evaluated", fields...)
}

func (r *LogReporter) CompleteExtinction() {
	r.extinctions++
	r.logger.Warn("all species extinct", zap.Int("generation", r.generation))
}

func (r *LogReporter) FoundSolution(config *Config, generation int, best *Genome) {
	nodes, conns := best.Size()
	r.logger.Info("fitness threshold met",
		zap.Int("generation", generation),
		zap.Int("key", best.Key),
		zap.Float64("fitness", best.Fitness),
		zap.Int("nodes", nodes),
		zap.Int("connections", conns))
}

func (r *LogReporter) SpeciesStagnant(sid int, species *Species) {
	r.logger.Info("species removed after stagnation",
		zap.Int("species", sid),
		zap.Int("members", len(species.Members)))
}

func (r *LogReporter) Info(msg string, fields ...zap.Field) {
	r.logger.Debug(msg, fields...)
}

// StatisticsReporter keeps the best genome and the member fitnesses of
// every species for each generation.
type StatisticsReporter struct {
	BaseReporter

	MostFitGenomes []*Genome
	// GenerationStatistics holds species id -> genome id -> fitness per generation.
	GenerationStatistics []map[int]map[int]float64
}

func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{}
}

func (s *StatisticsReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	if best != nil {
		s.MostFitGenomes = append(s.MostFitGenomes, best.Copy())
	}
	stats := make(map[int]map[int]float64, len(species.Species))
	for sid, sp := range species.Species {
		members := make(map[int]float64, len(sp.Members))
		for gid := range sp.Members {
			if g, ok := population[gid]; ok {
				members[gid] = g.Fitness
			}
		}
		stats[sid] = members
	}
	s.GenerationStatistics = append(s.GenerationStatistics, stats)
}

func (s *StatisticsReporter) fitnessStat(f func([]float64) float64) []float64 {
	out := make([]float64, 0, len(s.GenerationStatistics))
	for _, gen := range s.GenerationStatistics {
		var scores []float64
		for _, members := range gen {
			for _, fit := range members {
				scores = append(scores, fit)
			}
		}
		out = append(out, f(scores))
	}
	return out
}

// FitnessMean returns the mean fitness of each generation.
func (s *StatisticsReporter) FitnessMean() []float64 { return s.fitnessStat(Mean) }

// FitnessStdev returns the fitness standard deviation of each generation.
func (s *StatisticsReporter) FitnessStdev() []float64 { return s.fitnessStat(Stdev) }

// BestGenome returns the fittest genome seen so far, or nil.
func (s *StatisticsReporter) BestGenome() *Genome {
	best := s.BestGenomes(1)
	if len(best) == 0 {
		return nil
	}
	return best[0]
}

// BestGenomes returns up to n of the fittest genomes seen, fittest first.
func (s *StatisticsReporter) BestGenomes(n int) []*Genome {
	sorted := append([]*Genome(nil), s.MostFitGenomes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Fitness > sorted[j].Fitness })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// SpeciesSizes returns, for each generation, the member count of every
// species id that has ever existed, zero where it did not.
func (s *StatisticsReporter) SpeciesSizes() [][]int {
	maxID := 0
	for _, gen := range s.GenerationStatistics {
		for sid := range gen {
			maxID = max(maxID, sid)
		}
	}
	out := make([][]int, len(s.GenerationStatistics))
	for i, gen := range s.GenerationStatistics {
		sizes := make([]int, maxID)
		for sid, members := range gen {
			sizes[sid-1] = len(members)
		}
		out[i] = sizes
	}
	return out
}
