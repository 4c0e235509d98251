package neat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// ErrCompleteExtinction is returned when every species dies out and
// reset_on_extinction is off.
var ErrCompleteExtinction = errors.New("neat: complete extinction")

// FitnessFunc evaluates every genome of a generation and sets its Fitness.
type FitnessFunc func(ctx context.Context, genomes map[int]*Genome) error

// Population holds the state of an evolutionary run.
type Population struct {
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Reporters    *ReporterSet
	Generation   int
	BestGenome   *Genome

	rng *rand.Rand
}

// NewPopulation creates and speciates an initial population. All random
// choices of the run are drawn from rng.
func NewPopulation(config *Config, rng *rand.Rand) (*Population, error) {
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	reporters := &ReporterSet{}
	reproduction := NewReproduction(&config.Reproduction, stagnation, reporters)

	p := &Population{
		Config:       config,
		Population:   reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize, rng),
		SpeciesSet:   NewSpeciesSet(&config.SpeciesSet, reporters),
		Reproduction: reproduction,
		Stagnation:   stagnation,
		Reporters:    reporters,
		rng:          rng,
	}
	p.SpeciesSet.Speciate(config, p.Population, p.Generation)
	return p, nil
}

// AddReporter registers r for progress events.
func (p *Population) AddReporter(r Reporter) { p.Reporters.Add(r) }

// RemoveReporter unregisters r.
func (p *Population) RemoveReporter(r Reporter) { p.Reporters.Remove(r) }

// RunGeneration evaluates the current generation and breeds the next one.
// It returns the generation's best genome and whether the fitness
// criterion reached fitness_threshold, in which case no new generation is
// bred.
func (p *Population) RunGeneration(ctx context.Context, fitnessFunc FitnessFunc) (best *Genome, solved bool, err error) {
	p.Reporters.StartGeneration(p.Generation)

	if err := fitnessFunc(ctx, p.Population); err != nil {
		return nil, false, fmt.Errorf("fitness evaluation failed in generation %d: %w", p.Generation, err)
	}

	for _, gid := range sortedGenomeKeys(p.Population) {
		g := p.Population[gid]
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	p.Reporters.PostEvaluate(p.Config, p.Population, p.SpeciesSet, best)
	if best != nil && (p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = best.Copy()
	}

	if !p.Config.Neat.NoFitnessTermination && best != nil {
		if p.fitnessCriterion() >= p.Config.Neat.FitnessThreshold {
			p.Reporters.FoundSolution(p.Config, p.Generation, best)
			return best, true, nil
		}
	}

	p.Population = p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation, p.rng)
	if len(p.SpeciesSet.Species) == 0 {
		p.Reporters.CompleteExtinction()
		if !p.Config.Neat.ResetOnExtinction {
			return best, false, fmt.Errorf("generation %d: %w", p.Generation, ErrCompleteExtinction)
		}
		p.Population = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize, p.rng)
	}

	p.SpeciesSet.Speciate(p.Config, p.Population, p.Generation)
	p.Generation++
	p.Reporters.EndGeneration(p.Config, p.Population, p.SpeciesSet)
	return best, false, nil
}

// Run evolves for at most n generations, or without limit when n <= 0. It
// stops early when the fitness threshold is met or ctx is cancelled, and
// returns the best genome seen.
func (p *Population) Run(ctx context.Context, fitnessFunc FitnessFunc, n int) (*Genome, error) {
	for i := 0; n <= 0 || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return p.BestGenome, err
		}
		_, solved, err := p.RunGeneration(ctx, fitnessFunc)
		if err != nil {
			return p.BestGenome, err
		}
		if solved {
			break
		}
	}
	if p.Config.Neat.NoFitnessTermination && p.BestGenome != nil {
		p.Reporters.FoundSolution(p.Config, p.Generation, p.BestGenome)
	}
	return p.BestGenome, nil
}

// Rand returns the population's random source.
func (p *Population) Rand() *rand.Rand { return p.rng }

func (p *Population) fitnessCriterion() float64 {
	fitnesses := make([]float64, 0, len(p.Population))
	for _, g := range p.Population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	switch strings.ToLower(p.Config.Neat.FitnessCriterion) {
	case "min":
		return MinFloat(fitnesses)
	case "mean":
		return Mean(fitnesses)
	default:
		return MaxFloat(fitnesses)
	}
}
