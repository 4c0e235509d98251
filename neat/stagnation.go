package neat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stagnation tracks species fitness over time and marks species that have
// not improved for max_stagnation generations.
type Stagnation struct {
	config             *StagnationConfig
	speciesFitnessFunc func([]float64) float64
}

func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{config: config, speciesFitnessFunc: fn}, nil
}

// StagnationInfo is the verdict for one species, in ascending fitness order.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update records each species' fitness for this generation and returns the
// species sorted from least to most fit. The species_elitism fittest
// species are never stagnant, and stagnation never leaves fewer than
// species_elitism species.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	data := make([]StagnationInfo, 0, len(speciesSet.Species))
	for _, sid := range speciesSet.SortedKeys() {
		sp := speciesSet.Species[sid]
		prev := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			prev = MaxFloat(sp.FitnessHistory)
		}
		sp.Fitness = s.speciesFitnessFunc(sp.GetFitnesses())
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > prev {
			sp.LastImproved = generation
		}
		data = append(data, StagnationInfo{SpeciesID: sid, Species: sp})
	}
	sort.SliceStable(data, func(i, j int) bool { return data[i].Species.Fitness < data[j].Species.Fitness })

	nonStagnant := len(data)
	for i := range data {
		stagnant := false
		if nonStagnant > s.config.SpeciesElitism {
			stagnant = generation-data[i].Species.LastImproved >= s.config.MaxStagnation
		}
		if len(data)-i <= s.config.SpeciesElitism {
			stagnant = false
		}
		if stagnant {
			nonStagnant--
		}
		data[i].IsStagnant = stagnant
	}
	return data
}
