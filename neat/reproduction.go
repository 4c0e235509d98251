package neat

import (
	"math"
	"math/rand"
	"sort"

	"go.uber.org/zap"
)

// Reproduction creates genomes, either from scratch or by crossover and
// mutation of the fittest members of each surviving species.
type Reproduction struct {
	NextGenomeKey int
	Ancestors     map[int][]int // genome key -> parent keys

	config     *ReproductionConfig
	stagnation *Stagnation
	reporters  *ReporterSet
}

// NewReproduction returns a Reproduction whose genome keys start at 1. A nil
// reporters set is replaced with an empty one.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation, reporters *ReporterSet) *Reproduction {
	if reporters == nil {
		reporters = &ReporterSet{}
	}
	return &Reproduction{
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		config:        config,
		stagnation:    stagnation,
		reporters:     reporters,
	}
}

func (r *Reproduction) nextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation returns popSize freshly configured genomes.
func (r *Reproduction) CreateNewPopulation(config *GenomeConfig, popSize int, rng *rand.Rand) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.nextKey()
		g := NewGenome(key)
		g.ConfigureNew(config, rng)
		genomes[key] = g
		r.Ancestors[key] = nil
	}
	return genomes
}

// Reproduce builds the next generation. Stagnant species are dropped, the
// rest receive offspring in proportion to their adjusted fitness. Each
// species keeps its elites unchanged and breeds the remainder from the top
// survival_threshold fraction of its members. An empty result means every
// species went extinct; speciesSet is then left empty too.
func (r *Reproduction) Reproduce(config *Config, speciesSet *SpeciesSet, popSize, generation int, rng *rand.Rand) map[int]*Genome {
	var allFitnesses []float64
	var remaining []*Species
	for _, info := range r.stagnation.Update(speciesSet, generation) {
		if info.IsStagnant {
			r.reporters.SpeciesStagnant(info.SpeciesID, info.Species)
			continue
		}
		allFitnesses = append(allFitnesses, info.Species.GetFitnesses()...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		speciesSet.Species = make(map[int]*Species)
		return map[int]*Genome{}
	}

	minFitness := MinFloat(allFitnesses)
	fitnessRange := math.Max(1.0, MaxFloat(allFitnesses)-minFitness)
	adjusted := make([]float64, len(remaining))
	previousSizes := make([]int, len(remaining))
	for i, sp := range remaining {
		sp.AdjustedFitness = (Mean(sp.GetFitnesses()) - minFitness) / fitnessRange
		adjusted[i] = sp.AdjustedFitness
		previousSizes[i] = len(sp.Members)
	}
	r.reporters.Info("average adjusted fitness", zap.Float64("value", Mean(adjusted)))

	minSpeciesSize := max(r.config.MinSpeciesSize, r.config.Elitism)
	spawnAmounts := computeSpawn(adjusted, previousSizes, popSize, minSpeciesSize)

	population := make(map[int]*Genome)
	ancestors := make(map[int][]int)
	speciesSet.Species = make(map[int]*Species, len(remaining))
	for i, sp := range remaining {
		spawn := max(spawnAmounts[i], r.config.Elitism)

		members := make([]*Genome, 0, len(sp.Members))
		for _, gid := range sortedGenomeKeys(sp.Members) {
			members = append(members, sp.Members[gid])
		}
		sort.SliceStable(members, func(a, b int) bool { return members[a].Fitness > members[b].Fitness })

		sp.Members = make(map[int]*Genome)
		speciesSet.Species[sp.Key] = sp

		for _, elite := range members[:min(r.config.Elitism, len(members))] {
			population[elite.Key] = elite
			ancestors[elite.Key] = r.Ancestors[elite.Key]
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		cutoff := int(math.Ceil(r.config.SurvivalThreshold * float64(len(members))))
		parents := members[:min(max(cutoff, 2), len(members))]
		for ; spawn > 0; spawn-- {
			p1 := parents[rng.Intn(len(parents))]
			p2 := parents[rng.Intn(len(parents))]
			key := r.nextKey()
			child := NewGenome(key)
			child.ConfigureCrossover(p1, p2, rng)
			child.Mutate(&config.Genome, rng)
			population[key] = child
			ancestors[key] = []int{p1.Key, p2.Key}
		}
	}
	r.Ancestors = ancestors
	return population
}

// computeSpawn moves each species halfway from its previous size toward
// its fitness-proportional share, then rescales the total to popSize.
func computeSpawn(adjusted []float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	sum := Sum(adjusted)
	spawn := make([]int, len(adjusted))
	total := 0
	for i, af := range adjusted {
		s := float64(minSpeciesSize)
		if sum > 0 {
			s = math.Max(s, af/sum*float64(popSize))
		}
		ps := previousSizes[i]
		d := (s - float64(ps)) * 0.5
		c := int(math.RoundToEven(d))
		n := ps
		switch {
		case c != 0:
			n += c
		case d > 0:
			n++
		case d < 0:
			n--
		}
		spawn[i] = n
		total += n
	}
	if total <= 0 {
		for i := range spawn {
			spawn[i] = minSpeciesSize
		}
		return spawn
	}
	norm := float64(popSize) / float64(total)
	for i, n := range spawn {
		spawn[i] = max(minSpeciesSize, int(math.RoundToEven(float64(n)*norm)))
	}
	return spawn
}
