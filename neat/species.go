package neat

import (
	"math"
	"sort"

	"go.uber.org/zap"
)

// Species is a group of genetically similar genomes.
type Species struct {
	Key             int
	Created         int // generation the species appeared in
	LastImproved    int
	Representative  *Genome
	Members         map[int]*Genome
	Fitness         float64
	AdjustedFitness float64
	FitnessHistory  []float64
}

func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:          key,
		Created:      generation,
		LastImproved: generation,
		Members:      make(map[int]*Genome),
	}
}

func (s *Species) Update(representative *Genome, members map[int]*Genome) {
	s.Representative = representative
	s.Members = members
}

// GetFitnesses returns the member fitnesses in genome key order.
func (s *Species) GetFitnesses() []float64 {
	keys := make([]int, 0, len(s.Members))
	for k := range s.Members {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = s.Members[k].Fitness
	}
	return out
}

type genomePair struct{ a, b int }

// GenomeDistanceCache memoises genome distances within one speciation pass.
type GenomeDistanceCache struct {
	distances map[genomePair]float64
	config    *GenomeConfig
	Hits      int
	Misses    int
}

func NewGenomeDistanceCache(config *GenomeConfig) *GenomeDistanceCache {
	return &GenomeDistanceCache{distances: make(map[genomePair]float64), config: config}
}

func (dc *GenomeDistanceCache) Distance(g1, g2 *Genome) float64 {
	key := genomePair{g1.Key, g2.Key}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	if d, ok := dc.distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := g1.Distance(g2, dc.config)
	dc.distances[key] = d
	return d
}

// Values returns every distance computed so far.
func (dc *GenomeDistanceCache) Values() []float64 {
	out := make([]float64, 0, len(dc.distances))
	for _, d := range dc.distances {
		out = append(out, d)
	}
	return out
}

// SpeciesSet partitions a population into species.
type SpeciesSet struct {
	Species         map[int]*Species
	GenomeToSpecies map[int]int
	Indexer         int // next species key

	config    *SpeciesSetConfig
	reporters *ReporterSet
}

func NewSpeciesSet(config *SpeciesSetConfig, reporters *ReporterSet) *SpeciesSet {
	if reporters == nil {
		reporters = &ReporterSet{}
	}
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		config:          config,
		reporters:       reporters,
	}
}

// SortedKeys returns the species keys in ascending order.
func (ss *SpeciesSet) SortedKeys() []int {
	keys := make([]int, 0, len(ss.Species))
	for k := range ss.Species {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Speciate assigns every genome to a species. Each surviving species first
// adopts the genome closest to its old representative; every remaining
// genome joins the closest representative within the compatibility
// threshold or founds a new species.
func (ss *SpeciesSet) Speciate(config *Config, population map[int]*Genome, generation int) {
	distances := NewGenomeDistanceCache(&config.Genome)
	threshold := ss.config.CompatibilityThreshold

	unspeciated := make(map[int]*Genome, len(population))
	for k, g := range population {
		unspeciated[k] = g
	}
	newReps := make(map[int]*Genome)
	newMembers := make(map[int][]int)

	for _, sid := range ss.SortedKeys() {
		if len(unspeciated) == 0 {
			break
		}
		rep := ss.Species[sid].Representative
		var best *Genome
		bestDist := math.Inf(1)
		for _, gid := range sortedGenomeKeys(unspeciated) {
			g := unspeciated[gid]
			if d := distances.Distance(rep, g); d < bestDist {
				best, bestDist = g, d
			}
		}
		newReps[sid] = best
		newMembers[sid] = []int{best.Key}
		delete(unspeciated, best.Key)
	}

	for _, gid := range sortedGenomeKeys(unspeciated) {
		g := unspeciated[gid]
		bestSID := -1
		bestDist := math.Inf(1)
		for _, sid := range sortedSpeciesKeys(newReps) {
			if d := distances.Distance(newReps[sid], g); d < threshold && d < bestDist {
				bestSID, bestDist = sid, d
			}
		}
		if bestSID == -1 {
			bestSID = ss.Indexer
			ss.Indexer++
			newReps[bestSID] = g
		}
		newMembers[bestSID] = append(newMembers[bestSID], gid)
	}

	species := make(map[int]*Species, len(newReps))
	genomeToSpecies := make(map[int]int, len(population))
	for sid, rep := range newReps {
		s, ok := ss.Species[sid]
		if !ok {
			s = NewSpecies(sid, generation)
		}
		members := make(map[int]*Genome, len(newMembers[sid]))
		for _, gid := range newMembers[sid] {
			members[gid] = population[gid]
			genomeToSpecies[gid] = sid
		}
		s.Update(rep, members)
		species[sid] = s
	}
	ss.Species = species
	ss.GenomeToSpecies = genomeToSpecies

	values := distances.Values()
	ss.reporters.Info("genetic distance",
		zap.Float64("mean", Mean(values)),
		zap.Float64("stdev", Stdev(values)))
}

func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	return sid, ok
}

func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, ok := ss.GenomeToSpecies[genomeID]
	if !ok {
		return nil, false
	}
	s, ok := ss.Species[sid]
	return s, ok
}

func sortedGenomeKeys(m map[int]*Genome) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedSpeciesKeys(m map[int]*Genome) []int {
	return sortedGenomeKeys(m)
}
