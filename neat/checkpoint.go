package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Checkpoint is the gob payload of a saved run. The Config is not saved;
// it is supplied again on restore.
type Checkpoint struct {
	Generation   int
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	BestGenome   *Genome
	NodeKeyIndex int
	// RandSeed reseeds the population's random source on restore, so a
	// resumed run draws the same numbers an uninterrupted run would.
	RandSeed int64
	Metadata map[string]string
}

// SaveCheckpoint writes the population to filePath as gzipped gob. The
// file is written next to its destination and renamed into place.
func (p *Population) SaveCheckpoint(filePath string, metadata map[string]string) error {
	seed := p.rng.Int63()
	p.rng.Seed(seed)
	cp := Checkpoint{
		Generation:   p.Generation,
		Population:   p.Population,
		SpeciesSet:   p.SpeciesSet,
		Reproduction: p.Reproduction,
		BestGenome:   p.BestGenome,
		NodeKeyIndex: p.Config.Genome.NodeKeyIndex,
		RandSeed:     seed,
		Metadata:     metadata,
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if err := gob.NewEncoder(gz).Encode(&cp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode population data: %w", err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to move checkpoint into place: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(filePath string) (*Checkpoint, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gz.Close()

	cp := &Checkpoint{}
	if err := gob.NewDecoder(gz).Decode(cp); err != nil {
		return nil, fmt.Errorf("failed to decode population data from checkpoint: %w", err)
	}
	return cp, nil
}

// Restore rebuilds a Population from the checkpoint under config. The node
// key counter never moves backwards, so genomes bred after the restore
// cannot reuse a saved node key.
func (cp *Checkpoint) Restore(config *Config) (*Population, error) {
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to re-initialize stagnation from loaded config: %w", err)
	}
	reporters := &ReporterSet{}

	nextNode := max(cp.NodeKeyIndex, config.Genome.NodeKeyIndex)
	for _, g := range cp.Population {
		for key := range g.Nodes {
			nextNode = max(nextNode, key+1)
		}
	}
	config.Genome.NodeKeyIndex = nextNode

	species := cp.SpeciesSet
	if species == nil {
		species = NewSpeciesSet(&config.SpeciesSet, reporters)
	}
	species.config = &config.SpeciesSet
	species.reporters = reporters
	if species.Species == nil {
		species.Species = make(map[int]*Species)
	}
	// gob decodes shared genomes as separate copies; point members back at
	// the population so evaluated fitness reaches reproduction.
	for _, s := range species.Species {
		for gid := range s.Members {
			if g, ok := cp.Population[gid]; ok {
				s.Members[gid] = g
			}
		}
	}

	repro := cp.Reproduction
	if repro == nil {
		repro = NewReproduction(&config.Reproduction, stagnation, reporters)
	}
	repro.config = &config.Reproduction
	repro.stagnation = stagnation
	repro.reporters = reporters
	if repro.Ancestors == nil {
		repro.Ancestors = make(map[int][]int)
	}

	return &Population{
		Config:       config,
		Population:   cp.Population,
		SpeciesSet:   species,
		Reproduction: repro,
		Stagnation:   stagnation,
		Reporters:    reporters,
		Generation:   cp.Generation,
		BestGenome:   cp.BestGenome,
		rng:          rand.New(rand.NewSource(cp.RandSeed)),
	}, nil
}

// Checkpointer is a Reporter that saves its population every Every
// generations, to Prefix followed by the generation number.
type Checkpointer struct {
	BaseReporter

	Every    int
	Prefix   string
	Metadata map[string]string

	population *Population
	logger     *zap.Logger
	since      int
	lastSaved  int
	lastPath   string
	savedBest  *Genome
}

// NewCheckpointer returns a Checkpointer for p. It counts Every from p's
// current generation, so a resumed run does not save straight away.
func NewCheckpointer(p *Population, every int, prefix string, metadata map[string]string, logger *zap.Logger) *Checkpointer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checkpointer{
		Every:      every,
		Prefix:     prefix,
		Metadata:   metadata,
		population: p,
		logger:     logger,
		since:      p.Generation,
		lastSaved:  -1,
	}
}

// EndGeneration runs after the population has moved to its next
// generation, so a saved checkpoint resumes with that generation.
func (c *Checkpointer) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {
	if c.Every > 0 && c.population.Generation-c.since >= c.Every {
		if _, err := c.Save(); err != nil {
			c.logger.Error("checkpoint failed", zap.Error(err))
		}
	}
}

// Save writes a checkpoint of the current generation now and returns its path.
func (c *Checkpointer) Save() (string, error) {
	path := fmt.Sprintf("%s%d", c.Prefix, c.population.Generation)
	if err := c.population.SaveCheckpoint(path, c.Metadata); err != nil {
		return "", err
	}
	c.since = c.population.Generation
	c.lastSaved = c.population.Generation
	c.lastPath = path
	c.savedBest = c.population.BestGenome
	c.logger.Info("checkpoint saved", zap.String("path", path), zap.Int("generation", c.lastSaved))
	return path, nil
}

// Last returns the path and generation of the most recent save. Before the
// first save the path is empty and the generation is -1.
func (c *Checkpointer) Last() (string, int) { return c.lastPath, c.lastSaved }

// Stale reports whether the population has moved on since the last save:
// nothing saved yet, a newer generation, or a new best genome. A run that
// stops on a solution keeps its generation but replaces BestGenome.
func (c *Checkpointer) Stale() bool {
	return c.lastPath == "" ||
		c.lastSaved != c.population.Generation ||
		c.savedBest != c.population.BestGenome
}
