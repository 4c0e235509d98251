package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Genome is one individual: a set of node genes keyed by node id and a set
// of connection genes keyed by their endpoints. Genomes carry no config
// reference; every operation takes the GenomeConfig it runs under.
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene
	Connections map[ConnectionKey]*ConnectionGene
	Fitness     float64
}

// NewGenome returns an empty genome.
func NewGenome(key int) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
	}
}

func (g *Genome) String() string {
	return fmt.Sprintf("Genome(Key: %d, Fitness: %.4f, Nodes: %d, Connections: %d)",
		g.Key, g.Fitness, len(g.Nodes), len(g.Connections))
}

// Size returns the number of nodes and enabled connections.
func (g *Genome) Size() (nodes, enabled int) {
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

// Copy returns a deep copy of the genome.
func (g *Genome) Copy() *Genome {
	c := NewGenome(g.Key)
	c.Fitness = g.Fitness
	for k, n := range g.Nodes {
		c.Nodes[k] = n.Copy()
	}
	for k, cg := range g.Connections {
		c.Connections[k] = cg.Copy()
	}
	return c
}

// ConfigureNew creates the output and hidden nodes and the initial
// connections named by initial_connection.
func (g *Genome) ConfigureNew(config *GenomeConfig, rng *rand.Rand) {
	for _, key := range config.OutputKeys {
		g.Nodes[key] = NewNodeGene(key, config, rng)
	}
	for i := 0; i < config.NumHidden; i++ {
		key := config.GetNewNodeKey()
		g.Nodes[key] = NewNodeGene(key, config, rng)
	}

	hidden := config.NumHidden > 0
	switch config.ConnectionScheme {
	case "unconnected":
	case "fs_neat_nohidden", "fs_neat":
		g.connectFSNeat(config, rng, false)
	case "fs_neat_hidden":
		g.connectFSNeat(config, rng, true)
	case "full_nodirect":
		g.connectAll(config, rng, g.fullConnections(config, false))
	case "full", "full_direct":
		// "full" with hidden nodes means no direct input-output links.
		g.connectAll(config, rng, g.fullConnections(config, config.ConnectionScheme == "full_direct" || !hidden))
	case "partial_nodirect":
		g.connectPartial(config, rng, false)
	case "partial", "partial_direct":
		g.connectPartial(config, rng, config.ConnectionScheme == "partial_direct" || !hidden)
	}
}

// connectFSNeat links one randomly chosen input to every output, and to
// every hidden node when withHidden is set.
func (g *Genome) connectFSNeat(config *GenomeConfig, rng *rand.Rand, withHidden bool) {
	in := config.InputKeys[rng.Intn(len(config.InputKeys))]
	for _, key := range g.sortedNodeKeys() {
		if withHidden || config.IsOutput(key) {
			g.addConnection(config, rng, in, key)
		}
	}
}

func (g *Genome) connectAll(config *GenomeConfig, rng *rand.Rand, keys []ConnectionKey) {
	for _, k := range keys {
		g.addConnection(config, rng, k.InNodeID, k.OutNodeID)
	}
}

// connectPartial adds a random subset of the full connection set, sized by
// the configured connection fraction.
func (g *Genome) connectPartial(config *GenomeConfig, rng *rand.Rand, direct bool) {
	all := g.fullConnections(config, direct)
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	n := int(math.Round(config.ConnectionFraction * float64(len(all))))
	g.connectAll(config, rng, all[:n])
}

// fullConnections lists input to hidden and hidden to output links, plus
// input to output links when direct is set or there are no hidden nodes.
// Recurrent genomes also get a self-loop on every node.
func (g *Genome) fullConnections(config *GenomeConfig, direct bool) []ConnectionKey {
	var hidden []int
	for _, key := range g.sortedNodeKeys() {
		if !config.IsOutput(key) {
			hidden = append(hidden, key)
		}
	}
	var out []ConnectionKey
	for _, h := range hidden {
		for _, in := range config.InputKeys {
			out = append(out, ConnectionKey{in, h})
		}
		for _, o := range config.OutputKeys {
			out = append(out, ConnectionKey{h, o})
		}
	}
	if direct || len(hidden) == 0 {
		for _, in := range config.InputKeys {
			for _, o := range config.OutputKeys {
				out = append(out, ConnectionKey{in, o})
			}
		}
	}
	if !config.FeedForward {
		for _, key := range g.sortedNodeKeys() {
			out = append(out, ConnectionKey{key, key})
		}
	}
	return out
}

func (g *Genome) addConnection(config *GenomeConfig, rng *rand.Rand, in, out int) *ConnectionGene {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	cg := NewConnectionGene(key, config, rng)
	g.Connections[key] = cg
	return cg
}

// ConfigureCrossover fills g from two parents. Homologous genes are mixed
// attribute by attribute; disjoint and excess genes come from the fitter
// parent only.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome, rng *rand.Rand) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	for _, key := range parent1.sortedConnectionKeys() {
		c1 := parent1.Connections[key]
		if c2, ok := parent2.Connections[key]; ok {
			g.Connections[key] = c1.Crossover(c2, rng)
		} else {
			g.Connections[key] = c1.Copy()
		}
	}
	for _, key := range parent1.sortedNodeKeys() {
		n1 := parent1.Nodes[key]
		if n2, ok := parent2.Nodes[key]; ok {
			g.Nodes[key] = n1.Crossover(n2, rng)
		} else {
			g.Nodes[key] = n1.Copy()
		}
	}
}

// Mutate applies structural mutations, then attribute mutations to every
// gene. With single_structural_mutation at most one structural change is
// made, chosen in proportion to the four probabilities.
func (g *Genome) Mutate(config *GenomeConfig, rng *rand.Rand) {
	if config.SingleStructuralMutation {
		div := math.Max(1, config.NodeAddProb+config.NodeDeleteProb+config.ConnAddProb+config.ConnDeleteProb)
		r := rng.Float64()
		switch {
		case r < config.NodeAddProb/div:
			g.mutateAddNode(config, rng)
		case r < (config.NodeAddProb+config.NodeDeleteProb)/div:
			g.mutateDeleteNode(config, rng)
		case r < (config.NodeAddProb+config.NodeDeleteProb+config.ConnAddProb)/div:
			g.mutateAddConnection(config, rng)
		case r < (config.NodeAddProb+config.NodeDeleteProb+config.ConnAddProb+config.ConnDeleteProb)/div:
			g.mutateDeleteConnection(rng)
		}
	} else {
		if rng.Float64() < config.NodeAddProb {
			g.mutateAddNode(config, rng)
		}
		if rng.Float64() < config.NodeDeleteProb {
			g.mutateDeleteNode(config, rng)
		}
		if rng.Float64() < config.ConnAddProb {
			g.mutateAddConnection(config, rng)
		}
		if rng.Float64() < config.ConnDeleteProb {
			g.mutateDeleteConnection(rng)
		}
	}

	for _, key := range g.sortedConnectionKeys() {
		g.Connections[key].Mutate(g, config, rng)
	}
	for _, key := range g.sortedNodeKeys() {
		g.Nodes[key].Mutate(config, rng)
	}
}

// surer reports whether a structural mutation that found nothing to do
// should fall back to the closest alternative.
func surer(config *GenomeConfig) bool {
	switch strings.ToLower(config.StructuralMutationSurer) {
	case "true", "1", "yes", "on":
		return true
	case "default":
		return config.SingleStructuralMutation
	}
	return false
}

// mutateAddNode splits a random connection A->B into A->N (weight 1) and
// N->B (the old weight), disabling A->B.
func (g *Genome) mutateAddNode(config *GenomeConfig, rng *rand.Rand) {
	if len(g.Connections) == 0 {
		if surer(config) {
			g.mutateAddConnection(config, rng)
		}
		return
	}
	keys := g.sortedConnectionKeys()
	split := g.Connections[keys[rng.Intn(len(keys))]]

	key := config.GetNewNodeKey()
	g.Nodes[key] = NewNodeGene(key, config, rng)
	split.Enabled = false

	in := g.addConnection(config, rng, split.Key.InNodeID, key)
	in.Weight, in.Enabled = 1.0, true
	out := g.addConnection(config, rng, key, split.Key.OutNodeID)
	out.Weight, out.Enabled = split.Weight, true
}

// mutateAddConnection links a random source (any input or node) to a random
// node. Existing links, output-to-output links and, in feed-forward
// genomes, links that would close a cycle are rejected.
func (g *Genome) mutateAddConnection(config *GenomeConfig, rng *rand.Rand) {
	outputs := g.sortedNodeKeys()
	if len(outputs) == 0 {
		return
	}
	out := outputs[rng.Intn(len(outputs))]
	inputs := append(append([]int(nil), outputs...), config.InputKeys...)
	in := inputs[rng.Intn(len(inputs))]

	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	if existing, ok := g.Connections[key]; ok {
		if surer(config) {
			existing.Enabled = true
		}
		return
	}
	if config.IsOutput(in) && config.IsOutput(out) {
		return
	}
	if config.FeedForward && g.createsCycle(key) {
		return
	}
	g.addConnection(config, rng, in, out)
}

// mutateDeleteNode removes a random hidden node and every connection
// touching it. Output nodes are never removed.
func (g *Genome) mutateDeleteNode(config *GenomeConfig, rng *rand.Rand) {
	var hidden []int
	for _, key := range g.sortedNodeKeys() {
		if !config.IsOutput(key) {
			hidden = append(hidden, key)
		}
	}
	if len(hidden) == 0 {
		return
	}
	del := hidden[rng.Intn(len(hidden))]
	for key := range g.Connections {
		if key.InNodeID == del || key.OutNodeID == del {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, del)
}

func (g *Genome) mutateDeleteConnection(rng *rand.Rand) {
	if len(g.Connections) == 0 {
		return
	}
	keys := g.sortedConnectionKeys()
	delete(g.Connections, keys[rng.Intn(len(keys))])
}

// Distance is the genomic distance used for speciation: disjoint genes
// weighted by the disjoint coefficient plus homologous attribute distance,
// each normalised by the larger genome, summed over nodes and connections.
func (g *Genome) Distance(other *Genome, config *GenomeConfig) float64 {
	var nodeDist float64
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjoint := 0
		for key := range other.Nodes {
			if _, ok := g.Nodes[key]; !ok {
				disjoint++
			}
		}
		for key, n1 := range g.Nodes {
			if n2, ok := other.Nodes[key]; ok {
				nodeDist += n1.Distance(n2, config)
			} else {
				disjoint++
			}
		}
		n := max(len(g.Nodes), len(other.Nodes))
		nodeDist = (nodeDist + config.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(n)
	}

	var connDist float64
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjoint := 0
		for key := range other.Connections {
			if _, ok := g.Connections[key]; !ok {
				disjoint++
			}
		}
		for key, c1 := range g.Connections {
			if c2, ok := other.Connections[key]; ok {
				connDist += c1.Distance(c2, config)
			} else {
				disjoint++
			}
		}
		n := max(len(g.Connections), len(other.Connections))
		connDist = (connDist + config.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(n)
	}
	return nodeDist + connDist
}

// createsCycle reports whether adding key would close a directed cycle
// over the genome's connections, enabled or not.
func (g *Genome) createsCycle(key ConnectionKey) bool {
	if key.InNodeID == key.OutNodeID {
		return true
	}
	visited := map[int]bool{key.OutNodeID: true}
	for {
		added := false
		for c := range g.Connections {
			if visited[c.InNodeID] && !visited[c.OutNodeID] {
				if c.OutNodeID == key.InNodeID {
					return true
				}
				visited[c.OutNodeID] = true
				added = true
			}
		}
		if !added {
			return false
		}
	}
}

func (g *Genome) sortedNodeKeys() []int {
	keys := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) sortedConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
	return keys
}
