package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand { return rand.New(rand.NewSource(7)) }

func configuredGenome(t *testing.T, options ...string) (*Genome, *Config) {
	t.Helper()
	config := parseTestConfig(t, options...)
	g := NewGenome(1)
	g.ConfigureNew(&config.Genome, newRand())
	return g, config
}

func TestConfigureNew(t *testing.T) {
	cases := []struct {
		name        string
		options     []string
		nodes       int
		connections int
	}{
		{"unconnected", []string{"initial_connection", "unconnected"}, 1, 0},
		{"fs_neat links one input", []string{"initial_connection", "fs_neat_nohidden"}, 1, 1},
		{"full without hidden", nil, 1, 2},
		{"full with hidden skips direct", []string{"num_hidden", "2"}, 3, 6},
		{"full_direct with hidden", []string{"num_hidden", "2", "initial_connection", "full_direct"}, 3, 8},
		{"partial_direct keeps the fraction", []string{"num_hidden", "2", "initial_connection", "partial_direct 0.5"}, 3, 4},
		{"recurrent adds self loops", []string{"feed_forward", "False"}, 1, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := configuredGenome(t, tc.options...)
			assert.Len(t, g.Nodes, tc.nodes)
			assert.Len(t, g.Connections, tc.connections)
		})
	}
}

func TestMutateAddNode(t *testing.T) {
	g, config := configuredGenome(t, "initial_connection", "fs_neat_nohidden")
	require.Len(t, g.Connections, 1)
	var split *ConnectionGene
	for _, c := range g.Connections {
		split = c
	}
	split.Enabled = true
	weight := split.Weight

	g.mutateAddNode(&config.Genome, newRand())

	require.Len(t, g.Nodes, 2)
	require.Contains(t, g.Nodes, 1)
	assert.False(t, split.Enabled)
	in := g.Connections[ConnectionKey{split.Key.InNodeID, 1}]
	out := g.Connections[ConnectionKey{1, split.Key.OutNodeID}]
	require.NotNil(t, in)
	require.NotNil(t, out)
	assert.Equal(t, 1.0, in.Weight)
	assert.Equal(t, weight, out.Weight)
	assert.Equal(t, 2, config.Genome.NodeKeyIndex)
}

func TestMutateDeleteNode(t *testing.T) {
	g, config := configuredGenome(t, "num_hidden", "1")
	require.Contains(t, g.Nodes, 1)

	g.mutateDeleteNode(&config.Genome, newRand())
	assert.NotContains(t, g.Nodes, 1)
	for key := range g.Connections {
		assert.NotEqual(t, 1, key.InNodeID)
		assert.NotEqual(t, 1, key.OutNodeID)
	}

	t.Run("outputs are never removed", func(t *testing.T) {
		g.mutateDeleteNode(&config.Genome, newRand())
		assert.Contains(t, g.Nodes, 0)
	})
}

func TestMutateDeleteConnection(t *testing.T) {
	g, _ := configuredGenome(t)
	g.mutateDeleteConnection(newRand())
	assert.Len(t, g.Connections, 1)
	g.mutateDeleteConnection(newRand())
	g.mutateDeleteConnection(newRand())
	assert.Empty(t, g.Connections)
}

func TestMutateKeepsFeedForwardAcyclic(t *testing.T) {
	g, config := configuredGenome(t, "node_add_prob", "0.5", "conn_add_prob", "0.9", "enabled_mutate_rate", "0.5")
	rng := newRand()
	for i := 0; i < 200; i++ {
		g.Mutate(&config.Genome, rng)
		for key := range g.Connections {
			others := g.Copy()
			delete(others.Connections, key)
			require.False(t, others.createsCycle(key), "connection %s closes a cycle", key)
		}
	}
}

func TestCreatesCycle(t *testing.T) {
	g := NewGenome(1)
	g.Connections[ConnectionKey{-1, 1}] = &ConnectionGene{Key: ConnectionKey{-1, 1}}
	g.Connections[ConnectionKey{1, 2}] = &ConnectionGene{Key: ConnectionKey{1, 2}}
	g.Connections[ConnectionKey{2, 0}] = &ConnectionGene{Key: ConnectionKey{2, 0}}

	assert.True(t, g.createsCycle(ConnectionKey{3, 3}))
	assert.True(t, g.createsCycle(ConnectionKey{0, 1}))
	assert.True(t, g.createsCycle(ConnectionKey{2, 1}))
	assert.False(t, g.createsCycle(ConnectionKey{-1, 2}))
	assert.False(t, g.createsCycle(ConnectionKey{1, 0}))
}

func TestGenomeDistance(t *testing.T) {
	g, config := configuredGenome(t)
	assert.Zero(t, g.Distance(g.Copy(), &config.Genome))

	other := g.Copy()
	other.mutateAddNode(&config.Genome, newRand())
	d := g.Distance(other, &config.Genome)
	assert.Greater(t, d, 0.0)
	assert.InDelta(t, d, other.Distance(g, &config.Genome), 1e-12)
}

func TestConfigureCrossover(t *testing.T) {
	config := parseTestConfig(t, "num_hidden", "1")
	rng := newRand()
	fit := NewGenome(1)
	fit.ConfigureNew(&config.Genome, rng)
	weak := fit.Copy()
	weak.Key = 2
	weak.mutateAddNode(&config.Genome, rng)
	fit.Fitness, weak.Fitness = 10, 1

	child := NewGenome(3)
	child.ConfigureCrossover(weak, fit, rng)

	assert.Equal(t, len(fit.Nodes), len(child.Nodes))
	for key := range child.Connections {
		assert.Contains(t, fit.Connections, key)
	}
	for key := range fit.Connections {
		assert.Contains(t, child.Connections, key)
	}
}

func TestMutateIsReproducible(t *testing.T) {
	build := func() *Genome {
		config := parseTestConfig(t, "node_add_prob", "0.5", "conn_add_prob", "0.5")
		rng := rand.New(rand.NewSource(42))
		g := NewGenome(1)
		g.ConfigureNew(&config.Genome, rng)
		for i := 0; i < 20; i++ {
			g.Mutate(&config.Genome, rng)
		}
		return g
	}
	assert.Equal(t, build(), build())
}
