package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-racer/neat"
)

func genomeConfig(inputs, outputs int) *neat.GenomeConfig {
	gc := &neat.GenomeConfig{NumInputs: inputs, NumOutputs: outputs, FeedForward: true}
	for i := 0; i < inputs; i++ {
		gc.InputKeys = append(gc.InputKeys, -(i + 1))
	}
	for i := 0; i < outputs; i++ {
		gc.OutputKeys = append(gc.OutputKeys, i)
	}
	return gc
}

func node(key int, bias float64) *neat.NodeGene {
	return &neat.NodeGene{Key: key, Bias: bias, Response: 1, Activation: "identity", Aggregation: "sum"}
}

func connect(g *neat.Genome, in, out int, w float64) *neat.ConnectionGene {
	key := neat.ConnectionKey{InNodeID: in, OutNodeID: out}
	c := &neat.ConnectionGene{Key: key, Weight: w, Enabled: true}
	g.Connections[key] = c
	return c
}

func TestActivateDirect(t *testing.T) {
	g := neat.NewGenome(1)
	g.Nodes[0] = node(0, 0.5)
	connect(g, -1, 0, 1)
	connect(g, -2, 0, 2)

	net, err := CreateFeedForwardNetwork(g, genomeConfig(2, 1))
	require.NoError(t, err)
	out, err := net.Activate([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{5.5}, out)

	t.Run("activations are independent", func(t *testing.T) {
		out, err := net.Activate([]float64{0, 0})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5}, out)
	})
}

func TestActivateHiddenChain(t *testing.T) {
	g := neat.NewGenome(1)
	g.Nodes[0] = node(0, 0)
	g.Nodes[1] = node(1, 0)
	g.Nodes[2] = node(2, 0)
	connect(g, -1, 1, 2)
	connect(g, 1, 2, 3)
	connect(g, 2, 0, 0.5)
	connect(g, -1, 0, 1).Enabled = false

	net, err := CreateFeedForwardNetwork(g, genomeConfig(1, 1))
	require.NoError(t, err)
	out, err := net.Activate([]float64{2})
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, out)
}

func TestUnreachableNodesAreSkipped(t *testing.T) {
	g := neat.NewGenome(1)
	g.Nodes[0] = node(0, 0)
	g.Nodes[1] = node(1, 0)
	g.Nodes[1].Activation = "not-a-function"
	connect(g, -1, 0, 1)
	connect(g, -1, 1, 1)

	net, err := CreateFeedForwardNetwork(g, genomeConfig(1, 1))
	require.NoError(t, err)
	out, err := net.Activate([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, out)
}

func TestUnconnectedOutput(t *testing.T) {
	g := neat.NewGenome(1)
	g.Nodes[0] = node(0, 0.25)
	g.Nodes[1] = node(1, 0)
	connect(g, -1, 1, 1)

	net, err := CreateFeedForwardNetwork(g, genomeConfig(1, 2))
	require.NoError(t, err)
	out, err := net.Activate([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 4}, out)
}

func TestCreateErrors(t *testing.T) {
	t.Run("recurrent config", func(t *testing.T) {
		gc := genomeConfig(1, 1)
		gc.FeedForward = false
		_, err := CreateFeedForwardNetwork(neat.NewGenome(1), gc)
		assert.Error(t, err)
	})

	t.Run("cycle", func(t *testing.T) {
		g := neat.NewGenome(1)
		g.Nodes[0] = node(0, 0)
		g.Nodes[1] = node(1, 0)
		g.Nodes[2] = node(2, 0)
		connect(g, -1, 1, 1)
		connect(g, 1, 2, 1)
		connect(g, 2, 1, 1)
		connect(g, 2, 0, 1)
		_, err := CreateFeedForwardNetwork(g, genomeConfig(1, 1))
		assert.ErrorContains(t, err, "cycle")
	})

	t.Run("wrong input count", func(t *testing.T) {
		g := neat.NewGenome(1)
		g.Nodes[0] = node(0, 0)
		net, err := CreateFeedForwardNetwork(g, genomeConfig(2, 1))
		require.NoError(t, err)
		_, err = net.Activate([]float64{1})
		assert.Error(t, err)
	})
}
