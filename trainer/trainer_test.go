package trainer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/baldhumanity/neat-racer/neat"
	"github.com/baldhumanity/neat-racer/render"
	"github.com/baldhumanity/neat-racer/sim"
	"github.com/baldhumanity/neat-racer/track"
)

func configs(t *testing.T) (*sim.Config, *neat.Config) {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Simulation.MaxTicks = 40
	cfg.Simulation.Seed = 1

	neatCfg, err := neat.LoadConfig(filepath.Join("..", "configs", "neat-feedforward.ini"))
	require.NoError(t, err)
	neatCfg.Neat.PopSize = 8
	return cfg, neatCfg
}

func classic(t *testing.T) *track.Track {
	t.Helper()
	tr, err := track.Default()
	require.NoError(t, err)
	return tr
}

func TestNewChecksNetworkShape(t *testing.T) {
	cfg, neatCfg := configs(t)
	cfg.Sensors.Angles = []float64{45, -45}
	_, err := New(cfg, neatCfg, classic(t), nil, Options{})
	assert.ErrorContains(t, err, "num_inputs")

	cfg, neatCfg = configs(t)
	neatCfg.Genome.NumOutputs = 1
	_, err = New(cfg, neatCfg, classic(t), nil, Options{})
	assert.ErrorContains(t, err, "num_outputs")
}

func TestEvaluate(t *testing.T) {
	cfg, neatCfg := configs(t)
	core, logs := observer.New(zapcore.WarnLevel)
	tr, err := New(cfg, neatCfg, classic(t), zap.New(core), Options{Workers: 2})
	require.NoError(t, err)

	genomes := tr.Population().Population
	require.Len(t, genomes, 8)

	// Close a cycle in one genome so its network cannot be built.
	var broken *neat.Genome
	for _, g := range genomes {
		broken = g
		break
	}
	hidden := neatCfg.Genome.GetNewNodeKey()
	broken.Nodes[hidden] = &neat.NodeGene{Key: hidden, Response: 1, Activation: "tanh", Aggregation: "sum"}
	for _, k := range []neat.ConnectionKey{{InNodeID: 0, OutNodeID: hidden}, {InNodeID: hidden, OutNodeID: 0}} {
		broken.Connections[k] = &neat.ConnectionGene{Key: k, Weight: 1, Enabled: true}
	}
	broken.Fitness = 99

	require.NoError(t, tr.Evaluate(context.Background(), genomes))

	assert.Zero(t, broken.Fitness)
	for key, g := range genomes {
		if g == broken {
			continue
		}
		// Nothing on the classic track is close enough to crash into on
		// the first tick.
		assert.GreaterOrEqual(t, g.Fitness, cfg.Fitness.SurvivalReward, "genome %d", key)
	}
	failed := logs.FilterMessage("network build failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(broken.Key), failed[0].ContextMap()["genome"])
	assert.Equal(t, tr.RunID, failed[0].ContextMap()["run_id"])
}

func TestRunCheckpointsAndResume(t *testing.T) {
	cfg, neatCfg := configs(t)
	prefix := filepath.Join(t.TempDir(), "racer-")
	classicTrack := classic(t)
	tr, err := New(cfg, neatCfg, classicTrack, nil, Options{CheckpointPrefix: prefix, CheckpointEvery: 1})
	require.NoError(t, err)

	best, err := tr.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 2, tr.Population().Generation)
	assert.Len(t, tr.Stats().FitnessMean(), 2)
	assert.FileExists(t, prefix+"1")
	assert.FileExists(t, prefix+"2")

	cp, err := neat.LoadCheckpoint(prefix + "2")
	require.NoError(t, err)
	assert.Equal(t, tr.RunID, cp.Metadata[MetaRunID])
	assert.Equal(t, classicTrack.FingerprintHex(), cp.Metadata[MetaTrack])

	t.Run("resume keeps the run", func(t *testing.T) {
		cfg, neatCfg := configs(t)
		resumed, err := Resume(prefix+"2", cfg, neatCfg, classicTrack, nil, Options{})
		require.NoError(t, err)
		assert.Equal(t, tr.RunID, resumed.RunID)
		assert.Equal(t, 2, resumed.Population().Generation)

		_, err = resumed.Run(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 3, resumed.Population().Generation)
	})

	t.Run("resume refuses another track", func(t *testing.T) {
		cfg, neatCfg := configs(t)
		other, err := track.Build(&track.Definition{
			Name:        "other",
			Width:       200,
			Height:      400,
			HalfWidth:   40,
			Waypoints:   []track.Point{{X: 100, Y: 20}, {X: 100, Y: 380}},
			Finish:      track.Rect{X: 60, Y: 150, Width: 80, Height: 4},
			PlayerStart: track.Point{X: 92, Y: 200},
		}, "")
		require.NoError(t, err)
		_, err = Resume(prefix+"2", cfg, neatCfg, other, nil, Options{})
		assert.ErrorIs(t, err, ErrTrackMismatch)
	})

	t.Run("replay the best genome", func(t *testing.T) {
		frame := &render.Frame{}
		score, err := tr.Replay(context.Background(), tr.Best(), frame, nil)
		require.NoError(t, err)
		assert.InDelta(t, tr.Best().Fitness, score, 1e-9)
		assert.True(t, frame.Complete())

		_, err = tr.Replay(context.Background(), nil, nil, nil)
		assert.Error(t, err)
	})
}

func TestRunSolvedSavesWinner(t *testing.T) {
	cfg, neatCfg := configs(t)
	neatCfg.Neat.FitnessThreshold = 0
	prefix := filepath.Join(t.TempDir(), "racer-")
	tr, err := New(cfg, neatCfg, classic(t), nil, Options{CheckpointPrefix: prefix, CheckpointEvery: 1})
	require.NoError(t, err)

	best, err := tr.Run(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 0, tr.Population().Generation, "solved before reproducing")
	require.FileExists(t, prefix+"0")

	cp, err := neat.LoadCheckpoint(prefix + "0")
	require.NoError(t, err)
	require.NotNil(t, cp.BestGenome)
	assert.Equal(t, tr.Best().Key, cp.BestGenome.Key)
	assert.InDelta(t, tr.Best().Fitness, cp.BestGenome.Fitness, 1e-9)
}

func TestRunCancelled(t *testing.T) {
	cfg, neatCfg := configs(t)
	tr, err := New(cfg, neatCfg, classic(t), nil, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
