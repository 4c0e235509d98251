package neat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivations(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 1, Sigmoid(100), 1e-12)
	assert.Equal(t, 0.0, Tanh(0))
	assert.Equal(t, 1.0, Gaussian(0))
	assert.Equal(t, 0.0, Inv(0))
	assert.Equal(t, 0.25, Inv(4))
	assert.False(t, math.IsInf(Log(0), 0))
	assert.False(t, math.IsInf(Exp(1000), 0))
	assert.Equal(t, 0.0, Hat(2))
	assert.Equal(t, -1.0, Clamped(-3))
	assert.Equal(t, -8.0, Cube(-2))
}

func TestAggregations(t *testing.T) {
	assert.Equal(t, 1.0, AggregateProduct(nil))
	assert.Equal(t, 6.0, AggregateProduct([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, AggregateSum(nil))
	assert.Equal(t, 0.0, AggregateMax(nil))
	assert.Equal(t, -5.0, AggregateMaxAbs([]float64{1, -5, 3}))
	assert.Equal(t, 2.5, AggregateMedian([]float64{4, 1, 3, 2}))
	assert.Equal(t, 2.0, AggregateMean([]float64{1, 2, 3}))
}

func TestFunctionLookup(t *testing.T) {
	fn, err := GetActivation("relu")
	require.NoError(t, err)
	assert.Equal(t, 0.0, fn(-1))

	_, err = GetActivation("softmax")
	assert.Error(t, err)

	agg, err := GetAggregation("min")
	require.NoError(t, err)
	assert.Equal(t, -1.0, agg([]float64{3, -1}))

	_, err = GetAggregation("mode")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Stdev([]float64{2, 4, 4, 4, 5, 5, 7, 9}))
	assert.True(t, math.IsNaN(Median(nil)))
	assert.True(t, math.IsInf(MaxFloat(nil), -1))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
}
