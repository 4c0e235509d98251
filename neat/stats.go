package neat

import (
	"math"
	"sort"
)

func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// Mean calculates the average of values, or 0 for none.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return Sum(values) / float64(len(values))
}

// Stdev calculates the population standard deviation of values.
func Stdev(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}

func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// MaxFloat returns the largest value, or -Inf for an empty slice.
func MaxFloat(values []float64) float64 {
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

// MinFloat returns the smallest value, or +Inf for an empty slice.
func MinFloat(values []float64) float64 {
	minVal := math.Inf(1)
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
	}
	return minVal
}

// Median returns the middle value, averaging the two middle values of an
// even-length slice. It returns NaN for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// StatFunctions maps species_fitness_func names to their reducers.
var StatFunctions = map[string]func([]float64) float64{
	"mean":   Mean,
	"stdev":  Stdev,
	"sum":    Sum,
	"max":    MaxFloat,
	"min":    MinFloat,
	"median": Median,
}
