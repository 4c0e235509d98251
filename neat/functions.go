package neat

import (
	"fmt"
	"math"
)

// ActivationFunc maps a node's aggregated, scaled input to its output.
type ActivationFunc func(x float64) float64

// AggregationFunc folds a node's weighted inputs into one value.
type AggregationFunc func(inputs []float64) float64

// ActivationFunctions maps the names accepted in activation_options to
// their implementations. The scaling constants match neat-python.
var ActivationFunctions = map[string]ActivationFunc{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"sin":      Sine,
	"gauss":    Gaussian,
	"gaussian": Gaussian,
	"relu":     ReLU,
	"identity": Identity,
	"clamped":  Clamped,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"abs":      Absolute,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
}

// AggregationFunctions maps the names accepted in aggregation_options to
// their implementations.
var AggregationFunctions = map[string]AggregationFunc{
	"sum":     AggregateSum,
	"product": AggregateProduct,
	"min":     AggregateMin,
	"max":     AggregateMax,
	"maxabs":  AggregateMaxAbs,
	"mean":    AggregateMean,
	"median":  AggregateMedian,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationFunc, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// GetAggregation retrieves an aggregation function by name.
func GetAggregation(name string) (AggregationFunc, error) {
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

func Sigmoid(x float64) float64 {
	x = clamp(5*x, -60, 60)
	return 1 / (1 + math.Exp(-x))
}

func Tanh(x float64) float64 {
	return math.Tanh(clamp(2.5*x, -60, 60))
}

func Sine(x float64) float64 {
	return math.Sin(clamp(5*x, -60, 60))
}

func Gaussian(x float64) float64 {
	x = clamp(x, -3.4, 3.4)
	return math.Exp(-5 * x * x)
}

func ReLU(x float64) float64 { return math.Max(0, x) }

func Identity(x float64) float64 { return x }

func Clamped(x float64) float64 { return clamp(x, -1, 1) }

// Inv returns 1/x, or 0 where that is undefined.
func Inv(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1 / x
}

func Log(x float64) float64 { return math.Log(math.Max(1e-7, x)) }

func Exp(x float64) float64 { return math.Exp(clamp(x, -60, 60)) }

func Absolute(x float64) float64 { return math.Abs(x) }

// Hat is a triangular pulse centred on zero.
func Hat(x float64) float64 { return math.Max(0, 1-math.Abs(x)) }

func Square(x float64) float64 { return x * x }

func Cube(x float64) float64 { return x * x * x }

func AggregateSum(inputs []float64) float64 { return Sum(inputs) }

// AggregateProduct multiplies the inputs. An empty product is 1.
func AggregateProduct(inputs []float64) float64 {
	product := 1.0
	for _, v := range inputs {
		product *= v
	}
	return product
}

func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MinFloat(inputs)
}

func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MaxFloat(inputs)
}

// AggregateMaxAbs returns the input with the largest magnitude, sign kept.
func AggregateMaxAbs(inputs []float64) float64 {
	best := 0.0
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}

func AggregateMean(inputs []float64) float64 { return Mean(inputs) }

func AggregateMedian(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return Median(inputs)
}
