package calculation

import (
	"math"

	"github.com/shopspring/decimal"
)

const meanEpsilon = 1e-6

// ComputeMetric scores a completed simulation: the net present value of the
// yearly utility stream, rounded to the nearest integer, minus a volatility
// penalty proportional to the coefficient of variation. A smooth utility
// stream beats a spiky one with the same NPV. An empty stream scores
// negative infinity.
func ComputeMetric(utilities []decimal.Decimal, discountRate, volatilityPenalty float64) float64 {
	if len(utilities) == 0 {
		return math.Inf(-1)
	}

	values := make([]float64, len(utilities))
	for i, u := range utilities {
		values[i] = u.InexactFloat64()
	}

	npv := 0.0
	for i, v := range values {
		npv += v / math.Pow(1+discountRate, float64(i))
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	cv := 0.0
	if math.Abs(mean) > meanEpsilon {
		cv = math.Abs(math.Sqrt(variance) / mean)
	}

	return math.Round(npv) - volatilityPenalty*cv
}
