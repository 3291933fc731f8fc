package simulator

import (
	"math"
	"math/rand"
)

// gauss draws from a normal distribution with the given mean and standard
// deviation using the supplied generator.
func gauss(rng *rand.Rand, mean, stddev float64) float64 {
	return rng.NormFloat64()*stddev + mean
}

// randInt draws a uniform integer in [low, high] inclusive.
func randInt(rng *rand.Rand, low, high int) int {
	if high <= low {
		return low
	}
	return low + rng.Intn(high-low+1)
}

// triangular draws from a triangular distribution bounded by [low, high] with
// the given mode. Used for stat magnitudes so draws cluster around realistic
// values without long tails.
func triangular(rng *rand.Rand, low, mode, high float64) float64 {
	if high <= low {
		return low
	}
	u := rng.Float64()
	c := (mode - low) / (high - low)
	if u < c {
		return low + math.Sqrt(u*(high-low)*(mode-low))
	}
	return high - math.Sqrt((1-u)*(high-low)*(high-mode))
}

// triangularInt draws a triangular sample rounded to the nearest integer.
func triangularInt(rng *rand.Rand, low, mode, high int) int {
	return int(math.Round(triangular(rng, float64(low), float64(mode), float64(high))))
}

// weightedPick returns an index drawn from the categorical distribution
// defined by weights. Weights do not need to sum to one.
func weightedPick(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if roll <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}
