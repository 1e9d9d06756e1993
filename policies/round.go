package policies

import (
	"fmt"
	"math"

	"github.com/zeu5/deckbuilder-rl/core"
	"gonum.org/v1/gonum/floats"
)

// SumTolerance is the allowed deviation of a normalized row sum from 1.
const SumTolerance = 1e-9

// RoundPolicy is the probability of buying each catalog item in one round.
// Entries are indexed in catalog order.
type RoundPolicy struct {
	weights []float64
	rate    float64
}

// NewUniformRound creates a row where every item is equally likely.
// rate is the reinforcement rate used by Reinforce.
func NewUniformRound(size int, rate float64) *RoundPolicy {
	weights := make([]float64, size)
	for i := range weights {
		weights[i] = 1 / float64(size)
	}
	return &RoundPolicy{
		weights: weights,
		rate:    rate,
	}
}

func (r *RoundPolicy) Len() int {
	return len(r.weights)
}

func (r *RoundPolicy) Rate() float64 {
	return r.rate
}

// Probabilities returns a copy of the row.
func (r *RoundPolicy) Probabilities() []float64 {
	out := make([]float64, len(r.weights))
	copy(out, r.weights)
	return out
}

func (r *RoundPolicy) Weight(i int) float64 {
	return r.weights[i]
}

// Reinforce pulls the weight at i toward one: w += rate*(1-w).
// The row is no longer normalized afterwards, callers follow up with
// Renormalize.
func (r *RoundPolicy) Reinforce(i int) {
	r.weights[i] += r.rate * (1 - r.weights[i])
}

// Renormalize divides every entry by the row sum.
func (r *RoundPolicy) Renormalize() error {
	sum := floats.Sum(r.weights)
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: row sum is %v", core.ErrInvariantViolation, sum)
	}
	floats.Scale(1/sum, r.weights)

	if low := floats.Min(r.weights); low < 0 {
		return fmt.Errorf("%w: negative probability %v", core.ErrInvariantViolation, low)
	}
	if sum = floats.Sum(r.weights); math.Abs(sum-1) > SumTolerance {
		return fmt.Errorf("%w: normalized row sums to %v", core.ErrInvariantViolation, sum)
	}
	return nil
}

// BlendTowardUniform adds amount to every entry, raising the floor of items
// the lineage has stopped buying.
func (r *RoundPolicy) BlendTowardUniform(amount float64) {
	if amount <= 0 {
		return
	}
	floats.AddConst(amount, r.weights)
}

// Spread is the ratio between the largest and smallest entry.
func (r *RoundPolicy) Spread() float64 {
	low := floats.Min(r.weights)
	if low == 0 {
		return math.Inf(1)
	}
	return floats.Max(r.weights) / low
}

func (r *RoundPolicy) copy() *RoundPolicy {
	return &RoundPolicy{
		weights: r.Probabilities(),
		rate:    r.rate,
	}
}
