package policies

import (
	"github.com/zeu5/deckbuilder-rl/core"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// PurchaseSelector draws an item from a policy row restricted to the items
// that can legally be bought this turn.
type PurchaseSelector struct {
	rand core.Uniform
}

func NewPurchaseSelector(rand core.Uniform) *PurchaseSelector {
	return &PurchaseSelector{
		rand: rand,
	}
}

// Select returns the catalog index of the chosen item. legal holds catalog
// indices; it is scanned in catalog order so a fixed random stream always
// yields the same choice. Returns false only when legal is empty.
func (s *PurchaseSelector) Select(row *RoundPolicy, legal []int) (int, bool) {
	if len(legal) == 0 {
		return -1, false
	}
	order := slices.Clone(legal)
	slices.Sort(order)

	weights := make([]float64, len(order))
	for k, i := range order {
		weights[k] = row.Weight(i)
	}
	total := floats.Sum(weights)
	if total <= 0 {
		// every legal item has zero mass, fall back to uniform
		for k := range weights {
			weights[k] = 1
		}
		total = float64(len(weights))
	}

	draw := s.rand.Float64()
	cumulative := 0.0
	for k, i := range order[:len(order)-1] {
		cumulative += weights[k] / total
		if draw < cumulative {
			return i, true
		}
	}
	// whatever mass rounding left over belongs to the last legal item
	return order[len(order)-1], true
}
