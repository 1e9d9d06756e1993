package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zeu5/deckbuilder-rl/core"
	erand "golang.org/x/exp/rand"
)

// fixedUniform replays a list of draws
type fixedUniform struct {
	draws []float64
	next  int
}

func (f *fixedUniform) Float64() float64 {
	d := f.draws[f.next%len(f.draws)]
	f.next++
	return d
}

func TestSelectEmptyLegalSet(t *testing.T) {
	s := NewPurchaseSelector(&fixedUniform{draws: []float64{0.5}})

	i, ok := s.Select(NewUniformRound(6, 0.1), nil)
	assert.False(t, ok)
	assert.Equal(t, -1, i)

	i, ok = s.Select(NewUniformRound(6, 0.1), []int{})
	assert.False(t, ok)
	assert.Equal(t, -1, i)
}

func TestSelectRestrictsToLegalItems(t *testing.T) {
	rand := erand.New(erand.NewSource(11))
	s := NewPurchaseSelector(rand)
	catalog := core.DefaultCatalog()
	m := NewUniformMatrix(catalog, 1, 0.3)
	m.Row(0).Reinforce(catalog.MustIndex("province"))
	assert.NoError(t, m.NormalizeAll())

	for n := 0; n < 1000; n++ {
		legal := make([]int, 0)
		for i := 0; i < catalog.Len(); i++ {
			if rand.Intn(2) == 0 {
				legal = append(legal, i)
			}
		}
		i, ok := s.Select(m.Row(0), legal)
		if len(legal) == 0 {
			assert.False(t, ok)
			continue
		}
		assert.True(t, ok)
		assert.Contains(t, legal, i)
	}
}

func TestSelectCumulativeScan(t *testing.T) {
	row := NewUniformRound(6, 0.1)
	legal := []int{1, 3}

	cases := []struct {
		draw     float64
		expected int
	}{
		{0.0, 1},
		{0.49, 1},
		{0.5, 3},
		{0.999999, 3},
		// residual mass goes to the last legal item
		{1.0, 3},
	}
	for _, c := range cases {
		s := NewPurchaseSelector(&fixedUniform{draws: []float64{c.draw}})
		i, ok := s.Select(row, legal)
		assert.True(t, ok)
		assert.Equal(t, c.expected, i, "draw %v", c.draw)
	}
}

func TestSelectScansInCatalogOrder(t *testing.T) {
	row := NewUniformRound(6, 0.1)

	for _, draw := range []float64{0.1, 0.4, 0.7, 0.95} {
		sorted := NewPurchaseSelector(&fixedUniform{draws: []float64{draw}})
		shuffled := NewPurchaseSelector(&fixedUniform{draws: []float64{draw}})

		a, _ := sorted.Select(row, []int{0, 2, 5})
		b, _ := shuffled.Select(row, []int{5, 0, 2})
		assert.Equal(t, a, b)
	}
}

func TestSelectRespectsWeights(t *testing.T) {
	row := &RoundPolicy{weights: []float64{0.1, 0.1, 0.6, 0.2}, rate: 0.1}
	legal := []int{0, 2, 3}

	// restricted to legal: 0.1/0.9, 0.6/0.9, 0.2/0.9
	s := NewPurchaseSelector(&fixedUniform{draws: []float64{0.05, 0.2, 0.7, 0.8}})
	picks := make([]int, 4)
	for i := range picks {
		picks[i], _ = s.Select(row, legal)
	}
	assert.Equal(t, []int{0, 2, 2, 3}, picks)
}

func TestSelectZeroMassFallsBackToUniform(t *testing.T) {
	row := &RoundPolicy{weights: []float64{0, 0, 1}, rate: 0.1}

	s := NewPurchaseSelector(&fixedUniform{draws: []float64{0.2, 0.7}})
	first, ok := s.Select(row, []int{0, 1})
	assert.True(t, ok)
	second, _ := s.Select(row, []int{0, 1})

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}
