package game

import (
	"fmt"
	"strings"

	"github.com/zeu5/deckbuilder-rl/core"
)

// Stock is the remaining supply of every catalog item for one game.
type Stock struct {
	catalog   *core.Catalog
	remaining []int
}

func NewStock(catalog *core.Catalog, size int) *Stock {
	if size < 0 {
		size = 0
	}
	remaining := make([]int, catalog.Len())
	for i := range remaining {
		remaining[i] = size
	}
	return &Stock{
		catalog:   catalog,
		remaining: remaining,
	}
}

func (s *Stock) RemainingAt(i int) int {
	return s.remaining[i]
}

func (s *Stock) Remaining(name string) int {
	i, ok := s.catalog.Index(name)
	if !ok {
		return 0
	}
	return s.remaining[i]
}

// Take removes one copy of item i from the supply.
func (s *Stock) Take(i int) error {
	if i < 0 || i >= len(s.remaining) {
		return fmt.Errorf("%w: index %d", core.ErrUnknownItem, i)
	}
	if s.remaining[i] <= 0 {
		return fmt.Errorf("%w: %s", core.ErrEmptyPile, s.catalog.Item(i).Name)
	}
	s.remaining[i]--
	return nil
}

func (s *Stock) IsDepletedAt(i int) bool {
	return s.remaining[i] <= 0
}

// Depleted returns the names of the empty piles in catalog order.
func (s *Stock) Depleted() []string {
	out := make([]string, 0)
	for i, count := range s.remaining {
		if count <= 0 {
			out = append(out, s.catalog.Item(i).Name)
		}
	}
	return out
}

// Legal returns the catalog indices of the items in stock that cost at most
// treasure.
func (s *Stock) Legal(treasure int) []int {
	out := make([]int, 0, len(s.remaining))
	for i, count := range s.remaining {
		if count > 0 && s.catalog.Item(i).Cost <= treasure {
			out = append(out, i)
		}
	}
	return out
}

func (s *Stock) Map() map[string]int {
	out := make(map[string]int)
	for i, count := range s.remaining {
		out[s.catalog.Item(i).Name] = count
	}
	return out
}

func (s *Stock) String() string {
	b := new(strings.Builder)
	b.WriteString("Supply:")
	for i, count := range s.remaining {
		fmt.Fprintf(b, " %s=%d", s.catalog.Item(i).Name, count)
	}
	return b.String()
}
