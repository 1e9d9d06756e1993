package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Category string

const (
	Treasure Category = "treasure"
	Victory  Category = "victory"
)

// Item is a purchasable card descriptor. Items are values and never mutated.
type Item struct {
	Name          string   `yaml:"name" json:"name"`
	Category      Category `yaml:"category" json:"category"`
	Cost          int      `yaml:"cost" json:"cost"`
	TreasureValue int      `yaml:"treasure_value" json:"treasure_value"`
	VictoryPoints int      `yaml:"victory_points" json:"victory_points"`
}

// Catalog is the fixed, ordered table of items shared by every component of a
// simulation. The order of the items defines the index used by policy rows.
type Catalog struct {
	items    []Item
	index    map[string]int
	province int
}

func NewCatalog(items ...Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrInvalidCatalog)
	}
	c := &Catalog{
		items:    make([]Item, len(items)),
		index:    make(map[string]int),
		province: -1,
	}
	for i, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidCatalog, i)
		}
		if _, ok := c.index[item.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate item %s", ErrInvalidCatalog, item.Name)
		}
		if item.Category != Treasure && item.Category != Victory {
			return nil, fmt.Errorf("%w: item %s has unknown category %q", ErrInvalidCatalog, item.Name, item.Category)
		}
		if item.Cost < 0 || item.TreasureValue < 0 || item.VictoryPoints < 0 {
			return nil, fmt.Errorf("%w: item %s has negative stats", ErrInvalidCatalog, item.Name)
		}
		c.items[i] = item
		c.index[item.Name] = i

		if item.Category == Victory && (c.province == -1 || item.Cost > c.items[c.province].Cost) {
			c.province = i
		}
	}
	if c.province == -1 {
		return nil, fmt.Errorf("%w: no victory item", ErrInvalidCatalog)
	}
	return c, nil
}

// DefaultCatalog returns the six item table: three treasure tiers and three
// victory tiers.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Item{Name: "copper", Category: Treasure, Cost: 0, TreasureValue: 1},
		Item{Name: "silver", Category: Treasure, Cost: 3, TreasureValue: 2},
		Item{Name: "gold", Category: Treasure, Cost: 6, TreasureValue: 3},
		Item{Name: "estate", Category: Victory, Cost: 2, VictoryPoints: 1},
		Item{Name: "duchy", Category: Victory, Cost: 5, VictoryPoints: 3},
		Item{Name: "province", Category: Victory, Cost: 8, VictoryPoints: 6},
	)
	if err != nil {
		panic(err)
	}
	return c
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// LoadCatalog reads a catalog from a yaml file of the form
//
//	items:
//	  - name: copper
//	    category: treasure
//	    cost: 0
//	    treasure_value: 1
func LoadCatalog(path string) (*Catalog, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(bs, &f); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}
	return NewCatalog(f.Items...)
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) Item(i int) Item {
	return c.items[i]
}

// Items returns a copy of the item table in catalog order
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Names() []string {
	out := make([]string, len(c.items))
	for i, item := range c.items {
		out[i] = item.Name
	}
	return out
}

// Index returns the position of the named item, or -1 and false.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	if !ok {
		return -1, false
	}
	return i, true
}

func (c *Catalog) MustIndex(name string) int {
	i, ok := c.index[name]
	if !ok {
		panic(fmt.Sprintf("unknown item %s", name))
	}
	return i
}

// Province is the highest-cost victory item. Depleting its pile ends a game.
func (c *Catalog) Province() Item {
	return c.items[c.province]
}

func (c *Catalog) ProvinceIndex() int {
	return c.province
}

// BaseTreasure is the cheapest treasure item, the treasure of a starting deck.
func (c *Catalog) BaseTreasure() (Item, bool) {
	return c.cheapest(Treasure)
}

// BaseVictory is the cheapest victory item, the victory card of a starting deck.
func (c *Catalog) BaseVictory() (Item, bool) {
	return c.cheapest(Victory)
}

func (c *Catalog) cheapest(category Category) (Item, bool) {
	found := -1
	for i, item := range c.items {
		if item.Category != category {
			continue
		}
		if found == -1 || item.Cost < c.items[found].Cost {
			found = i
		}
	}
	if found == -1 {
		return Item{}, false
	}
	return c.items[found], true
}

// Equal reports whether both catalogs hold the same items in the same order.
func (c *Catalog) Equal(other *Catalog) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil || len(c.items) != len(other.items) {
		return false
	}
	for i := range c.items {
		if c.items[i] != other.items[i] {
			return false
		}
	}
	return true
}

func (c *Catalog) String() string {
	return strings.Join(c.Names(), ",")
}
