package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, 6, c.Len())
	assert.Equal(t, []string{"copper", "silver", "gold", "estate", "duchy", "province"}, c.Names())
	assert.Equal(t, "province", c.Province().Name)
	assert.Equal(t, 5, c.ProvinceIndex())

	base, ok := c.BaseTreasure()
	require.True(t, ok)
	assert.Equal(t, "copper", base.Name)
	base, ok = c.BaseVictory()
	require.True(t, ok)
	assert.Equal(t, "estate", base.Name)

	i, ok := c.Index("gold")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	_, ok = c.Index("curse")
	assert.False(t, ok)
	assert.Panics(t, func() { c.MustIndex("curse") })
}

func TestNewCatalogRejectsBadTables(t *testing.T) {
	tests := map[string][]Item{
		"empty":      {},
		"no name":    {{Category: Victory, VictoryPoints: 1}},
		"duplicate":  {{Name: "estate", Category: Victory}, {Name: "estate", Category: Victory}},
		"category":   {{Name: "estate", Category: "action"}},
		"negative":   {{Name: "estate", Category: Victory, Cost: -1}},
		"no victory": {{Name: "copper", Category: Treasure, TreasureValue: 1}},
	}
	for name, items := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(items...)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestProvinceIsCostliestVictory(t *testing.T) {
	c, err := NewCatalog(
		Item{Name: "crown", Category: Victory, Cost: 9, VictoryPoints: 5},
		Item{Name: "bead", Category: Treasure, TreasureValue: 1},
		Item{Name: "hut", Category: Victory, Cost: 1, VictoryPoints: 1},
	)
	require.NoError(t, err)
	assert.Equal(t, "crown", c.Province().Name)
	base, ok := c.BaseVictory()
	require.True(t, ok)
	assert.Equal(t, "hut", base.Name)
}

func TestCatalogEqual(t *testing.T) {
	a := DefaultCatalog()
	b := DefaultCatalog()
	assert.True(t, a.Equal(b))

	items := b.Items()
	items[0], items[1] = items[1], items[0]
	swapped, err := NewCatalog(items...)
	require.NoError(t, err)
	assert.False(t, a.Equal(swapped))
	assert.False(t, a.Equal(nil))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`items:
  - name: bead
    category: treasure
    cost: 0
    treasure_value: 1
  - name: crown
    category: victory
    cost: 4
    victory_points: 2
`), 0644))

	c, err := LoadCatalog(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"bead", "crown"}, c.Names())
	assert.Equal(t, Item{Name: "crown", Category: Victory, Cost: 4, VictoryPoints: 2}, c.Item(1))

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
