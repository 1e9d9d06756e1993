package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeu5/deckbuilder-rl/core"
	erand "golang.org/x/exp/rand"
)

// Deck is what the game runner needs from a player's cards.
type Deck interface {
	DrawHand() error
	DiscardHand()
	AddToDiscard(core.Item)
	TotalVictoryPoints() int
	TotalTreasureInHand() int
	Size() int
}

var errHandNotEmpty = errors.New("trying to redraw but cards already in hand")

// PlayerDeck keeps a player's cards in three zones: draw pile, hand and
// discard pile.
type PlayerDeck struct {
	draw    []core.Item
	hand    []core.Item
	discard []core.Item

	handSize int
	rand     *erand.Rand
}

var _ Deck = &PlayerDeck{}

// NewPlayerDeck builds the starting deck, shuffles it and draws the first
// hand.
func NewPlayerDeck(catalog *core.Catalog, config Config, rand *erand.Rand) (*PlayerDeck, error) {
	treasure, ok := catalog.BaseTreasure()
	if !ok {
		return nil, fmt.Errorf("%w: no treasure item for the starting deck", core.ErrInvalidCatalog)
	}
	victory, _ := catalog.BaseVictory()

	d := &PlayerDeck{
		draw:     make([]core.Item, 0, config.StartingTreasure+config.StartingVictory),
		hand:     make([]core.Item, 0, config.HandSize),
		discard:  make([]core.Item, 0),
		handSize: config.HandSize,
		rand:     rand,
	}
	for i := 0; i < config.StartingTreasure; i++ {
		d.draw = append(d.draw, treasure)
	}
	for i := 0; i < config.StartingVictory; i++ {
		d.draw = append(d.draw, victory)
	}
	d.reshuffle()
	if err := d.DrawHand(); err != nil {
		return nil, err
	}
	return d, nil
}

// reshuffle moves the discard pile into the draw pile and shuffles it
func (d *PlayerDeck) reshuffle() {
	d.draw = append(d.draw, d.discard...)
	d.discard = d.discard[:0]
	d.rand.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// DrawHand draws up to the hand size, reshuffling the discard pile into the
// draw pile whenever the draw pile runs out.
func (d *PlayerDeck) DrawHand() error {
	if len(d.hand) > 0 {
		return errHandNotEmpty
	}
	if d.Size() == 0 {
		return fmt.Errorf("%w: %w", core.ErrInvariantViolation, core.ErrEmptyDeck)
	}
	for i := 0; i < d.handSize; i++ {
		if len(d.draw) == 0 {
			if len(d.discard) == 0 {
				// every card the player owns is in hand
				break
			}
			d.reshuffle()
		}
		d.hand = append(d.hand, d.draw[0])
		d.draw = d.draw[1:]
	}
	return nil
}

func (d *PlayerDeck) DiscardHand() {
	d.discard = append(d.discard, d.hand...)
	d.hand = d.hand[:0]
}

func (d *PlayerDeck) AddToDiscard(item core.Item) {
	d.discard = append(d.discard, item)
}

// TotalVictoryPoints sums the points of every card the player owns.
func (d *PlayerDeck) TotalVictoryPoints() int {
	total := 0
	for _, zone := range [][]core.Item{d.draw, d.hand, d.discard} {
		for _, item := range zone {
			total += item.VictoryPoints
		}
	}
	return total
}

func (d *PlayerDeck) TotalTreasureInHand() int {
	total := 0
	for _, item := range d.hand {
		total += item.TreasureValue
	}
	return total
}

func (d *PlayerDeck) Size() int {
	return len(d.draw) + len(d.hand) + len(d.discard)
}

func (d *PlayerDeck) Hand() []core.Item {
	out := make([]core.Item, len(d.hand))
	copy(out, d.hand)
	return out
}

// Composition counts the owned cards by item name.
func (d *PlayerDeck) Composition() map[string]int {
	out := make(map[string]int)
	for _, zone := range [][]core.Item{d.draw, d.hand, d.discard} {
		for _, item := range zone {
			out[item.Name]++
		}
	}
	return out
}

func (d *PlayerDeck) String() string {
	b := new(strings.Builder)
	for _, zone := range []struct {
		name  string
		items []core.Item
	}{{"Hand", d.hand}, {"Draw", d.draw}, {"Discard", d.discard}} {
		fmt.Fprintf(b, "\n\t%-8s", zone.name+":")
		for _, item := range zone.items {
			fmt.Fprintf(b, " %s", item.Name)
		}
	}
	return b.String()
}
