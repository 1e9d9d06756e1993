package game

import (
	"errors"
	"fmt"

	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/policies"
	erand "golang.org/x/exp/rand"
)

const (
	ReasonPilesDepleted    = "piles depleted"
	ReasonProvinceDepleted = "province depleted"
	ReasonTurnLimit        = "turn limit"
)

var ErrNoPlayers = errors.New("game needs at least one player")

type Config struct {
	SupplySize         int
	HandSize           int
	StartingTreasure   int
	StartingVictory    int
	DepletedPilesToEnd int
	// MaxTurns ends a game that keeps going without emptying piles.
	// 0 disables the limit.
	MaxTurns int
}

func DefaultConfig() Config {
	return Config{
		SupplySize:         30,
		HandSize:           5,
		StartingTreasure:   7,
		StartingVictory:    3,
		DepletedPilesToEnd: 3,
		MaxTurns:           10000,
	}
}

// Player is a non-interactive agent. It owns its deck and, for the length of
// one game, its policy matrix.
type Player struct {
	Name   string
	Deck   Deck
	Policy *policies.PolicyMatrix
}

func (p *Player) String() string {
	return fmt.Sprintf("%s: deck size %d, victory points %d", p.Name, p.Deck.Size(), p.Deck.TotalVictoryPoints())
}

// Result is the outcome of a finished game.
type Result struct {
	Winner *Player
	// Players and Scores are in rotation order
	Players  []*Player
	Scores   []int
	Turns    int
	Rounds   int
	Reason   string
	Depleted []string
}

func (r *Result) ScoreMap() map[string]int {
	out := make(map[string]int)
	for i, p := range r.Players {
		out[p.Name] = r.Scores[i]
	}
	return out
}

// GameRunner drives one game: setup, a turn per player in rotation order and
// scoring once the supply ends the game.
type GameRunner struct {
	config   Config
	catalog  *core.Catalog
	rand     *erand.Rand
	selector *policies.PurchaseSelector

	players []*Player
	stock   *Stock

	cursor int
	round  int
	rounds int
	turns  int

	setup  bool
	over   bool
	reason string
}

// NewGameRunner creates a runner for the given players. Each player's Policy
// must be owned by this game alone.
func NewGameRunner(catalog *core.Catalog, config Config, rand *erand.Rand, players ...*Player) *GameRunner {
	return &GameRunner{
		config:   config,
		catalog:  catalog,
		rand:     rand,
		selector: policies.NewPurchaseSelector(rand),
		players:  players,
		round:    -1,
	}
}

// Setup shuffles the rotation, deals starting decks and fills the supply.
func (g *GameRunner) Setup() error {
	if len(g.players) == 0 {
		return ErrNoPlayers
	}
	g.rand.Shuffle(len(g.players), func(i, j int) {
		g.players[i], g.players[j] = g.players[j], g.players[i]
	})
	for _, p := range g.players {
		if p.Policy == nil || !p.Policy.Catalog().Equal(g.catalog) {
			return fmt.Errorf("%w: %w: player %s", core.ErrInvariantViolation, core.ErrCatalogMismatch, p.Name)
		}
		deck, err := NewPlayerDeck(g.catalog, g.config, g.rand)
		if err != nil {
			return fmt.Errorf("player %s: %w", p.Name, err)
		}
		p.Deck = deck
	}
	g.stock = NewStock(g.catalog, g.config.SupplySize)
	g.cursor = 0
	g.round = -1
	g.rounds = 0
	g.turns = 0
	g.setup = true
	g.over, g.reason = g.checkOver()
	return nil
}

// Players returns the players in rotation order.
func (g *GameRunner) Players() []*Player {
	return g.players
}

func (g *GameRunner) Stock() *Stock {
	return g.stock
}

// Round is the policy round in use, saturating at the matrix capacity.
func (g *GameRunner) Round() int {
	return g.round
}

func (g *GameRunner) Turns() int {
	return g.turns
}

func (g *GameRunner) IsOver() bool {
	return g.over
}

func (g *GameRunner) checkOver() (bool, string) {
	if g.stock.IsDepletedAt(g.catalog.ProvinceIndex()) {
		return true, ReasonProvinceDepleted
	}
	if len(g.stock.Depleted()) >= g.config.DepletedPilesToEnd {
		return true, ReasonPilesDepleted
	}
	if g.config.MaxTurns > 0 && g.turns >= g.config.MaxTurns {
		return true, ReasonTurnLimit
	}
	return false, ""
}

// Turn plays the turn of the player at the cursor and advances it.
func (g *GameRunner) Turn(gCtx *core.GameContext) error {
	if !g.setup {
		return errors.New("game is not set up")
	}
	if g.over {
		return nil
	}
	player := g.players[g.cursor]
	if g.cursor == 0 {
		g.rounds++
		if g.round < player.Policy.Rounds()-1 {
			g.round++
		}
	}

	treasure := player.Deck.TotalTreasureInHand()
	row := player.Policy.Row(g.round)
	if i, ok := g.selector.Select(row, g.stock.Legal(treasure)); ok {
		if err := g.stock.Take(i); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvariantViolation, err)
		}
		item := g.catalog.Item(i)
		player.Deck.AddToDiscard(item)
		row.Reinforce(i)
		if err := row.Renormalize(); err != nil {
			return fmt.Errorf("player %s round %d: %w", player.Name, g.round, err)
		}
		if gCtx != nil && gCtx.Trace != nil {
			gCtx.Trace.AddPurchase(&core.Purchase{
				Turn:     g.turns,
				Round:    g.round,
				Player:   player.Name,
				Item:     item.Name,
				Treasure: treasure,
			})
		}
	}

	player.Deck.DiscardHand()
	if err := player.Deck.DrawHand(); err != nil {
		return fmt.Errorf("player %s: %w", player.Name, err)
	}

	g.turns++
	g.cursor = (g.cursor + 1) % len(g.players)
	g.over, g.reason = g.checkOver()
	return nil
}

// Run plays the game to completion.
func (g *GameRunner) Run(gCtx *core.GameContext) (*Result, error) {
	if !g.setup {
		if err := g.Setup(); err != nil {
			return nil, err
		}
	}
	for !g.over {
		if gCtx != nil && gCtx.Context != nil {
			select {
			case <-gCtx.Context.Done():
				return nil, gCtx.Context.Err()
			default:
			}
		}
		if err := g.Turn(gCtx); err != nil {
			return nil, err
		}
	}
	return g.result(), nil
}

// result scores every player. The first player in rotation order with the
// highest total wins, so ties go to the earlier seat.
func (g *GameRunner) result() *Result {
	scores := make([]int, len(g.players))
	winner := 0
	for i, p := range g.players {
		scores[i] = p.Deck.TotalVictoryPoints()
		if scores[i] > scores[winner] {
			winner = i
		}
	}
	return &Result{
		Winner:   g.players[winner],
		Players:  g.players,
		Scores:   scores,
		Turns:    g.turns,
		Rounds:   g.rounds,
		Reason:   g.reason,
		Depleted: g.stock.Depleted(),
	}
}

func (g *GameRunner) String() string {
	out := "\n"
	for _, p := range g.players {
		out += p.String() + "\n"
	}
	if g.stock != nil {
		out += g.stock.String() + "\n"
	}
	return out
}
