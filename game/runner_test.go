package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/policies"
	erand "golang.org/x/exp/rand"
)

func newPlayers(catalog *core.Catalog, rounds int, names ...string) []*Player {
	players := make([]*Player, len(names))
	for i, name := range names {
		players[i] = &Player{
			Name:   name,
			Policy: policies.NewUniformMatrix(catalog, rounds, 0.1),
		}
	}
	return players
}

// expensiveCatalog has nothing a starting hand can afford
func expensiveCatalog(t *testing.T) *core.Catalog {
	catalog, err := core.NewCatalog(
		core.Item{Name: "copper", Category: core.Treasure, Cost: 50, TreasureValue: 1},
		core.Item{Name: "estate", Category: core.Victory, Cost: 60, VictoryPoints: 1},
	)
	require.NoError(t, err)
	return catalog
}

func TestGameTerminatesWithStrictWinner(t *testing.T) {
	catalog := core.DefaultCatalog()
	config := DefaultConfig()
	config.SupplySize = 5

	for seed := uint64(1); seed <= 20; seed++ {
		players := newPlayers(catalog, policies.DefaultRounds, "AAA", "BBB")
		runner := NewGameRunner(catalog, config, erand.New(erand.NewSource(seed)), players...)
		gCtx := core.NewGameContext(context.Background())

		result, err := runner.Run(gCtx)
		require.NoError(t, err)
		require.True(t, runner.IsOver())

		assert.Contains(t, []string{ReasonPilesDepleted, ReasonProvinceDepleted}, result.Reason)
		// every purchase empties a pile by one, 6 piles of 5
		assert.LessOrEqual(t, gCtx.Trace.Len(), 6*5)
		assert.Less(t, result.Turns, config.MaxTurns)

		best := 0
		for i, score := range result.Scores {
			assert.Equal(t, result.Players[i].Deck.TotalVictoryPoints(), score)
			if score > result.Scores[best] {
				best = i
			}
		}
		assert.Same(t, result.Players[best], result.Winner)
	}
}

func TestGameEndsWhenProvincesRunOut(t *testing.T) {
	catalog := core.DefaultCatalog()
	config := DefaultConfig()
	config.SupplySize = 5

	runner := NewGameRunner(catalog, config, erand.New(erand.NewSource(9)), newPlayers(catalog, 4, "AAA", "BBB")...)
	require.NoError(t, runner.Setup())
	for i := 0; i < 5; i++ {
		require.NoError(t, runner.Stock().Take(catalog.ProvinceIndex()))
	}
	require.NoError(t, runner.Turn(nil))
	assert.True(t, runner.IsOver())

	result, err := runner.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonProvinceDepleted, result.Reason)
}

func TestEmptySupplyEndsGameAtSetup(t *testing.T) {
	catalog := core.DefaultCatalog()
	config := DefaultConfig()
	config.SupplySize = 0

	runner := NewGameRunner(catalog, config, erand.New(erand.NewSource(1)), newPlayers(catalog, 4, "AAA")...)
	result, err := runner.Run(core.NewGameContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Turns)
	assert.Equal(t, ReasonProvinceDepleted, result.Reason)
}

func TestNoLegalPurchaseIsANoOp(t *testing.T) {
	catalog := expensiveCatalog(t)
	config := DefaultConfig()
	config.SupplySize = 5
	config.MaxTurns = 20

	players := newPlayers(catalog, 2, "AAA", "BBB", "CCC")
	runner := NewGameRunner(catalog, config, erand.New(erand.NewSource(3)), players...)
	gCtx := core.NewGameContext(context.Background())

	result, err := runner.Run(gCtx)
	require.NoError(t, err)

	assert.Equal(t, ReasonTurnLimit, result.Reason)
	assert.Equal(t, 20, result.Turns)
	assert.Equal(t, 0, gCtx.Trace.Len())
	assert.Equal(t, map[string]int{"copper": 5, "estate": 5}, runner.Stock().Map())

	// rounds keep counting while the policy round saturates at the last row
	assert.Equal(t, 7, result.Rounds)
	assert.Equal(t, 1, runner.Round())

	// everyone has the same points, the first seat wins
	assert.Same(t, result.Players[0], result.Winner)
	for _, p := range players {
		assert.True(t, p.Policy.Equal(policies.NewUniformMatrix(catalog, 2, 0.1), 0))
	}
}

func TestPurchasesReinforceThePlayersPolicy(t *testing.T) {
	catalog := core.DefaultCatalog()
	config := DefaultConfig()
	config.SupplySize = 5

	players := newPlayers(catalog, policies.DefaultRounds, "AAA", "BBB")
	runner := NewGameRunner(catalog, config, erand.New(erand.NewSource(5)), players...)
	gCtx := core.NewGameContext(context.Background())
	_, err := runner.Run(gCtx)
	require.NoError(t, err)
	require.Greater(t, gCtx.Trace.Len(), 0)

	uniform := 1.0 / float64(catalog.Len())
	for _, p := range players {
		purchases := gCtx.Trace.ByPlayer(p.Name)
		require.NotEmpty(t, purchases)
		first := purchases[0]
		i := catalog.MustIndex(first.Item)
		assert.Greater(t, p.Policy.Row(first.Round).Weight(i), uniform)
		for round := 0; round < p.Policy.Rounds(); round++ {
			assert.InDelta(t, 1.0, sum(p.Policy.Row(round).Probabilities()), policies.SumTolerance)
		}
	}
}

func TestFirstTurnsStartRoundZero(t *testing.T) {
	catalog := core.DefaultCatalog()
	runner := NewGameRunner(catalog, DefaultConfig(), erand.New(erand.NewSource(8)), newPlayers(catalog, 4, "AAA", "BBB")...)
	require.NoError(t, runner.Setup())
	assert.Equal(t, -1, runner.Round())

	require.NoError(t, runner.Turn(nil))
	assert.Equal(t, 0, runner.Round())
	require.NoError(t, runner.Turn(nil))
	assert.Equal(t, 0, runner.Round())
	require.NoError(t, runner.Turn(nil))
	assert.Equal(t, 1, runner.Round())
}

func TestSetupRejectsForeignPolicy(t *testing.T) {
	players := newPlayers(expensiveCatalog(t), 2, "AAA")
	runner := NewGameRunner(core.DefaultCatalog(), DefaultConfig(), erand.New(erand.NewSource(1)), players...)

	err := runner.Setup()
	assert.ErrorIs(t, err, core.ErrCatalogMismatch)
	assert.ErrorIs(t, err, core.ErrInvariantViolation)
}

func TestSetupNeedsPlayers(t *testing.T) {
	runner := NewGameRunner(core.DefaultCatalog(), DefaultConfig(), erand.New(erand.NewSource(1)))
	assert.ErrorIs(t, runner.Setup(), ErrNoPlayers)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	catalog := core.DefaultCatalog()
	runner := NewGameRunner(catalog, DefaultConfig(), erand.New(erand.NewSource(1)), newPlayers(catalog, 4, "AAA", "BBB")...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(core.NewGameContext(ctx))
	assert.ErrorIs(t, err, context.Canceled)
}

func sum(s []float64) float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}
