package simulator

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/policies"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(seed uint64) Config {
	config := DefaultConfig("AAA", "BBB")
	config.Game.SupplySize = 5
	config.Seed = seed
	return config
}

func newTestSimulator(t *testing.T, config Config, opts ...Option) *Simulator {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := New(core.DefaultCatalog(), config, opts...)
	require.NoError(t, err)
	return s
}

func TestNewNeedsAgents(t *testing.T) {
	_, err := New(core.DefaultCatalog(), DefaultConfig())
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestLearningOccursAcrossGames(t *testing.T) {
	s := newTestSimulator(t, testConfig(42))
	uniform := policies.NewUniformMatrix(core.DefaultCatalog(), policies.DefaultRounds, 0.05)
	require.True(t, s.Policy().Equal(uniform, 0))

	require.NoError(t, s.RunNGames(context.Background(), 1))
	require.NoError(t, s.RunNGames(context.Background(), 1))

	assert.Equal(t, 2, s.GameCount())
	assert.False(t, s.Policy().Equal(uniform, 1e-12))
	require.NoError(t, s.Policy().NormalizeAll())
}

func TestWinnerPolicyBecomesLineage(t *testing.T) {
	s := newTestSimulator(t, testConfig(7))

	gCtx := core.NewGameContext(context.Background())
	result, err := s.RunGame(gCtx)
	require.NoError(t, err)

	assert.Equal(t, s.Policy().Rows(), result.Policy)
	assert.Equal(t, core.DefaultCatalog().Names(), result.Items)
	assert.Equal(t, result.Scores[result.Winner], result.WinnerPoints)
	for _, score := range result.Scores {
		assert.LessOrEqual(t, score, result.WinnerPoints)
	}

	// every purchase of the winner left its mark on the lineage
	catalog := core.DefaultCatalog()
	for _, p := range gCtx.Trace.ByPlayer(result.Winner) {
		if p.Round >= policies.DefaultRounds-1 {
			continue
		}
		assert.Greater(t, result.Policy[p.Round][catalog.MustIndex(p.Item)], 1.0/6)
	}

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, result.Winner, history[0].Winner)
	assert.Equal(t, gCtx.Trace.Len(), history[0].Purchases)
	assert.Equal(t, 1, s.Wins()[result.Winner])
}

func TestPolicyIsACopy(t *testing.T) {
	s := newTestSimulator(t, testConfig(3))
	require.NoError(t, s.RunNGames(context.Background(), 2))

	before := s.Policy()
	p := s.Policy()
	p.Row(0).Reinforce(0)
	p.SmoothAll(1)

	assert.True(t, s.Policy().Equal(before, 0))
}

func TestSmoothingFlattensTheLineage(t *testing.T) {
	smoothed := testConfig(11)
	smoothed.SmoothEvery = 1
	smoothed.SmoothAmount = 0.1
	plain := testConfig(11)
	plain.SmoothEvery = 0

	a := newTestSimulator(t, smoothed)
	b := newTestSimulator(t, plain)
	ra, err := a.RunGame(core.NewGameContext(context.Background()))
	require.NoError(t, err)
	rb, err := b.RunGame(core.NewGameContext(context.Background()))
	require.NoError(t, err)

	// same seed, same first game
	require.Equal(t, rb.Winner, ra.Winner)
	require.Equal(t, rb.Turns, ra.Turns)

	pa, pb := a.Policy(), b.Policy()
	assert.False(t, pa.Equal(pb, 1e-12))
	for round := 0; round < pa.Rounds(); round++ {
		assert.LessOrEqual(t, pa.Row(round).Spread(), pb.Row(round).Spread()+1e-9)
	}
}

func TestResetReturnsToInitialPolicy(t *testing.T) {
	catalog := core.DefaultCatalog()
	initial := policies.NewUniformMatrix(catalog, policies.DefaultRounds, 0.05)
	initial.Row(0).Reinforce(catalog.MustIndex("silver"))
	require.NoError(t, initial.NormalizeAll())

	s := newTestSimulator(t, testConfig(5), WithInitialPolicy(initial))
	assert.True(t, s.Policy().Equal(initial, 0))

	require.NoError(t, s.RunNGames(context.Background(), 3))
	assert.Equal(t, 3, s.GameCount())

	s.Reset()
	assert.Equal(t, 0, s.GameCount())
	assert.Empty(t, s.History())
	assert.Empty(t, s.Wins())
	assert.True(t, s.Policy().Equal(initial, 0))
}

func TestInitialPolicyMustMatch(t *testing.T) {
	catalog := core.DefaultCatalog()
	_, err := New(catalog, testConfig(1), WithInitialPolicy(policies.NewUniformMatrix(catalog, 3, 0.05)))
	assert.ErrorIs(t, err, core.ErrCatalogMismatch)
}

func TestSetPolicy(t *testing.T) {
	catalog := core.DefaultCatalog()
	s := newTestSimulator(t, testConfig(1))
	m := policies.NewUniformMatrix(catalog, policies.DefaultRounds, 0.05)
	m.Row(4).Reinforce(catalog.MustIndex("gold"))
	require.NoError(t, m.NormalizeAll())

	require.NoError(t, s.SetPolicy(m))
	assert.True(t, s.Policy().Equal(m, 0))
}

func TestRunNGamesStopsOnCancel(t *testing.T) {
	s := newTestSimulator(t, testConfig(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.RunNGames(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.GameCount())
}

func TestConstructorBuildsIndependentLineages(t *testing.T) {
	c := NewConstructor(core.DefaultCatalog(), testConfig(9), quietLogger())

	a := c.NewLineage(0, 0).(*Simulator)
	b := c.NewLineage(0, 1).(*Simulator)
	_, err := a.RunGame(core.NewGameContext(context.Background()))
	require.NoError(t, err)

	assert.Equal(t, 1, a.GameCount())
	assert.Equal(t, 0, b.GameCount())
	assert.False(t, a.Policy().Equal(b.Policy(), 1e-12))
}

func playThree(t *testing.T, l core.Lineage) *Simulator {
	s := l.(*Simulator)
	require.NoError(t, s.RunNGames(context.Background(), 3))
	return s
}

func TestConstructorSeedsByRun(t *testing.T) {
	c := NewConstructor(core.DefaultCatalog(), testConfig(9), quietLogger())
	c.SeedStride = 4

	first := playThree(t, c.NewLineage(0, 0))
	otherWorker := playThree(t, c.NewLineage(0, 2))
	nextRun := playThree(t, c.NewLineage(1, 0))

	assert.Equal(t, first.History(), otherWorker.History())
	assert.True(t, first.Policy().Equal(otherWorker.Policy(), 0))
	assert.False(t, first.Policy().Equal(nextRun.Policy(), 1e-12))

	c.SeedStride = 0
	replay := playThree(t, c.NewLineage(1, 0))
	assert.True(t, first.Policy().Equal(replay.Policy(), 0))
}
