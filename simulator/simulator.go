package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/game"
	"github.com/zeu5/deckbuilder-rl/policies"
	erand "golang.org/x/exp/rand"
)

var ErrNoAgents = errors.New("simulator needs at least one agent name")

// Config holds the parameters of a lineage of games.
type Config struct {
	Names []string
	Game  game.Config

	Rounds        int     // round capacity of the policy matrix
	ReinforceRate float64 // pull toward one applied on every purchase
	SmoothEvery   int     // smooth the lineage policy every k games (0 = never)
	SmoothAmount  float64 // amount added to every entry when smoothing
	Seed          uint64  // 0 = use time
}

func DefaultConfig(names ...string) Config {
	return Config{
		Names:         names,
		Game:          game.DefaultConfig(),
		Rounds:        policies.DefaultRounds,
		ReinforceRate: 0.05,
		SmoothEvery:   10,
		SmoothAmount:  0.01,
	}
}

// GameRecord is the summary kept for every finished game.
type GameRecord struct {
	Game         int
	Winner       string
	WinnerPoints int
	Turns        int
	Rounds       int
	Reason       string
	Purchases    int
}

// Simulator plays games back to back. Every agent of a game starts from a
// copy of the lineage policy and the winner's policy becomes the lineage
// policy for the next game.
type Simulator struct {
	config  Config
	catalog *core.Catalog
	rand    *erand.Rand
	logger  logrus.FieldLogger

	initial *policies.PolicyMatrix
	policy  *policies.PolicyMatrix
	games   int
	wins    map[string]int
	history []GameRecord
}

var _ core.Lineage = &Simulator{}

type Option func(*Simulator)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithInitialPolicy starts the lineage, and every Reset, from a copy of m
// instead of a uniform policy.
func WithInitialPolicy(m *policies.PolicyMatrix) Option {
	return func(s *Simulator) {
		s.initial = m.Clone()
	}
}

func New(catalog *core.Catalog, config Config, opts ...Option) (*Simulator, error) {
	if len(config.Names) == 0 {
		return nil, ErrNoAgents
	}
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Simulator{
		config:  config,
		catalog: catalog,
		rand:    erand.New(erand.NewSource(seed)),
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.initial != nil {
		if !s.initial.Catalog().Equal(catalog) || s.initial.Rounds() != config.Rounds {
			return nil, fmt.Errorf("%w: initial policy does not match the simulation", core.ErrCatalogMismatch)
		}
	}
	s.Reset()
	return s, nil
}

// Reset goes back to the initial lineage policy and clears the statistics.
func (s *Simulator) Reset() {
	if s.initial != nil {
		s.policy = s.initial.Clone()
	} else {
		s.policy = policies.NewUniformMatrix(s.catalog, s.config.Rounds, s.config.ReinforceRate)
	}
	s.games = 0
	s.wins = make(map[string]int)
	s.history = make([]GameRecord, 0)
}

// RunNGames plays n games in sequence.
func (s *Simulator) RunNGames(ctx context.Context, n int) error {
	start := time.Now()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		gCtx := core.NewGameContext(ctx)
		gCtx.Game = s.games
		if _, err := s.RunGame(gCtx); err != nil {
			return err
		}
	}
	s.logger.WithFields(logrus.Fields{
		"games":   n,
		"total":   s.games,
		"elapsed": time.Since(start).String(),
	}).Debug("batch complete")
	return nil
}

// RunGame plays one game and hands the winner's policy to the lineage.
func (s *Simulator) RunGame(gCtx *core.GameContext) (*core.GameResult, error) {
	players := make([]*game.Player, len(s.config.Names))
	for i, name := range s.config.Names {
		players[i] = &game.Player{
			Name:   name,
			Policy: s.policy.Clone(),
		}
	}

	runner := game.NewGameRunner(s.catalog, s.config.Game, s.rand, players...)
	result, err := runner.Run(gCtx)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", s.games, err)
	}

	next := result.Winner.Policy
	if err := next.NormalizeAll(); err != nil {
		return nil, fmt.Errorf("game %d: %w", s.games, err)
	}
	s.games++
	if s.config.SmoothEvery > 0 && s.games%s.config.SmoothEvery == 0 {
		next.SmoothAll(s.config.SmoothAmount)
		if err := next.NormalizeAll(); err != nil {
			return nil, fmt.Errorf("game %d: %w", s.games-1, err)
		}
	}
	if err := s.policy.CloneFrom(next); err != nil {
		return nil, err
	}

	winnerPoints := result.Winner.Deck.TotalVictoryPoints()
	s.wins[result.Winner.Name]++
	record := GameRecord{
		Game:         s.games - 1,
		Winner:       result.Winner.Name,
		WinnerPoints: winnerPoints,
		Turns:        result.Turns,
		Rounds:       result.Rounds,
		Reason:       result.Reason,
	}
	if gCtx.Trace != nil {
		record.Purchases = gCtx.Trace.Len()
	}
	s.history = append(s.history, record)

	s.logger.WithFields(logrus.Fields{
		"run":    gCtx.Run,
		"game":   record.Game,
		"winner": record.Winner,
		"points": record.WinnerPoints,
		"turns":  record.Turns,
		"reason": record.Reason,
	}).Debug("game over")

	return &core.GameResult{
		Winner:       record.Winner,
		WinnerPoints: winnerPoints,
		Scores:       result.ScoreMap(),
		Turns:        result.Turns,
		Rounds:       result.Rounds,
		Reason:       result.Reason,
		Depleted:     result.Depleted,
		Policy:       s.policy.Rows(),
		Items:        s.catalog.Names(),
	}, nil
}

// GameCount is the number of games played since the last Reset.
func (s *Simulator) GameCount() int {
	return s.games
}

// Policy returns a copy of the current lineage policy.
func (s *Simulator) Policy() *policies.PolicyMatrix {
	return s.policy.Clone()
}

// SetPolicy replaces the lineage policy with a copy of m.
func (s *Simulator) SetPolicy(m *policies.PolicyMatrix) error {
	return s.policy.CloneFrom(m)
}

func (s *Simulator) Wins() map[string]int {
	out := make(map[string]int)
	for name, w := range s.wins {
		out[name] = w
	}
	return out
}

func (s *Simulator) History() []GameRecord {
	out := make([]GameRecord, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Simulator) String() string {
	out := fmt.Sprintf("Games played: %d\n", s.games)
	for _, name := range s.config.Names {
		out += fmt.Sprintf("%s:\t wins: %d\n", name, s.wins[name])
	}
	return out
}
