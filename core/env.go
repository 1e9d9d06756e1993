package core

import "context"

// Uniform is the pluggable random stream consumed by the purchase selector.
// Float64 returns a value in [0, 1).
type Uniform interface {
	Float64() float64
}

// Lineage is a sequence of games whose buy policy is carried from one game's
// winner to the next game.
type Lineage interface {
	// RunGame plays one game to completion and hands the winning policy
	// forward.
	RunGame(*GameContext) (*GameResult, error)
	// Reset discards everything learned so far.
	Reset()
}

type LineageConstructor interface {
	// NewLineage creates a new lineage for the given run, on the worker with
	// the given instance number.
	NewLineage(run int, instance int) Lineage
}

type GameContext struct {
	Context context.Context
	Run     int
	Game    int

	Trace *Trace
}

func NewGameContext(ctx context.Context) *GameContext {
	return &GameContext{
		Context: ctx,
		Trace:   NewTrace(),
	}
}

// GameResult summarises a finished game.
type GameResult struct {
	Winner       string
	WinnerPoints int
	Scores       map[string]int
	Turns        int
	Rounds       int
	Reason       string
	Depleted     []string

	// Policy is a snapshot of the lineage policy after the game, one row per
	// round in catalog order.
	Policy [][]float64
	Items  []string
}
