package config

import (
	"errors"
	"fmt"
	"path"

	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/game"
	"github.com/zeu5/deckbuilder-rl/policies"
	"github.com/zeu5/deckbuilder-rl/simulator"
	"github.com/zeu5/deckbuilder-rl/util"
)

var ErrInvalidFlags = errors.New("invalid flags")

type Flags struct {
	GameFlags    `yaml:",inline"`
	LineageFlags `yaml:",inline"`
	RunFlags     `yaml:",inline"`

	SavePath    string `yaml:"save_path"`
	Parallelism int    `yaml:"parallelism"`
	Debug       bool   `yaml:"debug"`
	// CatalogPath points to a yaml item table, the default catalog is used
	// when empty
	CatalogPath string `yaml:"catalog"`
	// SeedPolicyPath points to a policy recorded by a previous run
	SeedPolicyPath string `yaml:"seed_policy"`
}

type GameFlags struct {
	Agents             []string `yaml:"agents"`
	SupplySize         int      `yaml:"supply_size"`
	HandSize           int      `yaml:"hand_size"`
	StartingTreasure   int      `yaml:"starting_treasure"`
	StartingVictory    int      `yaml:"starting_victory"`
	DepletedPilesToEnd int      `yaml:"depleted_piles_to_end"`
	MaxTurns           int      `yaml:"max_turns"`
}

type LineageFlags struct {
	Rounds        int     `yaml:"rounds"`
	ReinforceRate float64 `yaml:"reinforce_rate"`
	SmoothEvery   int     `yaml:"smooth_every"`
	SmoothAmount  float64 `yaml:"smooth_amount"`
	Seed          uint64  `yaml:"seed"`
}

type RunFlags struct {
	NumRuns              int   `yaml:"num_runs"`
	Games                int   `yaml:"games"`
	Batches              []int `yaml:"batches"`
	Lineages             int   `yaml:"lineages"`
	ReportEvery          int   `yaml:"report_every"`
	MaxConsecutiveErrors int   `yaml:"max_consecutive_errors"`
}

func DefaultFlags() *Flags {
	g := game.DefaultConfig()
	l := simulator.DefaultConfig()
	return &Flags{
		GameFlags: GameFlags{
			Agents:             []string{"AAA", "BBB", "CCC", "DDD"},
			SupplySize:         g.SupplySize,
			HandSize:           g.HandSize,
			StartingTreasure:   g.StartingTreasure,
			StartingVictory:    g.StartingVictory,
			DepletedPilesToEnd: g.DepletedPilesToEnd,
			MaxTurns:           g.MaxTurns,
		},
		LineageFlags: LineageFlags{
			Rounds:        l.Rounds,
			ReinforceRate: l.ReinforceRate,
			SmoothEvery:   l.SmoothEvery,
			SmoothAmount:  l.SmoothAmount,
			Seed:          0,
		},
		RunFlags: RunFlags{
			NumRuns:              1,
			Games:                1000,
			Batches:              []int{500, 1000, 2000, 5000},
			Lineages:             4,
			ReportEvery:          50,
			MaxConsecutiveErrors: 1,
		},
		SavePath:    "results",
		Parallelism: 4,
		Debug:       false,
	}
}

// Validate rejects values that would end every game before a purchase or
// that no component can run with. All problems are reported at once.
func (f *Flags) Validate() error {
	errs := make([]error, 0)
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidFlags}, args...)...))
		}
	}

	check(len(f.Agents) > 0, "at least one agent is needed")
	check(f.SupplySize > 0, "supply-size must be positive, got %d", f.SupplySize)
	check(f.HandSize > 0, "hand-size must be positive, got %d", f.HandSize)
	check(f.StartingTreasure >= 0 && f.StartingVictory >= 0, "starting cards cannot be negative")
	check(f.StartingTreasure+f.StartingVictory >= f.HandSize,
		"starting deck of %d cards is smaller than a hand of %d", f.StartingTreasure+f.StartingVictory, f.HandSize)
	check(f.DepletedPilesToEnd > 0, "depleted-piles must be positive, got %d", f.DepletedPilesToEnd)
	check(f.MaxTurns >= 0, "max-turns cannot be negative, got %d", f.MaxTurns)

	check(f.Rounds > 0, "rounds must be positive, got %d", f.Rounds)
	check(f.ReinforceRate >= 0 && f.ReinforceRate <= 1, "reinforce-rate must be in [0, 1], got %v", f.ReinforceRate)
	check(f.SmoothEvery >= 0, "smooth-every cannot be negative, got %d", f.SmoothEvery)
	check(f.SmoothAmount >= 0, "smooth-amount cannot be negative, got %v", f.SmoothAmount)

	check(f.NumRuns > 0, "num-runs must be positive, got %d", f.NumRuns)
	check(f.Games >= 0, "games cannot be negative, got %d", f.Games)
	for _, b := range f.Batches {
		check(b > 0, "batch sizes must be positive, got %d", b)
	}
	check(f.Lineages > 0, "lineages must be positive, got %d", f.Lineages)
	check(f.Parallelism > 0, "parallelism must be positive, got %d", f.Parallelism)
	check(f.ReportEvery >= 0, "report-every cannot be negative, got %d", f.ReportEvery)
	check(f.MaxConsecutiveErrors > 0, "max-consecutive-errors must be positive, got %d", f.MaxConsecutiveErrors)

	return errors.Join(errs...)
}

// Load overrides the flags with the values present in a yaml file.
func (f *Flags) Load(path string) error {
	return util.LoadYaml(path, f)
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}

func (f *Flags) GameConfig() game.Config {
	return game.Config{
		SupplySize:         f.SupplySize,
		HandSize:           f.HandSize,
		StartingTreasure:   f.StartingTreasure,
		StartingVictory:    f.StartingVictory,
		DepletedPilesToEnd: f.DepletedPilesToEnd,
		MaxTurns:           f.MaxTurns,
	}
}

func (f *Flags) SimulatorConfig() simulator.Config {
	names := make([]string, len(f.Agents))
	copy(names, f.Agents)
	return simulator.Config{
		Names:         names,
		Game:          f.GameConfig(),
		Rounds:        f.Rounds,
		ReinforceRate: f.ReinforceRate,
		SmoothEvery:   f.SmoothEvery,
		SmoothAmount:  f.SmoothAmount,
		Seed:          f.Seed,
	}
}

func (f *Flags) Catalog() (*core.Catalog, error) {
	if f.CatalogPath == "" {
		return core.DefaultCatalog(), nil
	}
	return core.LoadCatalog(f.CatalogPath)
}

// SeedPolicy loads the recorded policy, or returns nil when none is
// configured.
func (f *Flags) SeedPolicy(catalog *core.Catalog) (*policies.PolicyMatrix, error) {
	if f.SeedPolicyPath == "" {
		return nil, nil
	}
	m := policies.NewUniformMatrix(catalog, f.Rounds, f.ReinforceRate)
	if err := m.Read(f.SeedPolicyPath); err != nil {
		return nil, err
	}
	return m, nil
}
