package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zeu5/deckbuilder-rl/config"
)

var (
	flags      *config.Flags = config.DefaultFlags()
	configPath string

	savePath       string
	parallelism    int
	debug          bool
	catalogPath    string
	seedPolicyPath string

	agents             []string
	supplySize         int
	handSize           int
	startingTreasure   int
	startingVictory    int
	depletedPilesToEnd int
	maxTurns           int

	rounds        int
	reinforceRate float64
	smoothEvery   int
	smoothAmount  float64
	seed          uint64

	numRuns              int
	games                int
	batches              []int
	lineages             int
	reportEvery          int
	maxConsecutiveErrors int
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Yaml file with flag values, explicit flags take precedence")
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", flags.Parallelism, "Number of parallel lineages")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Debug logging and purchase traces")
	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", flags.CatalogPath, "Yaml item catalog (default: built-in six items)")
	cmd.PersistentFlags().StringVar(&seedPolicyPath, "seed-policy", flags.SeedPolicyPath, "Recorded policy to start the lineage from")

	cmd.PersistentFlags().StringSliceVar(&agents, "agents", flags.Agents, "Agent names")
	cmd.PersistentFlags().IntVar(&supplySize, "supply-size", flags.SupplySize, "Supply count of every item")
	cmd.PersistentFlags().IntVar(&handSize, "hand-size", flags.HandSize, "Cards drawn per hand")
	cmd.PersistentFlags().IntVar(&startingTreasure, "starting-treasure", flags.StartingTreasure, "Base treasure cards in a starting deck")
	cmd.PersistentFlags().IntVar(&startingVictory, "starting-victory", flags.StartingVictory, "Base victory cards in a starting deck")
	cmd.PersistentFlags().IntVar(&depletedPilesToEnd, "depleted-piles", flags.DepletedPilesToEnd, "Empty piles that end a game")
	cmd.PersistentFlags().IntVar(&maxTurns, "max-turns", flags.MaxTurns, "Turn limit of a game (0 = none)")

	cmd.PersistentFlags().IntVar(&rounds, "rounds", flags.Rounds, "Round capacity of the policy matrix")
	cmd.PersistentFlags().Float64Var(&reinforceRate, "reinforce-rate", flags.ReinforceRate, "Pull toward one applied to a bought item")
	cmd.PersistentFlags().IntVar(&smoothEvery, "smooth-every", flags.SmoothEvery, "Smooth the lineage policy every k games (0 = never)")
	cmd.PersistentFlags().Float64Var(&smoothAmount, "smooth-amount", flags.SmoothAmount, "Amount added to every entry when smoothing")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", flags.Seed, "Random seed (0 = time)")

	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", flags.NumRuns, "Number of runs")
	cmd.PersistentFlags().IntVar(&games, "games", flags.Games, "Games per lineage")
	cmd.PersistentFlags().IntSliceVar(&batches, "batches", flags.Batches, "Successive batch sizes of the simulate command")
	cmd.PersistentFlags().IntVar(&lineages, "lineages", flags.Lineages, "Independent lineages of the compare command")
	cmd.PersistentFlags().IntVar(&reportEvery, "report-every", flags.ReportEvery, "Progress update interval in games")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", flags.MaxConsecutiveErrors, "Maximum number of consecutive failed games")
}

// UpdateFlags loads the config file, if any, and then applies the flags set
// on the command line.
func UpdateFlags(fs *pflag.FlagSet) error {
	if configPath != "" {
		if err := flags.Load(configPath); err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
	}

	setters := map[string]func(){
		"save-path":   func() { flags.SavePath = savePath },
		"parallelism": func() { flags.Parallelism = parallelism },
		"debug":       func() { flags.Debug = debug },
		"catalog":     func() { flags.CatalogPath = catalogPath },
		"seed-policy": func() { flags.SeedPolicyPath = seedPolicyPath },

		"agents":            func() { flags.Agents = agents },
		"supply-size":       func() { flags.SupplySize = supplySize },
		"hand-size":         func() { flags.HandSize = handSize },
		"starting-treasure": func() { flags.StartingTreasure = startingTreasure },
		"starting-victory":  func() { flags.StartingVictory = startingVictory },
		"depleted-piles":    func() { flags.DepletedPilesToEnd = depletedPilesToEnd },
		"max-turns":         func() { flags.MaxTurns = maxTurns },

		"rounds":         func() { flags.Rounds = rounds },
		"reinforce-rate": func() { flags.ReinforceRate = reinforceRate },
		"smooth-every":   func() { flags.SmoothEvery = smoothEvery },
		"smooth-amount":  func() { flags.SmoothAmount = smoothAmount },
		"seed":           func() { flags.Seed = seed },

		"num-runs":               func() { flags.NumRuns = numRuns },
		"games":                  func() { flags.Games = games },
		"batches":                func() { flags.Batches = batches },
		"lineages":               func() { flags.Lineages = lineages },
		"report-every":           func() { flags.ReportEvery = reportEvery },
		"max-consecutive-errors": func() { flags.MaxConsecutiveErrors = maxConsecutiveErrors },
	}
	for name, set := range setters {
		if fs.Changed(name) {
			set()
		}
	}
	return nil
}
