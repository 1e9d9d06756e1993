package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zeu5/deckbuilder-rl/analysis"
	"github.com/zeu5/deckbuilder-rl/config"
	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/simulator"
)

func CompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run independent lineages in parallel and record wins and policy convergence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmp, err := PrepareLineageComparison(flags)
			if err != nil {
				return err
			}

			ctx, done := interruptContext()
			defer done()

			return cmp.Run(ctx, flags.NumRuns, &core.RunConfig{
				Games:                      flags.Games,
				ReportEvery:                flags.ReportEvery,
				ThresholdConsecutiveErrors: flags.MaxConsecutiveErrors,
			}, flags.Parallelism)
		},
	}

	return cmd
}

// PrepareLineageComparison creates one experiment per lineage, all sharing
// the same configuration but drawing from different random streams. With a
// fixed seed, lineage i of run r starts from seed + r*lineages + i.
func PrepareLineageComparison(flags *config.Flags) (*core.ParallelComparison, error) {
	catalog, err := flags.Catalog()
	if err != nil {
		return nil, err
	}
	seedPolicy, err := flags.SeedPolicy(catalog)
	if err != nil {
		return nil, err
	}
	simConfig := flags.SimulatorConfig()
	if len(simConfig.Names) == 0 {
		return nil, simulator.ErrNoAgents
	}

	cmp := core.NewParallelComparison()
	if flags.Debug {
		cmp.AddAnalysis("Traces", analysis.NewTraceAnalyzerConstructor(flags.SavePath, flags.Games-10), analysis.NewNoOpComparatorConstructor())
	}
	cmp.AddAnalysis("Wins", &analysis.WinAnalyzerConstructor{}, analysis.NewWinComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Policy", &analysis.PolicyAnalyzerConstructor{}, analysis.NewPolicyComparatorConstructor(flags.SavePath))

	for i := 0; i < flags.Lineages; i++ {
		config := simConfig
		if config.Seed != 0 {
			config.Seed += uint64(i)
		}
		constructor := simulator.NewConstructor(catalog, config, logrus.WithField("lineage", i))
		constructor.InitialPolicy = seedPolicy
		constructor.SeedStride = uint64(flags.Lineages)
		cmp.AddExperiment(&core.ParallelExperiment{
			Name:    fmt.Sprintf("lineage-%d", i),
			Lineage: constructor,
		})
	}
	return cmp, nil
}
