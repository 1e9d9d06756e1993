package cmd

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zeu5/deckbuilder-rl/analysis"
	"github.com/zeu5/deckbuilder-rl/simulator"
	"github.com/zeu5/deckbuilder-rl/util"
)

func SimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one lineage in successive batches and print the policy after each",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := flags.Catalog()
			if err != nil {
				return err
			}
			opts := []simulator.Option{
				simulator.WithLogger(logrus.WithField("run_id", runID)),
			}
			seedPolicy, err := flags.SeedPolicy(catalog)
			if err != nil {
				return err
			}
			if seedPolicy != nil {
				opts = append(opts, simulator.WithInitialPolicy(seedPolicy))
			}
			sim, err := simulator.New(catalog, flags.SimulatorConfig(), opts...)
			if err != nil {
				return err
			}

			ctx, done := interruptContext()
			defer done()

			printer := util.NewTerminalPrinter(500 * time.Millisecond)
			progress := printer.NewOutput()
			printer.Start(ctx)
			if printer.IsLive() {
				logrus.SetOutput(printer.Bypass())
				defer logrus.SetOutput(os.Stderr)
			}

			reportEvery := flags.ReportEvery
			if reportEvery <= 0 {
				reportEvery = 1
			}
			for b, batch := range flags.Batches {
				start := time.Now()
				for played := 0; played < batch; played += reportEvery {
					chunk := min(reportEvery, batch-played)
					if err := sim.RunNGames(ctx, chunk); err != nil {
						printer.Stop()
						return err
					}
					progress.TrySet(fmt.Sprintf("Batch %d/%d, Games: %d/%d, Total: %d",
						b+1, len(flags.Batches), played+chunk, batch, sim.GameCount()))
				}
				policy := sim.Policy()
				logrus.WithFields(logrus.Fields{
					"batch":   b,
					"games":   batch,
					"total":   sim.GameCount(),
					"entropy": analysis.MeanEntropy(policy.Rows()),
					"elapsed": time.Since(start).String(),
				}).Info("batch complete")
				printer.Write(fmt.Sprintf("\nAfter %d games\n%s", sim.GameCount(), policy))
			}
			printer.Stop()

			printer.Write("\n" + sim.String())
			if err := util.SaveJson(path.Join(flags.SavePath, "history.json"), sim.History()); err != nil {
				return err
			}
			return sim.Policy().Record(path.Join(flags.SavePath, "policy.jsonl"))
		},
	}

	return cmd
}
