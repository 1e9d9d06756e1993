package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runID string

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "deckbuilder",
		Short:        "Evolve deck-building buy policies from simulated games",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := UpdateFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := flags.Validate(); err != nil {
				return err
			}
			if flags.Debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			runID = uuid.New().String()
			logrus.WithFields(logrus.Fields{
				"run_id":    runID,
				"save_path": flags.SavePath,
			}).Info("starting")
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		SimulateCommand(),
		CompareCommand(),
	)

	return cmd
}

// interruptContext is cancelled on ctrl-c or when done is closed
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
			logrus.Warn("interrupted")
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
