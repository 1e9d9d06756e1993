package simulator

import (
	"github.com/sirupsen/logrus"
	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/policies"
)

// Constructor builds independent simulators, one per parallel worker.
type Constructor struct {
	Catalog *core.Catalog
	Config  Config
	Logger  logrus.FieldLogger
	// InitialPolicy, when set, seeds every lineage
	InitialPolicy *policies.PolicyMatrix
	// SeedStride is added to a fixed seed once per run so that every run
	// plays different games. Zero makes every run a replay of the first.
	SeedStride uint64
}

var _ core.LineageConstructor = &Constructor{}

func NewConstructor(catalog *core.Catalog, config Config, logger logrus.FieldLogger) *Constructor {
	return &Constructor{
		Catalog: catalog,
		Config:  config,
		Logger:  logger,
	}
}

// NewLineage builds a simulator for the given run on the worker with the
// given instance number. The seed depends on the run and not on the worker so
// a fixed seed replays the same games whichever worker picks the lineage up.
func (c *Constructor) NewLineage(run int, instance int) core.Lineage {
	config := c.Config
	if config.Seed != 0 {
		config.Seed += uint64(run) * c.SeedStride
	}
	logger := c.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opts := []Option{WithLogger(logger.WithFields(logrus.Fields{"run": run, "instance": instance}))}
	if c.InitialPolicy != nil {
		opts = append(opts, WithInitialPolicy(c.InitialPolicy))
	}
	s, err := New(c.Catalog, config, opts...)
	if err != nil {
		// Config.Names is checked when the comparison is prepared
		panic(err)
	}
	return s
}
