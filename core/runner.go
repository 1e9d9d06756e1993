package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/gosuri/uilive"
	"github.com/zeu5/deckbuilder-rl/util"
)

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	writer io.Writer

	*RunConfig
}

type ExperimentResult struct {
	CompletedGames int
	TotalGames     int
	ErrorGames     int
	TotalTurns     int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// IsFatal reports whether the experiment stopped on an invariant violation.
func (r *ExperimentResult) IsFatal() bool {
	return errors.Is(r.Error, ErrInvariantViolation)
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	e.Lineage.Reset()

	writer := ctx.writer
	if writer == nil {
		writer = io.Discard
	}
	reportEvery := ctx.ReportEvery
	if reportEvery <= 0 {
		reportEvery = 1
	}

	consecutiveErrors := 0
GameLoop:
	for g := 0; g < ctx.Games; g++ {
		select {
		case <-ctx.ctx.Done():
			result.Error = errors.New("context cancelled")
			break GameLoop
		default:
		}

		if g%reportEvery == 0 {
			fmt.Fprintf(
				writer,
				"Experiment: %s, Run %d, Game %d/%d, Turns: %d, Error: %d\n",
				e.Name, ctx.run, g, ctx.Games, result.TotalTurns, result.ErrorGames,
			)
		}

		gCtx := NewGameContext(ctx.ctx)
		gCtx.Run = ctx.run
		gCtx.Game = g

		gameResult, err := e.Lineage.RunGame(gCtx)
		result.TotalGames++
		if err != nil {
			if errors.Is(err, ErrInvariantViolation) || errors.Is(err, context.Canceled) {
				result.Error = err
				break GameLoop
			}
			result.ErrorGames++
			if consecutiveErrors++; consecutiveErrors >= ctx.ThresholdConsecutiveErrors {
				result.Error = fmt.Errorf("%w: last error: %w", ErrTooManyErrors, err)
				break GameLoop
			}
			continue
		}
		consecutiveErrors = 0
		result.CompletedGames++
		result.TotalTurns += gameResult.Turns

		for _, a := range ctx.analyzers {
			a.Analyze(gCtx, gameResult)
		}
	}
	if result.Error != nil {
		fmt.Fprintf(writer, "Experiment: %s, Run %d, Error: %v\n", e.Name, ctx.run, result.Error)
	} else {
		fmt.Fprintf(writer, "Experiment: %s, Run %d, Games: %d/%d, Turns: %d, Error: %d\n",
			e.Name, ctx.run, result.CompletedGames, ctx.Games, result.TotalTurns, result.ErrorGames)
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result
}

// Run executes every experiment one after another. It stops at the first
// experiment that hits an invariant violation and returns that error.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) error {
	var out io.Writer = os.Stdout
	if c.Out != nil {
		out = c.Out
	}
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results := make(map[string]*ExperimentResult)

		for _, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			eCtx := &experimentRunContext{
				run:       run,
				ctx:       ctx,
				analyzers: make(map[string]Analyzer),
				writer:    out,
				RunConfig: rConfig,
			}

			for name, a := range c.Analyzers {
				a.Reset()
				eCtx.analyzers[name] = a
			}

			result := e.run(eCtx)
			if result.IsFatal() {
				return fmt.Errorf("experiment %s: %w", e.Name, result.Error)
			}
			results[e.Name] = result
		}

		names := make([]string, 0, len(c.Analyzers))
		for name := range c.Analyzers {
			names = append(names, name)
		}
		sort.Strings(names)
		compare(results, names, func(name string, experiments []string, datasets []DataSet) {
			c.Comparators[name].Compare(experiments, datasets)
		})
	}
	return nil
}

// compare gathers the datasets of every analyzer across experiments, in
// experiment name order, and hands them to the comparator.
func compare(results map[string]*ExperimentResult, analyzers []string, cmp func(string, []string, []DataSet)) {
	experimentNames := make([]string, 0, len(results))
	for name := range results {
		experimentNames = append(experimentNames, name)
	}
	sort.Strings(experimentNames)

	for _, aName := range analyzers {
		datasets := make([]DataSet, len(experimentNames))
		for i, eName := range experimentNames {
			result := results[eName]
			if result.IsError() {
				datasets[i] = nil
			} else {
				datasets[i] = result.Datasets[aName]
			}
		}
		cmp(aName, experimentNames, datasets)
	}
}

// parallelWorker is a worker that runs experiments
type parallelWorker struct {
	id int
}

// parallelWork is a struct that contains all the information needed to run an experiment
type parallelWork struct {
	experiment *ParallelExperiment
	comp       *ParallelComparison
	runNumber  int
	writer     io.Writer
	rConfig    *RunConfig
}

// parallelResult is a struct that contains the result of running an experiment
type parallelResult struct {
	experimentName string
	run            int
	result         *ExperimentResult
}

// Worker main loop that consumes work from a channel
func (w *parallelWorker) run(ctx context.Context, workCh <-chan *parallelWork, resultsCh chan<- *parallelResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, more := <-workCh:
			if !more {
				return
			}
			resultsCh <- w.runWork(ctx, work)
		}
	}
}

// Run an experiment with its own lineage and analyzers built for this worker
func (w *parallelWorker) runWork(ctx context.Context, work *parallelWork) *parallelResult {
	eCtx := &experimentRunContext{
		run:       work.runNumber,
		ctx:       ctx,
		analyzers: make(map[string]Analyzer),
		writer:    work.writer,
		RunConfig: work.rConfig,
	}

	for name, aC := range work.comp.Analyzers {
		eCtx.analyzers[name] = aC.NewAnalyzer(work.experiment.Name, w.id)
	}

	exp := &Experiment{
		Name:    work.experiment.Name,
		Lineage: work.experiment.Lineage.NewLineage(work.runNumber, w.id),
	}

	return &parallelResult{
		experimentName: work.experiment.Name,
		run:            work.runNumber,
		result:         exp.run(eCtx),
	}
}

// Run executes the experiments of every run on a pool of parallelism
// workers. Each experiment is one lineage and its games stay sequential;
// results are merged by experiment name once all of them finished.
func (c *ParallelComparison) Run(ctx context.Context, runs int, rConfig *RunConfig, parallelism int) error {
	if parallelism <= 0 {
		parallelism = 1
	}
	live := util.IsTerminal(os.Stdout)

	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		writer := uilive.New()
		if live {
			writer.Start()
			fmt.Fprintf(writer, "Run %d\n", run)
		} else {
			fmt.Fprintf(os.Stdout, "Run %d\n", run)
		}

		workCh := make(chan *parallelWork, parallelism)
		resultsCh := make(chan *parallelResult, len(c.Experiments))

		wg := new(sync.WaitGroup)
		for i := 0; i < parallelism; i++ {
			worker := &parallelWorker{id: i}
			wg.Add(1)
			go func() {
				defer wg.Done()
				worker.run(ctx, workCh, resultsCh)
			}()
		}

		go func() {
			defer close(workCh)
			for _, e := range c.Experiments {
				var out io.Writer = os.Stdout
				if live {
					out = writer.Newline()
				}
				select {
				case <-ctx.Done():
					return
				case workCh <- &parallelWork{
					experiment: e,
					comp:       c,
					runNumber:  run,
					rConfig:    rConfig,
					writer:     out,
				}:
				}
			}
		}()

		wg.Wait()
		close(resultsCh)
		if live {
			writer.Stop()
		}

		results := make(map[string]*ExperimentResult)
		var fatal error
		for r := range resultsCh {
			results[r.experimentName] = r.result
			if r.result.IsFatal() && fatal == nil {
				fatal = fmt.Errorf("experiment %s: %w", r.experimentName, r.result.Error)
			}
		}
		if fatal != nil {
			return fatal
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		names := make([]string, 0, len(c.Analyzers))
		for name := range c.Analyzers {
			names = append(names, name)
		}
		sort.Strings(names)
		compare(results, names, func(name string, experiments []string, datasets []DataSet) {
			c.Comparators[name].NewComparator(run).Compare(experiments, datasets)
		})
	}
	return nil
}
