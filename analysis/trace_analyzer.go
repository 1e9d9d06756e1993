package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/zeu5/deckbuilder-rl/core"
)

// TraceAnalyzer writes the purchases of every game past a threshold to a
// text file under <savePath>/traces.
type TraceAnalyzer struct {
	savePath string
	exp      string
	// only games numbered at or above this threshold are written
	thresholdGame int
}

var _ core.Analyzer = &TraceAnalyzer{}

func NewTraceAnalyzer(savePath string, threshold int) *TraceAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "traces"), 0755)
	}
	return &TraceAnalyzer{
		savePath:      path.Join(savePath, "traces"),
		thresholdGame: threshold,
	}
}

func (a *TraceAnalyzer) Analyze(gCtx *core.GameContext, result *core.GameResult) {
	if gCtx.Game < a.thresholdGame {
		return
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", gCtx.Run, gCtx.Game)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", gCtx.Run, a.exp, gCtx.Game)
	}
	os.WriteFile(path.Join(a.savePath, fileName), []byte(TraceToString(gCtx.Trace, result)), 0644)
}

// TraceToString renders the purchases of a game followed by the final scores.
func TraceToString(trace *core.Trace, result *core.GameResult) string {
	buf := new(bytes.Buffer)
	if trace != nil {
		for i := 0; i < trace.Len(); i++ {
			p := trace.Purchase(i)
			fmt.Fprintf(buf, "Turn %d, Round %d: %s bought %s with %d treasure\n", p.Turn, p.Round, p.Player, p.Item, p.Treasure)
		}
	}
	if result == nil {
		return buf.String()
	}
	fmt.Fprintf(buf, "\nGame over (%s) after %d turns, %d rounds\n", result.Reason, result.Turns, result.Rounds)
	names := make([]string, 0, len(result.Scores))
	for name := range result.Scores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(buf, "%s: %d\n", name, result.Scores[name])
	}
	fmt.Fprintf(buf, "Winner: %s\n", result.Winner)
	return buf.String()
}

func (a *TraceAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *TraceAnalyzer) Reset() {}

type TraceAnalyzerConstructor struct {
	SavePath      string
	ThresholdGame int
}

var _ core.AnalyzerConstructor = &TraceAnalyzerConstructor{}

func NewTraceAnalyzerConstructor(savePath string, thresholdGame int) *TraceAnalyzerConstructor {
	return &TraceAnalyzerConstructor{
		SavePath:      savePath,
		ThresholdGame: thresholdGame,
	}
}

func (c *TraceAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewTraceAnalyzer(c.SavePath, c.ThresholdGame)
	a.exp = exp
	return a
}

// NoOpComparator is paired with analyzers that only write files.
type NoOpComparator struct{}

var _ core.Comparator = &NoOpComparator{}

func (n *NoOpComparator) Compare(_ []string, _ []core.DataSet) {}

type NoOpComparatorConstructor struct{}

var _ core.ComparatorConstructor = &NoOpComparatorConstructor{}

func NewNoOpComparatorConstructor() *NoOpComparatorConstructor {
	return &NoOpComparatorConstructor{}
}

func (n *NoOpComparatorConstructor) NewComparator(_ int) core.Comparator {
	return &NoOpComparator{}
}
