package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/util"
)

type winDataset struct {
	Games        int
	Wins         map[string]int
	WinnerPoints []int
	MeanPoints   float64
	Purchases    map[string]int
	Reasons      map[string]int
}

func (w *winDataset) Copy() *winDataset {
	return &winDataset{
		Games:        w.Games,
		Wins:         util.CopyStringIntMap(w.Wins),
		WinnerPoints: util.CopyIntSlice(w.WinnerPoints),
		MeanPoints:   w.MeanPoints,
		Purchases:    util.CopyStringIntMap(w.Purchases),
		Reasons:      util.CopyStringIntMap(w.Reasons),
	}
}

func newWinDataset() *winDataset {
	return &winDataset{
		Wins:         make(map[string]int),
		WinnerPoints: make([]int, 0),
		Purchases:    make(map[string]int),
		Reasons:      make(map[string]int),
	}
}

// WinAnalyzer counts wins per agent, purchases per item and how games ended.
type WinAnalyzer struct {
	dataset     *winDataset
	totalPoints int
}

var _ core.Analyzer = &WinAnalyzer{}

func NewWinAnalyzer() *WinAnalyzer {
	return &WinAnalyzer{
		dataset: newWinDataset(),
	}
}

func (w *WinAnalyzer) Reset() {
	w.dataset = newWinDataset()
	w.totalPoints = 0
}

func (w *WinAnalyzer) Analyze(gCtx *core.GameContext, result *core.GameResult) {
	w.dataset.Games++
	w.dataset.Wins[result.Winner]++
	w.dataset.WinnerPoints = append(w.dataset.WinnerPoints, result.WinnerPoints)
	w.dataset.Reasons[result.Reason]++
	w.totalPoints += result.WinnerPoints
	w.dataset.MeanPoints = float64(w.totalPoints) / float64(w.dataset.Games)

	if gCtx.Trace == nil {
		return
	}
	for i := 0; i < gCtx.Trace.Len(); i++ {
		w.dataset.Purchases[gCtx.Trace.Purchase(i).Item]++
	}
}

func (w *WinAnalyzer) DataSet() core.DataSet {
	return w.dataset.Copy()
}

type WinAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &WinAnalyzerConstructor{}

func (*WinAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewWinAnalyzer()
}

// WinComparator writes the win datasets of every experiment to one json file
type WinComparator struct {
	savePath string
}

var _ core.Comparator = &WinComparator{}

func NewWinComparator(savePath string) *WinComparator {
	return &WinComparator{
		savePath: path.Join(savePath, "wins.json"),
	}
}

func (w *WinComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*winDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*winDataset)
		if !ok {
			continue
		}
		out[name] = ds
	}
	util.SaveJson(w.savePath, out)
}

type WinComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &WinComparatorConstructor{}

func NewWinComparatorConstructor(savePath string) *WinComparatorConstructor {
	return &WinComparatorConstructor{
		savePath: savePath,
	}
}

func (w *WinComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewWinComparator(path.Join(w.savePath, strconv.Itoa(run)))
}
