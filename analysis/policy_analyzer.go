package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/deckbuilder-rl/core"
	"github.com/zeu5/deckbuilder-rl/util"
	"gonum.org/v1/gonum/stat"
)

type policyDataset struct {
	// MeanEntropy is the mean row entropy (nats) of the lineage policy after
	// every game. It drops as the lineage converges.
	MeanEntropy []float64
	Items       []string
	Final       [][]float64
}

func (p *policyDataset) Copy() *policyDataset {
	final := make([][]float64, len(p.Final))
	for i, row := range p.Final {
		final[i] = util.CopyFloatSlice(row)
	}
	items := make([]string, len(p.Items))
	copy(items, p.Items)
	return &policyDataset{
		MeanEntropy: util.CopyFloatSlice(p.MeanEntropy),
		Items:       items,
		Final:       final,
	}
}

// PolicyAnalyzer tracks how the lineage policy converges.
type PolicyAnalyzer struct {
	dataset *policyDataset
}

var _ core.Analyzer = &PolicyAnalyzer{}

func NewPolicyAnalyzer() *PolicyAnalyzer {
	return &PolicyAnalyzer{
		dataset: &policyDataset{
			MeanEntropy: make([]float64, 0),
		},
	}
}

func (p *PolicyAnalyzer) Reset() {
	p.dataset = &policyDataset{
		MeanEntropy: make([]float64, 0),
	}
}

func (p *PolicyAnalyzer) Analyze(_ *core.GameContext, result *core.GameResult) {
	if len(result.Policy) == 0 {
		return
	}
	p.dataset.MeanEntropy = append(p.dataset.MeanEntropy, MeanEntropy(result.Policy))
	p.dataset.Items = result.Items
	p.dataset.Final = result.Policy
}

func (p *PolicyAnalyzer) DataSet() core.DataSet {
	return p.dataset.Copy()
}

// MeanEntropy averages the entropy of every row
func MeanEntropy(rows [][]float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, row := range rows {
		sum += stat.Entropy(row)
	}
	return sum / float64(len(rows))
}

type PolicyAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &PolicyAnalyzerConstructor{}

func (*PolicyAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewPolicyAnalyzer()
}

type PolicyComparator struct {
	savePath string
}

var _ core.Comparator = &PolicyComparator{}

func NewPolicyComparator(savePath string) *PolicyComparator {
	return &PolicyComparator{
		savePath: path.Join(savePath, "policy.json"),
	}
}

func (p *PolicyComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]*policyDataset)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*policyDataset)
		if !ok {
			continue
		}
		out[name] = ds
	}
	util.SaveJson(p.savePath, out)
}

type PolicyComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &PolicyComparatorConstructor{}

func NewPolicyComparatorConstructor(savePath string) *PolicyComparatorConstructor {
	return &PolicyComparatorConstructor{
		savePath: savePath,
	}
}

func (p *PolicyComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewPolicyComparator(path.Join(p.savePath, strconv.Itoa(run)))
}
