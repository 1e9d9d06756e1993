package policies

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/zeu5/deckbuilder-rl/core"
	"gonum.org/v1/gonum/floats"
)

// DefaultRounds is the default round capacity of a PolicyMatrix.
const DefaultRounds = 26

// PolicyMatrix holds one RoundPolicy per round up to a fixed capacity.
// Rounds past the capacity share the last row.
type PolicyMatrix struct {
	catalog *core.Catalog
	rows    []*RoundPolicy
}

// NewUniformMatrix creates a matrix of uniform rows.
func NewUniformMatrix(catalog *core.Catalog, rounds int, rate float64) *PolicyMatrix {
	if rounds < 1 {
		rounds = 1
	}
	rows := make([]*RoundPolicy, rounds)
	for i := range rows {
		rows[i] = NewUniformRound(catalog.Len(), rate)
	}
	return &PolicyMatrix{
		catalog: catalog,
		rows:    rows,
	}
}

func (m *PolicyMatrix) Catalog() *core.Catalog {
	return m.catalog
}

func (m *PolicyMatrix) Rounds() int {
	return len(m.rows)
}

// ClampRound maps a round index into [0, Rounds()-1].
func (m *PolicyMatrix) ClampRound(round int) int {
	if round < 0 {
		return 0
	}
	if round >= len(m.rows) {
		return len(m.rows) - 1
	}
	return round
}

// Row returns the policy used in the given round.
func (m *PolicyMatrix) Row(round int) *RoundPolicy {
	return m.rows[m.ClampRound(round)]
}

// CloneFrom overwrites every row with a deep copy of other's rows.
func (m *PolicyMatrix) CloneFrom(other *PolicyMatrix) error {
	if !m.catalog.Equal(other.catalog) {
		return fmt.Errorf("%w: %w: cannot clone policy over [%s] into [%s]",
			core.ErrInvariantViolation, core.ErrCatalogMismatch, other.catalog, m.catalog)
	}
	if len(m.rows) != len(other.rows) {
		return fmt.Errorf("%w: %w: round capacity %d != %d",
			core.ErrInvariantViolation, core.ErrCatalogMismatch, len(other.rows), len(m.rows))
	}
	for i, row := range other.rows {
		m.rows[i] = row.copy()
	}
	return nil
}

// Clone returns an independent deep copy.
func (m *PolicyMatrix) Clone() *PolicyMatrix {
	rows := make([]*RoundPolicy, len(m.rows))
	for i, row := range m.rows {
		rows[i] = row.copy()
	}
	return &PolicyMatrix{
		catalog: m.catalog,
		rows:    rows,
	}
}

func (m *PolicyMatrix) NormalizeAll() error {
	for i, row := range m.rows {
		if err := row.Renormalize(); err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
	}
	return nil
}

func (m *PolicyMatrix) SmoothAll(amount float64) {
	for _, row := range m.rows {
		row.BlendTowardUniform(amount)
	}
}

// Rows returns a snapshot of the probabilities, one slice per round.
func (m *PolicyMatrix) Rows() [][]float64 {
	out := make([][]float64, len(m.rows))
	for i, row := range m.rows {
		out[i] = row.Probabilities()
	}
	return out
}

// Equal compares two matrices entry by entry within tol.
func (m *PolicyMatrix) Equal(other *PolicyMatrix, tol float64) bool {
	if !m.catalog.Equal(other.catalog) || len(m.rows) != len(other.rows) {
		return false
	}
	for i := range m.rows {
		if !floats.EqualApprox(m.rows[i].weights, other.rows[i].weights, tol) {
			return false
		}
	}
	return true
}

// String renders the matrix as a grid of percentages, one line per round.
func (m *PolicyMatrix) String() string {
	b := new(strings.Builder)
	b.WriteString("round")
	for _, name := range m.catalog.Names() {
		fmt.Fprintf(b, "\t%8s", name)
	}
	b.WriteString("\n")
	for i, row := range m.rows {
		fmt.Fprintf(b, "%5d", i)
		for _, w := range row.weights {
			fmt.Fprintf(b, "\t%7.2f%%", w*100)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type recordedRow struct {
	Round   int                `json:"round"`
	Entries map[string]float64 `json:"entries"`
}

// Record writes the matrix to path as json lines, one line per round.
func (m *PolicyMatrix) Record(path string) error {
	bs := new(bytes.Buffer)
	names := m.catalog.Names()

	for i, row := range m.rows {
		entries := make(map[string]float64)
		for j, w := range row.weights {
			entries[names[j]] = w
		}
		rowBS, err := json.Marshal(recordedRow{Round: i, Entries: entries})
		if err != nil {
			return err
		}
		bs.Write(rowBS)
		bs.Write([]byte("\n"))
	}
	return os.WriteFile(path, bs.Bytes(), 0644)
}

// Read loads rows recorded with Record. Rounds missing from the file keep
// their current values and rounds past the capacity are ignored.
func (m *PolicyMatrix) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var in recordedRow
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			return fmt.Errorf("error reading file contents: %w", err)
		}
		if in.Round < 0 || in.Round >= len(m.rows) {
			continue
		}
		if len(in.Entries) != m.catalog.Len() {
			return fmt.Errorf("%w: round %d has %d entries", core.ErrCatalogMismatch, in.Round, len(in.Entries))
		}
		weights := make([]float64, m.catalog.Len())
		for name, w := range in.Entries {
			i, ok := m.catalog.Index(name)
			if !ok {
				return fmt.Errorf("%w: %w %s", core.ErrCatalogMismatch, core.ErrUnknownItem, name)
			}
			weights[i] = w
		}
		m.rows[in.Round].weights = weights
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return m.NormalizeAll()
}
