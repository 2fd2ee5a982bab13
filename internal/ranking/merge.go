package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/scoring"
)

var ErrMissingColumn = errors.New("required column is missing")

// CandidateKey normalises a display name: lower case with all whitespace removed.
func CandidateKey(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// ScoreKey normalises a score-table name: lower case with all underscores removed.
// Spaces, hyphens, accents and reordered names are not reconciled.
func ScoreKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// MergedRow is a candidate row with its score. Values align with Ranking.Header minus
// the trailing Score column.
type MergedRow struct {
	Values []string
	Score  *float64
}

// Ranking is the merged table ordered by descending score, unscored rows last.
type Ranking struct {
	Header []string
	Rows   []MergedRow
}

// ScoreTable renders scores as a Name,Score table with full precision.
func ScoreTable(scores []scoring.CandidateScore) *Table {
	t := &Table{Header: []string{ColumnName, ColumnScore}}
	for _, s := range scores {
		t.Rows = append(t.Rows, []string{s.CandidateKey, strconv.FormatFloat(s.Score, 'f', -1, 64)})
	}
	return t
}

// Merge left-joins candidates with scores on the normalised names. Every candidate row
// is kept; a key with several score rows yields one row per score. A Score column
// already present in candidates is replaced.
func Merge(candidates, scores *Table, logger *zap.Logger) (*Ranking, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if candidates == nil || scores == nil {
		return nil, errors.New("both tables are required")
	}

	nameIdx := candidates.Column(ColumnName)
	if nameIdx == -1 {
		return nil, fmt.Errorf("candidate table: %w: %s", ErrMissingColumn, ColumnName)
	}
	scoreNameIdx := scores.Column(ColumnName)
	scoreIdx := scores.Column(ColumnScore)
	if scoreNameIdx == -1 || scoreIdx == -1 {
		return nil, fmt.Errorf("score table: %w: %s, %s", ErrMissingColumn, ColumnName, ColumnScore)
	}

	byKey := make(map[string][]*float64, len(scores.Rows))
	for _, row := range scores.Rows {
		key := ScoreKey(Cell(row, scoreNameIdx))
		byKey[key] = append(byKey[key], parseScore(Cell(row, scoreIdx), logger))
	}

	staleIdx := candidates.Column(ColumnScore)
	header := dropColumn(candidates.Header, staleIdx)

	ranking := &Ranking{Header: append(header, ColumnScore)}
	for _, row := range candidates.Rows {
		name := Cell(row, nameIdx)
		values := pad(dropColumn(row, staleIdx), len(header))

		matched := byKey[CandidateKey(name)]
		switch len(matched) {
		case 0:
			ranking.Rows = append(ranking.Rows, MergedRow{Values: values})
			continue
		case 1:
		default:
			logger.Warn("candidate matches several score rows", zap.String("name", name), zap.Int("matches", len(matched)))
		}

		for _, score := range matched {
			ranking.Rows = append(ranking.Rows, MergedRow{Values: append([]string(nil), values...), Score: score})
		}
	}

	ranking.Sort()
	return ranking, nil
}

// Sort orders rows by descending score, keeping the input order for ties and putting
// unscored rows last.
func (r *Ranking) Sort() {
	sort.SliceStable(r.Rows, func(i, j int) bool {
		a, b := r.Rows[i].Score, r.Rows[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// TopN returns the first n rows with n clamped to [1, len]. An empty ranking stays empty.
func (r *Ranking) TopN(n int) *Ranking {
	top := &Ranking{Header: r.Header}
	if len(r.Rows) == 0 {
		return top
	}

	n = max(1, min(n, len(r.Rows)))
	top.Rows = append([]MergedRow(nil), r.Rows[:n]...)
	return top
}

// Table renders the ranking with scores rounded to two decimals and an empty cell
// for unscored rows.
func (r *Ranking) Table() *Table {
	t := &Table{Header: r.Header, Rows: make([][]string, 0, len(r.Rows))}
	for _, row := range r.Rows {
		score := ""
		if row.Score != nil {
			score = strconv.FormatFloat(scoring.Round(*row.Score), 'f', 2, 64)
		}
		t.Rows = append(t.Rows, append(append([]string(nil), row.Values...), score))
	}
	return t
}

func parseScore(cell string, logger *zap.Logger) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	score, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(score) {
		logger.Warn("ignoring unparseable score", zap.String("value", cell))
		return nil
	}
	return &score
}

func dropColumn(row []string, idx int) []string {
	if idx < 0 || idx >= len(row) {
		return append([]string(nil), row...)
	}
	out := make([]string, 0, len(row)-1)
	out = append(out, row[:idx]...)
	return append(out, row[idx+1:]...)
}

func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
