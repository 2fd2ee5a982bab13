package ranking

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-scorer/internal/scoring"
	"github.com/spigell/talent-scorer/internal/store"
)

func mustReadCSV(t *testing.T, text string) *Table {
	t.Helper()
	table, err := ReadCSV(strings.NewReader(text))
	require.NoError(t, err)
	return table
}

func scoresOf(r *Ranking) []any {
	out := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.Score == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, *row.Score)
	}
	return out
}

func namesOf(r *Ranking) []string {
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Values[0])
	}
	return out
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "janedoe", CandidateKey("Jane Doe"))
	assert.Equal(t, "janedoe", CandidateKey(" Jane\tDoe "))
	assert.Equal(t, "janedoe", ScoreKey("jane_doe"))
	assert.Equal(t, "janedoe", ScoreKey("Jane_Doe"))
	assert.NotEqual(t, CandidateKey("Jean-Luc"), ScoreKey("Jean_Luc"))
	assert.Equal(t, " janedoe", ScoreKey(" jane_doe"))
	assert.NotEqual(t, CandidateKey("Jane Doe"), ScoreKey(" jane_doe"))
}

func TestMerge(t *testing.T) {
	candidates := mustReadCSV(t, "\ufeffName,Email\nJane Doe,jane@example.com\nBob Smith,bob@example.com\nAnn Lee,ann@example.com\nZed,zed@example.com\n")
	scores := mustReadCSV(t, "Name,Score\njane_doe,62\nAnn_Lee,88.456\nZed,62\nGhost,99\n")

	ranking, err := Merge(candidates, scores, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Email", "Score"}, ranking.Header)
	assert.Equal(t, []string{"Ann Lee", "Jane Doe", "Zed", "Bob Smith"}, namesOf(ranking))
	assert.Equal(t, []any{88.456, 62.0, 62.0, nil}, scoresOf(ranking))

	table := ranking.Table()
	assert.Equal(t, []string{"Ann Lee", "ann@example.com", "88.46"}, table.Rows[0])
	assert.Equal(t, []string{"Bob Smith", "bob@example.com", ""}, table.Rows[3])
}

func TestMergeIsIdempotent(t *testing.T) {
	candidates := mustReadCSV(t, "Name,Email\nJane Doe,j@x\nBob,b@x\nAnn Lee,a@x\n")
	scores := mustReadCSV(t, "Name,Score\njane_doe,50\nbob,70\n")

	first, err := Merge(candidates, scores, nil)
	require.NoError(t, err)
	second, err := Merge(candidates, scores, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var buf bytes.Buffer
	require.NoError(t, first.Table().WriteCSV(&buf))

	again, err := Merge(mustReadCSV(t, buf.String()), scores, nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestMergeDuplicateScoreKeys(t *testing.T) {
	candidates := mustReadCSV(t, "Name\nJane Doe\n")
	scores := mustReadCSV(t, "Name,Score\njane_doe,40\nJane_Doe,80\n")

	core, logs := observer.New(zapcore.WarnLevel)
	ranking, err := Merge(candidates, scores, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, []any{80.0, 40.0}, scoresOf(ranking))
	assert.Equal(t, 1, logs.FilterMessage("candidate matches several score rows").Len())
}

func TestMergeMissingColumns(t *testing.T) {
	_, err := Merge(mustReadCSV(t, "Email\na@x\n"), mustReadCSV(t, "Name,Score\n"), nil)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = Merge(mustReadCSV(t, "Name\nA\n"), mustReadCSV(t, "Name,Points\nA,1\n"), nil)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestMergeIgnoresUnparseableScores(t *testing.T) {
	ranking, err := Merge(mustReadCSV(t, "Name\nA\nB\n"), mustReadCSV(t, "Name,Score\nA,n/a\nB,10\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, namesOf(ranking))
	assert.Equal(t, []any{10.0, nil}, scoresOf(ranking))
}

func TestTopN(t *testing.T) {
	candidates := mustReadCSV(t, "Name\nA\nB\nC\n")
	scores := mustReadCSV(t, "Name,Score\nA,1\nB,3\nC,2\n")
	ranking, err := Merge(candidates, scores, nil)
	require.NoError(t, err)

	cases := map[int][]string{
		0:  {"B"},
		-3: {"B"},
		2:  {"B", "C"},
		3:  {"B", "C", "A"},
		10: {"B", "C", "A"},
	}
	for n, want := range cases {
		assert.Equal(t, want, namesOf(ranking.TopN(n)), n)
	}

	empty := (&Ranking{Header: []string{"Name", "Score"}}).TopN(5)
	assert.Empty(t, empty.Rows)
}

func TestScoreTableKeepsPrecision(t *testing.T) {
	table := ScoreTable([]scoring.CandidateScore{{CandidateKey: "Jane_Doe", Score: 200.0 / 3}})

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))
	assert.Equal(t, "Name,Score\nJane_Doe,66.66666666666667\n", buf.String())
}

func TestWriteFileXLSX(t *testing.T) {
	ranking, err := Merge(mustReadCSV(t, "Name\nJane Doe\nBob\n"), mustReadCSV(t, "Name,Score\njane_doe,61.999\n"), nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "ranking.xlsx")
	require.NoError(t, ranking.Table().WriteFile(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Score"}, rows[0])
	assert.Equal(t, []string{"Jane Doe", "62"}, rows[1])
	assert.Equal(t, "Bob", rows[2][0])
}

func TestCandidateTable(t *testing.T) {
	record := json.RawMessage(`{"name":"Jane","location":"Paris","summary":"Engineer","technical_skills":{"programming_languages":["Go"],"frameworks":["Gin"],"skills":["SQL"]}}`)
	table := CandidateTable([]store.Candidate{
		{Name: "Jane", Email: "jane@x", Phone: "1", Record: record},
		{Name: "Bob", Email: "bob@x", Record: json.RawMessage(`not json`)},
	}, nil)

	assert.Equal(t, CandidateHeader, table.Header)
	assert.Equal(t, [][]string{
		{"Jane", "jane@x", "1", "Paris", "Engineer", "Go, Gin, SQL"},
		{"Bob", "bob@x", "", "", "", ""},
	}, table.Rows)
}
