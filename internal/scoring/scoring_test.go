package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/matching"
)

func ptr(f float64) *float64 { return &f }

func TestMatchValue(t *testing.T) {
	assert.Equal(t, 1.0, MatchValue(matching.Full))
	assert.Equal(t, 0.7, MatchValue(matching.NearFull))
	assert.Equal(t, 0.4, MatchValue(matching.Partial))
	assert.Equal(t, 0.0, MatchValue(matching.None))
	assert.Equal(t, 0.0, MatchValue(matching.Unknown))
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		name     string
		verdicts []matching.Verdict
		want     float64
	}{
		{name: "empty", want: 0},
		{
			name: "worked example",
			verdicts: []matching.Verdict{
				{Match: matching.Full, Importance: ptr(0.5)},
				{Match: matching.Partial, Importance: ptr(0.3)},
				{Match: matching.None, Importance: ptr(0.2)},
			},
			want: 62,
		},
		{
			name: "missing importance counts as zero",
			verdicts: []matching.Verdict{
				{Match: matching.Full, Importance: ptr(1)},
				{Match: matching.None},
			},
			want: 100,
		},
		{
			name:     "only missing importance",
			verdicts: []matching.Verdict{{Match: matching.Full}, {Match: matching.Partial}},
			want:     0,
		},
		{
			name: "negative and NaN ignored",
			verdicts: []matching.Verdict{
				{Match: matching.NearFull, Importance: ptr(1)},
				{Match: matching.None, Importance: ptr(-5)},
				{Match: matching.None, Importance: ptr(math.NaN())},
			},
			want: 70,
		},
		{
			name:     "unknown degree",
			verdicts: []matching.Verdict{{Match: matching.Unknown, Importance: ptr(1)}},
			want:     0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Aggregate(tc.verdicts), 1e-9)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 62.0, Round(61.99999999))
	assert.Equal(t, 66.67, Round(200.0/3))
	assert.Equal(t, 0.0, Round(0))
}

func TestScoreDir(t *testing.T) {
	dirs := artifacts.Dirs{Results: t.TempDir()}

	_, err := dirs.WriteResult("Jane Doe", `[
		{"requirement": "Go", "match": "FULL", "importance": 0.5},
		{"requirement": "SQL", "match": "PARTIAL", "importance": 0.3},
		{"requirement": "Rust", "match": "NONE", "importance": 0.2}
	]`)
	require.NoError(t, err)
	_, err = dirs.WriteResult("Bob", "the model refused")
	require.NoError(t, err)
	_, err = dirs.WriteResult("Empty", "[]")
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	scores, err := ScoreDir(dirs, zap.New(core))
	require.NoError(t, err)

	require.Len(t, scores, 2)
	assert.Equal(t, "Empty", scores[0].CandidateKey)
	assert.Equal(t, 0.0, scores[0].Score)
	assert.Equal(t, "Jane_Doe", scores[1].CandidateKey)
	assert.Equal(t, 62.0, Round(scores[1].Score))

	assert.Equal(t, 1, logs.FilterMessage("skipping match result").Len())
}

func TestScoreDirMissing(t *testing.T) {
	_, err := ScoreDir(artifacts.Dirs{Results: filepath.Join(t.TempDir(), "none")}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
