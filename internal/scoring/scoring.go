// Package scoring turns per-requirement verdicts into one weighted score per candidate.
package scoring

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/matching"
)

// CandidateScore is the unrounded score of one candidate, between 0 and 100.
type CandidateScore struct {
	CandidateKey string
	Score        float64
}

// MatchValue maps a degree to its contribution. Unknown degrees count as 0.
func MatchValue(d matching.Degree) float64 {
	switch d {
	case matching.Full:
		return 1.0
	case matching.NearFull:
		return 0.7
	case matching.Partial:
		return 0.4
	default:
		return 0.0
	}
}

// Aggregate returns the importance-weighted mean of the match values scaled to 0..100.
// Missing, negative and NaN importances contribute nothing. A non-positive total
// importance yields 0.
func Aggregate(verdicts []matching.Verdict) float64 {
	var numerator, denominator float64

	for _, v := range verdicts {
		importance := v.ImportanceValue()
		if math.IsNaN(importance) || math.IsInf(importance, 0) || importance <= 0 {
			continue
		}
		numerator += MatchValue(v.Match) * importance
		denominator += importance
	}

	if denominator <= 0 {
		return 0
	}
	return numerator / denominator * 100
}

// Round rounds to two decimals for presentation.
func Round(score float64) float64 {
	return math.Round(score*100) / 100
}

// ScoreFile reads one raw match result and aggregates its verdicts.
func ScoreFile(path string) (CandidateScore, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CandidateScore{}, nil, fmt.Errorf("read match result: %w", err)
	}

	verdicts, issues, err := matching.ParseVerdicts(string(data))
	if err != nil {
		return CandidateScore{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	return CandidateScore{CandidateKey: artifacts.ResultKey(path), Score: Aggregate(verdicts)}, issues, nil
}

// ScoreDir scores every match result in dirs. Unreadable or unparseable files are
// skipped with a warning.
func ScoreDir(dirs artifacts.Dirs, logger *zap.Logger) ([]CandidateScore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := dirs.ListResults()
	if err != nil {
		return nil, err
	}

	scores := make([]CandidateScore, 0, len(entries))
	for _, entry := range entries {
		score, issues, err := ScoreFile(entry.Path)
		if err != nil {
			logger.Warn("skipping match result", zap.String("path", entry.Path), zap.Error(err))
			continue
		}
		for _, issue := range issues {
			logger.Warn("malformed verdict", zap.String("path", entry.Path), zap.Error(issue))
		}
		scores = append(scores, score)
	}

	return scores, nil
}
