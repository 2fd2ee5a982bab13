package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/matching"
	"github.com/spigell/talent-scorer/internal/ranking"
	"github.com/spigell/talent-scorer/internal/resume"
	"github.com/spigell/talent-scorer/internal/scoring"
	"github.com/spigell/talent-scorer/internal/store"
)

// CollectDocuments expands directories into the supported resume files they contain.
// Files named explicitly are kept as given.
func CollectDocuments(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && resume.IsSupported(entry.Name()) {
				found = append(found, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// IngestStep extracts resume documents, stores the candidates and writes parsed records.
type IngestStep struct {
	Paths []string
}

func (s *IngestStep) Name() string { return "ingest" }

func (s *IngestStep) Validate(deps Deps) error {
	if deps.Extractor == nil {
		return &MissingDependencyError{Step: s.Name(), Dependency: "resume extractor"}
	}
	if deps.Store == nil {
		return &MissingDependencyError{Step: s.Name(), Dependency: "candidate store"}
	}
	return nil
}

func (s *IngestStep) Apply(ctx context.Context, deps Deps, report *Report) error {
	for _, path := range s.Paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Total++

		log := deps.Logger.With(zap.String("file", path))

		if !resume.IsSupported(path) {
			report.Skipped++
			log.Warn("skipping unsupported document")
			continue
		}

		record, err := deps.Extractor.ExtractFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.fail(path, err)
			log.Warn("resume extraction failed", zap.Error(err))
			continue
		}

		duplicate, err := s.save(ctx, deps, record)
		if err != nil {
			report.fail(path, err)
			log.Warn("saving candidate failed", zap.Error(err))
			continue
		}

		log = logger.WithCandidate(log, record.Name, "")
		if duplicate {
			report.Skipped++
			log.Warn("candidate with this email already exists", zap.String("email", record.Email))
			continue
		}

		report.Succeeded++
		log.Info("candidate ingested")
	}

	return nil
}

func (s *IngestStep) save(ctx context.Context, deps Deps, record *resume.Record) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("encode record: %w", err)
	}

	unlock := deps.Locks.Lock(artifacts.Sanitize(record.Name))
	defer unlock()

	err = deps.Store.Insert(ctx, store.Candidate{
		Name:   record.Name,
		Email:  record.Email,
		Phone:  record.Phone,
		Record: data,
	})
	duplicate := errors.Is(err, store.ErrDuplicateCandidate)
	if err != nil && !duplicate {
		return false, err
	}

	if _, err := deps.Dirs.WriteParsed(record.Name, record); err != nil {
		return duplicate, err
	}
	return duplicate, nil
}

// MatchStep evaluates every parsed record against the requirement profile.
type MatchStep struct {
	evaluations []*matching.Evaluation
}

func (s *MatchStep) Name() string { return "match" }

func (s *MatchStep) Validate(deps Deps) error {
	if deps.Evaluator == nil {
		return &MissingDependencyError{Step: s.Name(), Dependency: "match evaluator"}
	}
	if deps.Profile == nil {
		return &MissingDependencyError{Step: s.Name(), Dependency: "requirement profile"}
	}
	if _, err := deps.Dirs.ListParsed(); err != nil {
		return &MissingDependencyError{Step: s.Name(), Dependency: "parsed resumes", Cause: err}
	}
	return nil
}

func (s *MatchStep) Apply(ctx context.Context, deps Deps, report *Report) error {
	entries, err := deps.Dirs.ListParsed()
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Total++

		log := logger.WithCandidate(deps.Logger, entry.Key, deps.Profile.JobTitle)

		text, err := os.ReadFile(entry.Path)
		if err != nil {
			report.fail(entry.Key, err)
			log.Warn("reading parsed resume failed", zap.Error(err))
			continue
		}

		unlock := deps.Locks.Lock(entry.Key)
		ev := deps.Evaluator.Evaluate(ctx, entry.Key, string(text), deps.Profile)
		unlock()

		s.evaluations = append(s.evaluations, ev)

		if ev.Err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.fail(entry.Key, ev.Err)
			log.Warn("matching failed", zap.Error(ev.Err))
			continue
		}

		report.Succeeded++
		log.Info("candidate matched", zap.Int("verdicts", len(ev.Verdicts)), zap.Int("issues", len(ev.Issues)))
	}

	return nil
}

// Evaluations returns the evaluations of the last Apply, failed ones included.
func (s *MatchStep) Evaluations() []*matching.Evaluation {
	return s.evaluations
}

// ScoreStep aggregates every match result and optionally writes the score table.
type ScoreStep struct {
	Output string

	scores []scoring.CandidateScore
}

func (s *ScoreStep) Name() string { return "score" }

func (s *ScoreStep) Validate(deps Deps) error {
	if _, err := deps.Dirs.ListResults(); err != nil {
		return &MissingDependencyError{Step: s.Name(), Dependency: "match results", Cause: err}
	}
	return nil
}

func (s *ScoreStep) Apply(ctx context.Context, deps Deps, report *Report) error {
	entries, err := deps.Dirs.ListResults()
	if err != nil {
		return err
	}

	s.scores = s.scores[:0]
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Total++

		log := logger.WithCandidate(deps.Logger, entry.Key, "")

		score, issues, err := scoring.ScoreFile(entry.Path)
		if err != nil {
			report.fail(entry.Key, err)
			log.Warn("skipping match result", zap.Error(err))
			continue
		}
		for _, issue := range issues {
			log.Warn("malformed verdict", zap.Error(issue))
		}

		s.scores = append(s.scores, score)
		report.Succeeded++
	}

	if s.Output == "" {
		return nil
	}

	if err := ranking.ScoreTable(s.scores).WriteFile(s.Output); err != nil {
		return fmt.Errorf("write score table: %w", err)
	}
	deps.Logger.Info("score table written", zap.String("path", s.Output), zap.Int("candidates", len(s.scores)))

	return nil
}

// Scores returns the scores computed by the last Apply.
func (s *ScoreStep) Scores() []scoring.CandidateScore {
	return s.scores
}
