package matching

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/ai"
	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/requirements"
	"github.com/spigell/talent-scorer/internal/utils"
)

//go:embed prompt.md
var matchPrompt string

const defaultMaxLogLength = 200

// Evaluation is the outcome of matching one candidate. Err marks the candidate as
// unscorable; Issues are recovered problems in individual verdicts.
type Evaluation struct {
	Candidate  string
	Raw        string
	ResultPath string
	Verdicts   []Verdict
	Issues     []error
	Err        error
}

// Evaluator asks the model for per-requirement verdicts and keeps the raw answers.
type Evaluator struct {
	generator    ai.Generator
	dirs         artifacts.Dirs
	logger       *zap.Logger
	maxLogLength int
}

func NewEvaluator(generator ai.Generator, dirs artifacts.Dirs, maxLogLength int, log *zap.Logger) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Evaluator{
		generator:    generator,
		dirs:         dirs,
		logger:       logger.WithFields(log),
		maxLogLength: maxLogLength,
	}
}

// BuildPrompt renders the match prompt for a resume and a profile.
func BuildPrompt(resumeText string, profile *requirements.Profile) (string, error) {
	if profile == nil {
		return "", errors.New("requirement profile is required")
	}

	encoded, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode requirement profile: %w", err)
	}

	return strings.NewReplacer(
		"{{RESUME}}", strings.TrimSpace(resumeText),
		"{{REQUIREMENTS}}", string(encoded),
	).Replace(matchPrompt), nil
}

// Evaluate matches one resume against the profile. The raw response is written to the
// results directory before parsing, so malformed answers stay inspectable. A result left
// by an earlier run is removed first: a failed evaluation leaves nothing to score.
func (e *Evaluator) Evaluate(ctx context.Context, candidate, resumeText string, profile *requirements.Profile) *Evaluation {
	ev := &Evaluation{Candidate: candidate}

	if err := e.dirs.RemoveResult(candidate); err != nil {
		ev.Err = err
		return ev
	}

	var job string
	if profile != nil {
		job = profile.JobTitle
	}
	log := logger.WithCandidate(e.logger, candidate, job)

	if e.generator == nil {
		ev.Err = errors.New("text generator is not configured")
		return ev
	}

	prompt, err := BuildPrompt(resumeText, profile)
	if err != nil {
		ev.Err = err
		return ev
	}

	log.Debug("requesting verdicts", zap.String(logger.FieldModel, e.generator.Model()),
		zap.String("prompt", utils.TruncateForLog(prompt, e.maxLogLength)))

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		ev.Err = fmt.Errorf("generate verdicts: %w", err)
		return ev
	}
	ev.Raw = raw

	if ev.ResultPath, err = e.dirs.WriteResult(candidate, raw); err != nil {
		ev.Err = fmt.Errorf("persist match result: %w", err)
		return ev
	}

	log.Debug("received verdicts", zap.String("path", ev.ResultPath),
		zap.String("response", utils.TruncateForLog(raw, e.maxLogLength)))

	ev.Verdicts, ev.Issues, err = ParseVerdicts(raw)
	if err != nil {
		ev.Err = fmt.Errorf("parse verdicts: %w", err)
		return ev
	}

	for _, issue := range ev.Issues {
		log.Warn("malformed verdict", zap.Error(issue))
	}

	return ev
}
