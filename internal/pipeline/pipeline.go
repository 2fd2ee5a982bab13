// Package pipeline runs the batch steps of a scoring run: ingest, match and score.
// Steps run sequentially; one bad item never stops the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/artifacts"
	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/matching"
	"github.com/spigell/talent-scorer/internal/requirements"
	"github.com/spigell/talent-scorer/internal/resume"
	"github.com/spigell/talent-scorer/internal/store"
)

// Step is a single batch step.
type Step interface {
	Name() string
	// Validate reports missing dependencies before any item is processed.
	Validate(deps Deps) error
	Apply(ctx context.Context, deps Deps, report *Report) error
}

// RecordExtractor turns a resume document into a record.
type RecordExtractor interface {
	ExtractFile(ctx context.Context, path string) (*resume.Record, error)
}

// VerdictEvaluator matches one resume against a profile.
type VerdictEvaluator interface {
	Evaluate(ctx context.Context, candidate, resumeText string, profile *requirements.Profile) *matching.Evaluation
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Logger    *zap.Logger
	Dirs      artifacts.Dirs
	Store     store.Store
	Extractor RecordExtractor
	Evaluator VerdictEvaluator
	Profile   *requirements.Profile
	Locks     *KeyLocker
}

// MissingDependencyError halts the step that needs the dependency.
type MissingDependencyError struct {
	Step       string
	Dependency string
	Cause      error
}

func (e *MissingDependencyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: missing %s: %v", e.Step, e.Dependency, e.Cause)
	}
	return fmt.Sprintf("%s: missing %s", e.Step, e.Dependency)
}

func (e *MissingDependencyError) Unwrap() error { return e.Cause }

// Failure is one item that could not be processed.
type Failure struct {
	Item string
	Err  error
}

// Report describes the result of executing a step.
type Report struct {
	Step      string
	RunID     string
	Started   time.Time
	Finished  time.Time
	Total     int
	Succeeded int
	Skipped   int
	Failures  []Failure
	Cancelled bool
	Err       error
}

func (r *Report) fail(item string, err error) {
	r.Failures = append(r.Failures, Failure{Item: item, Err: err})
}

// Runner executes steps with shared dependencies. One Runner may serve concurrent runs;
// writes for the same candidate are serialised through Deps.Locks.
type Runner struct {
	deps Deps
}

func NewRunner(deps Deps) *Runner {
	deps.Logger = logger.WithFields(deps.Logger)
	if deps.Locks == nil {
		deps.Locks = NewKeyLocker()
	}
	return &Runner{deps: deps}
}

// Run executes the steps in order. A step with missing dependencies is skipped and the
// following steps still run. Cancellation stops the run before the next item.
func (r *Runner) Run(ctx context.Context, steps ...Step) ([]*Report, error) {
	runID := uuid.NewString()
	deps := r.deps
	deps.Logger = deps.Logger.With(zap.String(logger.FieldRun, runID))

	reports := make([]*Report, 0, len(steps))
	var errs []error

	for _, step := range steps {
		report := &Report{Step: step.Name(), RunID: runID, Started: time.Now()}
		reports = append(reports, report)

		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			report.Finished = time.Now()
			return reports, err
		}

		if err := step.Validate(deps); err != nil {
			report.Err = err
			report.Finished = time.Now()
			deps.Logger.Error("step halted", zap.String("name", step.Name()), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		err := step.Apply(ctx, deps, report)
		report.Finished = time.Now()

		deps.Logger.Info("pipeline step",
			zap.String("name", step.Name()),
			zap.Int("total", report.Total),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", len(report.Failures)),
			zap.Duration("took", report.Finished.Sub(report.Started)),
		)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Cancelled = true
			return reports, err
		}
		if err != nil {
			report.Err = err
			errs = append(errs, fmt.Errorf("%s: %w", step.Name(), err))
		}
	}

	return reports, errors.Join(errs...)
}
