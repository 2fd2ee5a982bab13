package requirements

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/ai"
	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/utils"
)

//go:embed prompt.md
var generatePrompt string

const defaultMaxLogLength = 200

// GenerationError is returned when the model output cannot be turned into a profile.
// Raw holds the model response when one was received.
type GenerationError struct {
	JobTitle string
	Raw      string
	Cause    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate requirement profile for %q: %v", e.JobTitle, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// Builder generates requirement profiles from a job title.
type Builder struct {
	generator    ai.Generator
	logger       *zap.Logger
	maxLogLength int
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(generator ai.Generator, maxLogLength int, log *zap.Logger) *Builder {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Builder{
		generator:    generator,
		logger:       logger.WithFields(log),
		maxLogLength: maxLogLength,
	}
}

// Generate asks the model for a profile. No partial profile is returned on failure.
func (b *Builder) Generate(ctx context.Context, jobTitle string) (*Profile, error) {
	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" {
		return nil, ErrEmptyJobTitle
	}
	if b.generator == nil {
		return nil, &GenerationError{JobTitle: jobTitle, Cause: errors.New("text generator is not configured")}
	}

	log := logger.WithFields(b.logger, zap.String(logger.FieldJob, jobTitle), zap.String(logger.FieldModel, b.generator.Model()))
	prompt := strings.ReplaceAll(generatePrompt, "{{JOB_TITLE}}", jobTitle)

	log.Debug("requesting requirement profile", zap.String("prompt", utils.TruncateForLog(prompt, b.maxLogLength)))

	raw, err := b.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{JobTitle: jobTitle, Cause: err}
	}

	log.Debug("received requirement profile response", zap.String("response", utils.TruncateForLog(raw, b.maxLogLength)))

	object, err := ai.ExtractObject(raw)
	if err != nil {
		return nil, &GenerationError{JobTitle: jobTitle, Raw: raw, Cause: err}
	}

	profile, notes, err := Decode([]byte(object))
	if err != nil {
		return nil, &GenerationError{JobTitle: jobTitle, Raw: raw, Cause: err}
	}

	for _, note := range notes {
		log.Warn("adjusted generated requirement", zap.String("note", note))
	}

	if len(profile.Items) == 0 {
		return nil, &GenerationError{JobTitle: jobTitle, Raw: raw, Cause: errors.New("model returned no requirement items")}
	}

	if profile.JobTitle == "" {
		profile.JobTitle = jobTitle
	}

	log.Info("requirement profile generated", zap.Int("items", len(profile.Items)))

	return profile, nil
}
