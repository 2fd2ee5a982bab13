package resume

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/ai"
	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/utils"
)

//go:embed prompt.md
var extractPrompt string

const defaultMaxLogLength = 200

// Extractor turns resume text into a Record with a text generator.
type Extractor struct {
	generator    ai.Generator
	logger       *zap.Logger
	maxLogLength int
}

func NewExtractor(generator ai.Generator, maxLogLength int, log *zap.Logger) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Extractor{
		generator:    generator,
		logger:       logger.WithFields(log),
		maxLogLength: maxLogLength,
	}
}

// ExtractFile reads the document at path and extracts its record.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Record, error) {
	text, err := ReadText(ctx, path)
	if err != nil {
		return nil, err
	}

	record, err := e.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract resume %s: %w", path, err)
	}
	return record, nil
}

// Extract asks the generator for the fixed-schema record and validates it.
func (e *Extractor) Extract(ctx context.Context, text string) (*Record, error) {
	if e.generator == nil {
		return nil, errors.New("text generator is not configured")
	}

	prompt := strings.ReplaceAll(extractPrompt, "{{RESUME_TEXT}}", strings.TrimSpace(text))

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("resume extraction response",
		zap.String(logger.FieldModel, e.generator.Model()),
		zap.String("response", utils.TruncateForLog(raw, e.maxLogLength)),
	)

	record, err := DecodeRecord(raw)
	if err != nil {
		return nil, err
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// DecodeRecord locates the JSON object in raw and decodes it leniently: single values
// become lists, numbers become strings and nulls become zero values.
func DecodeRecord(raw string) (*Record, error) {
	object, err := ai.ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(object), &doc); err != nil {
		return nil, fmt.Errorf("decode resume record: %w", err)
	}

	var record Record
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &record,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode resume record: %w", err)
	}
	return &record, nil
}
