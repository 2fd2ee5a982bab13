package requirements

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var exchangeSchema string

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// StructureError reports a document that does not have the exchange-format shape.
type StructureError struct {
	Errors []FieldError
}

func (e *StructureError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid requirement profile structure: " + strings.Join(parts, "; ")
}

type exchangeItem struct {
	Skill       string  `json:"skill,omitempty"`
	Requirement string  `json:"requirement,omitempty"`
	Weight      float64 `json:"weight"`
}

// MarshalJSON writes the exchange format with categories in canonical order.
func (p Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	title, err := json.Marshal(p.JobTitle)
	if err != nil {
		return nil, err
	}

	buf.WriteString(`{"job_type":`)
	buf.Write(title)
	buf.WriteString(`,"importance_weights":{`)

	for idx, cat := range Categories {
		if idx > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(cat.ExchangeName())
		if err != nil {
			return nil, err
		}

		items := make([]exchangeItem, 0)
		for _, item := range p.ByCategory(cat) {
			entry := exchangeItem{Weight: item.Weight}
			if cat.IsSkill() {
				entry.Skill = item.Label
			} else {
				entry.Requirement = item.Label
			}
			items = append(items, entry)
		}

		value, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the exchange format. Adjustments made while decoding are discarded;
// use Decode to see them.
func (p *Profile) UnmarshalJSON(data []byte) error {
	parsed, _, err := Decode(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// ValidateStructure checks the document against the exchange-format schema.
func ValidateStructure(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(exchangeSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate requirement profile: %w", err)
	}

	if result.Valid() {
		return nil
	}

	serr := &StructureError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		serr.Errors = append(serr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return serr
}

type rawDocument struct {
	JobType string                      `json:"job_type"`
	Weights map[string][]map[string]any `json:"importance_weights"`
}

// Decode parses an exchange document. Weights outside [0,1] are clamped, entries without
// a label and unknown categories are dropped, repeated slots keep the first entry.
// Every adjustment is described in the returned notes.
func Decode(data []byte) (*Profile, []string, error) {
	if err := ValidateStructure(data); err != nil {
		return nil, nil, err
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode requirement profile: %w", err)
	}

	grouped := make(map[Category][]map[string]any, len(doc.Weights))
	var notes []string
	keys := make([]string, 0, len(doc.Weights))
	for key := range doc.Weights {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		entries := doc.Weights[key]
		cat, ok := ParseCategory(key)
		if !ok {
			notes = append(notes, fmt.Sprintf("unknown category %q dropped", key))
			continue
		}
		grouped[cat] = append(grouped[cat], entries...)
	}

	profile := &Profile{JobTitle: strings.TrimSpace(doc.JobType)}
	for _, cat := range Categories {
		for idx, entry := range grouped[cat] {
			label := entryLabel(entry)
			if label == "" {
				notes = append(notes, fmt.Sprintf("%s item %d has no label, dropped", cat.ExchangeName(), idx))
				continue
			}

			weight, ok := entryWeight(entry["weight"])
			if !ok {
				notes = append(notes, fmt.Sprintf("%s/%s has no usable weight, set to 0", cat.ExchangeName(), label))
			}
			if clamped := clampWeight(weight); clamped != weight {
				notes = append(notes, fmt.Sprintf("%s/%s weight %v clamped to %v", cat.ExchangeName(), label, weight, clamped))
				weight = clamped
			}

			if err := profile.AddItem(Item{Label: label, Weight: weight, Category: cat}); err != nil {
				notes = append(notes, fmt.Sprintf("%s/%s dropped: %v", cat.ExchangeName(), label, err))
			}
		}
	}

	return profile, notes, nil
}

func entryLabel(entry map[string]any) string {
	for _, key := range []string{"skill", "requirement", "label", "name"} {
		if s, ok := entry[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func entryWeight(v any) (float64, bool) {
	switch w := v.(type) {
	case float64:
		if math.IsNaN(w) {
			return 0, false
		}
		return w, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clampWeight(w float64) float64 {
	switch {
	case w < 0:
		return 0
	case w > 1:
		return 1
	default:
		return w
	}
}

// Load reads a profile from a .json, .yaml or .yml file. The notes describe
// adjustments made while decoding.
func Load(path string) (*Profile, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read requirement profile: %w", err)
	}

	if isYAML(path) {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("parse requirement profile %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, nil, fmt.Errorf("convert requirement profile %s: %w", path, err)
		}
	}

	profile, notes, err := Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("load requirement profile %s: %w", path, err)
	}
	return profile, notes, nil
}

// Save writes the profile in the exchange format, as YAML when the extension asks for it.
func Save(path string, p *Profile) error {
	if p == nil {
		return errors.New("requirement profile is nil")
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode requirement profile: %w", err)
	}

	if isYAML(path) {
		if data, err = toYAML(data); err != nil {
			return fmt.Errorf("encode requirement profile: %w", err)
		}
	} else {
		data = append(data, '\n')
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create profile directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write requirement profile: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// toYAML re-encodes JSON as block-style YAML, keeping key order.
func toYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resetStyle(node *yaml.Node) {
	if node.Kind != yaml.ScalarNode {
		node.Style = 0
	} else if node.Style == yaml.DoubleQuotedStyle && node.Tag == "!!str" {
		node.Style = 0
	}
	for _, child := range node.Content {
		resetStyle(child)
	}
}
