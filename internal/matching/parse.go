package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/talent-scorer/internal/ai"
)

// ErrNoVerdicts is returned when a response holds no parseable verdict list.
var ErrNoVerdicts = errors.New("no verdict list found in response")

var fieldAliases = map[string][]string{
	"requirement": {"requirement", "skill", "name", "criterion"},
	"match":       {"match", "match_level", "degree"},
	"evidence":    {"evidence", "justification", "explanation"},
	"source":      {"source"},
	"importance":  {"importance", "weight"},
}

// ParseVerdicts extracts the verdict list from a raw model response. Malformed fields
// are defaulted and reported as *MalformedVerdictError issues; the error is non-nil
// only when no list can be found.
func ParseVerdicts(raw string) ([]Verdict, []error, error) {
	items, err := locateList(raw)
	if err != nil {
		return nil, nil, err
	}

	verdicts := make([]Verdict, 0, len(items))
	var issues []error

	for idx, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			issues = append(issues, &MalformedVerdictError{Index: idx, Reason: fmt.Sprintf("expected an object, got %T", item)})
			continue
		}

		verdict, entryIssues := decodeVerdict(idx, entry)
		verdicts = append(verdicts, verdict)
		issues = append(issues, entryIssues...)
	}

	return verdicts, issues, nil
}

// locateList finds the first JSON array in raw, or the first array-valued field of the
// first JSON object when the model wrapped the list.
func locateList(raw string) ([]any, error) {
	if text, err := ai.ExtractArray(raw); err == nil {
		var items []any
		if err := json.Unmarshal([]byte(text), &items); err == nil {
			return items, nil
		}
	}

	text, err := ai.ExtractObject(raw)
	if err != nil {
		return nil, ErrNoVerdicts
	}

	var wrapper map[string]any
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, ErrNoVerdicts
	}

	keys := make([]string, 0, len(wrapper))
	for key := range wrapper {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if items, ok := wrapper[key].([]any); ok {
			return items, nil
		}
	}

	if _, ok := lookup(wrapper, "match"); ok {
		return []any{wrapper}, nil
	}

	return nil, ErrNoVerdicts
}

func decodeVerdict(idx int, entry map[string]any) (Verdict, []error) {
	var (
		v      Verdict
		issues []error
	)

	malformed := func(field string, value any, reason string) {
		issues = append(issues, &MalformedVerdictError{Index: idx, Field: field, Value: value, Reason: reason})
	}

	if value, ok := lookup(entry, "requirement"); ok && value != nil {
		if err := decodeText(value, &v.Requirement); err != nil {
			malformed("requirement", value, "not text")
		}
	}
	if strings.TrimSpace(v.Requirement) == "" {
		malformed("requirement", nil, "missing")
	}

	var match string
	value, ok := lookup(entry, "match")
	switch {
	case !ok || value == nil:
		malformed("match", nil, "missing, treated as unknown")
	case decodeText(value, &match) != nil:
		malformed("match", value, "not text, treated as unknown")
	default:
		if v.Match = ParseDegree(match); v.Match == Unknown {
			malformed("match", value, "unrecognised, treated as unknown")
		}
	}

	if value, ok := lookup(entry, "evidence"); ok && value != nil {
		if list, isList := value.([]any); isList {
			parts := make([]string, 0, len(list))
			for _, part := range list {
				var s string
				if decodeText(part, &s) == nil && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			v.Evidence = strings.Join(parts, "; ")
		} else if err := decodeText(value, &v.Evidence); err != nil {
			malformed("evidence", value, "not text")
		}
	}

	if value, ok := lookup(entry, "source"); ok && value != nil {
		var source string
		if decodeText(value, &source) == nil {
			v.Source = ParseSource(source)
		}
		if v.Source == SourceUnknown {
			malformed("source", value, "unrecognised")
		}
	}

	value, ok = lookup(entry, "importance")
	switch {
	case !ok:
		malformed("importance", nil, "missing, treated as 0")
	case value == nil:
	default:
		var importance float64
		if s, isText := value.(string); isText && strings.TrimSpace(s) == "" {
			malformed("importance", value, "empty, treated as 0")
		} else if err := mapstructure.WeakDecode(value, &importance); err != nil {
			malformed("importance", value, "not a number, treated as 0")
		} else {
			v.Importance = &importance
		}
	}

	v.Requirement = strings.TrimSpace(v.Requirement)
	v.Evidence = strings.TrimSpace(v.Evidence)

	return v, issues
}

func decodeText(value any, out *string) error {
	switch value.(type) {
	case map[string]any, []any:
		return errors.New("structured value")
	}
	return mapstructure.WeakDecode(value, out)
}

// lookup finds a field by any of its aliases, ignoring key case and surrounding spaces.
func lookup(entry map[string]any, field string) (any, bool) {
	for _, alias := range fieldAliases[field] {
		if value, ok := entry[alias]; ok {
			return value, true
		}
	}
	for key, value := range entry {
		normalized := strings.ToLower(strings.TrimSpace(key))
		for _, alias := range fieldAliases[field] {
			if normalized == alias {
				return value, true
			}
		}
	}
	return nil, false
}
