// Package matching evaluates a resume against every item of a requirement profile
// and parses the model's per-requirement verdicts.
package matching

import (
	"fmt"
	"strings"
)

// Degree is how well a candidate meets one requirement.
type Degree int

const (
	Unknown Degree = iota
	None
	Partial
	NearFull
	Full
)

// ParseDegree accepts the wire strings ignoring case, underscores and hyphens.
// Anything unrecognised is Unknown.
func ParseDegree(s string) Degree {
	switch normalizeWord(s) {
	case "FULL":
		return Full
	case "NEAR FULL", "NEARFULL", "NEARLY FULL":
		return NearFull
	case "PARTIAL":
		return Partial
	case "NONE":
		return None
	default:
		return Unknown
	}
}

func (d Degree) String() string {
	switch d {
	case Full:
		return "FULL"
	case NearFull:
		return "NEAR FULL"
	case Partial:
		return "PARTIAL"
	case None:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

func (d Degree) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Degree) UnmarshalText(text []byte) error {
	*d = ParseDegree(string(text))
	return nil
}

// Source tells whether the evidence was quoted from the resume or inferred.
type Source int

const (
	SourceUnknown Source = iota
	FromResume
	Inference
)

func ParseSource(s string) Source {
	switch normalizeWord(s) {
	case "RESUME", "FROM RESUME", "CV":
		return FromResume
	case "INFERENCE", "INFERRED":
		return Inference
	default:
		return SourceUnknown
	}
}

func (s Source) String() string {
	switch s {
	case FromResume:
		return "RESUME"
	case Inference:
		return "Inference"
	default:
		return ""
	}
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Source) UnmarshalText(text []byte) error {
	*s = ParseSource(string(text))
	return nil
}

func normalizeWord(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToUpper(s))
	return strings.Join(strings.Fields(s), " ")
}

// Verdict is the model's judgement on one requirement. A nil Importance counts as 0.
type Verdict struct {
	Requirement string   `json:"requirement"`
	Match       Degree   `json:"match"`
	Evidence    string   `json:"evidence"`
	Source      Source   `json:"source"`
	Importance  *float64 `json:"importance"`
}

// ImportanceValue returns the importance, or 0 when it is missing.
func (v Verdict) ImportanceValue() float64 {
	if v.Importance == nil {
		return 0
	}
	return *v.Importance
}

// MalformedVerdictError describes a verdict field that had to be defaulted.
type MalformedVerdictError struct {
	Index  int
	Field  string
	Value  any
	Reason string
}

func (e *MalformedVerdictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("verdict %d: %s", e.Index, e.Reason)
	}
	if e.Value == nil {
		return fmt.Sprintf("verdict %d: %s: %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("verdict %d: %s=%v: %s", e.Index, e.Field, e.Value, e.Reason)
}
