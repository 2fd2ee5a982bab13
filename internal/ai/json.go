package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a response does not contain the expected JSON value.
var ErrNoJSON = errors.New("no well-formed JSON value found in response")

// ExtractObject returns the first well-formed JSON object embedded in raw.
func ExtractObject(raw string) (string, error) {
	return extractJSON(raw, '{', '}')
}

// ExtractArray returns the first well-formed JSON array embedded in raw.
func ExtractArray(raw string) (string, error) {
	return extractJSON(raw, '[', ']')
}

// extractJSON scans for balanced open/close pairs outside of string literals and
// returns the first candidate accepted by json.Valid. Prose and code fences around
// the value are ignored.
func extractJSON(raw string, open, close byte) (string, error) {
	raw = strings.TrimSpace(raw)

	for start := strings.IndexByte(raw, open); start != -1; {
		if end := matchClosing(raw, start, open, close); end != -1 {
			candidate := raw[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(raw[start+1:], open)
		if next == -1 {
			break
		}
		start += next + 1
	}

	return "", ErrNoJSON
}

func matchClosing(raw string, start int, open, close byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
