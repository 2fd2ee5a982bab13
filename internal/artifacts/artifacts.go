// Package artifacts stores the intermediate files of a scoring run: parsed resume
// records and raw match responses, one file per candidate.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultParsedDir  = "parsed_json"
	DefaultResultsDir = "matching_results"

	parsedSuffix = ".json"
	resultSuffix = "_match.json"
	fallbackName = "candidate"
)

var unsafeName = regexp.MustCompile(`[^\w\-.]`)

// Sanitize replaces every character outside [A-Za-z0-9_.-] with an underscore.
// Surrounding spaces are replaced like any other character.
func Sanitize(name string) string {
	if name == "" {
		return fallbackName
	}
	return unsafeName.ReplaceAllString(name, "_")
}

// Dirs points at the parsed-record and match-result directories.
type Dirs struct {
	Parsed  string
	Results string
}

// Entry is one artifact file. Key is the sanitized candidate name.
type Entry struct {
	Key  string
	Path string
}

func (d Dirs) parsedDir() string {
	if d.Parsed == "" {
		return DefaultParsedDir
	}
	return d.Parsed
}

func (d Dirs) resultsDir() string {
	if d.Results == "" {
		return DefaultResultsDir
	}
	return d.Results
}

// ParsedPath returns where the parsed record of the candidate lives.
func (d Dirs) ParsedPath(name string) string {
	return filepath.Join(d.parsedDir(), Sanitize(name)+parsedSuffix)
}

// ResultPath returns where the raw match response of the candidate lives.
func (d Dirs) ResultPath(name string) string {
	return filepath.Join(d.resultsDir(), Sanitize(name)+resultSuffix)
}

// WriteParsed stores the record as indented JSON and returns the file path.
func (d Dirs) WriteParsed(name string, record any) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode parsed record: %w", err)
	}

	path := d.ParsedPath(name)
	if err := WriteFile(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// WriteResult stores the raw model response verbatim, even when it is not valid JSON.
func (d Dirs) WriteResult(name, raw string) (string, error) {
	path := d.ResultPath(name)
	if err := WriteFile(path, []byte(raw)); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveResult deletes the stored match response of the candidate. A missing file is
// not an error.
func (d Dirs) RemoveResult(name string) error {
	if err := os.Remove(d.ResultPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove match result: %w", err)
	}
	return nil
}

// ListParsed returns the parsed records sorted by key.
func (d Dirs) ListParsed() ([]Entry, error) {
	return list(d.parsedDir(), parsedSuffix)
}

// ListResults returns the match results sorted by key.
func (d Dirs) ListResults() ([]Entry, error) {
	return list(d.resultsDir(), resultSuffix)
}

// ResultKey returns the candidate key encoded in a result file name.
func ResultKey(path string) string {
	return strings.TrimSuffix(filepath.Base(path), resultSuffix)
}

func list(dir, suffix string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		entries = append(entries, Entry{
			Key:  strings.TrimSuffix(name, suffix),
			Path: filepath.Join(dir, name),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// WriteFile replaces path atomically so readers never observe a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	file, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	tmp := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}
