package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spigell/talent-scorer/internal/artifacts"
)

const DefaultPath = "candidates.json"

type fileDocument struct {
	Candidates []Candidate `json:"candidates"`
}

// FileStore keeps the candidate table in a single JSON document.
type FileStore struct {
	path string

	mu         sync.Mutex
	candidates []Candidate
}

// OpenFile loads the document at path. A missing file is an empty store.
func OpenFile(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read candidate store: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode candidate store %s: %w", path, err)
	}
	s.candidates = doc.Candidates

	return s, nil
}

func (s *FileStore) Insert(ctx context.Context, c Candidate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.Email = strings.TrimSpace(c.Email)
	key := NormalizeEmail(c.Email)
	if key == "" {
		return ErrEmptyEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.candidates {
		if NormalizeEmail(existing.Email) == key {
			return fmt.Errorf("%w: %s", ErrDuplicateCandidate, c.Email)
		}
	}

	next := append(append([]Candidate(nil), s.candidates...), c)
	if err := s.save(next); err != nil {
		return err
	}
	s.candidates = next

	return nil
}

func (s *FileStore) List(ctx context.Context, search string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if matches(c, search) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for idx, c := range s.candidates {
		if NormalizeEmail(c.Email) != key {
			continue
		}

		next := append(append([]Candidate(nil), s.candidates[:idx]...), s.candidates[idx+1:]...)
		if err := s.save(next); err != nil {
			return err
		}
		s.candidates = next
		return nil
	}

	return fmt.Errorf("%w: %s", ErrCandidateNotFound, strings.TrimSpace(email))
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) save(candidates []Candidate) error {
	if candidates == nil {
		candidates = []Candidate{}
	}

	data, err := json.MarshalIndent(fileDocument{Candidates: candidates}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode candidate store: %w", err)
	}

	if err := artifacts.WriteFile(s.path, append(data, '\n')); err != nil {
		return fmt.Errorf("save candidate store: %w", err)
	}
	return nil
}
