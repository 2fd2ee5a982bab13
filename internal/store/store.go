// Package store persists extracted candidates keyed by email.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrDuplicateCandidate is returned by Insert when the email is already stored.
	// The store is left unchanged.
	ErrDuplicateCandidate = errors.New("candidate with this email already exists")
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrEmptyEmail         = errors.New("candidate email is required")
)

// Candidate is one stored resume. Record holds the full extracted resume as JSON.
type Candidate struct {
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Phone  string          `json:"phone"`
	Record json.RawMessage `json:"json_data,omitempty"`
}

// Store is the candidate table. Emails are compared case-insensitively.
type Store interface {
	Insert(ctx context.Context, c Candidate) error
	// List returns candidates in insertion order. A non-empty search keeps those whose
	// name or email contains it, ignoring case.
	List(ctx context.Context, search string) ([]Candidate, error)
	Delete(ctx context.Context, email string) error
	Close() error
}

// NormalizeEmail is the key used for uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func matches(c Candidate, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), search) || strings.Contains(strings.ToLower(c.Email), search)
}
