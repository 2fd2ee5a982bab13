// Package notify drafts and sends application status emails to candidates.
package notify

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/talent-scorer/internal/ranking"
)

// Status is the application status a candidate is notified about.
type Status string

const (
	InterviewInvite Status = "interview_invite"
	Rejection       Status = "rejection"
	FollowUp        Status = "follow_up"
	Reschedule      Status = "reschedule"
)

// ParseStatus normalises s. An empty status means an interview invitation.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return InterviewInvite, true
	}

	switch status := Status(s); status {
	case InterviewInvite, Rejection, FollowUp, Reschedule:
		return status, true
	default:
		return "", false
	}
}

// Context is the information shared by every email of a batch.
type Context struct {
	JobTitle     string
	HRName       string
	CalendlyLink string
}

// Subject returns the subject line for the status.
func Subject(status Status, job string) string {
	switch status {
	case InterviewInvite:
		return fmt.Sprintf("Interview Invitation for %s", job)
	case Rejection:
		return fmt.Sprintf("Application Update for %s", job)
	case FollowUp:
		return fmt.Sprintf("Follow-up on your %s Application", job)
	case Reschedule:
		return fmt.Sprintf("Interview Rescheduling for %s", job)
	default:
		return ""
	}
}

// Recipient is one row of the recipients table. RawStatus keeps the cell as written.
type Recipient struct {
	Name      string
	Email     string
	Status    Status
	RawStatus string
}

// Valid reports whether the status is one this package can write.
func (r Recipient) Valid() bool {
	return r.Status != ""
}

// ReadRecipients reads a CSV with name, email and optional status columns.
func ReadRecipients(r io.Reader) ([]Recipient, error) {
	table, err := ranking.ReadCSV(r)
	if err != nil {
		return nil, err
	}

	nameIdx, emailIdx, statusIdx := table.Column("name"), table.Column("email"), table.Column("status")
	if nameIdx == -1 || emailIdx == -1 {
		return nil, errors.New("recipients table needs name and email columns")
	}

	recipients := make([]Recipient, 0, len(table.Rows))
	for _, row := range table.Rows {
		raw := ranking.Cell(row, statusIdx)
		status, _ := ParseStatus(raw)
		recipients = append(recipients, Recipient{
			Name:      strings.TrimSpace(ranking.Cell(row, nameIdx)),
			Email:     strings.TrimSpace(ranking.Cell(row, emailIdx)),
			Status:    status,
			RawStatus: raw,
		})
	}
	return recipients, nil
}
