package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/talent-scorer/internal/ai"
)

// Email is a message ready to send.
type Email struct {
	To      string
	Subject string
	Body    string
}

// DraftPrompt returns the model instruction for the recipient's status.
func DraftPrompt(r Recipient, c Context) string {
	var ask string
	switch r.Status {
	case InterviewInvite:
		ask = fmt.Sprintf("Write a professional interview invitation email for %s for the position of %s. "+
			"Include the scheduling link: %s.", r.Name, c.JobTitle, c.CalendlyLink)
	case Rejection:
		ask = fmt.Sprintf("Write a polite rejection email for %s regarding the %s position. "+
			"Thank them for their interest and encourage them to apply again in the future.", r.Name, c.JobTitle)
	case FollowUp:
		ask = fmt.Sprintf("Write a follow-up email to %s reminding them about the interview invitation for %s. "+
			"Include the scheduling link: %s.", r.Name, c.JobTitle, c.CalendlyLink)
	case Reschedule:
		ask = fmt.Sprintf("Write an email to %s to reschedule their interview for the %s position. "+
			"Include the scheduling link: %s and apologize for the inconvenience.", r.Name, c.JobTitle, c.CalendlyLink)
	default:
		return ""
	}

	return ask + "\n\nReturn only the email body as plain text: no subject line, no greeting and no signature."
}

// Format adds the greeting and the HR signature unless the body already has them.
func Format(body, name, hrName string) string {
	body = strings.TrimSpace(body)

	name = strings.TrimSpace(name)
	greeting := "Dear " + name + ","
	if name == "" {
		greeting = "Hello,"
	}
	if !strings.HasPrefix(strings.ToLower(body), "dear ") && !strings.HasPrefix(strings.ToLower(body), "hello") {
		body = greeting + "\n\n" + body
	}

	hrName = strings.TrimSpace(hrName)
	if hrName != "" && !strings.HasSuffix(body, hrName) {
		body += "\n\nBest regards,\n" + hrName
	}

	return body + "\n"
}

// Composer drafts status emails with a text generator.
type Composer struct {
	generator ai.Generator
	context   Context
}

func NewComposer(generator ai.Generator, c Context) *Composer {
	return &Composer{generator: generator, context: c}
}

// Compose drafts and formats the email for one recipient.
func (c *Composer) Compose(ctx context.Context, r Recipient) (*Email, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown status %q", r.RawStatus)
	}
	if c.generator == nil {
		return nil, errors.New("text generator is not configured")
	}

	draft, err := c.generator.GenerateContent(ctx, DraftPrompt(r, c.context))
	if err != nil {
		return nil, fmt.Errorf("draft email for %s: %w", r.Email, err)
	}

	return &Email{
		To:      r.Email,
		Subject: Subject(r.Status, c.context.JobTitle),
		Body:    Format(draft, r.Name, c.context.HRName),
	}, nil
}
