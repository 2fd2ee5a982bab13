package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	prompts []string
	body    string
	err     error
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.body, s.err
}

func (s *stubGenerator) Model() string { return "stub" }

type recordingSender struct {
	sent []Email
	err  error
}

func (r *recordingSender) Send(_ context.Context, email Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, email)
	return nil
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Interview Invitation for SRE", Subject(InterviewInvite, "SRE"))
	assert.Equal(t, "Application Update for SRE", Subject(Rejection, "SRE"))
	assert.Equal(t, "Follow-up on your SRE Application", Subject(FollowUp, "SRE"))
	assert.Equal(t, "Interview Rescheduling for SRE", Subject(Reschedule, "SRE"))
}

func TestReadRecipients(t *testing.T) {
	in := "name,email,status\nJane,jane@x, Interview_Invite \nBob,bob@x,ghosted\nAnn,ann@x,\n"
	recipients, err := ReadRecipients(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []Recipient{
		{Name: "Jane", Email: "jane@x", Status: InterviewInvite, RawStatus: " Interview_Invite "},
		{Name: "Bob", Email: "bob@x", RawStatus: "ghosted"},
		{Name: "Ann", Email: "ann@x", Status: InterviewInvite},
	}, recipients)

	_, err = ReadRecipients(strings.NewReader("name\nJane\n"))
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	got := Format("We would like to invite you.", "Jane", "Alice")
	assert.Equal(t, "Dear Jane,\n\nWe would like to invite you.\n\nBest regards,\nAlice\n", got)

	already := "Dear Jane,\n\nThanks.\n\nBest regards,\nAlice"
	assert.Equal(t, already+"\n", Format(already, "Jane", "Alice"))
}

func TestDraftPromptMentionsContext(t *testing.T) {
	c := Context{JobTitle: "SRE", HRName: "Alice", CalendlyLink: "https://cal.example/alice"}

	invite := DraftPrompt(Recipient{Name: "Jane", Status: InterviewInvite}, c)
	assert.Contains(t, invite, "Jane")
	assert.Contains(t, invite, "https://cal.example/alice")

	reject := DraftPrompt(Recipient{Name: "Bob", Status: Rejection}, c)
	assert.NotContains(t, reject, "cal.example")

	assert.Empty(t, DraftPrompt(Recipient{Name: "X"}, c))
}

func TestMailerRun(t *testing.T) {
	gen := &stubGenerator{body: "We would like to invite you."}
	sender := &recordingSender{}
	core, logs := observer.New(zapcore.WarnLevel)

	m := &Mailer{
		Composer: NewComposer(gen, Context{JobTitle: "SRE", HRName: "Alice"}),
		Sender:   sender,
		Logger:   zap.New(core),
	}

	outcomes, err := m.Run(context.Background(), []Recipient{
		{Name: "Jane", Email: "jane@x", Status: InterviewInvite},
		{Name: "Bob", Email: "bob@x", RawStatus: "ghosted"},
		{Name: "Ann", Email: "ann@x", Status: Rejection},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Sent)
	assert.True(t, outcomes[1].Skipped)
	assert.True(t, outcomes[2].Sent)
	assert.Len(t, gen.prompts, 2)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, Email{
		To:      "jane@x",
		Subject: "Interview Invitation for SRE",
		Body:    "Dear Jane,\n\nWe would like to invite you.\n\nBest regards,\nAlice\n",
	}, sender.sent[0])
	assert.Equal(t, "Application Update for SRE", sender.sent[1].Subject)

	assert.Equal(t, 1, logs.FilterMessage("unknown status, skipping").Len())
}

func TestMailerWithoutSenderOnlyDrafts(t *testing.T) {
	m := &Mailer{Composer: NewComposer(&stubGenerator{body: "Hi"}, Context{JobTitle: "SRE"})}

	outcomes, err := m.Run(context.Background(), []Recipient{{Name: "Jane", Email: "jane@x", Status: FollowUp}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Sent)
	assert.NotNil(t, outcomes[0].Email)
}

func TestMailerRecordsFailures(t *testing.T) {
	boom := errors.New("boom")
	m := &Mailer{
		Composer: NewComposer(&stubGenerator{body: "Hi"}, Context{JobTitle: "SRE"}),
		Sender:   &recordingSender{err: boom},
	}

	outcomes, err := m.Run(context.Background(), []Recipient{{Name: "Jane", Email: "jane@x", Status: Reschedule}})
	require.NoError(t, err)
	assert.ErrorIs(t, outcomes[0].Err, boom)
	assert.False(t, outcomes[0].Sent)
}

func TestMailerStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &stubGenerator{body: "Hi"}
	m := &Mailer{Composer: NewComposer(gen, Context{})}

	outcomes, err := m.Run(ctx, []Recipient{{Name: "Jane", Email: "jane@x", Status: FollowUp}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
	assert.Empty(t, gen.prompts)
}
