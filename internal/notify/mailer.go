package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/logger"
)

// Outcome is the result for one recipient. Skipped recipients have an unknown status.
type Outcome struct {
	Recipient Recipient
	Email     *Email
	Sent      bool
	Skipped   bool
	Err       error
}

// Mailer drafts emails for a batch of recipients and sends them when a Sender is set.
type Mailer struct {
	Composer *Composer
	Sender   Sender
	Logger   *zap.Logger
}

// Run processes recipients in order. Cancellation stops before the next recipient.
func (m *Mailer) Run(ctx context.Context, recipients []Recipient) ([]Outcome, error) {
	log := logger.WithFields(m.Logger)
	outcomes := make([]Outcome, 0, len(recipients))

	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		rlog := log.With(zap.String(logger.FieldCandidate, r.Name), zap.String("email", r.Email))
		outcome := Outcome{Recipient: r}

		if !r.Valid() {
			outcome.Skipped = true
			outcomes = append(outcomes, outcome)
			rlog.Warn("unknown status, skipping", zap.String("status", r.RawStatus))
			continue
		}

		email, err := m.Composer.Compose(ctx, r)
		if err != nil {
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			rlog.Warn("drafting email failed", zap.Error(err))
			continue
		}
		outcome.Email = email

		if m.Sender != nil {
			if err := m.Sender.Send(ctx, *email); err != nil {
				outcome.Err = err
				rlog.Error("sending email failed", zap.Error(err))
			} else {
				outcome.Sent = true
				rlog.Info("email sent", zap.String("subject", email.Subject))
			}
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
