package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/notify"
	"github.com/spigell/talent-scorer/internal/secrets"
	"github.com/spigell/talent-scorer/internal/utils"
)

var notifyCmd = &cobra.Command{
	Use:   "notify <recipients.csv>",
	Short: "Draft application status emails and optionally send them",
	Long: `Reads a CSV with name, email and status columns. Known statuses are interview_invite,
rejection, follow_up and reschedule; an empty status means interview_invite and rows with
any other status are skipped. Drafts are printed unless --send is given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l, config := setup()
		defer l.Sync()

		job, _ := cmd.Flags().GetString("job")
		hrName, _ := cmd.Flags().GetString("hr-name")
		calendly, _ := cmd.Flags().GetString("calendly-link")
		send, _ := cmd.Flags().GetBool("send")

		log := logger.WithFields(l, zap.String(logger.FieldJob, job))

		file, err := os.Open(args[0])
		if err != nil {
			log.Fatal("failed to open recipients table", zap.Error(err))
		}
		recipients, err := notify.ReadRecipients(file)
		file.Close()
		if err != nil {
			log.Fatal("failed to read recipients table", zap.Error(err))
		}

		gen, err := newGenerator(cmd.Context(), config.AI, "", false, log)
		if err != nil {
			log.Fatal("failed to create text generator", zap.Error(err))
		}

		mailer := &notify.Mailer{
			Composer: notify.NewComposer(gen, notify.Context{
				JobTitle:     job,
				HRName:       utils.FirstNonEmpty(hrName, config.Mail.HRName),
				CalendlyLink: utils.FirstNonEmpty(calendly, config.Mail.CalendlyLink),
			}),
			Logger: log,
		}

		if send {
			sender, err := newSMTPSender(config.Mail)
			if err != nil {
				log.Fatal("failed to configure mail sender", zap.Error(err))
			}
			mailer.Sender = sender
		}

		outcomes, err := mailer.Run(cmd.Context(), recipients)
		if err != nil {
			log.Fatal("notification run cancelled", zap.Error(err))
		}

		var sent, skipped, failed int
		for _, o := range outcomes {
			switch {
			case o.Skipped:
				skipped++
			case o.Err != nil:
				failed++
			case o.Sent:
				sent++
			}
			if !send && o.Email != nil {
				printEmail(o.Email)
			}
		}

		log.Info("notifications processed",
			zap.Int("recipients", len(recipients)),
			zap.Int("sent", sent),
			zap.Int("skipped", skipped),
			zap.Int("failed", failed),
			zap.Bool("dry-run", !send),
		)
	},
}

func init() {
	notifyCmd.Flags().String("job", "", "job title mentioned in the emails")
	notifyCmd.Flags().String("hr-name", "", "signature name (default mail.hr-name)")
	notifyCmd.Flags().String("calendly-link", "", "scheduling link for invitations (default mail.calendly-link)")
	notifyCmd.Flags().Bool("send", false, "send the emails over SMTP instead of printing them")
	notifyCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(notifyCmd)
}

func newSMTPSender(config *MailConfig) (*notify.SMTPSender, error) {
	sender := &notify.SMTPSender{
		Host:      config.Host,
		Port:      config.Port,
		Username:  config.Username,
		From:      config.From,
		PlainText: config.PlainText,
	}

	if strings.TrimSpace(config.Username) == "" {
		return sender, nil
	}

	password, err := secrets.Load(secrets.Source{
		Name:  "smtp password",
		File:  config.PasswordFile,
		Value: config.Password,
		Env:   smtpPasswordEnv,
	})
	if err != nil {
		return nil, err
	}
	sender.Password = password

	return sender, nil
}

func printEmail(email *notify.Email) {
	fmt.Printf("To: %s\nSubject: %s\n\n%s\n%s\n", email.To, email.Subject, email.Body, strings.Repeat("-", 40))
}
