package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/ranking"
	"github.com/spigell/talent-scorer/internal/store"
)

var (
	candidatesCmd = &cobra.Command{
		Use:   "candidates",
		Short: "Browse and manage the candidate store",
	}

	candidatesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored candidates",
		Run: func(cmd *cobra.Command, _ []string) {
			l, config := setup()
			defer l.Sync()

			search, _ := cmd.Flags().GetString("search")

			candidates, err := listCandidates(cmd.Context(), config.Storage, search)
			if err != nil {
				l.Fatal("failed to list candidates", zap.Error(err))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEMAIL\tPHONE")
			for _, c := range candidates {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Email, c.Phone)
			}
			w.Flush()

			l.Debug("candidates listed", zap.Int("count", len(candidates)), zap.String("search", search))
		},
	}

	candidatesDeleteCmd = &cobra.Command{
		Use:   "delete <email>",
		Short: "Delete a candidate by email",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, config := setup()
			defer l.Sync()

			email := args[0]
			yes, _ := cmd.Flags().GetBool("yes")

			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Delete candidate %s", email),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					l.Info("deletion cancelled", zap.String("email", email))
					return
				}
			}

			err := withStore(cmd.Context(), config.Storage, func(st store.Store) error {
				return st.Delete(cmd.Context(), email)
			})
			switch {
			case errors.Is(err, store.ErrCandidateNotFound):
				l.Warn("candidate not found", zap.String("email", email))
			case err != nil:
				l.Fatal("failed to delete candidate", zap.Error(err))
			default:
				l.Info("candidate deleted", zap.String("email", email))
			}
		},
	}

	candidatesExportCmd = &cobra.Command{
		Use:   "export <file.csv|file.xlsx>",
		Short: "Export stored candidates as CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, config := setup()
			defer l.Sync()

			search, _ := cmd.Flags().GetString("search")

			candidates, err := listCandidates(cmd.Context(), config.Storage, search)
			if err != nil {
				l.Fatal("failed to list candidates", zap.Error(err))
			}

			if err := ranking.CandidateTable(candidates, l).WriteFile(args[0]); err != nil {
				l.Fatal("failed to export candidates", zap.Error(err))
			}
			l.Info("candidates exported", zap.String("path", args[0]), zap.Int("count", len(candidates)))
		},
	}
)

func init() {
	candidatesListCmd.Flags().StringP("search", "s", "", "only candidates whose name or email contains this text")
	candidatesExportCmd.Flags().StringP("search", "s", "", "only candidates whose name or email contains this text")
	candidatesDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	candidatesCmd.AddCommand(candidatesListCmd, candidatesDeleteCmd, candidatesExportCmd)
	rootCmd.AddCommand(candidatesCmd)
}

func listCandidates(ctx context.Context, config *StorageConfig, search string) ([]store.Candidate, error) {
	var candidates []store.Candidate
	err := withStore(ctx, config, func(st store.Store) error {
		var err error
		candidates, err = st.List(ctx, search)
		return err
	})
	return candidates, err
}
