package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/pipeline"
)

const defaultScoresFile = "matching_scores.csv"

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Aggregate match results into one score per candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		l, config := setup()
		defer l.Sync()

		output, _ := cmd.Flags().GetString("output")

		runner := pipeline.NewRunner(pipeline.Deps{
			Logger: l,
			Dirs:   artifactDirs(config.Artifacts),
		})

		reports, err := runner.Run(cmd.Context(), &pipeline.ScoreStep{Output: output})
		logReports(l, reports)
		if err != nil {
			l.Fatal("scoring failed", zap.Error(err))
		}
	},
}

func init() {
	scoreCmd.Flags().StringP("output", "o", defaultScoresFile, "score table file (.csv or .xlsx)")

	rootCmd.AddCommand(scoreCmd)
}
