package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/matching"
	"github.com/spigell/talent-scorer/internal/pipeline"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Evaluate every parsed resume against a requirement profile",
	Run: func(cmd *cobra.Command, _ []string) {
		l, config := setup()
		defer l.Sync()

		profilePath, _ := cmd.Flags().GetString("profile")

		profile, err := loadProfile(profilePath, l)
		if err != nil {
			l.Fatal("failed to read requirement profile", zap.Error(err))
		}

		gen, err := newGenerator(cmd.Context(), config.AI, "", true, l)
		if err != nil {
			l.Fatal("failed to create text generator", zap.Error(err))
		}

		dirs := artifactDirs(config.Artifacts)
		log := logger.WithFields(l, zap.String(logger.FieldJob, profile.JobTitle))

		runner := pipeline.NewRunner(pipeline.Deps{
			Logger:    log,
			Dirs:      dirs,
			Evaluator: matching.NewEvaluator(gen, dirs, config.AI.MaxLogLength, log),
			Profile:   profile,
		})

		reports, err := runner.Run(cmd.Context(), &pipeline.MatchStep{})
		logReports(log, reports)
		if err != nil {
			log.Fatal("matching failed", zap.Error(err))
		}
	},
}

func init() {
	matchCmd.Flags().StringP("profile", "p", "", "requirement profile file (.json, .yaml or .yml)")
	matchCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(matchCmd)
}
