package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/logger"
	"github.com/spigell/talent-scorer/internal/matching"
	"github.com/spigell/talent-scorer/internal/pipeline"
	"github.com/spigell/talent-scorer/internal/ranking"
	"github.com/spigell/talent-scorer/internal/store"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Match, score and merge in one run",
	Long: `Evaluates every parsed resume against the profile, aggregates the match results
and merges the scores with the candidate table. The candidate table is read from
--candidates when given and built from the candidate store otherwise.`,
	Run: func(cmd *cobra.Command, _ []string) {
		l, config := setup()
		defer l.Sync()

		ctx := cmd.Context()
		profilePath, _ := cmd.Flags().GetString("profile")
		candidatesPath, _ := cmd.Flags().GetString("candidates")
		scoresPath, _ := cmd.Flags().GetString("scores")
		output, _ := cmd.Flags().GetString("output")
		top, _ := cmd.Flags().GetInt("top")

		profile, err := loadProfile(profilePath, l)
		if err != nil {
			l.Fatal("failed to read requirement profile", zap.Error(err))
		}
		log := logger.WithFields(l, zap.String(logger.FieldJob, profile.JobTitle))

		candidates, err := candidateTable(ctx, config, candidatesPath, log)
		if err != nil {
			log.Fatal("failed to load candidate table", zap.Error(err))
		}

		gen, err := newGenerator(ctx, config.AI, "", true, log)
		if err != nil {
			log.Fatal("failed to create text generator", zap.Error(err))
		}

		dirs := artifactDirs(config.Artifacts)
		runner := pipeline.NewRunner(pipeline.Deps{
			Logger:    log,
			Dirs:      dirs,
			Evaluator: matching.NewEvaluator(gen, dirs, config.AI.MaxLogLength, log),
			Profile:   profile,
		})

		scoreStep := &pipeline.ScoreStep{Output: scoresPath}
		reports, err := runner.Run(ctx, &pipeline.MatchStep{}, scoreStep)
		logReports(log, reports)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Fatal("ranking cancelled", zap.Error(err))
		case err != nil:
			// Whatever was scored is still merged.
			log.Error("ranking finished with errors", zap.Error(err))
		}

		merged, err := ranking.Merge(candidates, ranking.ScoreTable(scoreStep.Scores()), log)
		if err != nil {
			log.Fatal("failed to merge tables", zap.Error(err))
		}

		if err := writeRanking(log, merged, output, top); err != nil {
			log.Fatal("failed to write ranking", zap.Error(err))
		}
	},
}

func init() {
	rankCmd.Flags().StringP("profile", "p", "", "requirement profile file (.json, .yaml or .yml)")
	rankCmd.Flags().StringP("candidates", "c", "", "candidate table CSV; the candidate store is used when empty")
	rankCmd.Flags().StringP("scores", "s", defaultScoresFile, "where to write the score table; empty disables it")
	addRankingFlags(rankCmd)
	rankCmd.MarkFlagRequired("profile")

	rootCmd.AddCommand(rankCmd)
}

func candidateTable(ctx context.Context, config *Config, path string, l *zap.Logger) (*ranking.Table, error) {
	if path != "" {
		return ranking.ReadCSVFile(path)
	}

	var table *ranking.Table
	err := withStore(ctx, config.Storage, func(st store.Store) error {
		candidates, err := st.List(ctx, "")
		if err != nil {
			return err
		}
		table = ranking.CandidateTable(candidates, l)
		return nil
	})
	return table, err
}
