package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/ranking"
)

const defaultMergedFile = "merged_candidates_scores.csv"

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a candidate table with a score table into a ranked table",
	Run: func(cmd *cobra.Command, _ []string) {
		l, _ := setup()
		defer l.Sync()

		candidatesPath, _ := cmd.Flags().GetString("candidates")
		scoresPath, _ := cmd.Flags().GetString("scores")
		output, _ := cmd.Flags().GetString("output")
		top, _ := cmd.Flags().GetInt("top")

		candidates, err := ranking.ReadCSVFile(candidatesPath)
		if err != nil {
			l.Fatal("failed to read candidate table", zap.Error(err))
		}
		scores, err := ranking.ReadCSVFile(scoresPath)
		if err != nil {
			l.Fatal("failed to read score table", zap.Error(err))
		}

		merged, err := ranking.Merge(candidates, scores, l)
		if err != nil {
			l.Fatal("failed to merge tables", zap.Error(err))
		}

		if err := writeRanking(l, merged, output, top); err != nil {
			l.Fatal("failed to write ranking", zap.Error(err))
		}
	},
}

func init() {
	mergeCmd.Flags().StringP("candidates", "c", "", "candidate table (CSV with a Name column)")
	mergeCmd.Flags().StringP("scores", "s", defaultScoresFile, "score table (CSV with Name and Score columns)")
	addRankingFlags(mergeCmd)
	mergeCmd.MarkFlagRequired("candidates")

	rootCmd.AddCommand(mergeCmd)
}

func addRankingFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", defaultMergedFile, "ranked table file (.csv or .xlsx)")
	cmd.Flags().IntP("top", "n", 0, "also write the best N candidates to top_<N>_candidates next to the output")
}

// writeRanking writes the full ranking and, when top is positive, the top-N table
// next to it with the same extension.
func writeRanking(l *zap.Logger, merged *ranking.Ranking, output string, top int) error {
	if err := merged.Table().WriteFile(output); err != nil {
		return err
	}
	l.Info("ranking written", zap.String("path", output), zap.Int("candidates", len(merged.Rows)))

	if top <= 0 {
		return nil
	}

	best := merged.TopN(top)
	topPath := filepath.Join(filepath.Dir(output), fmt.Sprintf("top_%d_candidates%s", top, filepath.Ext(output)))
	if err := best.Table().WriteFile(topPath); err != nil {
		return err
	}
	l.Info("top candidates written", zap.String("path", topPath), zap.Int("candidates", len(best.Rows)))

	for i, row := range best.Rows {
		score := "-"
		if row.Score != nil {
			score = fmt.Sprintf("%.2f", *row.Score)
		}
		fmt.Printf("%d. %s %s\n", i+1, ranking.Cell(row.Values, nameColumn(merged.Header)), score)
	}

	return nil
}

func nameColumn(header []string) int {
	t := ranking.Table{Header: header}
	return t.Column(ranking.ColumnName)
}
