package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/pipeline"
	"github.com/spigell/talent-scorer/internal/resume"
	"github.com/spigell/talent-scorer/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file or directory>...",
	Short: "Extract resumes into the candidate store and the parsed records directory",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l, config := setup()
		defer l.Sync()

		paths, err := pipeline.CollectDocuments(args)
		if err != nil {
			l.Fatal("failed to collect resume documents", zap.Error(err))
		}
		if len(paths) == 0 {
			l.Warn("no resume documents found", zap.Strings("extensions", resume.SupportedExtensions))
			return
		}

		gen, err := newGenerator(cmd.Context(), config.AI, "", true, l)
		if err != nil {
			l.Fatal("failed to create text generator", zap.Error(err))
		}

		err = withStore(cmd.Context(), config.Storage, func(st store.Store) error {
			runner := pipeline.NewRunner(pipeline.Deps{
				Logger:    l,
				Dirs:      artifactDirs(config.Artifacts),
				Store:     st,
				Extractor: resume.NewExtractor(gen, config.AI.MaxLogLength, l),
			})

			reports, err := runner.Run(cmd.Context(), &pipeline.IngestStep{Paths: paths})
			logReports(l, reports)
			return err
		})
		if err != nil {
			l.Fatal("ingest failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func logReports(l *zap.Logger, reports []*pipeline.Report) {
	for _, report := range reports {
		for _, failure := range report.Failures {
			l.Warn("item failed", zap.String("step", report.Step), zap.String("item", failure.Item), zap.Error(failure.Err))
		}
		l.Info("step finished",
			zap.String("step", report.Step),
			zap.String("run", report.RunID),
			zap.Int("total", report.Total),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", len(report.Failures)),
			zap.Bool("cancelled", report.Cancelled),
		)
	}
}
