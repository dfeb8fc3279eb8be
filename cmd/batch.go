package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/salary-evaluator/internal/candidates"
	"github.com/spigell/salary-evaluator/internal/report"
	"github.com/spigell/salary-evaluator/internal/summary"
)

var batchCmd = &cobra.Command{
	Use:   "batch <candidates.yaml>",
	Short: "Evaluate every candidate of a batch file against one peer table",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		batch(args[0])
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntP("concurrency", "c", 0, "how many candidates to evaluate at once (default 4)")
	batchCmd.Flags().Bool("report", false, "log a report grouped by step interval")

	viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("batch.report", batchCmd.Flags().Lookup("report"))
}

func batch(path string) {
	ctx := context.Background()

	logger, runID := newRunLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the salary-evaluator batch", zap.String("version", version), zap.String("file", path))

	file, err := candidates.Load(path)
	if err != nil {
		logger.Fatal("reading candidates", zap.Error(err))
	}

	rows, err := loadPeerRows(ctx, config.Equity, logger)
	if err != nil {
		logger.Fatal("loading peers", zap.Error(err))
	}

	ceiling, err := parseAmount("budget ceiling", config.Budget.Ceiling)
	if err != nil {
		logger.Fatal("reading budget", zap.Error(err))
	}

	reqs, err := file.Requests(candidates.Defaults{Ceiling: ceiling, PeerRows: rows})
	if err != nil {
		logger.Fatal("preparing candidates", zap.Error(err))
	}

	evaluator, err := newEvaluator(ctx, config, nil, false, logger)
	if err != nil {
		logger.Fatal("creating the evaluator", zap.Error(err))
	}

	items, err := evaluator.EvaluateBatch(ctx, reqs, config.Batch.Concurrency)
	if err != nil {
		logger.Fatal("batch evaluation interrupted", zap.Error(err))
	}

	summaries := make([]*summary.EvaluationSummary, 0, len(items))
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			continue
		}
		summaries = append(summaries, item.Result.Summary)
	}

	logger.Info("batch finished",
		zap.Int("candidates", len(items)),
		zap.Int("evaluated", len(summaries)),
		zap.Int("failed", failed),
	)

	if viper.GetBool("batch.report") {
		pretty, _ := json.MarshalIndent(report.ByInterval(summaries), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", len(summaries)))
	}

	if config.Output.Dump {
		filename, err := report.DumpToTmpFile(runID, summaries)
		if err != nil {
			logger.Fatal("dump results to file", zap.Error(err))
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
	}

	format, err := report.ParseFormat(config.Output.Format)
	if err != nil {
		logger.Fatal("choosing output format", zap.Error(err))
	}
	if err := report.Write(os.Stdout, format, summaries...); err != nil {
		logger.Fatal("writing summaries", zap.Error(err))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
