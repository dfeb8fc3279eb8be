package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/salary-evaluator/internal/budget"
	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/evaluation"
	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/report"
	"github.com/spigell/salary-evaluator/internal/summary"
)

const (
	PromptShowSummary = "Show summary"
	PromptReportRows  = "Report row"
	PromptPrintJSON   = "Print as JSON"
	PromptDumpToFile  = "Dump summary to file"
	PromptExit        = "Exit"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowSummary, PromptReportRows, PromptPrintJSON, PromptDumpToFile, PromptExit},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("name", "", "candidate name")
	evaluateCmd.Flags().String("position", "", "position title, also used to select peers")
	evaluateCmd.Flags().String("grade", "", "grade or level")
	evaluateCmd.Flags().Int("education", 0, "education & qualifications score")
	evaluateCmd.Flags().Int("experience", 0, "experience score")
	evaluateCmd.Flags().Int("performance", 0, "performance potential score")
	evaluateCmd.Flags().String("document", "", "plain text resume or evaluation notes for the score extractor")
	evaluateCmd.Flags().String("salary", "", "proposed salary")
	evaluateCmd.Flags().Int("step", 0, "selected step (default is suggested from the equity placement)")
	evaluateCmd.Flags().String("placement", "", "manual equity placement: \"Above Peers\", \"Aligned with Peers\" or \"Below Peers\"")
	evaluateCmd.Flags().String("budget-flexibility", "", "high, moderate or minimal")
	evaluateCmd.Flags().String("negotiation", "", "aligned, slight or significant")
	evaluateCmd.Flags().String("comments", "", "free text comments")
	evaluateCmd.Flags().BoolP("yes", "y", false, "do not ask anything, print the summary and exit")
}

func evaluate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, runID := newRunLogger()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the salary-evaluator", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	interactive := !mustBool(cmd, "yes")

	req, fixed, err := buildRequest(cmd, config, interactive)
	if err != nil {
		logger.Fatal("preparing the evaluation", zap.Error(err))
	}

	req.PeerRows, err = loadPeerRows(ctx, config.Equity, logger)
	if err != nil {
		logger.Fatal("loading peers", zap.Error(err))
	}

	evaluator, err := newEvaluator(ctx, config, fixed, interactive, logger)
	if err != nil {
		logger.Fatal("creating the evaluator", zap.Error(err))
	}
	if interactive {
		evaluator.Chooser = promptChooser{}
	}

	res, err := evaluator.Evaluate(ctx, req)
	if err != nil {
		logger.Fatal("evaluation failed", zap.Error(err))
	}

	if res.EquityErr != nil {
		logger.Warn("peer comparison skipped", zap.Error(res.EquityErr))
	}
	logEquityResult(logger, res.Equity)

	s := res.Summary
	logger.Info("evaluation finished",
		zap.Int("total", s.Scores.Total),
		zap.String("interval", s.Interval.String()),
		zap.Int("step", s.SelectedStep),
		zap.String("placement", string(s.Placement())),
	)

	format, err := report.ParseFormat(config.Output.Format)
	if err != nil {
		logger.Fatal("choosing output format", zap.Error(err))
	}

	if config.Output.Dump {
		if err := handleAction(PromptDumpToFile, logger, runID, format, s); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	if !interactive {
		if err := report.Write(os.Stdout, format, s); err != nil {
			logger.Fatal("writing summary", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, runID, format, s); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, runID, format string, s *summary.EvaluationSummary) error {
	switch action {
	case PromptShowSummary:
		return report.Write(os.Stdout, format, s)
	case PromptReportRows:
		pretty, _ := json.MarshalIndent(report.Rows(s), "", "  ")
		logger.Info(string(pretty))
		return nil
	case PromptPrintJSON:
		return report.Write(os.Stdout, report.FormatJSON, s)
	case PromptDumpToFile:
		filename, err := report.DumpToTmpFile(runID, []*summary.EvaluationSummary{s})
		if err != nil {
			return fmt.Errorf("dump summary to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// buildRequest collects the candidate from flags, asking for whatever is
// missing when interactive. The returned extractor is set when scores were
// given as flags.
func buildRequest(cmd *cobra.Command, config *Config, interactive bool) (*evaluation.Request, extract.Extractor, error) {
	flags := cmd.Flags()
	req := &evaluation.Request{}

	name, position := mustString(cmd, "name"), mustString(cmd, "position")
	salary := mustString(cmd, "salary")
	if interactive {
		var err error
		if name, err = askText("Candidate name", name, true); err != nil {
			return nil, nil, err
		}
		if position, err = askText("Position title", position, true); err != nil {
			return nil, nil, err
		}
		if salary, err = askAmount("Proposed salary", salary); err != nil {
			return nil, nil, err
		}
	}
	if name == "" || position == "" || salary == "" {
		return nil, nil, errors.New("--name, --position and --salary are required with --yes")
	}

	req.Identity = summary.Identity{Name: name, PositionTitle: position, Grade: mustString(cmd, "grade")}

	proposed, err := parseAmount("salary", salary)
	if err != nil {
		return nil, nil, err
	}
	req.ProposedSalary = *proposed

	if req.Ceiling, err = parseAmount("budget ceiling", config.Budget.Ceiling); err != nil {
		return nil, nil, err
	}

	var fixed extract.Extractor
	given := 0
	for _, f := range []string{"education", "experience", "performance"} {
		if flags.Changed(f) {
			given++
		}
	}
	switch given {
	case 0:
	case 3:
		fixed, err = extract.NewFixed(mustInt(cmd, "education"), mustInt(cmd, "experience"), mustInt(cmd, "performance"))
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, errors.New("--education, --experience and --performance must be given together")
	}

	if path := mustString(cmd, "document"); path != "" {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading document: %w", err)
		}
		req.Document = &extract.Document{Name: filepath.Base(path), Text: string(text), Position: position}
	}

	if flags.Changed("step") {
		step := mustInt(cmd, "step")
		req.SelectedStep = &step
	}

	if raw := mustString(cmd, "placement"); raw != "" {
		if req.ManualPlacement, err = equity.ParseManualPlacement(raw); err != nil {
			return nil, nil, err
		}
	}

	if req.Commentary, err = buildCommentary(cmd, interactive); err != nil {
		return nil, nil, err
	}

	return req, fixed, nil
}

func buildCommentary(cmd *cobra.Command, interactive bool) (summary.Commentary, error) {
	flex, err := budget.ParseFlexibility(mustString(cmd, "budget-flexibility"))
	if err != nil {
		return summary.Commentary{}, err
	}
	negotiation, err := budget.ParseNegotiation(mustString(cmd, "negotiation"))
	if err != nil {
		return summary.Commentary{}, err
	}
	comments := mustString(cmd, "comments")

	if interactive {
		if flex == "" {
			if flex, err = askFlexibility(); err != nil {
				return summary.Commentary{}, err
			}
		}
		if negotiation == "" {
			if negotiation, err = askNegotiation(); err != nil {
				return summary.Commentary{}, err
			}
		}
		if comments, err = askText("Comments (optional)", comments, false); err != nil {
			return summary.Commentary{}, err
		}
	}

	return summary.Commentary{Text: comments, BudgetFlexibility: flex, Negotiation: negotiation}, nil
}

func logEquityResult(logger *zap.Logger, res *equity.Result) {
	if res == nil {
		logger.Info("no peer comparison available")
		return
	}
	if len(res.RowErrors) > 0 {
		logger.Warn("some peer rows were rejected", zap.Int("count", len(res.RowErrors)))
	}
	if res.NoPeers() {
		logger.Warn("no matching peers found", zap.Error(res.Err()))
		return
	}
	snap := res.Snapshot
	logger.Info("peer comparison",
		zap.Int("peers", res.Matched),
		zap.String("min", report.Money(snap.Min)),
		zap.String("max", report.Money(snap.Max)),
		zap.String("mean", report.Money(snap.Mean)),
	)
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
