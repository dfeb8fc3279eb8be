// Package evaluation runs a candidate through scoring, step mapping, peer
// equity, the budget check and the final summary.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/logger"
	"github.com/spigell/salary-evaluator/internal/profile"
	"github.com/spigell/salary-evaluator/internal/steps"
	"github.com/spigell/salary-evaluator/internal/summary"
)

const defaultConcurrency = 4

var (
	ErrMissingScores   = errors.New("scores or a score extractor are required")
	ErrMissingDocument = errors.New("a document is required by the score extractor")
)

// ScoreInput holds raw dimension scores supplied by the caller.
type ScoreInput struct {
	Education   int `mapstructure:"education" yaml:"education"`
	Experience  int `mapstructure:"experience" yaml:"experience"`
	Performance int `mapstructure:"performance" yaml:"performance"`
}

// Request is everything known about one candidate before evaluation.
type Request struct {
	Identity summary.Identity
	// Scores takes precedence over Document.
	Scores   *ScoreInput
	Document *extract.Document

	ProposedSalary decimal.Decimal
	// Ceiling nil or zero means no budget is configured.
	Ceiling *decimal.Decimal

	// SelectedStep nil lets the pipeline suggest or ask for a step.
	SelectedStep *int

	// PeerRows nil means no peer table was supplied. Rows are read only.
	PeerRows        []equity.Row
	ManualPlacement equity.Placement

	Commentary summary.Commentary
}

// Chooser lets an interactive caller decide what the request left open.
type Chooser interface {
	ChooseStep(interval steps.Interval, suggested int) (int, error)
	ChoosePlacement(snapshot equity.Snapshot) (equity.Placement, error)
}

// Result is the outcome of one evaluation.
type Result struct {
	Summary *summary.EvaluationSummary
	// Equity is nil when no peer table was supplied or it was rejected.
	Equity *equity.Result
	// EquityErr holds a peer table rejection. The evaluation still
	// completes without an equity snapshot.
	EquityErr     error
	StepSuggested bool
}

// Evaluator runs requests through a fixed pipeline built from a profile.
type Evaluator struct {
	profile   profile.Profile
	policy    equity.Policy
	extractor extract.Extractor
	logger    *zap.Logger
	stages    []Stage

	// Chooser is consulted by single evaluations only.
	Chooser Chooser
}

// New validates the profile and builds the pipeline. extractor may be nil
// when every request carries scores.
func New(p profile.Profile, policy equity.Policy, extractor extract.Extractor, log *zap.Logger) (*Evaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if policy == "" {
		policy = equity.DefaultPolicy
	}
	if _, err := equity.ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Evaluator{
		profile:   p,
		policy:    policy,
		extractor: extractor,
		logger:    log,
		stages: []Stage{
			scoresStage{},
			intervalStage{profile: p.Name, table: p.Table()},
			equityStage{policy: policy},
			stepStage{},
			budgetStage{},
			composeStage{},
		},
	}, nil
}

// Evaluate runs a single request.
func (e *Evaluator) Evaluate(ctx context.Context, req *Request) (*Result, error) {
	return e.evaluate(ctx, req, e.Chooser)
}

func (e *Evaluator) evaluate(ctx context.Context, req *Request, chooser Chooser) (*Result, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}

	deps := Deps{
		Logger:    logger.WithCandidate(e.logger, req.Identity.Name, req.Identity.PositionTitle),
		Extractor: e.extractor,
		Chooser:   chooser,
	}

	st := &State{Request: req}
	if err := Run(ctx, deps, e.stages, st); err != nil {
		return nil, err
	}

	return &Result{
		Summary:       st.Summary,
		Equity:        st.Equity,
		EquityErr:     st.EquityErr,
		StepSuggested: st.StepSuggested,
	}, nil
}

// BatchItem pairs a request with its result or error.
type BatchItem struct {
	Request *Request
	Result  *Result
	Err     error
}

// EvaluateBatch evaluates requests in parallel. A failed candidate is
// reported in its item and does not stop the others; only cancellation
// aborts the batch. Items keep the order of reqs.
func (e *Evaluator) EvaluateBatch(ctx context.Context, reqs []*Request, concurrency int) ([]BatchItem, error) {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	items := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		items[i].Request = req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return err
			}

			res, err := e.evaluate(gctx, req, nil)
			if err != nil {
				name := ""
				if req != nil {
					name = req.Identity.Name
				}
				e.logger.Warn("candidate evaluation failed", zap.String(logger.FieldCandidate, name), zap.Error(err))
				items[i].Err = err
				return nil
			}
			items[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return items, err
	}
	if err := ctx.Err(); err != nil {
		return items, err
	}
	return items, nil
}

// Describe reports the configured pipeline.
func (e *Evaluator) Describe() []Status {
	statuses := Describe(e.stages)
	extractor := "none"
	if e.extractor != nil {
		extractor = e.extractor.Name()
	}
	for i := range statuses {
		if statuses[i].Name == "scores" {
			statuses[i].Details = map[string]string{"extractor": extractor}
		}
	}
	return statuses
}

// Profile returns the profile the evaluator was built with.
func (e *Evaluator) Profile() profile.Profile {
	return e.profile
}

// FormatStatuses renders statuses one per line for logs and the CLI.
func FormatStatuses(statuses []Status) string {
	var b strings.Builder
	for _, s := range statuses {
		b.WriteString(s.Name)
		for _, k := range sortedKeys(s.Details) {
			fmt.Fprintf(&b, " %s=%s", k, s.Details[k])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
