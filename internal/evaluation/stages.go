package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/salary-evaluator/internal/budget"
	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/logger"
	"github.com/spigell/salary-evaluator/internal/scoring"
	"github.com/spigell/salary-evaluator/internal/steps"
	"github.com/spigell/salary-evaluator/internal/summary"
)

// Stage is one step of the evaluation pipeline. Stages keep no per-request
// state, so a pipeline may serve concurrent evaluations.
type Stage interface {
	Name() string
	Apply(ctx context.Context, deps Deps, st *State) (Step, error)
	Status() Status
}

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Logger    *zap.Logger
	Extractor extract.Extractor
	Chooser   Chooser
}

// State is carried through the stages of a single evaluation.
type State struct {
	Request       *Request
	Scores        scoring.ScoreSet
	Interval      steps.Interval
	Equity        *equity.Result
	EquityErr     error
	Snapshot      *equity.Snapshot
	Step          int
	StepSuggested bool
	Budget        *budget.Decision
	Summary       *summary.EvaluationSummary
}

// Step describes the result of executing a stage.
type Step struct {
	Outcome string
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string
	Details map[string]string
}

// Run executes the stages sequentially.
func Run(ctx context.Context, deps Deps, stages []Stage, st *State) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := stage.Apply(ctx, deps, st)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("evaluation stage",
				zap.String("name", stage.Name()),
				zap.String("outcome", info.Outcome),
			)
		}
	}
	return nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		statuses = append(statuses, stage.Status())
	}
	return statuses
}

type scoresStage struct{}

func (scoresStage) Name() string { return "scores" }

func (scoresStage) Apply(ctx context.Context, deps Deps, st *State) (Step, error) {
	req := st.Request
	if req.Scores != nil {
		scores, err := scoring.Aggregate(req.Scores.Education, req.Scores.Experience, req.Scores.Performance)
		if err != nil {
			return Step{}, err
		}
		st.Scores = scores
		return Step{Outcome: fmt.Sprintf("given, total %d", scores.Total)}, nil
	}

	if deps.Extractor == nil {
		return Step{}, ErrMissingScores
	}

	var doc extract.Document
	if req.Document != nil {
		doc = *req.Document
	} else if deps.Extractor.Name() != extract.KindManual {
		return Step{}, ErrMissingDocument
	}
	if doc.Position == "" {
		doc.Position = req.Identity.PositionTitle
	}

	scores, err := deps.Extractor.Extract(ctx, doc)
	if err != nil {
		return Step{}, fmt.Errorf("%s extractor: %w", deps.Extractor.Name(), err)
	}

	// Extractors are untrusted; re-check the range and the total.
	scores, err = scoring.Aggregate(scores.Education, scores.Experience, scores.Performance)
	if err != nil {
		return Step{}, err
	}

	st.Scores = scores
	return Step{Outcome: fmt.Sprintf("%s, total %d", deps.Extractor.Name(), scores.Total)}, nil
}

func (scoresStage) Status() Status {
	return Status{Name: "scores"}
}

type intervalStage struct {
	profile string
	table   steps.Table
}

func (s intervalStage) Name() string { return "interval" }

func (s intervalStage) Apply(_ context.Context, _ Deps, st *State) (Step, error) {
	st.Interval = s.table.Map(st.Scores.Total)
	return Step{Outcome: st.Interval.String()}, nil
}

func (s intervalStage) Status() Status {
	return Status{Name: s.Name(), Details: map[string]string{
		"profile": s.profile,
		"bands":   strconv.Itoa(len(s.table.Bands)),
	}}
}

type equityStage struct {
	policy equity.Policy
}

func (s equityStage) Name() string { return "equity" }

func (s equityStage) Apply(_ context.Context, deps Deps, st *State) (Step, error) {
	req := st.Request
	log := logger.WithFields(deps.Logger)

	if req.PeerRows != nil {
		result, err := equity.Analyze(req.PeerRows, req.Identity.PositionTitle, req.ProposedSalary, s.policy)
		var schemaErr *equity.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			// The table is unusable but the rest of the evaluation is not.
			log.Warn("peer table rejected", zap.Error(err))
			st.EquityErr = err
		case err != nil:
			return Step{}, err
		default:
			st.Equity = result
			for _, rowErr := range result.RowErrors {
				log.Warn("peer row rejected", zap.Error(rowErr))
			}
			for _, warning := range result.Warnings {
				log.Warn("peer row field ignored", zap.Error(warning))
			}
		}

		if result != nil && !result.NoPeers() {
			snapshot := *result.Snapshot
			if snapshot.Policy == equity.PolicyManual {
				placed, err := s.place(deps, req, snapshot)
				if err != nil {
					return Step{}, err
				}
				snapshot = placed
			} else if req.ManualPlacement != "" {
				log.Warn("manual placement ignored",
					zap.String("placement", string(req.ManualPlacement)),
					zap.String("policy", string(snapshot.Policy)),
				)
			}
			st.Snapshot = &snapshot
			return Step{Outcome: fmt.Sprintf("%d peers, %s", result.Matched, snapshot.Placement)}, nil
		}
	}

	// No cohort to compare against: the reviewer may still place by hand.
	candidate, err := equity.CandidateOnly(req.Identity.PositionTitle, req.ProposedSalary)
	if err != nil {
		return Step{}, err
	}
	placed, err := s.place(deps, req, candidate)
	if err != nil {
		return Step{}, err
	}
	outcome := equity.OutcomeNoPeers.String()
	if st.EquityErr != nil {
		outcome = "peer table rejected"
	}
	if placed.Placement == equity.PlacementUnassigned {
		return Step{Outcome: outcome}, nil
	}

	st.Snapshot = &placed
	return Step{Outcome: fmt.Sprintf("%s, manual %s", outcome, placed.Placement)}, nil
}

// place annotates a manual-policy snapshot from the request or the chooser.
func (s equityStage) place(deps Deps, req *Request, snapshot equity.Snapshot) (equity.Snapshot, error) {
	placement := req.ManualPlacement
	if placement == "" && deps.Chooser != nil {
		chosen, err := deps.Chooser.ChoosePlacement(snapshot)
		if err != nil {
			return equity.Snapshot{}, fmt.Errorf("choose placement: %w", err)
		}
		placement = chosen
	}
	if placement == "" || placement == equity.PlacementUnassigned {
		return snapshot, nil
	}
	return snapshot.WithPlacement(placement)
}

func (s equityStage) Status() Status {
	return Status{Name: s.Name(), Details: map[string]string{"policy": string(s.policy)}}
}

type stepStage struct{}

func (stepStage) Name() string { return "step" }

func (stepStage) Apply(_ context.Context, deps Deps, st *State) (Step, error) {
	req := st.Request
	if req.SelectedStep != nil {
		st.Step = *req.SelectedStep
		return Step{Outcome: fmt.Sprintf("selected %d", st.Step)}, nil
	}

	placement := equity.PlacementUnassigned
	if st.Snapshot != nil {
		placement = st.Snapshot.Placement
	}
	suggested := SuggestStep(st.Interval, placement)

	if deps.Chooser != nil {
		chosen, err := deps.Chooser.ChooseStep(st.Interval, suggested)
		if err != nil {
			return Step{}, fmt.Errorf("choose step: %w", err)
		}
		st.Step = chosen
		return Step{Outcome: fmt.Sprintf("chosen %d (suggested %d)", chosen, suggested)}, nil
	}

	st.Step = suggested
	st.StepSuggested = true
	return Step{Outcome: fmt.Sprintf("suggested %d", suggested)}, nil
}

func (stepStage) Status() Status {
	return Status{Name: "step"}
}

type budgetStage struct{}

func (budgetStage) Name() string { return "budget" }

func (budgetStage) Apply(_ context.Context, deps Deps, st *State) (Step, error) {
	ceiling := st.Request.Ceiling
	if ceiling == nil || ceiling.IsZero() {
		return Step{Outcome: "no ceiling configured"}, nil
	}

	decision := budget.Validate(st.Request.ProposedSalary, *ceiling)
	st.Budget = &decision

	if !decision.WithinBudget && deps.Logger != nil {
		deps.Logger.Warn("proposed salary exceeds budget",
			logger.Money("proposed_salary", decision.ProposedSalary),
			logger.Money("ceiling", decision.Ceiling),
			logger.Money("overage", decision.Overage()),
		)
	}
	return Step{Outcome: decision.Status()}, nil
}

func (budgetStage) Status() Status {
	return Status{Name: "budget"}
}

type composeStage struct{}

func (composeStage) Name() string { return "compose" }

func (composeStage) Apply(_ context.Context, _ Deps, st *State) (Step, error) {
	out, err := summary.Compose(
		st.Request.Identity,
		st.Scores,
		st.Interval,
		st.Step,
		st.Budget,
		st.Snapshot,
		st.Request.Commentary,
	)
	if err != nil {
		var stepErr *summary.InvalidStepError
		if errors.As(err, &stepErr) && st.StepSuggested {
			return Step{}, fmt.Errorf("suggested step is invalid: %w", err)
		}
		return Step{}, err
	}

	st.Summary = out
	return Step{Outcome: string(out.Placement())}, nil
}

func (composeStage) Status() Status {
	return Status{Name: "compose"}
}

// SuggestStep picks a step inside the interval from the equity placement:
// low placements start at the bottom, high ones at the top, the rest in
// the middle.
func SuggestStep(interval steps.Interval, placement equity.Placement) int {
	switch placement.Position() {
	case equity.PositionLow:
		return interval.LowStep
	case equity.PositionHigh:
		return interval.HighStep
	default:
		return interval.Middle()
	}
}
