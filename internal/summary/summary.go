// Package summary assembles the final recommendation record of an evaluation.
package summary

import (
	"fmt"

	"github.com/spigell/salary-evaluator/internal/budget"
	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/scoring"
	"github.com/spigell/salary-evaluator/internal/steps"
)

// Identity holds display-only fields about the candidate.
type Identity struct {
	Name          string `mapstructure:"name" json:"name" yaml:"name"`
	PositionTitle string `mapstructure:"position" json:"position_title" yaml:"position-title"`
	Grade         string `mapstructure:"grade" json:"grade,omitempty" yaml:"grade,omitempty"`
}

// Commentary carries free-text notes and the reviewer's qualitative selections.
type Commentary struct {
	Text              string             `json:"text,omitempty" yaml:"text,omitempty"`
	BudgetFlexibility budget.Flexibility `json:"budget_flexibility,omitempty" yaml:"budget-flexibility,omitempty"`
	Negotiation       budget.Negotiation `json:"negotiation,omitempty" yaml:"negotiation,omitempty"`
}

// EvaluationSummary is the terminal artifact of an evaluation.
type EvaluationSummary struct {
	Identity     Identity         `json:"identity" yaml:"identity"`
	Scores       scoring.ScoreSet `json:"scores" yaml:"scores"`
	Interval     steps.Interval   `json:"interval" yaml:"interval"`
	SelectedStep int              `json:"selected_step" yaml:"selected-step"`
	// Budget is nil when no ceiling was configured.
	Budget *budget.Decision `json:"budget,omitempty" yaml:"budget,omitempty"`
	// Equity is nil when no peer comparison was available.
	Equity     *equity.Snapshot `json:"equity,omitempty" yaml:"equity,omitempty"`
	Commentary Commentary       `json:"commentary" yaml:"commentary"`
}

// InvalidStepError reports a selected step outside the interval.
type InvalidStepError struct {
	Step     int
	Interval steps.Interval
}

func (e *InvalidStepError) Error() string {
	return fmt.Sprintf("step %d is outside %s", e.Step, e.Interval)
}

// Compose validates the selected step and returns the inputs as a summary
// without recomputing any of them.
func Compose(
	identity Identity,
	scores scoring.ScoreSet,
	interval steps.Interval,
	selectedStep int,
	decision *budget.Decision,
	snapshot *equity.Snapshot,
	commentary Commentary,
) (*EvaluationSummary, error) {
	if !interval.Contains(selectedStep) {
		return nil, &InvalidStepError{Step: selectedStep, Interval: interval}
	}

	return &EvaluationSummary{
		Identity:     identity,
		Scores:       scores,
		Interval:     interval,
		SelectedStep: selectedStep,
		Budget:       decision,
		Equity:       snapshot,
		Commentary:   commentary,
	}, nil
}

// Placement returns the equity placement or Unassigned when there is no snapshot.
func (s *EvaluationSummary) Placement() equity.Placement {
	if s.Equity == nil {
		return equity.PlacementUnassigned
	}
	return s.Equity.Placement
}
