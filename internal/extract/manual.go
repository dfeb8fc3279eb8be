package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/salary-evaluator/internal/scoring"
)

const defaultManualScore = 5

// Prompter asks a person for a single integer score.
type Prompter interface {
	AskScore(label string, def int) (int, error)
}

// Manual collects scores by asking a person. The document is ignored.
type Manual struct {
	prompter Prompter
}

// NewManual creates a manual extractor. A nil prompter uses the terminal.
func NewManual(prompter Prompter) *Manual {
	if prompter == nil {
		prompter = TerminalPrompter{}
	}
	return &Manual{prompter: prompter}
}

func (m *Manual) Name() string { return KindManual }

func (m *Manual) Extract(ctx context.Context, _ Document) (scoring.ScoreSet, error) {
	values := make(map[scoring.Dimension]int, 3)
	for _, d := range scoring.Dimensions() {
		if err := ctx.Err(); err != nil {
			return scoring.ScoreSet{}, err
		}

		v, err := m.prompter.AskScore(dimensionLabel(d), defaultManualScore)
		if err != nil {
			return scoring.ScoreSet{}, fmt.Errorf("asking %s score: %w", d, err)
		}
		values[d] = v
	}

	return scoring.Aggregate(values[scoring.Education], values[scoring.Experience], values[scoring.Performance])
}

func dimensionLabel(d scoring.Dimension) string {
	switch d {
	case scoring.Education:
		return "Education & Qualifications"
	case scoring.Experience:
		return "Experience"
	case scoring.Performance:
		return "Performance Potential"
	default:
		return string(d)
	}
}

// TerminalPrompter asks through promptui.
type TerminalPrompter struct{}

func (TerminalPrompter) AskScore(label string, def int) (int, error) {
	prompt := promptui.Prompt{
		Label:    fmt.Sprintf("%s (%d-%d)", label, scoring.MinDimensionScore, scoring.MaxDimensionScore),
		Default:  strconv.Itoa(def),
		Validate: validateScoreInput,
	}

	raw, err := prompt.Run()
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(raw))
}

func validateScoreInput(input string) error {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if v < scoring.MinDimensionScore || v > scoring.MaxDimensionScore {
		return fmt.Errorf("score must be between %d and %d", scoring.MinDimensionScore, scoring.MaxDimensionScore)
	}
	return nil
}

// Fixed returns scores supplied up front, for example from flags or a batch file.
type Fixed struct {
	scores scoring.ScoreSet
}

// NewFixed validates the scores once so Extract can return them unchanged.
func NewFixed(education, experience, performance int) (*Fixed, error) {
	scores, err := scoring.Aggregate(education, experience, performance)
	if err != nil {
		return nil, err
	}
	return &Fixed{scores: scores}, nil
}

func (f *Fixed) Name() string { return KindManual }

func (f *Fixed) Extract(ctx context.Context, _ Document) (scoring.ScoreSet, error) {
	if err := ctx.Err(); err != nil {
		return scoring.ScoreSet{}, err
	}
	return f.scores, nil
}
