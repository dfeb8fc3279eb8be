package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/spigell/salary-evaluator/internal/budget"
	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/report"
	"github.com/spigell/salary-evaluator/internal/steps"
)

const promptSkip = "Skip"

// promptChooser asks the reviewer in the terminal for whatever the flags
// left open.
type promptChooser struct{}

func (promptChooser) ChooseStep(interval steps.Interval, suggested int) (int, error) {
	items := make([]string, 0, len(interval.Steps()))
	cursor := 0
	for i, step := range interval.Steps() {
		label := strconv.Itoa(step)
		if step == suggested {
			label += " (suggested)"
			cursor = i
		}
		items = append(items, label)
	}

	prompt := promptui.Select{
		Label:     fmt.Sprintf("Select a step in %s", interval),
		Items:     items,
		CursorPos: cursor,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return interval.Steps()[idx], nil
}

func (promptChooser) ChoosePlacement(snapshot equity.Snapshot) (equity.Placement, error) {
	var label string
	if snapshot.PeerCount() == 0 {
		label = "No matching peers. Manual placement"
	} else {
		label = fmt.Sprintf("%d peers, average %s, range %s - %s. Equity placement",
			snapshot.PeerCount(), report.Money(snapshot.Mean), report.Money(snapshot.Min), report.Money(snapshot.Max))
	}

	items := []string{promptSkip}
	for _, p := range equity.ManualPlacements() {
		items = append(items, string(p))
	}

	_, selected, err := (&promptui.Select{Label: label, Items: items}).Run()
	if err != nil {
		return "", err
	}
	if selected == promptSkip {
		return equity.PlacementUnassigned, nil
	}
	return equity.ParseManualPlacement(selected)
}

func askFlexibility() (budget.Flexibility, error) {
	items := []string{promptSkip}
	for _, f := range budget.Flexibilities() {
		items = append(items, string(f))
	}
	_, selected, err := (&promptui.Select{Label: "Organizational budget flexibility", Items: items}).Run()
	if err != nil || selected == promptSkip {
		return "", err
	}
	return budget.ParseFlexibility(selected)
}

func askNegotiation() (budget.Negotiation, error) {
	items := []string{promptSkip}
	for _, n := range budget.Negotiations() {
		items = append(items, string(n))
	}
	_, selected, err := (&promptui.Select{Label: "Candidate negotiation/expectations", Items: items}).Run()
	if err != nil || selected == promptSkip {
		return "", err
	}
	return budget.ParseNegotiation(selected)
}

// askText prompts for a value unless one was already given.
func askText(label, current string, required bool) (string, error) {
	if strings.TrimSpace(current) != "" {
		return current, nil
	}

	prompt := promptui.Prompt{Label: label}
	if required {
		prompt.Validate = func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("value is required")
			}
			return nil
		}
	}

	value, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// askAmount prompts for a money amount unless one was already given.
func askAmount(label, current string) (string, error) {
	if strings.TrimSpace(current) != "" {
		return current, nil
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			_, err := equity.ParseRate(input)
			return err
		},
	}
	return prompt.Run()
}
