// Package steps maps a composite evaluation score to a compensation step band.
package steps

import (
	"errors"
	"fmt"
	"strings"
)

// Band is a single row of a step table.
type Band struct {
	Label      string `mapstructure:"label" json:"label" yaml:"label"`
	ScoreFloor int    `mapstructure:"score-floor" json:"score_floor" yaml:"score-floor"`
	LowStep    int    `mapstructure:"low-step" json:"low_step" yaml:"low-step"`
	HighStep   int    `mapstructure:"high-step" json:"high_step" yaml:"high-step"`
}

// Interval is the band selected for a total score.
type Interval struct {
	Label      string `json:"label" yaml:"label"`
	LowStep    int    `json:"low_step" yaml:"low-step"`
	HighStep   int    `json:"high_step" yaml:"high-step"`
	ScoreFloor int    `json:"score_floor" yaml:"score-floor"`
}

// Table is an ordered list of bands, highest floor first.
type Table struct {
	Bands []Band `mapstructure:"bands" json:"bands" yaml:"bands"`
}

var ErrInvalidTable = errors.New("invalid step table")

// DefaultTable returns the standard five-band table.
func DefaultTable() Table {
	return Table{Bands: []Band{
		{Label: "Top Range", ScoreFloor: 25, LowStep: 12, HighStep: 15},
		{Label: "Mid-Upper Range", ScoreFloor: 20, LowStep: 9, HighStep: 11},
		{Label: "Mid Range", ScoreFloor: 15, LowStep: 6, HighStep: 8},
		{Label: "Lower-Mid Range", ScoreFloor: 10, LowStep: 3, HighStep: 5},
		{Label: "Bottom Range", ScoreFloor: 0, LowStep: 1, HighStep: 2},
	}}
}

// Validate checks that the table partitions the score domain: floors strictly
// descending, the last floor at zero and every band holding at least one step.
func (t Table) Validate() error {
	if len(t.Bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrInvalidTable)
	}

	for i, b := range t.Bands {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("%w: band %d has no label", ErrInvalidTable, i)
		}
		if b.LowStep < 1 || b.HighStep < b.LowStep {
			return fmt.Errorf("%w: band %q has invalid steps %d-%d", ErrInvalidTable, b.Label, b.LowStep, b.HighStep)
		}
		if i > 0 && b.ScoreFloor >= t.Bands[i-1].ScoreFloor {
			return fmt.Errorf("%w: band %q floor %d is not below %q floor %d",
				ErrInvalidTable, b.Label, b.ScoreFloor, t.Bands[i-1].Label, t.Bands[i-1].ScoreFloor)
		}
	}

	if last := t.Bands[len(t.Bands)-1]; last.ScoreFloor != 0 {
		return fmt.Errorf("%w: bottom band %q must start at 0, got %d", ErrInvalidTable, last.Label, last.ScoreFloor)
	}

	return nil
}

// Map returns the first band, top-down, whose floor the total reaches.
// Totals below every floor land in the bottom band.
func (t Table) Map(total int) Interval {
	if len(t.Bands) == 0 {
		return Interval{}
	}

	for _, b := range t.Bands {
		if total >= b.ScoreFloor {
			return b.interval()
		}
	}

	return t.Bands[len(t.Bands)-1].interval()
}

// MapToInterval maps a total using the default table.
func MapToInterval(total int) Interval {
	return DefaultTable().Map(total)
}

func (b Band) interval() Interval {
	return Interval{
		Label:      b.Label,
		LowStep:    b.LowStep,
		HighStep:   b.HighStep,
		ScoreFloor: b.ScoreFloor,
	}
}

// Steps lists every valid step number in the interval.
func (i Interval) Steps() []int {
	if i.HighStep < i.LowStep {
		return nil
	}
	out := make([]int, 0, i.HighStep-i.LowStep+1)
	for s := i.LowStep; s <= i.HighStep; s++ {
		out = append(out, s)
	}
	return out
}

// Contains reports whether step lies within [LowStep, HighStep].
func (i Interval) Contains(step int) bool {
	return step >= i.LowStep && step <= i.HighStep
}

// Middle returns the central step, rounding down.
func (i Interval) Middle() int {
	return i.LowStep + (i.HighStep-i.LowStep)/2
}

func (i Interval) String() string {
	return fmt.Sprintf("%s (steps %d-%d)", i.Label, i.LowStep, i.HighStep)
}
