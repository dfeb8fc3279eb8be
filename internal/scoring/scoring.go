// Package scoring combines dimension scores into a composite evaluation score.
package scoring

import "fmt"

const (
	MinDimensionScore = 0
	MaxDimensionScore = 10
	MaxTotal          = 3 * MaxDimensionScore
)

// Dimension names one of the three evaluated qualities.
type Dimension string

const (
	Education   Dimension = "education"
	Experience  Dimension = "experience"
	Performance Dimension = "performance"
)

// Dimensions returns the evaluated dimensions in display order.
func Dimensions() []Dimension {
	return []Dimension{Education, Experience, Performance}
}

// ScoreSet holds the three dimension scores and their sum.
type ScoreSet struct {
	Education   int `json:"education" yaml:"education"`
	Experience  int `json:"experience" yaml:"experience"`
	Performance int `json:"performance" yaml:"performance"`
	Total       int `json:"total" yaml:"total"`
}

// RangeError reports a dimension score outside [0,10].
type RangeError struct {
	Dimension Dimension
	Value     int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s score %d is out of range [%d,%d]", e.Dimension, e.Value, MinDimensionScore, MaxDimensionScore)
}

// Aggregate validates the scores and returns them with their total.
func Aggregate(education, experience, performance int) (ScoreSet, error) {
	values := map[Dimension]int{
		Education:   education,
		Experience:  experience,
		Performance: performance,
	}

	for _, d := range Dimensions() {
		if v := values[d]; v < MinDimensionScore || v > MaxDimensionScore {
			return ScoreSet{}, &RangeError{Dimension: d, Value: v}
		}
	}

	return ScoreSet{
		Education:   education,
		Experience:  experience,
		Performance: performance,
		Total:       education + experience + performance,
	}, nil
}

// Get returns the score of a single dimension.
func (s ScoreSet) Get(d Dimension) int {
	switch d {
	case Education:
		return s.Education
	case Experience:
		return s.Experience
	case Performance:
		return s.Performance
	default:
		return 0
	}
}
