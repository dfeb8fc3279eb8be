package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/salary-evaluator/internal/scoring"
)

const defaultYearsPattern = `(\d+)\s+years`

// PatternTier awards Score when Pattern matches the document.
type PatternTier struct {
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Score   int    `mapstructure:"score" yaml:"score"`
}

// PatternRule scores a dimension by the first matching tier.
type PatternRule struct {
	Tiers   []PatternTier `mapstructure:"tiers" yaml:"tiers"`
	Default int           `mapstructure:"default" yaml:"default"`
}

// YearsTier awards Score when the summed years reach MinYears.
type YearsTier struct {
	MinYears int `mapstructure:"min-years" yaml:"min-years"`
	Score    int `mapstructure:"score" yaml:"score"`
}

// YearsRule sums every "N years" mention and scores the total.
type YearsRule struct {
	Pattern string      `mapstructure:"pattern" yaml:"pattern"`
	Tiers   []YearsTier `mapstructure:"tiers" yaml:"tiers"`
	Default int         `mapstructure:"default" yaml:"default"`
}

// KeywordRules is a data-driven heuristic; tiers are checked in order.
type KeywordRules struct {
	Education   PatternRule `mapstructure:"education" yaml:"education"`
	Experience  YearsRule   `mapstructure:"experience" yaml:"experience"`
	Performance PatternRule `mapstructure:"performance" yaml:"performance"`
}

// DefaultKeywordRules returns the standard heuristic.
func DefaultKeywordRules() KeywordRules {
	return KeywordRules{
		Education: PatternRule{
			Tiers: []PatternTier{
				{Pattern: `master|phd|mba`, Score: 5},
				{Pattern: `bachelor`, Score: 3},
			},
			Default: 1,
		},
		Experience: YearsRule{
			Pattern: defaultYearsPattern,
			Tiers: []YearsTier{
				{MinYears: 10, Score: 5},
				{MinYears: 5, Score: 3},
			},
			Default: 1,
		},
		Performance: PatternRule{
			Tiers: []PatternTier{
				{Pattern: `leadership|initiative|achievements|performance`, Score: 5},
			},
			Default: 3,
		},
	}
}

// IsZero reports whether no rule was configured at all.
func (r KeywordRules) IsZero() bool {
	return len(r.Education.Tiers) == 0 && len(r.Experience.Tiers) == 0 && len(r.Performance.Tiers) == 0 &&
		r.Education.Default == 0 && r.Experience.Default == 0 && r.Performance.Default == 0
}

type compiledTier struct {
	re    *regexp.Regexp
	score int
}

// Keyword is the regex heuristic extractor.
type Keyword struct {
	education   []compiledTier
	eduDefault  int
	years       *regexp.Regexp
	yearTiers   []YearsTier
	expDefault  int
	performance []compiledTier
	perfDefault int
}

// NewKeyword compiles the rules. Every score in the rules must be a valid
// dimension score.
func NewKeyword(rules KeywordRules) (*Keyword, error) {
	education, err := compileTiers(scoring.Education, rules.Education)
	if err != nil {
		return nil, err
	}

	performance, err := compileTiers(scoring.Performance, rules.Performance)
	if err != nil {
		return nil, err
	}

	pattern := strings.TrimSpace(rules.Experience.Pattern)
	if pattern == "" {
		pattern = defaultYearsPattern
	}
	years, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("compile experience pattern: %w", err)
	}
	if years.NumSubexp() < 1 {
		return nil, fmt.Errorf("experience pattern %q must capture the number of years", pattern)
	}

	for _, tier := range rules.Experience.Tiers {
		if err := checkScore(scoring.Experience, tier.Score); err != nil {
			return nil, err
		}
	}
	for _, v := range []struct {
		d     scoring.Dimension
		value int
	}{
		{scoring.Education, rules.Education.Default},
		{scoring.Experience, rules.Experience.Default},
		{scoring.Performance, rules.Performance.Default},
	} {
		if err := checkScore(v.d, v.value); err != nil {
			return nil, err
		}
	}

	return &Keyword{
		education:   education,
		eduDefault:  rules.Education.Default,
		years:       years,
		yearTiers:   append([]YearsTier(nil), rules.Experience.Tiers...),
		expDefault:  rules.Experience.Default,
		performance: performance,
		perfDefault: rules.Performance.Default,
	}, nil
}

func (k *Keyword) Name() string { return KindKeyword }

// Extract never fails on content; only a cancelled context stops it.
func (k *Keyword) Extract(ctx context.Context, doc Document) (scoring.ScoreSet, error) {
	if err := ctx.Err(); err != nil {
		return scoring.ScoreSet{}, err
	}

	text := strings.ToLower(doc.Text)

	return scoring.Aggregate(
		firstMatch(k.education, k.eduDefault, text),
		k.experienceScore(text),
		firstMatch(k.performance, k.perfDefault, text),
	)
}

// Years returns the summed years of experience mentioned in text.
func (k *Keyword) Years(text string) int {
	total := 0
	for _, m := range k.years.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total += n
	}
	return total
}

func (k *Keyword) experienceScore(text string) int {
	years := k.Years(text)
	for _, tier := range k.yearTiers {
		if years >= tier.MinYears {
			return tier.Score
		}
	}
	return k.expDefault
}

func firstMatch(tiers []compiledTier, def int, text string) int {
	for _, tier := range tiers {
		if tier.re.MatchString(text) {
			return tier.score
		}
	}
	return def
}

func compileTiers(d scoring.Dimension, rule PatternRule) ([]compiledTier, error) {
	out := make([]compiledTier, 0, len(rule.Tiers))
	for _, tier := range rule.Tiers {
		re, err := regexp.Compile("(?i)" + tier.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern %q: %w", d, tier.Pattern, err)
		}
		if err := checkScore(d, tier.Score); err != nil {
			return nil, err
		}
		out = append(out, compiledTier{re: re, score: tier.Score})
	}
	return out, nil
}

func checkScore(d scoring.Dimension, v int) error {
	if v < scoring.MinDimensionScore || v > scoring.MaxDimensionScore {
		return &scoring.RangeError{Dimension: d, Value: v}
	}
	return nil
}
