// Package budget checks a proposed salary against an approved ceiling.
package budget

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decision is the outcome of a budget check.
type Decision struct {
	ProposedSalary decimal.Decimal `json:"proposed_salary" yaml:"proposed-salary"`
	Ceiling        decimal.Decimal `json:"ceiling" yaml:"ceiling"`
	WithinBudget   bool            `json:"within_budget" yaml:"within-budget"`
}

// Validate compares literally: the ceiling is inclusive and zero is not
// treated as "unset". Callers decide whether a ceiling is configured.
func Validate(proposedSalary, ceiling decimal.Decimal) Decision {
	return Decision{
		ProposedSalary: proposedSalary,
		Ceiling:        ceiling,
		WithinBudget:   proposedSalary.LessThanOrEqual(ceiling),
	}
}

// Overage is how far the proposal exceeds the ceiling, zero when within budget.
func (d Decision) Overage() decimal.Decimal {
	if d.WithinBudget {
		return decimal.Zero
	}
	return d.ProposedSalary.Sub(d.Ceiling)
}

// Status is a short label for display.
func (d Decision) Status() string {
	if d.WithinBudget {
		return "Within Budget"
	}
	return "Over Budget"
}

// Flexibility records how much room the organization has above the ceiling.
type Flexibility string

const (
	FlexibilityHigh     Flexibility = "High Budget Flexibility"
	FlexibilityModerate Flexibility = "Moderate Flexibility"
	FlexibilityMinimal  Flexibility = "Minimal Flexibility"
)

// Flexibilities lists the selectable flexibility levels.
func Flexibilities() []Flexibility {
	return []Flexibility{FlexibilityHigh, FlexibilityModerate, FlexibilityMinimal}
}

// Negotiation records how the candidate's expectations compare to the offer.
type Negotiation string

const (
	NegotiationAligned     Negotiation = "Expectations Aligned"
	NegotiationSlightGap   Negotiation = "Slight Gap - Negotiable"
	NegotiationSignificant Negotiation = "Significant Gap"
)

// Negotiations lists the selectable negotiation states.
func Negotiations() []Negotiation {
	return []Negotiation{NegotiationAligned, NegotiationSlightGap, NegotiationSignificant}
}

var flexibilityKeys = map[string]Flexibility{
	"high":     FlexibilityHigh,
	"moderate": FlexibilityModerate,
	"minimal":  FlexibilityMinimal,
}

var negotiationKeys = map[string]Negotiation{
	"aligned":     NegotiationAligned,
	"slight":      NegotiationSlightGap,
	"significant": NegotiationSignificant,
}

// ParseFlexibility accepts a full label or its first word. Empty is allowed.
func ParseFlexibility(s string) (Flexibility, error) {
	return parseLabel(s, Flexibilities(), flexibilityKeys, "budget flexibility")
}

// ParseNegotiation accepts a full label or a short key. Empty is allowed.
func ParseNegotiation(s string) (Negotiation, error) {
	return parseLabel(s, Negotiations(), negotiationKeys, "negotiation status")
}

func parseLabel[T ~string](s string, labels []T, keys map[string]T, kind string) (T, error) {
	want := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if want == "" {
		return "", nil
	}
	if v, ok := keys[want]; ok {
		return v, nil
	}
	for _, label := range labels {
		if strings.ToLower(string(label)) == want {
			return label, nil
		}
	}
	return "", fmt.Errorf("unknown %s: %q", kind, s)
}
