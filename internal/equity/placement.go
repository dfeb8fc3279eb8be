package equity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Policy selects how a candidate is placed relative to peers.
type Policy string

const (
	// PolicyThirds splits the peer range into thirds and classifies the candidate.
	PolicyThirds Policy = "thirds"
	// PolicyManual computes statistics only; a person picks the placement.
	PolicyManual Policy = "manual"

	DefaultPolicy = PolicyThirds
)

// ParsePolicy resolves a configured policy name. Empty selects DefaultPolicy.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultPolicy, nil
	case PolicyThirds:
		return PolicyThirds, nil
	case PolicyManual:
		return PolicyManual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Placement is a qualitative position of a salary within a peer cohort.
type Placement string

const (
	PlacementUnassigned Placement = "Unassigned"

	PlacementBelowMin Placement = "Below Min"
	PlacementLower    Placement = "Lower"
	PlacementMid      Placement = "Mid"
	PlacementHigher   Placement = "Higher"
	PlacementAboveMax Placement = "Above Max"
	PlacementAligned  Placement = "Aligned"

	PlacementAbovePeers   Placement = "Above Peers"
	PlacementAlignedPeers Placement = "Aligned with Peers"
	PlacementBelowPeers   Placement = "Below Peers"
)

// ManualPlacements lists the choices offered to a person under PolicyManual.
func ManualPlacements() []Placement {
	return []Placement{PlacementAbovePeers, PlacementAlignedPeers, PlacementBelowPeers}
}

// ParseManualPlacement accepts a manual placement label, case-insensitively.
func ParseManualPlacement(s string) (Placement, error) {
	want := NormalizeTitle(s)
	for _, p := range ManualPlacements() {
		if NormalizeTitle(string(p)) == want {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlacement, s)
}

// Position is where in a step interval a placement points.
type Position int

const (
	PositionMid Position = iota
	PositionLow
	PositionHigh
)

// Position maps the placement onto the lower, middle or upper part of a band.
func (p Placement) Position() Position {
	switch p {
	case PlacementBelowMin, PlacementLower, PlacementBelowPeers:
		return PositionLow
	case PlacementHigher, PlacementAboveMax, PlacementAbovePeers:
		return PositionHigh
	default:
		return PositionMid
	}
}

// Thresholds are the boundaries used by PolicyThirds.
type Thresholds struct {
	PeerMin decimal.Decimal `json:"peer_min" yaml:"peer-min"`
	PeerMax decimal.Decimal `json:"peer_max" yaml:"peer-max"`
	Third   decimal.Decimal `json:"third" yaml:"third"`
	// LowerBound is PeerMin + Third; rates below it are Lower.
	LowerBound decimal.Decimal `json:"lower_bound" yaml:"lower-bound"`
	// UpperBound is PeerMax - Third; rates up to it are Mid.
	UpperBound decimal.Decimal `json:"upper_bound" yaml:"upper-bound"`
}

// classifyThirds places rate within the [peerMin, peerMax] range.
func classifyThirds(rate, peerMin, peerMax decimal.Decimal) (Placement, *Thresholds) {
	if peerMax.Equal(peerMin) {
		return PlacementAligned, nil
	}

	third := peerMax.Sub(peerMin).Div(decimal.NewFromInt(3))
	th := &Thresholds{
		PeerMin:    peerMin,
		PeerMax:    peerMax,
		Third:      third,
		LowerBound: peerMin.Add(third),
		UpperBound: peerMax.Sub(third),
	}

	switch {
	case rate.LessThan(peerMin):
		return PlacementBelowMin, th
	case rate.LessThan(th.LowerBound):
		return PlacementLower, th
	case rate.LessThanOrEqual(th.UpperBound):
		return PlacementMid, th
	case rate.LessThanOrEqual(peerMax):
		return PlacementHigher, th
	default:
		return PlacementAboveMax, th
	}
}
