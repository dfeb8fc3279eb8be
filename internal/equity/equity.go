// Package equity compares a proposed salary against a peer cohort.
package equity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CandidateID is the id of the synthetic row holding the candidate's rate.
const CandidateID = "Candidate"

// Row is a raw peer record with arbitrary key casing and spacing.
type Row map[string]any

// PeerRecord is one comparable employee.
type PeerRecord struct {
	ID            string          `json:"id" yaml:"id"`
	PositionTitle string          `json:"position_title" yaml:"position-title"`
	HireDate      *time.Time      `json:"hire_date,omitempty" yaml:"hire-date,omitempty"`
	CompRate      decimal.Decimal `json:"comp_rate" yaml:"comp-rate"`
}

// IsCandidate reports whether the record is the synthetic candidate row.
func (p PeerRecord) IsCandidate() bool {
	return p.ID == CandidateID
}

// Snapshot is the equity picture for one candidate. Peers includes the
// synthetic candidate row and the statistics are computed over it.
type Snapshot struct {
	Peers         []PeerRecord    `json:"peers" yaml:"peers"`
	CandidateRate decimal.Decimal `json:"candidate_rate" yaml:"candidate-rate"`
	Min           decimal.Decimal `json:"min" yaml:"min"`
	Max           decimal.Decimal `json:"max" yaml:"max"`
	Mean          decimal.Decimal `json:"mean" yaml:"mean"`
	Placement     Placement       `json:"placement" yaml:"placement"`
	Policy        Policy          `json:"policy" yaml:"policy"`
	Thresholds    *Thresholds     `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// PeerCount is the number of real peers, excluding the candidate row.
func (s Snapshot) PeerCount() int {
	n := 0
	for _, p := range s.Peers {
		if !p.IsCandidate() {
			n++
		}
	}
	return n
}

// WithPlacement returns a copy annotated with a manually chosen placement.
// Only snapshots produced under PolicyManual accept an annotation.
func (s Snapshot) WithPlacement(p Placement) (Snapshot, error) {
	if s.Policy != PolicyManual {
		return Snapshot{}, fmt.Errorf("%w: placement is computed by the %s policy", ErrInvalidPlacement, s.Policy)
	}

	if _, err := ParseManualPlacement(string(p)); err != nil {
		return Snapshot{}, err
	}

	out := s
	out.Peers = append([]PeerRecord(nil), s.Peers...)
	out.Placement = p
	return out, nil
}

// Outcome tags an analysis result.
type Outcome int

const (
	OutcomeAnalyzed Outcome = iota
	OutcomeNoPeers
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnalyzed:
		return "analyzed"
	case OutcomeNoPeers:
		return "no peers"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Analyze. Snapshot is nil when Outcome is
// OutcomeNoPeers. RowErrors lists rejected rows in either case.
type Result struct {
	Outcome   Outcome
	Snapshot  *Snapshot
	Matched   int
	RowErrors []RowError
	// Warnings lists problems in optional columns of rows that were kept.
	Warnings []RowError
}

// NoPeers reports that no comparison is available.
func (r *Result) NoPeers() bool {
	return r == nil || r.Outcome == OutcomeNoPeers
}

// Err returns ErrNoPeers for a no-peers outcome and nil otherwise.
func (r *Result) Err() error {
	if r.NoPeers() {
		return ErrNoPeers
	}
	return nil
}

// Analyze filters rows to positionTitle, injects the candidate and computes
// statistics and placement. The input rows are never modified. The only
// error returned for a well-formed call is *SchemaError.
func Analyze(rows []Row, positionTitle string, candidateRate decimal.Decimal, policy Policy) (*Result, error) {
	if candidateRate.IsNegative() {
		return nil, ErrInvalidCandidateRate
	}

	if policy == "" {
		policy = DefaultPolicy
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	normalized := make([]map[string]any, 0, len(rows))
	duplicates := make([]string, 0, len(rows))
	for _, row := range rows {
		n, dup := normalizeRow(row)
		normalized = append(normalized, n)
		duplicates = append(duplicates, dup)
	}

	if len(normalized) == 0 {
		return &Result{Outcome: OutcomeNoPeers}, nil
	}

	if missing := missingColumns(normalized); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	result := &Result{}
	want := NormalizeTitle(positionTitle)

	var peers []PeerRecord
	for i, row := range normalized {
		if duplicates[i] != "" {
			result.RowErrors = append(result.RowErrors, RowError{Row: i + 1, Column: duplicates[i], Err: errDuplicateKey})
			continue
		}
		record, rowErr, warning := parseRecord(i+1, row)
		if rowErr != nil {
			result.RowErrors = append(result.RowErrors, *rowErr)
			continue
		}
		if warning != nil {
			result.Warnings = append(result.Warnings, *warning)
		}
		if NormalizeTitle(record.PositionTitle) != want {
			continue
		}
		peers = append(peers, record)
	}

	result.Matched = len(peers)
	if len(peers) == 0 {
		result.Outcome = OutcomeNoPeers
		return result, nil
	}

	peerMin, peerMax, _ := stats(peers)

	working := make([]PeerRecord, 0, len(peers)+1)
	working = append(working, peers...)
	working = append(working, PeerRecord{
		ID:            CandidateID,
		PositionTitle: positionTitle,
		CompRate:      candidateRate,
	})

	minRate, maxRate, mean := stats(working)

	snapshot := &Snapshot{
		Peers:         working,
		CandidateRate: candidateRate,
		Min:           minRate,
		Max:           maxRate,
		Mean:          mean,
		Policy:        policy,
		Placement:     PlacementUnassigned,
	}

	if policy == PolicyThirds {
		snapshot.Placement, snapshot.Thresholds = classifyThirds(candidateRate, peerMin, peerMax)
	}

	result.Outcome = OutcomeAnalyzed
	result.Snapshot = snapshot
	return result, nil
}

// stats returns min, max and mean of the comp rates. records must not be empty.
func stats(records []PeerRecord) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	minRate := records[0].CompRate
	maxRate := records[0].CompRate
	sum := decimal.Zero

	for _, r := range records {
		if r.CompRate.LessThan(minRate) {
			minRate = r.CompRate
		}
		if r.CompRate.GreaterThan(maxRate) {
			maxRate = r.CompRate
		}
		sum = sum.Add(r.CompRate)
	}

	return minRate, maxRate, sum.Div(decimal.NewFromInt(int64(len(records))))
}

// CandidateOnly is a manual-policy snapshot with no peers, used when the
// reviewer places the candidate by hand because no cohort is available.
func CandidateOnly(positionTitle string, candidateRate decimal.Decimal) (Snapshot, error) {
	if candidateRate.IsNegative() {
		return Snapshot{}, ErrInvalidCandidateRate
	}
	return Snapshot{
		Peers: []PeerRecord{{
			ID:            CandidateID,
			PositionTitle: positionTitle,
			CompRate:      candidateRate,
		}},
		CandidateRate: candidateRate,
		Min:           candidateRate,
		Max:           candidateRate,
		Mean:          candidateRate,
		Placement:     PlacementUnassigned,
		Policy:        PolicyManual,
	}, nil
}
