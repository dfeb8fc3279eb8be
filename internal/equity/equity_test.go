package equity

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func clerkRows() []Row {
	return []Row{
		{"ID": "A", "Position Title": "Clerk", "Comp Rate": 8000},
		{"ID": "B", "Position Title": "Clerk", "Comp Rate": 12000},
	}
}

func TestAnalyzeClerkExample(t *testing.T) {
	rows := clerkRows()

	result, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	require.Equal(t, OutcomeAnalyzed, result.Outcome)
	require.NoError(t, result.Err())
	require.NotNil(t, result.Snapshot)

	s := result.Snapshot
	assert.Len(t, s.Peers, 3)
	assert.Equal(t, 2, s.PeerCount())
	assert.Equal(t, CandidateID, s.Peers[2].ID)
	assert.True(t, s.Min.Equal(dec("8000")), "min %s", s.Min)
	assert.True(t, s.Max.Equal(dec("12000")), "max %s", s.Max)
	assert.True(t, s.Mean.Equal(dec("10000")), "mean %s", s.Mean)

	require.NotNil(t, s.Thresholds)
	assert.Equal(t, "1333.33", s.Thresholds.Third.StringFixed(2))
	assert.Equal(t, "9333.33", s.Thresholds.LowerBound.StringFixed(2))
	assert.Equal(t, "10666.67", s.Thresholds.UpperBound.StringFixed(2))
	// 10000 is not below min+third and not above max-third.
	assert.Equal(t, PlacementMid, s.Placement)

	assert.Len(t, rows, 2, "input rows must not receive the candidate row")
}

func TestAnalyzeThirdsBoundaries(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"id": "1", "position title": "Analyst", "comp rate": "3000"},
		{"id": "2", "position title": "Analyst", "comp rate": "6000"},
	}

	cases := []struct {
		rate string
		want Placement
	}{
		{rate: "2999.99", want: PlacementBelowMin},
		{rate: "3000", want: PlacementLower},
		{rate: "3999.99", want: PlacementLower},
		{rate: "4000", want: PlacementMid},
		{rate: "5000", want: PlacementMid},
		{rate: "5000.01", want: PlacementHigher},
		{rate: "6000", want: PlacementHigher},
		{rate: "6000.01", want: PlacementAboveMax},
	}

	for _, tc := range cases {
		t.Run(tc.rate, func(t *testing.T) {
			t.Parallel()
			result, err := Analyze(rows, "analyst", dec(tc.rate), PolicyThirds)
			require.NoError(t, err)
			require.NotNil(t, result.Snapshot)
			assert.Equal(t, tc.want, result.Snapshot.Placement)
		})
	}
}

func TestAnalyzeAllEqualPeersIsAligned(t *testing.T) {
	rows := []Row{
		{"id": "1", "position title": "Clerk", "comp rate": 9000},
		{"id": "2", "position title": "Clerk", "comp rate": 9000},
	}

	for _, rate := range []string{"1", "9000", "25000"} {
		result, err := Analyze(rows, "Clerk", dec(rate), PolicyThirds)
		require.NoError(t, err)
		require.NotNil(t, result.Snapshot)
		assert.Equal(t, PlacementAligned, result.Snapshot.Placement, "rate %s", rate)
		assert.Nil(t, result.Snapshot.Thresholds)
	}

	single := []Row{{"id": "1", "position title": "Clerk", "comp rate": 9000}}
	result, err := Analyze(single, "Clerk", dec("12000"), PolicyThirds)
	require.NoError(t, err)
	assert.Equal(t, PlacementAligned, result.Snapshot.Placement)
	assert.True(t, result.Snapshot.Max.Equal(dec("12000")))
}

func TestAnalyzeNoPeersIsTaggedOutcome(t *testing.T) {
	result, err := Analyze(clerkRows(), "Director", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	assert.True(t, result.NoPeers())
	assert.Equal(t, OutcomeNoPeers, result.Outcome)
	assert.Nil(t, result.Snapshot)
	assert.True(t, errors.Is(result.Err(), ErrNoPeers))

	empty, err := Analyze(nil, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	assert.True(t, empty.NoPeers())
}

func TestAnalyzeSchemaError(t *testing.T) {
	rows := []Row{{"ID": "A", "Title": "Clerk", "Salary": 8000}}

	_, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColumnPositionTitle, ColumnCompRate}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "position title, comp rate")
}

func TestAnalyzeNormalizesKeysAndTitles(t *testing.T) {
	rows := []Row{
		{"  id ": "A", "POSITION_TITLE": "  Senior   Clerk ", " Comp  Rate": "$8,500.50", "Hire Date": "2019-03-01", "Notes": "ignored"},
		{"Id": 7, "Position Title": "senior clerk", "comp_rate": 9500.0},
	}

	result, err := Analyze(rows, "Senior Clerk", dec("9000"), PolicyThirds)
	require.NoError(t, err)
	require.Equal(t, 2, result.Matched)
	require.Empty(t, result.RowErrors)

	peers := result.Snapshot.Peers
	assert.Equal(t, "A", peers[0].ID)
	assert.True(t, peers[0].CompRate.Equal(dec("8500.50")))
	require.NotNil(t, peers[0].HireDate)
	assert.Equal(t, 2019, peers[0].HireDate.Year())
	assert.Equal(t, "7", peers[1].ID)
	assert.Nil(t, peers[1].HireDate)
}

func TestAnalyzeCollectsRowErrors(t *testing.T) {
	rows := []Row{
		{"id": "A", "position title": "Clerk", "comp rate": "8000"},
		{"id": "B", "position title": "Clerk", "comp rate": "n/a"},
		{"id": "C", "position title": "Clerk", "comp rate": -10},
		{"id": "D", "position title": "Clerk", "comp rate": ""},
		{"id": "E", "position title": "Clerk", "comp rate": "12000", "hire date": "yesterday"},
		{"id": "", "position title": "Clerk", "comp rate": "11000"},
		{"id": "G", "position title": "Clerk", "comp rate": "12000"},
	}

	result, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	require.Equal(t, OutcomeAnalyzed, result.Outcome)
	assert.Equal(t, 3, result.Matched)
	require.Len(t, result.RowErrors, 4)

	assert.Equal(t, 2, result.RowErrors[0].Row)
	assert.Equal(t, ColumnCompRate, result.RowErrors[0].Column)
	assert.True(t, errors.Is(result.RowErrors[0], errNotNumber))
	assert.True(t, errors.Is(result.RowErrors[1], errNegative))
	assert.True(t, errors.Is(result.RowErrors[2], errEmptyValue))
	assert.Equal(t, ColumnID, result.RowErrors[3].Column)
	assert.Contains(t, result.RowErrors[1].Error(), `row 3: comp rate "-10"`)
}

func TestAnalyzeKeepsRowWithBadHireDate(t *testing.T) {
	rows := []Row{
		{"id": "A", "position title": "Clerk", "comp rate": "8000"},
		{"id": "E", "position title": "Clerk", "comp rate": "12000", "hire date": "yesterday"},
	}

	result, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	assert.Empty(t, result.RowErrors)
	assert.Equal(t, 2, result.Matched)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 2, result.Warnings[0].Row)
	assert.Equal(t, ColumnHireDate, result.Warnings[0].Column)
	assert.True(t, errors.Is(result.Warnings[0], errNotDate))

	var kept *PeerRecord
	for i := range result.Snapshot.Peers {
		if result.Snapshot.Peers[i].ID == "E" {
			kept = &result.Snapshot.Peers[i]
		}
	}
	require.NotNil(t, kept)
	assert.Nil(t, kept.HireDate)
	assert.True(t, dec("12000").Equal(kept.CompRate))
	assert.True(t, dec("12000").Equal(result.Snapshot.Max))
}

func TestAnalyzeRejectsCollidingColumns(t *testing.T) {
	rows := []Row{
		{"ID": "1", "Position Title": "Clerk", "Comp Rate": "8000", "comp_rate": "9000"},
		{"ID": "2", "Position Title": "Clerk", "Comp Rate": "12000"},
	}

	first, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	require.Len(t, first.RowErrors, 1)
	assert.Equal(t, 1, first.RowErrors[0].Row)
	assert.Equal(t, ColumnCompRate, first.RowErrors[0].Column)
	assert.True(t, errors.Is(first.RowErrors[0], errDuplicateKey))
	assert.Equal(t, 1, first.Matched)

	for i := 0; i < 20; i++ {
		again, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyzeManualPolicy(t *testing.T) {
	result, err := Analyze(clerkRows(), "Clerk", dec("10000"), PolicyManual)
	require.NoError(t, err)

	s := *result.Snapshot
	assert.Equal(t, PlacementUnassigned, s.Placement)
	assert.Nil(t, s.Thresholds)

	annotated, err := s.WithPlacement(PlacementAbovePeers)
	require.NoError(t, err)
	assert.Equal(t, PlacementAbovePeers, annotated.Placement)
	assert.Equal(t, PlacementUnassigned, s.Placement, "original snapshot must stay untouched")

	_, err = s.WithPlacement(PlacementMid)
	assert.True(t, errors.Is(err, ErrInvalidPlacement))

	thirds, err := Analyze(clerkRows(), "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	_, err = thirds.Snapshot.WithPlacement(PlacementAbovePeers)
	assert.True(t, errors.Is(err, ErrInvalidPlacement))
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	rows := clerkRows()
	first, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	second, err := Analyze(rows, "Clerk", dec("10000"), PolicyThirds)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeRejectsInvalidInput(t *testing.T) {
	_, err := Analyze(clerkRows(), "Clerk", dec("-1"), PolicyThirds)
	assert.True(t, errors.Is(err, ErrInvalidCandidateRate))

	_, err = Analyze(clerkRows(), "Clerk", dec("1"), Policy("quartiles"))
	assert.True(t, errors.Is(err, ErrUnknownPolicy))
}

func TestPlacementPosition(t *testing.T) {
	assert.Equal(t, PositionLow, PlacementBelowMin.Position())
	assert.Equal(t, PositionLow, PlacementBelowPeers.Position())
	assert.Equal(t, PositionMid, PlacementAligned.Position())
	assert.Equal(t, PositionMid, PlacementUnassigned.Position())
	assert.Equal(t, PositionHigh, PlacementAbovePeers.Position())
	assert.Equal(t, PositionHigh, PlacementAboveMax.Position())
}

func TestParsePolicyAndPlacement(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy, p)

	p, err = ParsePolicy(" Manual ")
	require.NoError(t, err)
	assert.Equal(t, PolicyManual, p)

	placement, err := ParseManualPlacement("aligned  with peers")
	require.NoError(t, err)
	assert.Equal(t, PlacementAlignedPeers, placement)
}

func TestCandidateOnlySnapshot(t *testing.T) {
	snap, err := CandidateOnly("Clerk", dec("9500"))
	require.NoError(t, err)
	assert.Equal(t, 0, snap.PeerCount())
	assert.Equal(t, PolicyManual, snap.Policy)
	assert.True(t, snap.Mean.Equal(dec("9500")))

	placed, err := snap.WithPlacement(PlacementBelowPeers)
	require.NoError(t, err)
	assert.Equal(t, PlacementBelowPeers, placed.Placement)
	assert.Equal(t, PlacementUnassigned, snap.Placement)

	_, err = CandidateOnly("Clerk", dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidCandidateRate)
}
