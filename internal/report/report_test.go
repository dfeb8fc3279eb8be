package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-evaluator/internal/budget"
	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/scoring"
	"github.com/spigell/salary-evaluator/internal/steps"
	"github.com/spigell/salary-evaluator/internal/summary"
)

func sampleSummary(t *testing.T) *summary.EvaluationSummary {
	t.Helper()

	scores, err := scoring.Aggregate(8, 9, 8)
	require.NoError(t, err)

	rows := []equity.Row{
		{"ID": "1", "Position Title": "Clerk", "Comp Rate": "8000"},
		{"ID": "2", "Position Title": "Clerk", "Comp Rate": "12000"},
	}
	res, err := equity.Analyze(rows, "Clerk", decimal.NewFromInt(10000), equity.PolicyThirds)
	require.NoError(t, err)

	decision := budget.Validate(decimal.NewFromInt(10000), decimal.NewFromInt(9500))

	s, err := summary.Compose(
		summary.Identity{Name: "Jane Roe", PositionTitle: "Clerk", Grade: "G4"},
		scores,
		steps.MapToInterval(scores.Total),
		13,
		&decision,
		res.Snapshot,
		summary.Commentary{
			Text:              "Strong references",
			BudgetFlexibility: budget.FlexibilityModerate,
			Negotiation:       budget.NegotiationSlightGap,
		},
	)
	require.NoError(t, err)
	return s
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleSummary(t)))
	out := buf.String()

	for _, want := range []string{
		"Candidate: Jane Roe\n",
		"Position Title: Clerk\nGrade: G4\n",
		"- Total Score: 25 -> Top Range (steps 12-15)\n",
		"- Selected Step: 13\n",
		"- Recommendation: Mid\n",
		"- Peers: 2\n",
		"- Peer Average Salary: $10,000.00\n",
		"- Status: Over Budget (over by $500.00)\n",
		"- Budget: Moderate Flexibility\n",
		"- Negotiation: Slight Gap - Negotiable\n",
		"Comments:\nStrong references\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestTextWithoutEquityAndBudget(t *testing.T) {
	s := sampleSummary(t)
	s.Equity = nil
	s.Budget = nil
	s.Commentary = summary.Commentary{}

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, s))
	out := buf.String()

	assert.Contains(t, out, "- Recommendation: Unassigned (no peer comparison)\n")
	assert.Contains(t, out, "- Status: no budget ceiling configured\n")
	assert.NotContains(t, out, "Comments:")
}

func TestWriteFormats(t *testing.T) {
	s := sampleSummary(t)

	var jsonBuf bytes.Buffer
	require.NoError(t, Write(&jsonBuf, FormatJSON, s))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.EqualValues(t, 13, decoded[0]["selected_step"])

	var yamlBuf bytes.Buffer
	require.NoError(t, Write(&yamlBuf, FormatYAML, s))
	var yamlDecoded []map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &yamlDecoded))
	assert.Equal(t, 13, yamlDecoded[0]["selected-step"])

	var textBuf bytes.Buffer
	require.NoError(t, Write(&textBuf, FormatText, s, s))
	assert.Equal(t, 2, strings.Count(textBuf.String(), "Candidate: Jane Roe"))

	assert.Error(t, Write(&textBuf, "pdf", s))
}

func TestRowsAndByInterval(t *testing.T) {
	s := sampleSummary(t)
	row := Rows(s)
	assert.Equal(t, "Top Range (steps 12-15)", row["interval"])
	assert.Equal(t, "Mid", row["placement"])
	assert.Equal(t, "Over Budget", row["budget"])
	assert.Equal(t, "$10,000.00", row["proposed salary"])

	other := sampleSummary(t)
	other.Identity.Name = "Adam Ant"
	grouped := ByInterval([]*summary.EvaluationSummary{s, other})
	require.Len(t, grouped["Top Range"], 2)
	assert.Equal(t, "Adam Ant", grouped["Top Range"][0]["name"])
}

func TestRowsWithoutEquityOrBudget(t *testing.T) {
	scores, err := scoring.Aggregate(2, 2, 2)
	require.NoError(t, err)
	s, err := summary.Compose(
		summary.Identity{Name: "Solo"},
		scores,
		steps.MapToInterval(scores.Total),
		2,
		nil,
		nil,
		summary.Commentary{},
	)
	require.NoError(t, err)

	row := Rows(s)
	assert.Equal(t, "not recorded", row["proposed salary"])
	assert.Equal(t, "not compared", row["peers"])
	assert.Equal(t, "not configured", row["budget"])

	full := Rows(sampleSummary(t))
	for key := range full {
		assert.Contains(t, row, key)
	}
}

func TestDumpToTmpFile(t *testing.T) {
	name, err := DumpToTmpFile("run-1", []*summary.EvaluationSummary{sampleSummary(t)})
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(name) })

	assert.Contains(t, name, "evaluation_run-1_")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Jane Roe"`)
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "$0.00",
		"999.5":       "$999.50",
		"1000":        "$1,000.00",
		"1234567.891": "$1,234,567.89",
		"-2500":       "-$2,500.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Money(decimal.RequireFromString(in)), in)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
