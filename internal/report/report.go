// Package report renders evaluation summaries for people and files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/template"

	_ "embed"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-evaluator/internal/summary"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

//go:embed summary.tmpl
var summaryTemplate string

var textTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money": Money,
}).Parse(summaryTemplate))

// ParseFormat normalizes an output format name. Empty selects text.
func ParseFormat(name string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(name)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", name)
	}
}

// Write renders summaries in the given format. Text summaries are separated
// by a blank line.
func Write(w io.Writer, format string, summaries ...*summary.EvaluationSummary) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		for i, s := range summaries {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := Text(w, s); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// Text writes the human readable summary block.
func Text(w io.Writer, s *summary.EvaluationSummary) error {
	if s == nil {
		return fmt.Errorf("summary is required")
	}
	if err := textTemplate.Execute(w, s); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Rows flattens a summary into display fields.
func Rows(s *summary.EvaluationSummary) map[string]string {
	row := map[string]string{
		"name":            s.Identity.Name,
		"position":        s.Identity.PositionTitle,
		"grade":           s.Identity.Grade,
		"total score":     strconv.Itoa(s.Scores.Total),
		"interval":        s.Interval.String(),
		"selected step":   strconv.Itoa(s.SelectedStep),
		"placement":       string(s.Placement()),
		"budget":          "not configured",
		"proposed salary": "not recorded",
		"peers":           "not compared",
	}
	if s.Equity != nil {
		row["proposed salary"] = Money(s.Equity.CandidateRate)
		row["peers"] = strconv.Itoa(s.Equity.PeerCount())
	}
	if s.Budget != nil {
		row["proposed salary"] = Money(s.Budget.ProposedSalary)
		row["budget"] = s.Budget.Status()
	}
	return row
}

// ByInterval groups batch results by their step interval label.
func ByInterval(summaries []*summary.EvaluationSummary) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, s := range summaries {
		key := s.Interval.Label
		report[key] = append(report[key], Rows(s))
	}
	for _, rows := range report {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i]["name"] < rows[j]["name"] })
	}
	return report
}

// DumpToTmpFile writes the summaries as indented JSON to a new temp file.
func DumpToTmpFile(runID string, summaries []*summary.EvaluationSummary) (string, error) {
	file, err := os.CreateTemp("", fmt.Sprintf("evaluation_%s_*.json", runID))
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Money formats an amount with two decimals and thousands separators.
func Money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
