// Package candidates reads batch files describing several candidates.
package candidates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/spigell/salary-evaluator/internal/budget"
	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/evaluation"
	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/summary"
)

// Candidate is one entry of a batch file.
type Candidate struct {
	Name     string                 `mapstructure:"name"`
	Position string                 `mapstructure:"position"`
	Grade    string                 `mapstructure:"grade"`
	Scores   *evaluation.ScoreInput `mapstructure:"scores"`
	// Document is a text file, relative to the batch file.
	Document          string           `mapstructure:"document"`
	Salary            decimal.Decimal  `mapstructure:"salary"`
	Ceiling           *decimal.Decimal `mapstructure:"ceiling"`
	Step              *int             `mapstructure:"step"`
	Placement         string           `mapstructure:"placement"`
	Comments          string           `mapstructure:"comments"`
	BudgetFlexibility string           `mapstructure:"budget-flexibility"`
	Negotiation       string           `mapstructure:"negotiation"`
}

// File is a decoded batch file.
type File struct {
	Path       string
	Candidates []Candidate
}

// Load reads a YAML (or JSON) batch file. The file is either a list of
// candidates or an object with a candidates list.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	candidates, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Candidates: candidates}, nil
}

// Decode parses batch file content.
func Decode(data []byte) ([]Candidate, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if m, ok := raw.(map[string]any); ok {
		raw = m["candidates"]
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, errors.New("expected a list of candidates")
	}

	var out []Candidate
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       decimalHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(list); err != nil {
		return nil, err
	}

	for i, c := range out {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i+1, err)
		}
	}
	return out, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	return equity.ParseRate(data)
}

// Validate checks fields that can be checked without touching the disk.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(c.Position) == "" {
		return errors.New("position is required")
	}
	if c.Scores == nil && strings.TrimSpace(c.Document) == "" {
		return errors.New("scores or a document are required")
	}
	if c.Salary.IsNegative() {
		return errors.New("salary must not be negative")
	}
	if c.Placement != "" {
		if _, err := equity.ParseManualPlacement(c.Placement); err != nil {
			return err
		}
	}
	if _, err := budget.ParseFlexibility(c.BudgetFlexibility); err != nil {
		return err
	}
	if _, err := budget.ParseNegotiation(c.Negotiation); err != nil {
		return err
	}
	return nil
}

// Defaults are applied to candidates that leave a field unset.
type Defaults struct {
	Ceiling  *decimal.Decimal
	PeerRows []equity.Row
}

// Requests turns the file into evaluation requests. Documents are read
// relative to the batch file.
func (f *File) Requests(defaults Defaults) ([]*evaluation.Request, error) {
	baseDir := filepath.Dir(f.Path)
	reqs := make([]*evaluation.Request, 0, len(f.Candidates))
	for _, c := range f.Candidates {
		req, err := c.Request(baseDir, defaults)
		if err != nil {
			return nil, fmt.Errorf("candidate %q: %w", c.Name, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Request builds the evaluation request for one candidate.
func (c Candidate) Request(baseDir string, defaults Defaults) (*evaluation.Request, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	req := &evaluation.Request{
		Identity: summary.Identity{
			Name:          strings.TrimSpace(c.Name),
			PositionTitle: strings.TrimSpace(c.Position),
			Grade:         strings.TrimSpace(c.Grade),
		},
		Scores:         c.Scores,
		ProposedSalary: c.Salary,
		Ceiling:        c.Ceiling,
		SelectedStep:   c.Step,
		PeerRows:       defaults.PeerRows,
	}
	if req.Ceiling == nil {
		req.Ceiling = defaults.Ceiling
	}

	if c.Scores == nil {
		path := c.Document
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		req.Document = &extract.Document{
			Name:     filepath.Base(path),
			Text:     string(text),
			Position: req.Identity.PositionTitle,
		}
	}

	if c.Placement != "" {
		placement, _ := equity.ParseManualPlacement(c.Placement)
		req.ManualPlacement = placement
	}

	flex, _ := budget.ParseFlexibility(c.BudgetFlexibility)
	negotiation, _ := budget.ParseNegotiation(c.Negotiation)
	req.Commentary = summary.Commentary{
		Text:              strings.TrimSpace(c.Comments),
		BudgetFlexibility: flex,
		Negotiation:       negotiation,
	}

	return req, nil
}
