// Package profile holds named HR policy profiles: a step table and the
// keyword heuristic used with it. Adding a policy is a data change.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/steps"
)

// Standard is the built-in profile name.
const Standard = "standard"

var ErrUnknownProfile = errors.New("unknown profile")

// Profile is one HR policy.
type Profile struct {
	Name        string               `mapstructure:"name" yaml:"name"`
	Description string               `mapstructure:"description" yaml:"description"`
	Bands       []steps.Band         `mapstructure:"bands" yaml:"bands"`
	Keywords    extract.KeywordRules `mapstructure:"keywords" yaml:"keywords"`
}

// Table returns the profile's step table.
func (p Profile) Table() steps.Table {
	return steps.Table{Bands: p.Bands}
}

// Validate checks the step table and the keyword rules.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	if err := p.Table().Validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if _, err := extract.NewKeyword(p.Keywords); err != nil {
		return fmt.Errorf("profile %s: keywords: %w", p.Name, err)
	}
	return nil
}

// Builtin returns the profiles shipped with the tool.
func Builtin() map[string]Profile {
	return map[string]Profile{
		Standard: {
			Name:        Standard,
			Description: "Five bands over a 0-30 score, steps 1-15",
			Bands:       steps.DefaultTable().Bands,
			Keywords:    extract.DefaultKeywordRules(),
		},
	}
}

// Registry resolves profiles by name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry merges custom profiles over the built-in ones. A custom
// profile without bands or keyword rules inherits them from Standard.
func NewRegistry(custom []Profile) (*Registry, error) {
	profiles := Builtin()
	base := profiles[Standard]

	for _, p := range custom {
		p.Name = normalizeName(p.Name)
		if len(p.Bands) == 0 {
			p.Bands = base.Bands
		}
		if p.Keywords.IsZero() {
			p.Keywords = base.Keywords
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles[p.Name] = p
	}

	return &Registry{profiles: profiles}, nil
}

// Get returns the named profile. Empty selects Standard.
func (r *Registry) Get(name string) (Profile, error) {
	name = normalizeName(name)
	if name == "" {
		name = Standard
	}

	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names lists profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
