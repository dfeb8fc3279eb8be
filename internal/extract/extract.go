// Package extract turns a candidate document into dimension scores.
// Every extractor is treated as untrusted: its output still goes through
// scoring.Aggregate before the engine uses it.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/salary-evaluator/internal/scoring"
)

const (
	KindKeyword = "keyword"
	KindManual  = "manual"
	KindGemini  = "gemini"
)

// Document is plain text produced by an external text extractor.
type Document struct {
	Name string
	Text string
	// Position is the title under review; extractors may ignore it.
	Position string
}

// Extractor derives a ScoreSet from a document.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, doc Document) (scoring.ScoreSet, error)
}

// ParseKind normalizes a configured extractor name. Empty selects manual entry.
func ParseKind(name string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(name))
	switch kind {
	case "":
		return KindManual, nil
	case KindKeyword, KindManual, KindGemini:
		return kind, nil
	default:
		return "", fmt.Errorf("unsupported score extractor: %s", name)
	}
}
