package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/scoring"
	"github.com/spigell/salary-evaluator/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Scorer asks Gemini to rate a document on the three dimensions.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

var errEmptyDocument = errors.New("document text is empty")

func NewScorer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Name() string { return extract.KindGemini }

func (s *Scorer) Extract(ctx context.Context, doc extract.Document) (scoring.ScoreSet, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return scoring.ScoreSet{}, errEmptyDocument
	}

	prompt := buildPrompt(doc)

	s.logger.Debug("gemini generate content request",
		zap.String("document", doc.Name),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return scoring.ScoreSet{}, err
	}

	s.logger.Debug("gemini generate content response",
		zap.String("document", doc.Name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	parsed, err := parseResponse(raw)
	if err != nil {
		return scoring.ScoreSet{}, err
	}

	scores, err := scoring.Aggregate(parsed.education, parsed.experience, parsed.performance)
	if err != nil {
		return scoring.ScoreSet{}, fmt.Errorf("gemini returned an invalid score: %w", err)
	}

	s.logger.Info("document scored by gemini",
		zap.String("document", doc.Name),
		zap.Int("total", scores.Total),
		zap.String("reason", parsed.reason),
	)

	return scores, nil
}

type response struct {
	education   int
	experience  int
	performance int
	reason      string
}

func buildPrompt(doc extract.Document) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Position: {{POSITION}}\n\nDocument:\n{{DOCUMENT}}\n\nJSON Response:"
	}

	position := strings.TrimSpace(doc.Position)
	if position == "" {
		position = "not specified"
	}
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = "untitled"
	}

	replacer := strings.NewReplacer(
		"{{MIN_SCORE}}", strconv.Itoa(scoring.MinDimensionScore),
		"{{MAX_SCORE}}", strconv.Itoa(scoring.MaxDimensionScore),
		"{{POSITION}}", position,
		"{{DOCUMENT_NAME}}", name,
		"{{DOCUMENT}}", strings.TrimSpace(doc.Text),
	)
	return replacer.Replace(template)
}

func parseResponse(raw string) (*response, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	out := &response{reason: coerceString(data["reason"])}
	for key, target := range map[string]*int{
		string(scoring.Education):   &out.education,
		string(scoring.Experience):  &out.experience,
		string(scoring.Performance): &out.performance,
	} {
		v, err := coerceInt(data[key])
		if err != nil {
			return nil, fmt.Errorf("parse gemini response: %s: %w", key, err)
		}
		*target = v
	}

	return out, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// coerceInt accepts whole numbers as JSON numbers or strings. Fractions are
// rejected rather than rounded.
func coerceInt(v any) (int, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", val)
		}
		f = parsed
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %v", f)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("out of range: %v", f)
	}
	return int(f), nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
