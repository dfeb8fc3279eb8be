package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/salary-evaluator/internal/equity"
	"github.com/spigell/salary-evaluator/internal/evaluation"
	"github.com/spigell/salary-evaluator/internal/extract"
	"github.com/spigell/salary-evaluator/internal/extract/gemini"
	"github.com/spigell/salary-evaluator/internal/logger"
	"github.com/spigell/salary-evaluator/internal/peers"
	"github.com/spigell/salary-evaluator/internal/profile"
	"github.com/spigell/salary-evaluator/internal/secrets"
	"github.com/spigell/salary-evaluator/internal/utils"
)

const geminiAPIKeyEnv = "GEMINI_API_KEY"

func resolveProfile(config *Config) (profile.Profile, error) {
	registry, err := profile.NewRegistry(config.Profiles)
	if err != nil {
		return profile.Profile{}, err
	}
	return registry.Get(utils.FirstNonEmpty(config.Profile, profile.Standard))
}

// newEvaluator builds the pipeline. fixed overrides the configured extractor.
func newEvaluator(ctx context.Context, config *Config, fixed extract.Extractor, interactive bool, logger *zap.Logger) (*evaluation.Evaluator, error) {
	p, err := resolveProfile(config)
	if err != nil {
		return nil, err
	}

	policy, err := equity.ParsePolicy(config.Equity.Policy)
	if err != nil {
		return nil, err
	}

	extractor := fixed
	if extractor == nil {
		extractor, err = newExtractor(ctx, config.Scoring, p, interactive, logger)
		if err != nil {
			return nil, err
		}
	}

	evaluator, err := evaluation.New(p, policy, extractor, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug(fmt.Sprintf("evaluation pipeline: \n%s", evaluation.FormatStatuses(evaluator.Describe())))
	return evaluator, nil
}

// newExtractor returns nil for manual entry when nobody can be asked.
func newExtractor(ctx context.Context, cfg *ScoringConfig, p profile.Profile, interactive bool, logger *zap.Logger) (extract.Extractor, error) {
	kind, err := extract.ParseKind(cfg.Extractor)
	if err != nil {
		return nil, err
	}

	switch kind {
	case extract.KindKeyword:
		return extract.NewKeyword(p.Keywords)
	case extract.KindGemini:
		return newGeminiScorer(ctx, cfg.Gemini, logger)
	default:
		if !interactive {
			return nil, nil
		}
		return extract.NewManual(nil), nil
	}
}

func newGeminiScorer(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (*gemini.Scorer, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
		Env:  geminiAPIKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set scoring.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Model),
		zap.Int("ai_retry_attempts", cfg.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewScorer(generator, cfg.MaxLogLength, logger.With(zap.String("model", generator.Model()))), nil
}

// loadPeerRows returns nil when no peer table is configured.
func loadPeerRows(ctx context.Context, cfg *EquityConfig, logger *zap.Logger) ([]equity.Row, error) {
	path := strings.TrimSpace(cfg.Peers)
	url := strings.TrimSpace(cfg.URL)

	switch {
	case path != "" && url != "":
		return nil, fmt.Errorf("equity.peers and equity.url are mutually exclusive")
	case path != "":
		rows, err := peers.LoadFile(path, cfg.Sheet)
		if err != nil {
			return nil, fmt.Errorf("loading peer table: %w", err)
		}
		logger.Info("loaded peer table", zap.String("path", path), zap.Int("rows", len(rows)))
		return nonNil(rows), nil
	case url != "":
		token := ""
		if strings.TrimSpace(cfg.TokenFile) != "" {
			var err error
			token, err = secrets.Load(secrets.Source{Name: "peer table token", File: cfg.TokenFile})
			if err != nil {
				return nil, err
			}
		}
		rows, err := peers.NewClient(logger, token).Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetching peer table: %w", err)
		}
		logger.Info("fetched peer table", zap.String("url", url), zap.Int("rows", len(rows)))
		return nonNil(rows), nil
	default:
		return nil, nil
	}
}

// nonNil keeps an empty but supplied table distinct from no table at all.
func nonNil(rows []equity.Row) []equity.Row {
	if rows == nil {
		return []equity.Row{}
	}
	return rows
}

// parseAmount returns nil for an empty amount.
func parseAmount(name, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := equity.ParseRate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, raw, err)
	}
	return &d, nil
}

func newRunLogger() (*zap.Logger, string) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	runID := uuid.NewString()
	return logger.WithFields(l, zap.String(logger.FieldRunID, runID)), runID
}
