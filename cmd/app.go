package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/ai/gemini"
	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/judge"
	rfplogger "github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/matching"
	"github.com/spigell/rfp-responder/internal/pipeline"
	"github.com/spigell/rfp-responder/internal/pricing"
	"github.com/spigell/rfp-responder/internal/rfp"
	"github.com/spigell/rfp-responder/internal/secrets"
)

// application holds everything a command needs to run the pipeline.
type application struct {
	pipeline *pipeline.Pipeline
	library  *rfp.Library
}

// prepare builds the logger, the config and the application for non-interactive commands.
// Every failure is fatal.
func prepare(ctx context.Context) (*zap.Logger, *Config, *application) {
	logger, err := rfplogger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	application, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	return logger, config, application
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	if config == nil || config.Data == nil {
		return nil, fmt.Errorf("data configuration is required")
	}

	cat, err := catalog.Load(config.Data.SKUFile)
	if err != nil {
		return nil, err
	}
	if cat.Len() == 0 {
		logger.Warn("sku catalog is empty; no requirement line will match", zap.String("path", config.Data.SKUFile))
	}

	table, err := pricing.LoadTable(config.Data.PricingFile)
	if err != nil {
		return nil, err
	}
	if table.Skipped() > 0 {
		logger.Warn("skipped malformed pricing rows",
			zap.String("path", config.Data.PricingFile),
			zap.Int("skipped", table.Skipped()),
		)
	}

	logger.Info("data loaded",
		zap.Int("skus", cat.Len()),
		zap.Int("priced_skus", table.Len()),
		zap.String("rfp_dir", config.Data.RFPDir),
	)

	currency := ""
	if config.Pricing != nil {
		currency = config.Pricing.Currency
	}

	deps := pipeline.Deps{
		Matcher:    matching.New(cat),
		Calculator: pricing.NewCalculator(table, currency),
		Logger:     logger,
	}

	var scorer ai.Scorer
	if config.AI != nil && config.AI.Enabled {
		summarizer, aiScorer, err := newAIClients(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("ai is enabled but unavailable; sales summary disabled and judge falls back to match scores", zap.Error(err))
		} else {
			deps.Summarizer = summarizer
			scorer = aiScorer
		}
	}

	opts := pipeline.Options{}
	concurrency := 1
	if config.Judge != nil {
		opts.JudgeEnabled = config.Judge.Enabled
		concurrency = config.Judge.Concurrency
	}
	deps.Judge = judge.New(scorer, concurrency, logger.Named("judge"))

	return &application{
		pipeline: pipeline.New(deps, opts),
		library:  rfp.NewLibrary(config.Data.RFPDir),
	}, nil
}

func newAIClients(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Summarizer, ai.Scorer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Options{
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	aiLogger := logger.With(
		zap.String("provider", gemini.Provider),
		zap.String("model", generator.Model()),
	)

	summarizer := gemini.NewSummarizer(generator, aiLogger, cfg.Gemini.MaxLogLength)
	scorer := gemini.NewScorer(generator, aiLogger, cfg.Gemini.MaxLogLength)

	return summarizer, scorer, nil
}
