package factory

import (
	"errors"
	"fmt"
	"io"

	"github.com/mikey/llm-threat-scanner/internal/adapters/bedrock"
	"github.com/mikey/llm-threat-scanner/internal/adapters/gemini"
	"github.com/mikey/llm-threat-scanner/internal/adapters/openai"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/model"
	"github.com/mikey/llm-threat-scanner/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates the model classifier for the configured provider
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	closers       []io.Closer
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: utils.NewTextProcessor(logger),
	}
}

// CreateModelClassifier returns the model classifier, or nil when the
// provider is "none"
func (f *LLMFactory) CreateModelClassifier() (core.Classifier, error) {
	llmConfig, err := f.cfg.GetLLM()
	if err != nil {
		return nil, err
	}

	var (
		generator   core.TextGenerator
		maxBodySize int
	)

	switch llmConfig.Provider {
	case "", "none":
		f.logger.Info("No model backend configured, using rule-based classification")
		return nil, nil
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger).CreateClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create bedrock client: %w", err)
		}
		generator, maxBodySize = client, f.cfg.GetBedrock().MaxBodySize
	case "gemini":
		client, err := gemini.NewFactory(f.cfg, f.logger).CreateClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		f.closers = append(f.closers, client)
		generator, maxBodySize = client, f.cfg.GetGemini().MaxBodySize
	case "openai":
		client, err := openai.NewFactory(f.cfg, f.logger).CreateClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		generator, maxBodySize = client, f.cfg.GetOpenAI().MaxBodySize
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}

	opts := model.Options{
		MaxBodySize:       maxBodySize,
		RequestsPerSecond: llmConfig.RequestsPerSecond,
		Burst:             llmConfig.Burst,
		BreakerFailures:   llmConfig.BreakerFailures,
		BreakerTimeout:    llmConfig.BreakerTimeout,
	}

	f.logger.Info("Initialized model classifier",
		zap.String("provider", llmConfig.Provider),
		zap.String("backend", generator.Name()))

	return model.NewClassifier(generator, f.textProcessor, opts, f.logger), nil
}

// Close releases the backend clients created by the factory
func (f *LLMFactory) Close() error {
	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}
