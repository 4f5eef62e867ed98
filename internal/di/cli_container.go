package di

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-threat-scanner/internal/adapters/presenter"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/extract"
	"github.com/mikey/llm-threat-scanner/internal/logging"
	"github.com/mikey/llm-threat-scanner/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIBaseURL   string

	// Scan flags
	Platform        string
	Threshold       string
	UseModel        bool
	ScanAttachments bool
	Whitelist       string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "none", "LLM provider (none, bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum email body size to send to LLM")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-flash", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o-mini", "OpenAI model name")
	flag.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI compatible server")

	// Scan flags
	flag.StringVar(&flags.Platform, "platform", "gmail", "Webmail layout of the snapshot (gmail, outlook)")
	flag.StringVar(&flags.Threshold, "threshold", "medium", "Threat level that triggers alerts")
	flag.BoolVar(&flags.UseModel, "model", false, "Classify with the model backend instead of the rules")
	flag.BoolVar(&flags.ScanAttachments, "attachments", true, "Include attachment labels of the open message")
	flag.StringVar(&flags.Whitelist, "whitelist", "", "Comma-separated list of whitelisted domains")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input HTML snapshot (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideHost(container); err != nil {
		return nil, err
	}

	// Register scan configuration
	if err := container.Provide(func(cfg *config.Config) (config.ScanConfig, error) {
		return cfg.GetScan()
	}); err != nil {
		return nil, err
	}

	// Register extractor
	if err := container.Provide(func(scanCfg config.ScanConfig, logger *zap.Logger) (*extract.Extractor, error) {
		layout, err := extract.LayoutFor(scanCfg.Platform)
		if err != nil {
			return nil, err
		}
		return extract.NewExtractor(layout, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register console presenter
	if err := container.Provide(func(flags *CLIFlags) ports.Presenter {
		return presenter.NewConsolePresenter(os.Stdout, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	// Set scan and user settings
	v.Set("scan.platform", flags.Platform)
	v.Set("settings.threat_threshold", flags.Threshold)
	v.Set("settings.privacy_mode", flags.UseModel)
	v.Set("settings.scan_attachments", flags.ScanAttachments)

	// Set whitelisted domains
	domains := []string{}
	if flags.Whitelist != "" {
		for _, domain := range strings.Split(flags.Whitelist, ",") {
			domains = append(domains, strings.TrimSpace(domain))
		}
	}
	v.Set("settings.whitelisted_domains", domains)

	return config.NewFromViper(v)
}
