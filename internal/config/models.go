package config

import (
	"fmt"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// LLMConfig represents the configuration for the model backend
type LLMConfig struct {
	Provider          string
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI and compatible servers
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// ScanConfig represents the configuration of the content side scanner
type ScanConfig struct {
	Platform       core.Platform
	DocumentPath   string
	Debounce       time.Duration
	Transport      string
	HostURL        string
	RequestTimeout time.Duration
}

// StatsConfig represents the configuration of the statistics repository
type StatsConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// PresenterConfig selects the presentation adapters
type PresenterConfig struct {
	Types    []string
	JSONPath string
	Verbose  bool
}

// NotifyConfig represents the SMTP alert configuration
type NotifyConfig struct {
	SMTPAddress string
	From        string
	To          []string
	Username    string
	Password    string

	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() (LLMConfig, error) {
	timeout, err := c.GetDuration("llm.breaker_timeout")
	if err != nil {
		return LLMConfig{}, fmt.Errorf("invalid llm.breaker_timeout: %w", err)
	}
	return LLMConfig{
		Provider:          c.GetString("llm.provider"),
		RequestsPerSecond: c.GetFloat64("llm.requests_per_second"),
		Burst:             c.GetInt("llm.burst"),
		BreakerFailures:   uint32(c.GetInt("llm.breaker_failures")),
		BreakerTimeout:    timeout,
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetScan returns the scanner configuration
func (c *Config) GetScan() (ScanConfig, error) {
	platform, err := core.ParsePlatform(c.GetString("scan.platform"))
	if err != nil {
		return ScanConfig{}, err
	}
	debounce, err := c.GetDuration("scan.debounce")
	if err != nil {
		return ScanConfig{}, fmt.Errorf("invalid scan.debounce: %w", err)
	}
	timeout, err := c.GetDuration("scan.request_timeout")
	if err != nil {
		return ScanConfig{}, fmt.Errorf("invalid scan.request_timeout: %w", err)
	}
	return ScanConfig{
		Platform:       platform,
		DocumentPath:   c.GetString("scan.document_path"),
		Debounce:       debounce,
		Transport:      c.GetString("scan.transport"),
		HostURL:        c.GetString("scan.host_url"),
		RequestTimeout: timeout,
	}, nil
}

// GetSettings returns the initial user settings
func (c *Config) GetSettings() core.Settings {
	threshold := core.ThreatLevel(c.GetString("settings.threat_threshold"))
	if !threshold.ValidThreshold() {
		threshold = core.DefaultSettings().ThreatThreshold
	}
	return core.Settings{
		Enabled:           c.GetBool("settings.enabled"),
		ScanMode:          c.GetString("settings.scan_mode"),
		ThreatThreshold:   threshold,
		ShowNotifications: c.GetBool("settings.show_notifications"),
		ScanAttachments:   c.GetBool("settings.scan_attachments"),
		PrivacyMode:       c.GetBool("settings.privacy_mode"),
	}
}

// GetStats returns the statistics repository configuration
func (c *Config) GetStats() StatsConfig {
	return StatsConfig{
		Type:       c.GetString("stats.type"),
		SQLitePath: c.GetString("stats.sqlite_path"),
		MySQLDSN:   c.GetString("stats.mysql_dsn"),
	}
}

// GetPresenter returns the presentation configuration
func (c *Config) GetPresenter() PresenterConfig {
	return PresenterConfig{
		Types:    c.GetStringSlice("presenter.types"),
		JSONPath: c.GetString("presenter.json_path"),
		Verbose:  c.GetBool("presenter.verbose"),
	}
}

// GetNotify returns the SMTP alert configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		SMTPAddress: c.GetString("notify.smtp_address"),
		From:        c.GetString("notify.from"),
		To:          c.GetStringSlice("notify.to"),
		Username:    c.GetString("notify.username"),
		Password:    c.GetString("notify.password"),

		SESRegion:          c.GetString("notify.ses_region"),
		SESAccessKeyID:     c.GetString("notify.ses_access_key_id"),
		SESSecretAccessKey: c.GetString("notify.ses_secret_access_key"),
	}
}
