// Package model implements the classifier that delegates to a generative
// text backend.
package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options tunes the calls made to the backend
type Options struct {
	// MaxBodySize bounds the body bytes embedded in the prompt. Zero disables truncation.
	MaxBodySize int

	// RequestsPerSecond limits backend calls. Zero or less means unlimited.
	RequestsPerSecond float64
	Burst             int

	// BreakerFailures is the number of consecutive failures that opens the breaker
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open before probing again
	BreakerTimeout time.Duration
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxBodySize:       4096,
		RequestsPerSecond: 2,
		Burst:             4,
		BreakerFailures:   5,
		BreakerTimeout:    30 * time.Second,
	}
}

// Classifier asks a text generator for a verdict and validates the answer
type Classifier struct {
	generator     core.TextGenerator
	textProcessor *utils.TextProcessor
	maxBodySize   int
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.Logger
}

// NewClassifier creates a new model classifier over generator
func NewClassifier(
	generator core.TextGenerator,
	textProcessor *utils.TextProcessor,
	opts Options,
	logger *zap.Logger,
) *Classifier {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = DefaultOptions().BreakerFailures
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    generator.Name(),
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Model backend breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Classifier{
		generator:     generator,
		textProcessor: textProcessor,
		maxBodySize:   opts.MaxBodySize,
		limiter:       rate.NewLimiter(limit, burst),
		breaker:       breaker,
		logger:        logger,
	}
}

// Classify analyzes the email with the backend. Unusable responses produce
// the fallback verdict. Only backend failures are returned as errors, and
// they wrap core.ErrBackendUnavailable.
func (c *Classifier) Classify(ctx context.Context, features *core.EmailFeatures) (*core.ThreatVerdict, error) {
	body := c.textProcessor.ProcessText(features.Body, c.maxBodySize)
	prompt := buildPrompt(features, body)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		c.logger.Warn("Using fallback verdict",
			zap.String("backend", c.generator.Name()),
			zap.String("subject", features.Subject),
			zap.Error(err))
		return core.FallbackVerdict(), nil
	}

	c.logger.Debug("Model classification complete",
		zap.String("backend", c.generator.Name()),
		zap.String("threat_level", string(verdict.ThreatLevel)),
		zap.String("threat_type", string(verdict.ThreatType)),
		zap.Float64("confidence", verdict.Confidence))

	return verdict, nil
}

func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", core.ErrBackendUnavailable, err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generator.Generate(ctx, SystemPrompt, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			c.logger.Debug("Model backend breaker open", zap.String("backend", c.generator.Name()))
		}
		return "", fmt.Errorf("%w: %s: %w", core.ErrBackendUnavailable, c.generator.Name(), err)
	}

	return out.(string), nil
}
