package core

import (
	"context"
)

// Classifier turns email features into a verdict
type Classifier interface {
	// Classify analyzes the features of one email
	Classify(ctx context.Context, features *EmailFeatures) (*ThreatVerdict, error)
}

// TextGenerator is a generative text backend
type TextGenerator interface {
	// Generate returns the raw model output for a system instruction and prompt
	Generate(ctx context.Context, system, prompt string) (string, error)

	// Name identifies the backend and model for logging
	Name() string
}

// VerdictCache memoizes verdicts by fingerprint for one session
type VerdictCache interface {
	// Get returns the cached verdict for a fingerprint
	Get(fingerprint string) (*ThreatVerdict, bool)

	// Put stores a verdict
	Put(fingerprint string, verdict *ThreatVerdict)

	// GetOrCompute returns the cached verdict or runs compute at most once per fingerprint
	GetOrCompute(ctx context.Context, fingerprint string, compute func(context.Context) (*ThreatVerdict, error)) (*ThreatVerdict, bool, error)

	// Clear drops every entry
	Clear()

	// Len returns the number of cached verdicts
	Len() int
}
