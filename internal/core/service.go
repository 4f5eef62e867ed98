package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikey/llm-threat-scanner/internal/whitelist"
	"go.uber.org/zap"
)

// SettingsSource supplies the current user settings
type SettingsSource interface {
	Get(ctx context.Context) (Settings, error)
}

// ThreatAnalysisService is the host side entry point for classification. It
// picks the model classifier in privacy mode when a backend is available and
// the rule classifier otherwise.
type ThreatAnalysisService struct {
	rules     Classifier
	model     Classifier
	settings  SettingsSource
	whitelist *whitelist.Checker
	logger    *zap.Logger
}

// NewThreatAnalysisService creates a new analysis service. model may be nil
// when no backend could be initialized.
func NewThreatAnalysisService(
	rules Classifier,
	model Classifier,
	settings SettingsSource,
	trusted *whitelist.Checker,
	logger *zap.Logger,
) *ThreatAnalysisService {
	return &ThreatAnalysisService{
		rules:     rules,
		model:     model,
		settings:  settings,
		whitelist: trusted,
		logger:    logger,
	}
}

// ModelReady reports whether a model backend was initialized
func (s *ThreatAnalysisService) ModelReady() bool {
	return s.model != nil
}

// AnalyzeEmail classifies an email with the active strategy
func (s *ThreatAnalysisService) AnalyzeEmail(ctx context.Context, features *EmailFeatures) (*ThreatVerdict, error) {
	if s.whitelist != nil && s.whitelist.IsWhitelisted(features.From) {
		s.logger.Info("Skipping threat check for whitelisted domain",
			zap.String("sender", features.From),
			zap.String("action", "whitelist_bypass"))

		return &ThreatVerdict{
			ThreatLevel:       LevelSafe,
			ThreatType:        TypeSafe,
			Confidence:        1.0,
			Explanation:       "Sender domain is whitelisted",
			RedFlags:          []string{},
			RecommendedAction: ActionSafe,
		}, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("Using default settings", zap.Error(err))
		settings = DefaultSettings()
	}

	classifier, strategy := s.rules, "rules"
	if settings.PrivacyMode && s.model != nil {
		classifier, strategy = s.model, "model"
	}

	s.logger.Debug("Analyzing email",
		zap.String("subject", features.Subject),
		zap.String("strategy", strategy))

	verdict, err := classifier.Classify(ctx, features)
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			s.logger.Warn("Model backend unavailable", zap.Error(err))
		}
		return nil, fmt.Errorf("%s classification failed: %w", strategy, err)
	}

	return verdict, nil
}
