// Package rules implements the deterministic rule-based classifier.
package rules

import (
	"context"
	"fmt"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/detect"
	"go.uber.org/zap"
)

// verdictState is the verdict under construction. Confidence is kept in
// tenths so the sum of increments stays exact.
type verdictState struct {
	level    core.ThreatLevel
	kind     core.ThreatType
	tenths   int
	redFlags []string
}

// rule binds a detector to its confidence increment and its effect on the
// level and type of the verdict
type rule struct {
	detector detect.Detector
	tenths   int
	apply    func(s *verdictState)
}

// Classifier combines detector outputs into a verdict
type Classifier struct {
	rules  []rule
	logger *zap.Logger
}

// NewClassifier creates a rule classifier over the standard detectors
func NewClassifier(logger *zap.Logger) *Classifier {
	c, err := NewClassifierWith(detect.Standard(), logger)
	if err != nil {
		panic(err)
	}
	return c
}

// NewClassifierWith creates a rule classifier over the given detectors. The
// order of detectors fixes the order of red flags in every verdict.
func NewClassifierWith(detectors []detect.Detector, logger *zap.Logger) (*Classifier, error) {
	c := &Classifier{logger: logger}
	for _, d := range detectors {
		r, err := ruleFor(d)
		if err != nil {
			return nil, err
		}
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// Precedence when several detectors fire: scam > phishing > links > spam > sender.
func ruleFor(d detect.Detector) (rule, error) {
	switch d.Name() {
	case detect.NameSender:
		return rule{detector: d, tenths: 3, apply: func(s *verdictState) {
			s.level = core.LevelMedium
		}}, nil
	case detect.NamePhishing:
		return rule{detector: d, tenths: 4, apply: func(s *verdictState) {
			s.level = core.LevelHigh
			s.kind = core.TypePhishing
		}}, nil
	case detect.NameSpam:
		return rule{detector: d, tenths: 2, apply: func(s *verdictState) {
			if s.level == core.LevelSafe {
				s.level = core.LevelLow
				s.kind = core.TypeSpam
			}
		}}, nil
	case detect.NameScam:
		return rule{detector: d, tenths: 5, apply: func(s *verdictState) {
			s.level = core.LevelCritical
			s.kind = core.TypeScam
		}}, nil
	case detect.NameLinks:
		return rule{detector: d, tenths: 3, apply: func(s *verdictState) {
			if s.level != core.LevelCritical {
				s.level = core.LevelHigh
			}
		}}, nil
	default:
		return rule{}, fmt.Errorf("no rule for detector %q", d.Name())
	}
}

// Classify runs every detector in order and derives the verdict. It never
// returns an error.
func (c *Classifier) Classify(_ context.Context, features *core.EmailFeatures) (*core.ThreatVerdict, error) {
	s := &verdictState{
		level:    core.LevelSafe,
		kind:     core.TypeSafe,
		redFlags: []string{},
	}

	for _, r := range c.rules {
		if !r.detector.Detect(features) {
			continue
		}
		s.redFlags = append(s.redFlags, r.detector.RedFlag())
		s.tenths += r.tenths
		r.apply(s)
	}

	verdict := &core.ThreatVerdict{
		ThreatLevel:       s.level,
		ThreatType:        s.kind,
		Confidence:        float64(min(s.tenths, 10)) / 10,
		Explanation:       core.Explain(s.kind, s.redFlags),
		RedFlags:          s.redFlags,
		RecommendedAction: core.ActionFor(s.level),
	}

	if c.logger != nil {
		c.logger.Debug("Rule classification complete",
			zap.String("threat_level", string(verdict.ThreatLevel)),
			zap.String("threat_type", string(verdict.ThreatType)),
			zap.Float64("confidence", verdict.Confidence),
			zap.Strings("red_flags", verdict.RedFlags))
	}

	return verdict, nil
}
