// Package detect holds the heuristic signals the rule classifier is built
// from. Every detector is a pure predicate over core.EmailFeatures.
package detect

import (
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/utils"
)

// Detector is one independent threat signal
type Detector interface {
	// Name identifies the detector
	Name() string

	// RedFlag is the human readable token reported when the detector fires
	RedFlag() string

	// Detect reports whether the signal is present in the email
	Detect(features *core.EmailFeatures) bool
}

const (
	NameSender   = "sender"
	NamePhishing = "phishing"
	NameSpam     = "spam"
	NameScam     = "scam"
	NameLinks    = "links"
)

// Standard returns the built-in detectors in evaluation order
func Standard() []Detector {
	return []Detector{
		NewSenderDetector(),
		NewPhishingDetector(),
		NewSpamDetector(),
		NewScamDetector(),
		NewLinkDetector(),
	}
}

// content is the text keyword detectors search: subject and body, folded
func content(f *core.EmailFeatures) string {
	return utils.FoldForMatch(f.Subject + " " + f.Body)
}
