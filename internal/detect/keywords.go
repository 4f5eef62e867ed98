package detect

import (
	"strings"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

var phishingKeywords = []string{
	"verify your account", "suspend your account", "confirm your identity",
	"update payment method", "unusual activity", "verify now",
	"click here immediately", "urgent action required",
}

var spamKeywords = []string{
	"make money fast", "get rich quick", "work from home",
	"free money", "congratulations you won", "claim your prize",
	"limited time offer", "act now", "no purchase necessary",
}

var scamKeywords = []string{
	"nigerian prince", "inheritance", "lottery winner", "refund pending",
	"tax refund", "government grant", "charity donation", "advance fee",
	"wire transfer", "western union", "money gram",
}

// KeywordDetector fires when the subject or body contains any of its phrases
type KeywordDetector struct {
	name     string
	redFlag  string
	keywords []string
}

// NewPhishingDetector detects account verification and urgency language
func NewPhishingDetector() *KeywordDetector {
	return &KeywordDetector{name: NamePhishing, redFlag: "Contains phishing indicators", keywords: phishingKeywords}
}

// NewSpamDetector detects promotional and too-good-to-be-true language
func NewSpamDetector() *KeywordDetector {
	return &KeywordDetector{name: NameSpam, redFlag: "Contains spam patterns", keywords: spamKeywords}
}

// NewScamDetector detects advance-fee, lottery and wire transfer language
func NewScamDetector() *KeywordDetector {
	return &KeywordDetector{name: NameScam, redFlag: "Contains scam indicators", keywords: scamKeywords}
}

func (d *KeywordDetector) Name() string    { return d.name }
func (d *KeywordDetector) RedFlag() string { return d.redFlag }

// Detect reports whether any keyword occurs in the email text
func (d *KeywordDetector) Detect(f *core.EmailFeatures) bool {
	text := content(f)
	for _, keyword := range d.keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
