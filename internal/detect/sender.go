package detect

import (
	"regexp"
	"strings"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

var disposableDomains = []string{
	"tempmail", "guerrillamail", "10minutemail", "mailinator",
	"throwaway", "temp-mail",
}

// Role accounts on free ccTLDs that are handed out without verification
var suspiciousSenders = []*regexp.Regexp{
	regexp.MustCompile(`(noreply|admin|security|support|billing).*@.*\.(tk|ml|ga|cf|gq)$`),
}

// SenderDetector flags missing, disposable and role-account senders
type SenderDetector struct{}

// NewSenderDetector creates a new sender reputation detector
func NewSenderDetector() *SenderDetector {
	return &SenderDetector{}
}

func (d *SenderDetector) Name() string    { return NameSender }
func (d *SenderDetector) RedFlag() string { return "Suspicious sender domain" }

// Detect reports whether the sender looks untrustworthy
func (d *SenderDetector) Detect(f *core.EmailFeatures) bool {
	if f.From == "" {
		return true
	}

	sender := strings.ToLower(f.From)
	for _, domain := range disposableDomains {
		if strings.Contains(sender, domain) {
			return true
		}
	}
	for _, pattern := range suspiciousSenders {
		if pattern.MatchString(sender) {
			return true
		}
	}
	return false
}
