package core

import (
	"fmt"
	"strings"
	"time"
)

// MaxLinks is the number of links kept per email
const MaxLinks = 10

// Platform identifies the webmail layout an email was extracted from
type Platform string

const (
	PlatformGmail   Platform = "gmail"
	PlatformOutlook Platform = "outlook"
)

// ParsePlatform converts a configuration string to a Platform
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformGmail:
		return PlatformGmail, nil
	case PlatformOutlook:
		return PlatformOutlook, nil
	default:
		return "", fmt.Errorf("unsupported platform: %q", s)
	}
}

// ElementID is the opaque identity of one email element in a document
type ElementID string

// Placement is where an email element lives in the UI
type Placement string

const (
	// PlacementRow is a row of the message list
	PlacementRow Placement = "row"
	// PlacementOpen is a fully opened message
	PlacementOpen Placement = "open"
)

// EmailFeatures is the normalized view of one email as rendered in the UI.
// An empty string means the field was absent from the fragment.
type EmailFeatures struct {
	From        string   `json:"from,omitempty"`
	Subject     string   `json:"subject,omitempty"`
	Body        string   `json:"body,omitempty"`
	Links       []string `json:"links"`
	Attachments []string `json:"attachments,omitempty"`
	Platform    Platform `json:"platform"`
}

// NewEmailFeatures trims every field, keeps the first MaxLinks links and
// rejects features where sender, subject and body are all absent.
func NewEmailFeatures(platform Platform, from, subject, body string, links, attachments []string) (*EmailFeatures, error) {
	f := &EmailFeatures{
		From:     strings.TrimSpace(from),
		Subject:  strings.TrimSpace(subject),
		Body:     strings.TrimSpace(body),
		Links:    make([]string, 0, min(len(links), MaxLinks)),
		Platform: platform,
	}

	for _, link := range links {
		if len(f.Links) == MaxLinks {
			break
		}
		f.Links = append(f.Links, strings.TrimSpace(link))
	}

	for _, label := range attachments {
		if label = strings.TrimSpace(label); label != "" {
			f.Attachments = append(f.Attachments, label)
		}
	}

	if f.From == "" && f.Subject == "" && f.Body == "" {
		return nil, fmt.Errorf("%w: sender, subject and body are all absent", ErrExtractionFailure)
	}

	return f, nil
}

// Fingerprint returns the cache key for the email. Only the sender and the
// subject take part, so two messages of one thread share a verdict.
func (f *EmailFeatures) Fingerprint() string {
	return f.From + "-" + f.Subject
}

// ThreatLevel is the severity of a verdict
type ThreatLevel string

const (
	LevelSafe     ThreatLevel = "safe"
	LevelLow      ThreatLevel = "low"
	LevelMedium   ThreatLevel = "medium"
	LevelHigh     ThreatLevel = "high"
	LevelCritical ThreatLevel = "critical"
)

// Rank orders levels from safe (0) to critical (4). Unknown levels rank -1.
func (l ThreatLevel) Rank() int {
	switch l {
	case LevelSafe:
		return 0
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return -1
	}
}

// Valid reports whether l is one of the known levels
func (l ThreatLevel) Valid() bool {
	return l.Rank() >= 0
}

// ValidThreshold reports whether l may be used as the alert threshold, which
// is limited to low, medium and high
func (l ThreatLevel) ValidThreshold() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// AtLeast reports whether l is as severe as other
func (l ThreatLevel) AtLeast(other ThreatLevel) bool {
	return l.Rank() >= other.Rank()
}

// ThreatType is the category of a verdict
type ThreatType string

const (
	TypeSafe     ThreatType = "safe"
	TypeSpam     ThreatType = "spam"
	TypeScam     ThreatType = "scam"
	TypePhishing ThreatType = "phishing"
	TypeMalware  ThreatType = "malware"
	TypeUnknown  ThreatType = "unknown"
)

// Valid reports whether t is one of the known types
func (t ThreatType) Valid() bool {
	switch t {
	case TypeSafe, TypeSpam, TypeScam, TypePhishing, TypeMalware, TypeUnknown:
		return true
	}
	return false
}

// Action is what the user is advised to do with the email
type Action string

const (
	ActionSafe    Action = "safe"
	ActionCaution Action = "caution"
	ActionBlock   Action = "block"
	ActionDelete  Action = "delete"
)

// ActionFor maps a threat level to its recommended action
func ActionFor(level ThreatLevel) Action {
	switch level {
	case LevelSafe:
		return ActionSafe
	case LevelLow, LevelMedium:
		return ActionCaution
	case LevelHigh:
		return ActionBlock
	case LevelCritical:
		return ActionDelete
	default:
		return ActionCaution
	}
}

var explanations = map[ThreatType]string{
	TypeSafe:     "No security threats detected in this email.",
	TypeSpam:     "This email contains promotional content and spam indicators.",
	TypePhishing: "This email may be attempting to steal your credentials or personal information.",
	TypeScam:     "This email appears to be a fraudulent attempt to steal money or information.",
	TypeMalware:  "This email may contain malicious attachments or links.",
}

// Explain builds the human readable explanation for a verdict
func Explain(threatType ThreatType, redFlags []string) string {
	explanation, ok := explanations[threatType]
	if !ok {
		explanation = explanations[TypeSafe]
	}
	if len(redFlags) > 0 {
		explanation += " Red flags detected: " + strings.Join(redFlags, ", ") + "."
	}
	return explanation
}

// ThreatVerdict is the outcome of classifying one email. Verdicts are shared
// between the cache and its readers and must not be modified.
type ThreatVerdict struct {
	ThreatLevel       ThreatLevel `json:"threat_level"`
	ThreatType        ThreatType  `json:"threat_type"`
	Confidence        float64     `json:"confidence"`
	Explanation       string      `json:"explanation"`
	RedFlags          []string    `json:"red_flags"`
	RecommendedAction Action      `json:"recommended_action"`
}

// Displayable reports whether the presentation layer should show the verdict
func (v *ThreatVerdict) Displayable() bool {
	return v.ThreatLevel != LevelSafe || v.Confidence >= 0.1
}

// FallbackVerdict is returned when a model response cannot be used
func FallbackVerdict() *ThreatVerdict {
	return &ThreatVerdict{
		ThreatLevel:       LevelMedium,
		ThreatType:        TypeUnknown,
		Confidence:        0.5,
		Explanation:       "Unable to fully analyze email content",
		RedFlags:          []string{"Analysis incomplete"},
		RecommendedAction: ActionCaution,
	}
}

// NotAnalyzedVerdict is substituted when the host could not be reached or
// refused the request
func NotAnalyzedVerdict() *ThreatVerdict {
	return &ThreatVerdict{
		ThreatLevel:       LevelSafe,
		ThreatType:        TypeSafe,
		Confidence:        0.0,
		Explanation:       "Analysis not available",
		RedFlags:          []string{},
		RecommendedAction: ActionSafe,
	}
}

// Settings are the user preferences that drive scanning
type Settings struct {
	Enabled           bool        `json:"isthisspam_enabled"`
	ScanMode          string      `json:"scan_mode"`
	ThreatThreshold   ThreatLevel `json:"threat_threshold"`
	ShowNotifications bool        `json:"show_notifications"`
	ScanAttachments   bool        `json:"scan_attachments"`
	PrivacyMode       bool        `json:"privacy_mode"`
}

// DefaultSettings returns the settings used on first start or when the
// settings collaborator cannot be reached
func DefaultSettings() Settings {
	return Settings{
		Enabled:           true,
		ScanMode:          "auto",
		ThreatThreshold:   LevelMedium,
		ShowNotifications: true,
		ScanAttachments:   true,
		PrivacyMode:       false,
	}
}

// Stats are the running counters shown to the user
type Stats struct {
	EmailsScanned  int64  `json:"emailsScanned"`
	ThreatsBlocked int64  `json:"threatsBlocked"`
	SpamCount      int64  `json:"spamCount"`
	PhishingCount  int64  `json:"phishingCount"`
	ScamCount      int64  `json:"scamCount"`
	LastScanDate   string `json:"lastScanDate"`
}

// StatsDate formats t as the day key used by Stats.LastScanDate
func StatsDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Apply counts one verdict into s, resetting the per-type counters when the
// day changed since the last scan
func (s *Stats) Apply(v *ThreatVerdict, now time.Time) {
	today := StatsDate(now)
	if s.LastScanDate != today {
		s.SpamCount = 0
		s.PhishingCount = 0
		s.ScamCount = 0
		s.LastScanDate = today
	}

	s.EmailsScanned++
	if a := ActionFor(v.ThreatLevel); a == ActionBlock || a == ActionDelete {
		s.ThreatsBlocked++
	}
	switch v.ThreatType {
	case TypeSpam:
		s.SpamCount++
	case TypePhishing:
		s.PhishingCount++
	case TypeScam:
		s.ScamCount++
	}
}
