package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TextProcessor prepares email text before it is handed to a model backend
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// BodyTruncatedMarker ends an email body that was cut to fit the prompt
const BodyTruncatedMarker = " [email body truncated]"

// wordSlack is how far back a cut may move to land between words
const wordSlack = 24

// TruncateBody cuts an email body to at most maxSize bytes of content,
// preferring a word boundary and never splitting a rune, and appends
// BodyTruncatedMarker
func (tp *TextProcessor) TruncateBody(body string, maxSize int) string {
	if maxSize <= 0 || len(body) <= maxSize {
		return body
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	if space := strings.LastIndexAny(body[:cut], " \t\n"); space > 0 && cut-space <= wordSlack {
		cut = space
	}
	truncated := strings.TrimRight(body[:cut], " \t\n")

	tp.logger.Debug("Email body truncated",
		zap.Int("body_size", len(body)),
		zap.Int("kept", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + BodyTruncatedMarker
}

// SanitizeUTF8 drops invalid UTF-8 sequences from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateBody(text, maxSize))
}

// FoldForMatch normalizes text for case-insensitive keyword matching.
// Compatibility forms such as full-width letters are folded to their
// plain equivalents first.
func FoldForMatch(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}
