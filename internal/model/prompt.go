package model

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// SystemPrompt describes the verdict schema the backend must answer with
const SystemPrompt = `You are an expert email security analyst. Your job is to analyze emails and detect:
1. Spam - Unwanted commercial emails
2. Scams - Fraudulent attempts to steal money or information
3. Phishing - Attempts to steal credentials or personal information

Analyze the email content, sender information, links, and patterns. Return a JSON response with:
{
  "threat_level": "safe|low|medium|high|critical",
  "threat_type": "safe|spam|scam|phishing|malware",
  "confidence": 0.0-1.0,
  "explanation": "Brief explanation of the analysis",
  "red_flags": ["list", "of", "suspicious", "elements"],
  "recommended_action": "safe|caution|block|delete"
}`

const promptFormat = `Analyze this email for spam, scams, and phishing:

Subject: %s
From: %s
Body: %s
Links: %s
Attachments: %s

Provide analysis in the specified JSON format.`

func orDefault(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

// buildPrompt renders the user prompt for one email. body is the already
// truncated and sanitized body text.
func buildPrompt(f *core.EmailFeatures, body string) string {
	return fmt.Sprintf(promptFormat,
		orDefault(f.Subject, "No subject"),
		orDefault(f.From, "Unknown sender"),
		orDefault(body, "No content"),
		joinOrNone(f.Links),
		joinOrNone(f.Attachments))
}
