package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

const attachmentSelector = `[role="button"][aria-label*="attachment"]`

// Extractor reads email features from fragments of one layout
type Extractor struct {
	layout Layout
	logger *zap.Logger
}

// NewExtractor creates a new extractor for layout
func NewExtractor(layout Layout, logger *zap.Logger) *Extractor {
	return &Extractor{
		layout: layout,
		logger: logger,
	}
}

// Layout returns the layout the extractor reads
func (e *Extractor) Layout() Layout {
	return e.layout
}

// Extract builds the features of one fragment. Missing parts are left
// absent. The error wraps core.ErrExtractionFailure when sender, subject and
// body are all missing.
func (e *Extractor) Extract(fragment *goquery.Selection, placement core.Placement, scanAttachments bool) (*core.EmailFeatures, error) {
	f := e.layout.fields(fragment, placement)

	var attachments []string
	if placement == core.PlacementOpen && scanAttachments {
		attachments = extractAttachments(fragment)
	}

	features, err := core.NewEmailFeatures(e.layout.Platform(), f.from, f.subject, f.body, extractLinks(fragment), attachments)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", e.layout.Platform(), placement, err)
	}

	e.logger.Debug("Extracted email features",
		zap.String("platform", string(features.Platform)),
		zap.String("placement", string(placement)),
		zap.String("from", features.From),
		zap.String("subject", features.Subject),
		zap.Int("links", len(features.Links)),
		zap.Int("attachments", len(features.Attachments)))

	return features, nil
}

// extractLinks collects outgoing link targets in document order, skipping
// script and no-op targets
func extractLinks(fragment *goquery.Selection) []string {
	var links []string
	fragment.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		links = append(links, href)
		return len(links) < core.MaxLinks
	})
	return links
}

func extractAttachments(fragment *goquery.Selection) []string {
	var labels []string
	fragment.Find(attachmentSelector).Each(func(_ int, el *goquery.Selection) {
		if label := strings.TrimSpace(el.AttrOr("aria-label", "")); label != "" {
			labels = append(labels, label)
		}
	})
	return labels
}
