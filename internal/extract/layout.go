// Package extract turns webmail UI fragments into core.EmailFeatures.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/dom"
)

// Candidate is a UI region that may hold an email
type Candidate struct {
	ID        core.ElementID
	Placement core.Placement
	Selection *goquery.Selection
	// State changes whenever the region should be extracted again, for
	// example when an open message switches visibility
	State string
}

// fields are the raw values a layout reads from a fragment
type fields struct {
	from    string
	subject string
	body    string
}

// Layout locates emails in the document of one webmail platform
type Layout interface {
	// Platform identifies the webmail layout
	Platform() core.Platform

	// Rows returns the message list rows in document order
	Rows(doc *goquery.Document) []Candidate

	// OpenMessage returns the fully opened message, if one is visible
	OpenMessage(doc *goquery.Document) (Candidate, bool)

	fields(fragment *goquery.Selection, placement core.Placement) fields
}

// LayoutFor returns the layout of a platform
func LayoutFor(platform core.Platform) (Layout, error) {
	switch platform {
	case core.PlatformGmail:
		return gmailLayout{}, nil
	case core.PlatformOutlook:
		return outlookLayout{}, nil
	default:
		return nil, fmt.Errorf("no layout for platform %q", platform)
	}
}

// identify derives a stable identity from the first attribute present on the
// fragment or its descendants, falling back to the structural path
func identify(fragment *goquery.Selection, attrs ...string) core.ElementID {
	for _, attr := range attrs {
		if v, ok := fragment.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return core.ElementID(attr + ":" + strings.TrimSpace(v))
		}
		if v, ok := fragment.Find("[" + attr + "]").First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return core.ElementID(attr + ":" + strings.TrimSpace(v))
		}
	}
	return core.ElementID("path:" + dom.Path(fragment))
}

// hidden reports whether a region is collapsed through aria-hidden or an
// inline display style
func hidden(sel *goquery.Selection) bool {
	if v, _ := sel.Attr("aria-hidden"); v == "true" {
		return true
	}
	style, _ := sel.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

// attrOrText returns the attribute of the first match or else its text
func attrOrText(sel *goquery.Selection, attr string) string {
	sel = sel.First()
	if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return text(sel)
}
