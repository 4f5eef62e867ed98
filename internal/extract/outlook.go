package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/llm-threat-scanner/internal/core"
)

// Outlook is scanned from its message list only
type outlookLayout struct{}

func (outlookLayout) Platform() core.Platform { return core.PlatformOutlook }

func (outlookLayout) Rows(doc *goquery.Document) []Candidate {
	var rows []Candidate
	doc.Find(`[role="listitem"]`).Each(func(_ int, row *goquery.Selection) {
		if row.Find("[data-convid]").Length() == 0 {
			return
		}
		id := identify(row, "data-convid")
		rows = append(rows, Candidate{
			ID:        id,
			Placement: core.PlacementRow,
			Selection: row,
			State:     string(id),
		})
	})
	return rows
}

func (outlookLayout) OpenMessage(*goquery.Document) (Candidate, bool) {
	return Candidate{}, false
}

func (outlookLayout) fields(fragment *goquery.Selection, _ core.Placement) fields {
	return fields{
		from:    attrOrText(fragment.Find(`[title*="@"]`), "title"),
		subject: text(fragment.Find("[data-convid] span")),
		body:    text(fragment.Find(".sjmr9c span")),
	}
}
