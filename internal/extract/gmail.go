package extract

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/llm-threat-scanner/internal/core"
)

const (
	gmailRows        = `[role="main"] [role="listitem"]`
	gmailOpenMessage = `[role="main"] [role="region"]`
)

type gmailLayout struct{}

func (gmailLayout) Platform() core.Platform { return core.PlatformGmail }

func (gmailLayout) Rows(doc *goquery.Document) []Candidate {
	var rows []Candidate
	doc.Find(gmailRows).Each(func(_ int, row *goquery.Selection) {
		// List items inside an open message are parts of that message
		if row.ParentsFiltered(`[role="region"]`).Length() > 0 {
			return
		}
		id := identify(row, "data-legacy-thread-id", "data-legacy-message-id")
		rows = append(rows, Candidate{
			ID:        id,
			Placement: core.PlacementRow,
			Selection: row,
			State:     string(id),
		})
	})
	return rows
}

func (gmailLayout) OpenMessage(doc *goquery.Document) (Candidate, bool) {
	region := doc.Find(gmailOpenMessage).First()
	if region.Length() == 0 || hidden(region) {
		return Candidate{}, false
	}
	id := identify(region, "data-legacy-message-id", "data-legacy-thread-id")
	return Candidate{
		ID:        id,
		Placement: core.PlacementOpen,
		Selection: region,
		State:     string(id) + "|" + text(region.Find("h2")),
	}, true
}

func (gmailLayout) fields(fragment *goquery.Selection, placement core.Placement) fields {
	if placement == core.PlacementOpen {
		sender, _ := fragment.Find("[email]").First().Attr("email")
		return fields{
			from:    sender,
			subject: text(fragment.Find("h2")),
			body:    text(fragment.Find(`[role="listitem"] [dir="ltr"]`)),
		}
	}
	return fields{
		from:    attrOrText(fragment.Find("[email]"), "email"),
		subject: text(fragment.Find("[data-legacy-thread-id] span[id]")),
		body:    text(fragment.Find(".y2 span")),
	}
}
