// Package dom models the webmail document the scanner watches: parsed
// snapshots, structural element identities and the sources that produce
// successive snapshots.
package dom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot is one parsed state of the document
type Snapshot struct {
	doc     *goquery.Document
	version uint64
}

// Parse reads an HTML document into a snapshot
func Parse(r io.Reader, version uint64) (*Snapshot, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Snapshot{
		doc:     goquery.NewDocumentFromNode(root),
		version: version,
	}, nil
}

// ParseString is Parse over a string
func ParseString(s string, version uint64) (*Snapshot, error) {
	return Parse(strings.NewReader(s), version)
}

// Document returns the queryable document
func (s *Snapshot) Document() *goquery.Document {
	return s.doc
}

// Version is the sequence number the source assigned to the snapshot
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Path returns the structural path of the first node in sel, for example
// "html/body/div[2]/span". Indexes count element siblings with the same tag
// and are omitted for the first one.
func Path(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	var parts []string
	for n := sel.Get(0); n != nil && n.Type == html.ElementNode; n = n.Parent {
		index := 1
		for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == n.Data {
				index++
			}
		}
		part := n.Data
		if index > 1 {
			part += "[" + strconv.Itoa(index) + "]"
		}
		parts = append(parts, part)
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
