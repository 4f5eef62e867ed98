package detect

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

var shortenerDomains = []string{"bit.ly", "tinyurl.com", "t.co", "goo.gl"}

// A long machine-generated label directly under a free ccTLD
var randomHost = regexp.MustCompile(`(^|\.)[a-z0-9]{10,}\.(tk|ml|ga|cf|gq)$`)

// LinkDetector flags links through shorteners, bare IP hosts and throwaway
// hostnames
type LinkDetector struct{}

// NewLinkDetector creates a new suspicious link detector
func NewLinkDetector() *LinkDetector {
	return &LinkDetector{}
}

func (d *LinkDetector) Name() string    { return NameLinks }
func (d *LinkDetector) RedFlag() string { return "Contains suspicious links" }

// Detect reports whether any link is suspicious
func (d *LinkDetector) Detect(f *core.EmailFeatures) bool {
	for _, link := range f.Links {
		if suspiciousHost(linkHost(link)) {
			return true
		}
	}
	return false
}

// linkHost extracts the lowercased host of a link, tolerating links that
// were rendered without a scheme
func linkHost(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + strings.TrimSpace(link))
		if err != nil {
			return ""
		}
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

func suspiciousHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, domain := range shortenerDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return randomHost.MatchString(host)
}
