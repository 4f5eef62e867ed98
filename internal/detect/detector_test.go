package detect

import (
	"testing"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

func TestSenderDetector(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from string
		want bool
	}{
		{"", true},
		{"alice@example.com", false},
		{"bob@mailinator.com", true},
		{"x@Guerrillamail.org", true},
		{"noreply-alerts@service.tk", true},
		{"admin@free.ga", true},
		{"security-team@bank.ml", true},
		{"admin@example.com", false},
		{"alice@free.ga", false},
	}
	d := NewSenderDetector()
	for _, tc := range cases {
		f := &core.EmailFeatures{From: tc.from, Subject: "hello"}
		if got := d.Detect(f); got != tc.want {
			t.Errorf("Detect(from=%q) = %v, want %v", tc.from, got, tc.want)
		}
	}
}

func TestKeywordDetectors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		detector Detector
		subject  string
		body     string
		want     bool
	}{
		{"phishing in subject", NewPhishingDetector(), "Please VERIFY YOUR ACCOUNT", "", true},
		{"phishing in body", NewPhishingDetector(), "", "We noticed unusual activity on your card", true},
		{"phishing absent", NewPhishingDetector(), "Lunch?", "See you at noon", false},
		{"spam", NewSpamDetector(), "Limited time offer", "", true},
		{"spam full-width", NewSpamDetector(), "", "ＡＣＴ ＮＯＷ", true},
		{"spam absent", NewSpamDetector(), "Invoice", "attached", false},
		{"scam", NewScamDetector(), "", "send a Western Union transfer", true},
		{"scam absent", NewScamDetector(), "Meeting notes", "", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := &core.EmailFeatures{From: "a@example.com", Subject: tc.subject, Body: tc.body}
			if got := tc.detector.Detect(f); got != tc.want {
				t.Errorf("Detect() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLinkDetector(t *testing.T) {
	t.Parallel()

	cases := []struct {
		links []string
		want  bool
	}{
		{nil, false},
		{[]string{"https://example.com/a"}, false},
		{[]string{"https://www.microsoft.com/en-us"}, false},
		{[]string{"https://example.com", "http://bit.ly/x"}, true},
		{[]string{"https://tinyurl.com/abc"}, true},
		{[]string{"http://t.co/xyz"}, true},
		{[]string{"goo.gl/maps"}, true},
		{[]string{"http://192.168.10.4/login"}, true},
		{[]string{"http://[2001:db8::1]/x"}, true},
		{[]string{"http://abcdefghij12.tk/claim"}, true},
		{[]string{"http://short.tk/claim"}, false},
		{[]string{"https://example.com/docs/1.2.3.4"}, false},
	}
	d := NewLinkDetector()
	for _, tc := range cases {
		f := &core.EmailFeatures{Subject: "s", Links: tc.links}
		if got := d.Detect(f); got != tc.want {
			t.Errorf("Detect(links=%v) = %v, want %v", tc.links, got, tc.want)
		}
	}
}

func TestStandardOrder(t *testing.T) {
	t.Parallel()

	want := []string{NameSender, NamePhishing, NameSpam, NameScam, NameLinks}
	got := Standard()
	if len(got) != len(want) {
		t.Fatalf("Standard() returned %d detectors, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Name() != want[i] {
			t.Errorf("Standard()[%d] = %q, want %q", i, d.Name(), want[i])
		}
	}
}
