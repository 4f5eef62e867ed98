package utils

import (
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	if got := tp.ProcessText("short", 100); got != "short" {
		t.Errorf("ProcessText(short): got %q", got)
	}
	if got := tp.ProcessText("unbounded", 0); got != "unbounded" {
		t.Errorf("ProcessText with no limit: got %q", got)
	}

	// "é" is two bytes, a cut at 3 bytes lands inside the second one
	got := tp.ProcessText("éé and more", 3)
	if !utf8.ValidString(got) {
		t.Errorf("ProcessText produced invalid UTF-8: %q", got)
	}
	if got != "é"+BodyTruncatedMarker {
		t.Errorf("ProcessText(truncated): got %q", got)
	}

	// The cut moves back to the last space instead of splitting a word
	got = tp.ProcessText("verify your account immediately", 25)
	if got != "verify your account"+BodyTruncatedMarker {
		t.Errorf("ProcessText(word boundary): got %q", got)
	}

	if got := tp.ProcessText("bad\xffbyte", 0); got != "badbyte" {
		t.Errorf("ProcessText(invalid): got %q, want %q", got, "badbyte")
	}
}

func TestFoldForMatch(t *testing.T) {
	cases := map[string]string{
		"VERIFY Your Account": "verify your account",
		"ＡＣＴ ＮＯＷ":             "act now",
		"Straße":              "strasse",
	}
	for in, want := range cases {
		if got := FoldForMatch(in); got != want {
			t.Errorf("FoldForMatch(%q): got %q, want %q", in, got, want)
		}
	}
}
