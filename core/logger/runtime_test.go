package logger

import (
	"context"
	"testing"
	"time"
)

func TestRIDRoundTrip(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	if got := RIDFrom(ctx); got != "rid-123" {
		t.Fatalf("RIDFrom = %q, expected rid-123", got)
	}
	if got := RIDFrom(context.Background()); got != "" {
		t.Fatalf("RIDFrom on empty context = %q, expected empty", got)
	}
}

func TestUpdateMetaRoundTrip(t *testing.T) {
	ctx := WithUpdateMeta(context.Background(), 42, 7, 9)
	if got := UpdateIDFrom(ctx); got != 42 {
		t.Fatalf("UpdateIDFrom = %d, expected 42", got)
	}
	if got := UserIDFrom(ctx); got != 7 {
		t.Fatalf("UserIDFrom = %d, expected 7", got)
	}
	if got := ChatIDFrom(ctx); got != 9 {
		t.Fatalf("ChatIDFrom = %d, expected 9", got)
	}
}

func TestBuildAndCompactRID(t *testing.T) {
	rid := BuildRID(100, 200, 300)
	if rid != "100:200:300" {
		t.Fatalf("BuildRID = %q", rid)
	}
	compact := CompactRID(rid)
	if compact != "2s.5k.8c" {
		t.Fatalf("CompactRID = %q", compact)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID passthrough = %q", got)
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "hello\x00world\ttab"
	if got := Sanitize(in); got != "helloworld\ttab" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("abcdef", 0); got != "" {
		t.Fatalf("SanitizeLimit with zero max = %q", got)
	}
}

func TestStatusAndRoundMS(t *testing.T) {
	if got := Status(nil); got != "ok" {
		t.Fatalf("Status(nil) = %q", got)
	}
	if got := Status(context.Canceled); got != "error" {
		t.Fatalf("Status(err) = %q", got)
	}
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("RoundMS = %v", got)
	}
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("RoundMS negative = %v", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	values := []string{"a", "b", "c"}
	joined, truncated := SummarizeStrings(values, 2)
	if joined != "a, b" || !truncated {
		t.Fatalf("SummarizeStrings = %q truncated=%v", joined, truncated)
	}
	joined, truncated = SummarizeStrings(values, 5)
	if joined != "a, b, c" || truncated {
		t.Fatalf("SummarizeStrings = %q truncated=%v", joined, truncated)
	}
}
