package psbt

import "testing"

func TestLockHeightRejectsAtThreshold(t *testing.T) {
	if _, err := FromHeight(LocktimeThreshold); err == nil {
		t.Fatal("expected error for height at threshold")
	}
	if _, err := FromHeight(LocktimeThreshold - 1); err != nil {
		t.Fatalf("unexpected error just below threshold: %v", err)
	}
}

func TestLockTimestampRejectsBelowThreshold(t *testing.T) {
	if _, err := FromUnixTimestamp(LocktimeThreshold - 1); err == nil {
		t.Fatal("expected error for timestamp below threshold")
	}
	if _, err := FromUnixTimestamp(LocktimeThreshold); err != nil {
		t.Fatalf("unexpected error at threshold: %v", err)
	}
}

func TestLockHeightTextRoundTrip(t *testing.T) {
	h, err := FromHeight(700_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := h.String()
	if text != "height(700000)" {
		t.Fatalf("unexpected text form: %q", text)
	}
	parsed, err := ParseLockHeight(text)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed != h {
		t.Fatalf("round trip mismatch: got %v, want %v", parsed, h)
	}
}

func TestLockTimestampTextRoundTrip(t *testing.T) {
	ts, err := FromUnixTimestamp(1_700_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := ts.String()
	parsed, err := ParseLockTimestamp(text)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed != ts {
		t.Fatalf("round trip mismatch: got %v, want %v", parsed, ts)
	}
}

func TestParseLockHeightAcceptsAnytimeForms(t *testing.T) {
	for _, text := range []string{"0", "none"} {
		h, err := ParseLockHeight(text)
		if err != nil {
			t.Fatalf("text %q: unexpected error: %v", text, err)
		}
		if !h.IsAnytime() {
			t.Fatalf("text %q: expected anytime height", text)
		}
	}
}

func TestParseLockHeightRejectsGarbage(t *testing.T) {
	if _, err := ParseLockHeight("time(700000)"); err == nil {
		t.Fatal("expected error parsing a timestamp form as a height")
	}
}
