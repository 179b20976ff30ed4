package catalyst

import (
	"testing"
	"time"
)

func TestParseEventDate(t *testing.T) {
	cases := []struct {
		text string
		want time.Time
	}{
		{"PDUFA date 3/15/2026 for NDA review", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"decision due 2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"target action date March 15, 2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"response expected March 15 2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"decision in Q1 2026", time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{"decision in Q4 2026", time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)},
		{"expected March 2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"no date here", time.Time{}},
		{"", time.Time{}},
	}
	for _, tc := range cases {
		got := ParseEventDate(tc.text)
		if !got.Equal(tc.want) {
			t.Fatalf("ParseEventDate(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestParseEventDateRejectsOverflow(t *testing.T) {
	if got := ParseEventDate("due 2/31/2026"); !got.IsZero() {
		t.Fatalf("expected zero time for impossible date, got %v", got)
	}
}

func TestParseISODate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2026-03", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-03-15T00:00:00Z", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"not a date", time.Time{}},
		{"", time.Time{}},
	}
	for _, tc := range cases {
		got := ParseISODate(tc.in)
		if !got.Equal(tc.want) {
			t.Fatalf("ParseISODate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
