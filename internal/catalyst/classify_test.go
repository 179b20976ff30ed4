package catalyst

import (
	"testing"
	"time"

	"biocatalyst/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	approved := models.OutcomeApproved
	blank := "  "

	cases := []struct {
		name string
		ev   models.CatalystEvent
		want string
	}{
		{
			name: "future date no outcome",
			ev:   models.CatalystEvent{EventDate: now.AddDate(0, 0, 10)},
			want: StatusPending,
		},
		{
			name: "past date no outcome",
			ev:   models.CatalystEvent{EventDate: now.AddDate(0, 0, -1)},
			want: StatusDecided,
		},
		{
			name: "same day no outcome",
			ev:   models.CatalystEvent{EventDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
			want: StatusPending,
		},
		{
			name: "explicit outcome on future date",
			ev:   models.CatalystEvent{EventDate: now.AddDate(0, 0, 10), Outcome: &approved},
			want: StatusDecided,
		},
		{
			name: "blank outcome is no outcome",
			ev:   models.CatalystEvent{EventDate: now.AddDate(0, 0, 10), Outcome: &blank},
			want: StatusPending,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.ev, now); got != tc.want {
				t.Fatalf("DeriveStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyPartitionsAndCollectsTickers(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	approved := models.OutcomeApproved
	in := []models.CatalystEvent{
		{Ticker: "acme", IdentityKey: "a", EventDate: now.AddDate(0, 0, 5)},
		{Ticker: "ACME", IdentityKey: "b", EventDate: now.AddDate(0, 0, -5)},
		{Ticker: "BETA", IdentityKey: "c", EventDate: now.AddDate(0, 0, 5), Outcome: &approved},
		{Ticker: "", IdentityKey: "d", EventDate: now.AddDate(0, 0, 5)},
	}

	c := Classify(in, now)
	if len(c.Pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(c.Pending))
	}
	if len(c.Decided) != 2 {
		t.Fatalf("expected 2 decided, got %d", len(c.Decided))
	}
	if len(c.Tickers) != 2 || c.Tickers[0] != "ACME" || c.Tickers[1] != "BETA" {
		t.Fatalf("unexpected ticker set: %v", c.Tickers)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	in := []models.CatalystEvent{
		{Ticker: "ACME", IdentityKey: "a", EventDate: now.AddDate(0, 0, 5)},
		{Ticker: "BETA", IdentityKey: "b", EventDate: now.AddDate(0, 0, -5)},
	}
	first := Classify(in, now)
	second := Classify(in, now)
	if len(first.Pending) != len(second.Pending) ||
		len(first.Decided) != len(second.Decided) ||
		len(first.Tickers) != len(second.Tickers) {
		t.Fatalf("classification differs across identical calls: %+v vs %+v", first, second)
	}
}
