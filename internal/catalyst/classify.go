package catalyst

import (
	"strings"
	"time"

	"biocatalyst/internal/models"
)

// Derived catalyst status.
const (
	StatusPending = "pending"
	StatusDecided = "decided"
)

// DeriveStatus computes the status fresh from the record and the evaluation
// time. It is deliberately not read from storage: a stored status can go
// stale the moment the event date passes, and trading decisions must not
// trust it.
func DeriveStatus(ev models.CatalystEvent, now time.Time) string {
	if ev.Outcome != nil && strings.TrimSpace(*ev.Outcome) != "" {
		return StatusDecided
	}
	if dateOnly(ev.EventDate).Before(dateOnly(now)) {
		return StatusDecided
	}
	return StatusPending
}

type Classification struct {
	Decided []models.CatalystEvent
	Pending []models.CatalystEvent
	Tickers []string
}

// Classify partitions events into decided and pending views and collects the
// distinct non-empty tickers across the whole input, in first-seen order.
// The partition is pure: the same input and now always produce the same
// result.
func Classify(in []models.CatalystEvent, now time.Time) Classification {
	var c Classification
	seen := make(map[string]struct{}, len(in))
	for _, ev := range in {
		if DeriveStatus(ev, now) == StatusDecided {
			c.Decided = append(c.Decided, ev)
		} else {
			c.Pending = append(c.Pending, ev)
		}
		ticker := strings.ToUpper(strings.TrimSpace(ev.Ticker))
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		c.Tickers = append(c.Tickers, ticker)
	}
	return c
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
