package catalyst

import (
	"strings"

	"biocatalyst/internal/models"
)

// DedupKey is the natural key a catalyst is unique under. It matches the
// store's unique index on (ticker, identity_key, event_date).
func DedupKey(ev models.CatalystEvent) string {
	return strings.ToUpper(strings.TrimSpace(ev.Ticker)) + "|" +
		strings.TrimSpace(ev.IdentityKey) + "|" +
		ev.EventDate.Format("2006-01-02")
}

// Dedupe collapses raw candidate records into a unique set. The first record
// seen for a key wins; later duplicates are dropped without error. Records
// that cannot be acted on (no resolvable date, no identity) are dropped too,
// so downstream counts only ever see usable catalysts.
func Dedupe(in []models.CatalystEvent) []models.CatalystEvent {
	out := make([]models.CatalystEvent, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, ev := range in {
		if ev.EventDate.IsZero() || strings.TrimSpace(ev.IdentityKey) == "" {
			continue
		}
		key := DedupKey(ev)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}
