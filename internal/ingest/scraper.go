package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"biocatalyst/internal/catalyst"
	"biocatalyst/internal/config"
	"biocatalyst/internal/models"
)

var (
	reTickerParen = regexp.MustCompile(`\(([A-Z]{1,5})\)`)
	reTickerBare  = regexp.MustCompile(`\b[A-Z]{2,5}\b`)
)

// CalendarScraper pulls upcoming and past regulatory decisions from the
// public FDA calendar. The calendar renders rows as div cells tagged with
// data-th attributes rather than a table.
type CalendarScraper struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	Config     config.CalendarConfig
}

// FetchDecisions scrapes calendar pages 1..N. A failed page is logged and
// skipped; rows without a parseable date are dropped.
func (s *CalendarScraper) FetchDecisions(ctx context.Context) ([]models.CatalystEvent, error) {
	pages := s.Config.Pages
	if pages <= 0 {
		pages = 6
	}

	var out []models.CatalystEvent
	dropped := 0
	for page := 1; page <= pages; page++ {
		if page > 1 && s.Config.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(s.Config.PageDelay):
			}
		}

		events, skipped, err := s.fetchPage(ctx, page)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("calendar page fetch failed", zap.Int("page", page), zap.Error(err))
			}
			continue
		}
		out = append(out, events...)
		dropped += skipped
	}

	if s.Logger != nil {
		s.Logger.Info("calendar scrape finished",
			zap.Int("records", len(out)),
			zap.Int("dropped_rows", dropped))
	}
	return out, nil
}

func (s *CalendarScraper) fetchPage(ctx context.Context, page int) ([]models.CatalystEvent, int, error) {
	fullURL := fmt.Sprintf("%s?PageNum=%d", s.Config.BaseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if s.Config.UserAgent != "" {
		req.Header.Set("User-Agent", s.Config.UserAgent)
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse page: %w", err)
	}
	events, skipped := parseCalendarDoc(doc)
	return events, skipped, nil
}

// parseCalendarDoc zips the per-column cells into rows. The four selections
// appear in the same document order, so index i across them is one row.
func parseCalendarDoc(doc *goquery.Document) ([]models.CatalystEvent, int) {
	companies := doc.Find(`div[data-th="Company Name"]`)
	drugs := doc.Find(`div[data-th="Drug"]`)
	eventsSel := doc.Find(`div[data-th="Event"]`)
	outcomes := doc.Find(`div[data-th="Outcome"]`)

	n := companies.Length()
	for _, l := range []int{drugs.Length(), eventsSel.Length(), outcomes.Length()} {
		if l < n {
			n = l
		}
	}

	var out []models.CatalystEvent
	skipped := 0
	for i := 0; i < n; i++ {
		ev, ok := parseCalendarRow(
			strings.TrimSpace(companies.Eq(i).Text()),
			strings.TrimSpace(drugs.Eq(i).Text()),
			strings.TrimSpace(eventsSel.Eq(i).Text()),
			strings.TrimSpace(outcomes.Eq(i).Text()),
		)
		if !ok {
			skipped++
			continue
		}
		out = append(out, ev)
	}
	return out, skipped
}

// parseCalendarRow builds one regulatory decision from the four cell texts.
// The date usually lives in the event text; the outcome text is the fallback.
func parseCalendarRow(companyText, drugName, eventText, outcomeText string) (models.CatalystEvent, bool) {
	eventDate := catalyst.ParseEventDate(eventText)
	if eventDate.IsZero() {
		eventDate = catalyst.ParseEventDate(outcomeText)
	}
	if eventDate.IsZero() || drugName == "" {
		return models.CatalystEvent{}, false
	}

	companyName, ticker := extractCompanyAndTicker(companyText)
	outcome := parseOutcome(outcomeText)

	raw, _ := json.Marshal(map[string]string{
		"company": companyText,
		"drug":    drugName,
		"event":   eventText,
		"outcome": outcomeText,
	})

	return models.CatalystEvent{
		Ticker:      ticker,
		IdentityKey: drugName,
		EventDate:   eventDate,
		Kind:        models.KindRegulatoryDecision,
		Outcome:     outcome,
		Description: strings.TrimSpace(eventText + ". Outcome: " + outcomeText),
		CompanyName: companyName,
		RawJSON:     raw,
	}, true
}

// extractCompanyAndTicker splits "Acme Pharma (ACME)" into name and symbol.
// Without the parenthesized form, the last bare uppercase token is taken as
// the symbol; with neither, the ticker stays empty for manual resolution.
func extractCompanyAndTicker(companyText string) (string, string) {
	if m := reTickerParen.FindStringSubmatch(companyText); m != nil {
		ticker := m[1]
		name := strings.TrimSpace(strings.Replace(companyText, "("+ticker+")", "", 1))
		return name, ticker
	}
	matches := reTickerBare.FindAllString(companyText, -1)
	if len(matches) > 0 {
		ticker := matches[len(matches)-1]
		name := strings.TrimSpace(strings.Replace(companyText, ticker, "", 1))
		return name, ticker
	}
	return companyText, ""
}

// parseOutcome maps outcome text to a recorded decision. Negative phrasing is
// checked first so "not approved" reads as a denial.
func parseOutcome(outcomeText string) *string {
	lower := strings.ToLower(outcomeText)
	for _, word := range []string{"denied", "rejected", "declined", "not approved"} {
		if strings.Contains(lower, word) {
			v := models.OutcomeDenied
			return &v
		}
	}
	if strings.Contains(lower, "approved") {
		v := models.OutcomeApproved
		return &v
	}
	return nil
}
