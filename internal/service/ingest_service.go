package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"biocatalyst/internal/catalyst"
	"biocatalyst/internal/ingest"
	"biocatalyst/internal/models"
	"biocatalyst/internal/repository"
)

// IngestService runs one full intake pass: scrape the regulatory calendar,
// query the trials registry, dedupe, verify outstanding decisions, classify
// and persist. Insert-or-ignore keeps first-written rows immutable; re-runs
// only add rows for keys not seen before.
type IngestService struct {
	Store    repository.Repository
	Calendar *ingest.CalendarScraper
	Registry *ingest.RegistryClient
	Verifier *ingest.DecisionVerifier
	Logger   *zap.Logger
}

type IngestResult struct {
	Scraped  int   `json:"scraped"`
	Fetched  int   `json:"fetched"`
	Deduped  int   `json:"deduped"`
	Pending  int   `json:"pending"`
	Decided  int   `json:"decided"`
	Tickers  int   `json:"tickers"`
	Inserted int64 `json:"inserted"`
}

func (s *IngestService) RunOnce(ctx context.Context, now time.Time) (IngestResult, error) {
	var result IngestResult
	var raw []models.CatalystEvent

	if s.Calendar != nil {
		decisions, err := s.Calendar.FetchDecisions(ctx)
		if err != nil {
			return result, fmt.Errorf("calendar scrape: %w", err)
		}
		result.Scraped = len(decisions)
		raw = append(raw, decisions...)
	}

	if s.Registry != nil {
		trials, err := s.Registry.FetchTrials(ctx, now)
		if err != nil {
			return result, fmt.Errorf("registry fetch: %w", err)
		}
		result.Fetched = len(trials)
		raw = append(raw, trials...)
	}

	deduped := catalyst.Dedupe(raw)
	result.Deduped = len(deduped)

	if s.Verifier != nil {
		deduped = s.Verifier.Verify(ctx, deduped)
	}

	classified := catalyst.Classify(deduped, now)
	result.Pending = len(classified.Pending)
	result.Decided = len(classified.Decided)
	result.Tickers = len(classified.Tickers)

	inserted, err := s.Store.UpsertIgnoreDuplicates(ctx, deduped)
	if err != nil {
		return result, fmt.Errorf("persist catalysts: %w", err)
	}
	result.Inserted = inserted

	if s.Logger != nil {
		s.Logger.Info("ingest run complete",
			zap.Int("scraped", result.Scraped),
			zap.Int("fetched", result.Fetched),
			zap.Int("deduped", result.Deduped),
			zap.Int("pending", result.Pending),
			zap.Int("decided", result.Decided),
			zap.Int("tickers", result.Tickers),
			zap.Int64("inserted", result.Inserted))
	}
	return result, nil
}
