package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"biocatalyst/internal/config"
	"biocatalyst/internal/models"
)

// DecisionVerifier cross-checks regulatory records without a recorded
// outcome against the public drug approvals database. The calendar's outcome
// column often lags the actual decision; a hit here marks the record approved
// before it is persisted.
type DecisionVerifier struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	Config     config.VerifierConfig
}

type approvalsPageJSON struct {
	Results []json.RawMessage `json:"results"`
}

// Verify updates events in place and returns the same slice. Best effort: a
// failed lookup leaves the record as-is.
func (v *DecisionVerifier) Verify(ctx context.Context, events []models.CatalystEvent) []models.CatalystEvent {
	checked, confirmed := 0, 0
	for i := range events {
		ev := &events[i]
		if ev.Kind != models.KindRegulatoryDecision || ev.Outcome != nil || ev.IdentityKey == "" {
			continue
		}
		if checked > 0 && v.Config.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return events
			case <-time.After(v.Config.RequestDelay):
			}
		}
		checked++

		approved, err := v.lookupApproval(ctx, ev.IdentityKey)
		if err != nil {
			if v.Logger != nil {
				v.Logger.Warn("approval lookup failed",
					zap.String("drug", ev.IdentityKey), zap.Error(err))
			}
			continue
		}
		if approved {
			outcome := models.OutcomeApproved
			ev.Outcome = &outcome
			confirmed++
		}
	}

	if v.Logger != nil && checked > 0 {
		v.Logger.Info("decision verification finished",
			zap.Int("checked", checked), zap.Int("confirmed_approved", confirmed))
	}
	return events
}

func (v *DecisionVerifier) lookupApproval(ctx context.Context, drugName string) (bool, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf("openfda.brand_name:%q OR openfda.generic_name:%q", drugName, drugName))
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.Config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	// The approvals API answers 404 for "no matching drug".
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	var page approvalsPageJSON
	if err := json.Unmarshal(body, &page); err != nil {
		return false, fmt.Errorf("failed to parse approvals response: %w", err)
	}
	return len(page.Results) > 0, nil
}
