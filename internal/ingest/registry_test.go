package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"biocatalyst/internal/config"
	"biocatalyst/internal/models"
)

func studyFixture(nctID, phase, pcd string) string {
	return fmt.Sprintf(`{
		"protocolSection": {
			"identificationModule": {"nctId": %q, "briefTitle": "A study of something"},
			"statusModule": {"primaryCompletionDateStruct": {"date": %q}},
			"designModule": {"phases": [%q]},
			"sponsorCollaboratorsModule": {"leadSponsor": {"name": "Acme Pharmaceuticals"}},
			"conditionsModule": {"conditions": ["Condition A", "Condition B"]}
		}
	}`, nctID, pcd, phase)
}

func TestParseStudy(t *testing.T) {
	ev, ok := parseStudy(json.RawMessage(studyFixture("NCT00000001", "PHASE3", "2026-10-20")))
	if !ok {
		t.Fatal("expected study to parse")
	}
	if ev.IdentityKey != "NCT00000001" || ev.Kind != models.KindClinicalTrial {
		t.Fatalf("unexpected identity: %+v", ev)
	}
	if !ev.EventDate.Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("event date = %v", ev.EventDate)
	}
	if ev.Phase != "PHASE3" || ev.Sponsor != "Acme Pharmaceuticals" {
		t.Fatalf("unexpected fields: %+v", ev)
	}
	if ev.Conditions != "Condition A, Condition B" {
		t.Fatalf("conditions = %q", ev.Conditions)
	}
}

func TestParseStudyYearMonthDate(t *testing.T) {
	ev, ok := parseStudy(json.RawMessage(studyFixture("NCT00000002", "PHASE2", "2026-10")))
	if !ok {
		t.Fatal("expected study to parse")
	}
	if !ev.EventDate.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("year-month date should normalize to day 1, got %v", ev.EventDate)
	}
}

func TestParseStudyFilters(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"early phase", studyFixture("NCT1", "PHASE1", "2026-10-20")},
		{"no phase", `{"protocolSection": {"identificationModule": {"nctId": "NCT2"}, "statusModule": {"primaryCompletionDateStruct": {"date": "2026-10-20"}}}}`},
		{"no date", studyFixture("NCT3", "PHASE3", "")},
		{"no id", studyFixture("", "PHASE3", "2026-10-20")},
		{"bad json", `{"protocolSection": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := parseStudy(json.RawMessage(tc.raw)); ok {
				t.Fatal("expected study to be dropped")
			}
		})
	}
}

func TestFetchTrialsWindowAndPagination(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	pageOne := fmt.Sprintf(`{"studies": [%s], "nextPageToken": "tok2"}`,
		studyFixture("NCT-IN", "PHASE3", "2026-09-20"))
	pageTwo := fmt.Sprintf(`{"studies": [%s, %s]}`,
		studyFixture("NCT-LATE", "PHASE3", "2026-12-25"),
		studyFixture("NCT-EDGE", "PHASE2/PHASE3", "2026-10-30"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "tok2" {
			fmt.Fprint(w, pageTwo)
			return
		}
		if got := r.URL.Query().Get("filter.overallStatus"); got != "RECRUITING,ACTIVE_NOT_RECRUITING" {
			t.Errorf("unexpected status filter %q", got)
		}
		fmt.Fprint(w, pageOne)
	}))
	defer srv.Close()

	client := &RegistryClient{
		HTTPClient: srv.Client(),
		Logger:     zap.NewNop(),
		Config: config.RegistryConfig{
			BaseURL:    srv.URL,
			WindowDays: 60,
			Sponsors: []config.SponsorConfig{
				{Name: "Acme Pharmaceuticals", Ticker: "ACME"},
			},
		},
	}

	events, err := client.FetchTrials(context.Background(), now)
	if err != nil {
		t.Fatalf("FetchTrials failed: %v", err)
	}
	// NCT-LATE's completion date is past the 60-day window.
	if len(events) != 2 {
		t.Fatalf("expected 2 trials in window, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Ticker != "ACME" {
			t.Fatalf("sponsor ticker not applied: %+v", ev)
		}
		if ev.Kind != models.KindClinicalTrial {
			t.Fatalf("unexpected kind %q", ev.Kind)
		}
	}
}

func TestFetchTrialsSponsorFailureIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := &RegistryClient{
		HTTPClient: srv.Client(),
		Logger:     zap.NewNop(),
		Config: config.RegistryConfig{
			BaseURL:  srv.URL,
			Sponsors: []config.SponsorConfig{{Name: "Acme", Ticker: "ACME"}},
		},
	}
	events, err := client.FetchTrials(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("FetchTrials should absorb sponsor failures, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}
