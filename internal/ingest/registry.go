package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"biocatalyst/internal/catalyst"
	"biocatalyst/internal/config"
	"biocatalyst/internal/models"
)

var registryFields = []string{
	"NCTId",
	"BriefTitle",
	"OverallStatus",
	"Phase",
	"PrimaryCompletionDate",
	"StartDate",
	"LastUpdatePostDate",
	"LeadSponsorName",
	"CollaboratorName",
	"Condition",
}

var tradablePhases = map[string]bool{
	"PHASE2":        true,
	"PHASE3":        true,
	"PHASE2/PHASE3": true,
}

// RegistryClient queries the public clinical trials registry (v2 API) for
// active late-stage studies of the configured sponsors.
type RegistryClient struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	Config     config.RegistryConfig
}

type studiesPageJSON struct {
	Studies       []json.RawMessage `json:"studies"`
	NextPageToken string            `json:"nextPageToken"`
}

type studyJSON struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NctID      string `json:"nctId"`
			BriefTitle string `json:"briefTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			PrimaryCompletionDateStruct struct {
				Date string `json:"date"`
			} `json:"primaryCompletionDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		SponsorCollaboratorsModule struct {
			LeadSponsor struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
	} `json:"protocolSection"`
}

// FetchTrials pulls studies per configured sponsor and keeps Phase 2/3 ones
// whose primary completion date falls within [now, now + window]. A failed
// sponsor query is logged and skipped.
func (r *RegistryClient) FetchTrials(ctx context.Context, now time.Time) ([]models.CatalystEvent, error) {
	window := r.Config.WindowDays
	if window <= 0 {
		window = 60
	}
	windowEnd := now.AddDate(0, 0, window)

	var out []models.CatalystEvent
	for _, sponsor := range r.Config.Sponsors {
		if sponsor.Name == "" {
			continue
		}
		events, err := r.fetchSponsor(ctx, sponsor, now, windowEnd)
		if err != nil {
			if r.Logger != nil {
				r.Logger.Warn("registry query failed",
					zap.String("sponsor", sponsor.Name), zap.Error(err))
			}
			continue
		}
		out = append(out, events...)
	}

	if r.Logger != nil {
		r.Logger.Info("registry fetch finished",
			zap.Int("sponsors", len(r.Config.Sponsors)),
			zap.Int("trials", len(out)))
	}
	return out, nil
}

func (r *RegistryClient) fetchSponsor(ctx context.Context, sponsor config.SponsorConfig, now, windowEnd time.Time) ([]models.CatalystEvent, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("filter.overallStatus", "RECRUITING,ACTIVE_NOT_RECRUITING")
	query.Set("filter.advanced",
		fmt.Sprintf("AREA[Phase]PHASE3,AREA[LeadSponsorClass]INDUSTRY,AREA[LeadSponsorName]%s", sponsor.Name))
	query.Set("fields", strings.Join(registryFields, ","))

	var out []models.CatalystEvent
	pageToken := ""
	for {
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		page, err := r.fetchPage(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Studies {
			ev, ok := parseStudy(raw)
			if !ok {
				continue
			}
			if ev.EventDate.Before(now) || ev.EventDate.After(windowEnd) {
				continue
			}
			ev.Ticker = sponsor.Ticker
			ev.CompanyName = sponsor.Name
			out = append(out, ev)
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

func (r *RegistryClient) fetchPage(ctx context.Context, query url.Values) (*studiesPageJSON, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	var page studiesPageJSON
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse studies response: %w", err)
	}
	return &page, nil
}

// parseStudy maps one registry study to a trial catalyst. Studies without a
// phase, a primary completion date, or a late-stage phase are dropped.
func parseStudy(raw json.RawMessage) (models.CatalystEvent, bool) {
	var study studyJSON
	if err := json.Unmarshal(raw, &study); err != nil {
		return models.CatalystEvent{}, false
	}
	proto := study.ProtocolSection

	phases := proto.DesignModule.Phases
	if len(phases) == 0 {
		return models.CatalystEvent{}, false
	}
	phase := phases[0]
	if !tradablePhases[phase] {
		return models.CatalystEvent{}, false
	}

	pcd := catalyst.ParseISODate(proto.StatusModule.PrimaryCompletionDateStruct.Date)
	if pcd.IsZero() || proto.IdentificationModule.NctID == "" {
		return models.CatalystEvent{}, false
	}

	return models.CatalystEvent{
		IdentityKey: proto.IdentificationModule.NctID,
		EventDate:   pcd,
		Kind:        models.KindClinicalTrial,
		Description: proto.IdentificationModule.BriefTitle,
		Phase:       phase,
		Conditions:  strings.Join(proto.ConditionsModule.Conditions, ", "),
		Sponsor:     proto.SponsorCollaboratorsModule.LeadSponsor.Name,
		RawJSON:     append([]byte(nil), raw...),
	}, true
}
