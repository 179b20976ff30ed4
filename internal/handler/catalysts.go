package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biocatalyst/internal/catalyst"
	"biocatalyst/internal/models"
	"biocatalyst/internal/repository"
)

// CatalystHandler serves the read-only catalyst views the external dashboard
// renders. Status is derived per request, never read from storage.
type CatalystHandler struct {
	Store  repository.Repository
	Logger *zap.Logger
}

func (h *CatalystHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/catalysts", h.listCatalysts)
}

type catalystView struct {
	ID          uint64  `json:"id"`
	Ticker      string  `json:"ticker"`
	IdentityKey string  `json:"identity_key"`
	EventDate   string  `json:"event_date"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Outcome     *string `json:"outcome,omitempty"`
	Description string  `json:"description,omitempty"`
	CompanyName string  `json:"company_name,omitempty"`
	Phase       string  `json:"phase,omitempty"`
	Conditions  string  `json:"conditions,omitempty"`
	Sponsor     string  `json:"sponsor,omitempty"`
	Traded      bool    `json:"traded"`
}

func (h *CatalystHandler) listCatalysts(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	params := repository.ListCatalystsParams{
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
		Kind:   stringQueryPtr(c, "kind"),
		Ticker: stringQueryPtr(c, "ticker"),
		Traded: boolQueryPtr(c, "traded"),
		Since:  dateQueryPtr(c, "since"),
		Until:  dateQueryPtr(c, "until"),
	}

	ctx := c.Request.Context()
	items, err := h.Store.ListCatalysts(ctx, params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list catalysts failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Store.CountCatalysts(ctx, params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("count catalysts failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	now := time.Now().UTC()
	views := make([]catalystView, 0, len(items))
	for _, ev := range items {
		views = append(views, toCatalystView(ev, now))
	}
	Ok(c, views, map[string]any{
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

func toCatalystView(ev models.CatalystEvent, now time.Time) catalystView {
	return catalystView{
		ID:          ev.ID,
		Ticker:      ev.Ticker,
		IdentityKey: ev.IdentityKey,
		EventDate:   ev.EventDate.Format("2006-01-02"),
		Kind:        ev.Kind,
		Status:      catalyst.DeriveStatus(ev, now),
		Outcome:     ev.Outcome,
		Description: ev.Description,
		CompanyName: ev.CompanyName,
		Phase:       ev.Phase,
		Conditions:  ev.Conditions,
		Sponsor:     ev.Sponsor,
		Traded:      ev.Traded,
	}
}
