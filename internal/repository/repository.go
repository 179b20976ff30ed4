package repository

import (
	"context"
	"time"

	"biocatalyst/internal/models"
)

// Repository is the catalyst store contract used by the ingestion service,
// the execution engine and the HTTP handlers.
type Repository interface {
	// Catalysts.
	UpsertIgnoreDuplicates(ctx context.Context, items []models.CatalystEvent) (int64, error)
	FindDueUntraded(ctx context.Context, kind string, from, to time.Time) ([]models.CatalystEvent, error)
	// MarkTraded flips traded to true for the given catalyst key and reports
	// whether a previously-untraded row was updated. A false return with a
	// nil error means another run already claimed the catalyst (or the row
	// does not exist) and the caller must not treat the catalyst as its own.
	MarkTraded(ctx context.Context, ticker, identityKey string, eventDate time.Time) (bool, error)
	GetCatalystByKey(ctx context.Context, ticker, identityKey string, eventDate time.Time) (*models.CatalystEvent, error)
	ListCatalysts(ctx context.Context, params ListCatalystsParams) ([]models.CatalystEvent, error)
	CountCatalysts(ctx context.Context, params ListCatalystsParams) (int64, error)

	// Straddle order log.
	InsertStraddleOrder(ctx context.Context, item *models.StraddleOrder) error
	ListStraddleOrders(ctx context.Context, params ListStraddleOrdersParams) ([]models.StraddleOrder, error)
}

type ListCatalystsParams struct {
	Limit   int
	Offset  int
	Kind    *string
	Ticker  *string
	Traded  *bool
	Since   *time.Time
	Until   *time.Time
	OrderBy string
	Asc     *bool
}

type ListStraddleOrdersParams struct {
	Limit      int
	Offset     int
	Ticker     *string
	CatalystID *uint64
	Since      *time.Time
	OrderBy    string
	Asc        *bool
}
