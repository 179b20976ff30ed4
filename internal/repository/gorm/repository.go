package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"biocatalyst/internal/models"
	"biocatalyst/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- catalysts --------------------------------------------------------------

func (s *Store) UpsertIgnoreDuplicates(ctx context.Context, items []models.CatalystEvent) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "ticker"},
			{Name: "identity_key"},
			{Name: "event_date"},
		},
		DoNothing: true,
	}).Create(&items)
	return res.RowsAffected, res.Error
}

func (s *Store) FindDueUntraded(ctx context.Context, kind string, from, to time.Time) ([]models.CatalystEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.CatalystEvent{}).
		Where("traded = ?", false).
		Where("event_date BETWEEN ? AND ?", from, to).
		Order("event_date asc")
	if strings.TrimSpace(kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(kind))
	}
	var items []models.CatalystEvent
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkTraded is a conditional update: it only matches a row that is still
// untraded, so two overlapping runs cannot both claim the same catalyst.
func (s *Store) MarkTraded(ctx context.Context, ticker, identityKey string, eventDate time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.CatalystEvent{}).
		Where("ticker = ? AND identity_key = ? AND event_date = ?", ticker, identityKey, eventDate).
		Where("traded = ?", false).
		Update("traded", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) GetCatalystByKey(ctx context.Context, ticker, identityKey string, eventDate time.Time) (*models.CatalystEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.CatalystEvent
	err := s.db.WithContext(ctx).
		Where("ticker = ? AND identity_key = ? AND event_date = ?", ticker, identityKey, eventDate).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListCatalysts(ctx context.Context, params repository.ListCatalystsParams) ([]models.CatalystEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyCatalystFilters(s.db.WithContext(ctx).Model(&models.CatalystEvent{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "event_date")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.CatalystEvent
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCatalysts(ctx context.Context, params repository.ListCatalystsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	query := applyCatalystFilters(s.db.WithContext(ctx).Model(&models.CatalystEvent{}), params)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyCatalystFilters(query *gorm.DB, params repository.ListCatalystsParams) *gorm.DB {
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Ticker != nil && strings.TrimSpace(*params.Ticker) != "" {
		query = query.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(*params.Ticker)))
	}
	if params.Traded != nil {
		query = query.Where("traded = ?", *params.Traded)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("event_date >= ?", *params.Since)
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("event_date <= ?", *params.Until)
	}
	return query
}

// --- straddle orders --------------------------------------------------------

func (s *Store) InsertStraddleOrder(ctx context.Context, item *models.StraddleOrder) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListStraddleOrders(ctx context.Context, params repository.ListStraddleOrdersParams) ([]models.StraddleOrder, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.StraddleOrder{})
	if params.Ticker != nil && strings.TrimSpace(*params.Ticker) != "" {
		query = query.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(*params.Ticker)))
	}
	if params.CatalystID != nil && *params.CatalystID > 0 {
		query = query.Where("catalyst_id = ?", *params.CatalystID)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("submitted_at >= ?", *params.Since)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "submitted_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.StraddleOrder
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
