package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StraddleOrder records one confirmed call+put submission for a catalyst.
type StraddleOrder struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	CatalystID uint64 `gorm:"not null;index"`
	Ticker     string `gorm:"type:varchar(10);not null;index"`

	CallSymbol string `gorm:"type:varchar(30);not null"`
	PutSymbol  string `gorm:"type:varchar(30);not null"`

	Strike     decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Expiration time.Time       `gorm:"type:timestamptz;not null"`

	CallOrderID string `gorm:"type:varchar(60);not null"`
	PutOrderID  string `gorm:"type:varchar(60);not null"`

	SubmittedAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (StraddleOrder) TableName() string {
	return "straddle_orders"
}
