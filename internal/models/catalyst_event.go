package models

import (
	"time"

	"gorm.io/datatypes"
)

// Catalyst kinds.
const (
	KindRegulatoryDecision = "regulatory_decision"
	KindClinicalTrial      = "clinical_trial"
)

// Decision outcomes. Absent (nil) means the outcome is not yet known.
const (
	OutcomeApproved = "approved"
	OutcomeDenied   = "denied"
)

// CatalystEvent is one upcoming (or past) price catalyst: a regulatory
// decision date or a clinical trial primary completion date.
//
// (ticker, identity_key, event_date) is the natural key; IdentityKey is the
// drug name for regulatory decisions and the registry study ID for trials.
// Status is not stored: it is derived from Outcome and EventDate at read time.
type CatalystEvent struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Ticker      string    `gorm:"type:varchar(10);index;uniqueIndex:ux_catalyst_key"`
	IdentityKey string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_catalyst_key"`
	EventDate   time.Time `gorm:"type:timestamptz;not null;index;uniqueIndex:ux_catalyst_key"`
	Kind        string    `gorm:"type:varchar(30);not null;index"`

	Outcome     *string `gorm:"type:varchar(20)"`
	Description string  `gorm:"type:text"`
	CompanyName string  `gorm:"type:text"`

	// Trial-only fields; empty for regulatory decisions.
	Phase      string `gorm:"type:varchar(30)"`
	Conditions string `gorm:"type:text"`
	Sponsor    string `gorm:"type:text"`

	Traded bool `gorm:"not null;default:false;index"`

	RawJSON datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (CatalystEvent) TableName() string {
	return "catalyst_events"
}
