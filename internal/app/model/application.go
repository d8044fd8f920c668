package model

import "time"

// Application outcome values as stored in the applications table.
const (
	OutcomePending    = "pending"
	OutcomeGotCall    = "got_call"
	OutcomeRejected   = "rejected"
	OutcomeNoResponse = "no_response"
)

// ValidOutcome reports whether s is one of the known outcome values.
func ValidOutcome(s string) bool {
	switch s {
	case OutcomePending, OutcomeGotCall, OutcomeRejected, OutcomeNoResponse:
		return true
	}
	return false
}

// Application is one tracked job application. Each application owns exactly
// one referral code, created together with it.
type Application struct {
	ID          uint      `db:"id" gorm:"primaryKey"`
	CompanyName string    `db:"company_name" gorm:"size:200;not null"`
	PersonName  *string   `db:"person_name" gorm:"size:200"`
	Position    string    `db:"position" gorm:"size:200;not null"`
	DateApplied time.Time `db:"date_applied" gorm:"type:date;not null"`
	Outcome     string    `db:"outcome" gorm:"size:16;not null;default:pending"`
	Notes       *string   `db:"notes" gorm:"type:text"`
}

// TableName maps the model onto the applications table.
func (Application) TableName() string { return "applications" }
