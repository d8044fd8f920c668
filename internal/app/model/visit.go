package model

import "time"

// Visit is one recorded opening of the portfolio through a referral code.
// VisitCount is 1-based and scoped to the code. Rows are immutable once
// written.
type Visit struct {
	ID         uint      `db:"id" gorm:"primaryKey"`
	RefCode    string    `db:"ref_code" gorm:"size:32;index;not null"`
	VisitCount int       `db:"visit_count" gorm:"not null"`
	Country    *string   `db:"country" gorm:"size:64"`
	Timestamp  time.Time `db:"timestamp" gorm:"autoCreateTime;index"`
}

// TableName maps the model onto the visits table.
func (Visit) TableName() string { return "visits" }

// FirstVisitEvent is published when a referral code records its first visit.
// The notification consumer picks it up out-of-band of the request path.
type FirstVisitEvent struct {
	ID        string    `json:"id"`
	RefCode   string    `json:"ref_code"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	FirstVisitStreamName     = "FIRST_VISITS"
	FirstVisitStreamSubject  = "first_visits.events"
	FirstVisitConsumerName   = "first-visit-notifier"
	FirstVisitStreamMaxBytes = 1024 * 1024 * 10 // 10MB
)
