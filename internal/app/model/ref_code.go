package model

// Referral code shape: 8 characters drawn from lowercase letters and digits.
const (
	RefCodeLength   = 8
	RefCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// RefCode maps a referral token to its owning application. The token is
// globally unique; the database constraint is the final authority when two
// generators race on the same candidate.
type RefCode struct {
	ID            uint   `db:"id" gorm:"primaryKey"`
	RefCode       string `db:"ref_code" gorm:"size:32;uniqueIndex;not null"`
	ApplicationID uint   `db:"application_id" gorm:"index;not null"`
	IsActive      bool   `db:"is_active" gorm:"not null;default:true"`
}

// TableName maps the model onto the ref_codes table.
func (RefCode) TableName() string { return "ref_codes" }
