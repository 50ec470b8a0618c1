package models

import "time"

// ConfirmationToken is the short-lived opaque token issued alongside a
// reservation. It lets the summary page be reloaded without a re-login
// within a small grace window; it is never renewed or revoked early.
type ConfirmationToken struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	ReservationID uint        `gorm:"not null;index" json:"reservation_id"`
	Reservation   Reservation `gorm:"foreignKey:ReservationID" json:"-"`
	Token         string      `gorm:"type:varchar(64);unique;not null" json:"token"`
	ExpiresAt     time.Time   `gorm:"not null" json:"expires_at"`
}

func (t *ConfirmationToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
