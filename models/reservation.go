package models

import (
	"fmt"
	"time"
)

// ReservationStatus is the closed set of reservation states.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch ReservationStatus(s) {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return ReservationStatus(s), nil
	default:
		return "", fmt.Errorf("invalid reservation status: %q", s)
	}
}

type Reservation struct {
	ID         uint              `gorm:"primaryKey" json:"reservation_id"`
	CustomerID uint              `gorm:"not null;index" json:"customer_id"`
	Customer   Customer          `gorm:"foreignKey:CustomerID" json:"-"`
	TableID    uint              `gorm:"not null;index" json:"table_id"`
	Table      Table             `gorm:"foreignKey:TableID" json:"-"`
	Name       string            `gorm:"type:varchar(100);not null" json:"name"`
	Phone      string            `gorm:"type:varchar(20);not null" json:"phone"`
	PartySize  int               `gorm:"not null" json:"party_size"`
	// Date is the reservation day in the restaurant's zone (YYYY-MM-DD);
	// Time is the absolute slot time in UTC (RFC 3339). Both are stored as
	// normalized strings, never raw client input.
	Date      string            `gorm:"type:varchar(10);not null" json:"date"`
	Time      string            `gorm:"type:varchar(35);not null" json:"time"`
	Status    ReservationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	// Soft delete marker. Plain *time.Time rather than gorm.DeletedAt so a
	// deleted reservation stays retrievable by id; list endpoints filter it
	// out explicitly.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
