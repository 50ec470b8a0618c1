package models

import (
	"fmt"
	"time"
)

// TableStatus is the closed set of states a table can be in. Values are
// checked once at the boundary with ParseTableStatus instead of ad hoc
// string comparisons in every handler.
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableUnavailable TableStatus = "unavailable"
)

func ParseTableStatus(s string) (TableStatus, error) {
	switch TableStatus(s) {
	case TableAvailable, TableUnavailable:
		return TableStatus(s), nil
	default:
		return "", fmt.Errorf("invalid table status: %q", s)
	}
}

type Table struct {
	ID        uint        `gorm:"primaryKey" json:"table_id"`
	Type      string      `gorm:"type:varchar(50);not null;default:'standard'" json:"type"`
	Status    TableStatus `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	CreatedAt time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
}
