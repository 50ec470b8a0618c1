package models

import "time"

// Role values carried in the customer record and in JWT claims.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"customer_id"`
	FirstName string    `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(50);not null" json:"last_name"`
	Email     string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Phone     string    `gorm:"type:varchar(20);not null" json:"phone"`
	Role      string    `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
