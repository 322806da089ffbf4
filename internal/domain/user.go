package domain

import "time"

// User roles
const (
	RoleCustomer = "customer" // Regular customer dropping off laundry
	RoleStaff    = "staff"    // Laundromat employee
	RoleAdmin    = "admin"    // System administrator
)

// User Model
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`               // Primary key
	Username     string      `gorm:"unique;not null" json:"username"`    // Unique username
	Password     string      `gorm:"not null" json:"-"`                  // Hashed password, never serialized
	Phone        string      `gorm:"unique;not null" json:"phone"`       // Unique phone number
	Role         string      `gorm:"default:customer;index" json:"role"` // Role: customer, staff or admin
	LaundromatID *uint       `gorm:"index" json:"laundromat_id"`         // Laundromat affiliation (staff only)
	Laundromat   *Laundromat `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	IsActive     bool        `gorm:"default:true" json:"is_active"` // Active flag
	CreatedAt    time.Time   `json:"created_at"`                    // Timestamp of creation
	UpdatedAt    time.Time   `json:"updated_at"`                    // Timestamp of last update
}

// IsCustomer reports whether the user has the customer role
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsStaffMember reports whether the user has the staff role
func (u *User) IsStaffMember() bool {
	return u.Role == RoleStaff
}

// IsAdminUser reports whether the user has the admin role
func (u *User) IsAdminUser() bool {
	return u.Role == RoleAdmin
}
