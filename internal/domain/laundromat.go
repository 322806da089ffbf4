package domain

import "time"

// Laundromat Model
type Laundromat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`      // Primary key
	Name      string    `gorm:"not null;index" json:"name"` // Location name
	Address   string    `gorm:"not null" json:"address"`   // Street address
	Phone     string    `gorm:"not null" json:"phone"`     // Contact phone
	Email     *string   `json:"email"`                     // Optional contact email
	IsActive  bool      `gorm:"default:true;index" json:"is_active"` // Active flag
	Receipts  []Receipt `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Receipts cascade on delete
	CreatedAt time.Time `json:"created_at"` // Timestamp of creation
	UpdatedAt time.Time `json:"updated_at"` // Timestamp of last update
}
