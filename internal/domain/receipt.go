package domain

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Receipt statuses
const (
	StatusPending   = "pending"   // Dropped off, not started
	StatusWashing   = "washing"   // In the wash
	StatusDrying    = "drying"    // In the dryer
	StatusReady     = "ready"     // Ready for pickup
	StatusCompleted = "completed" // Picked up by customer
	StatusCancelled = "cancelled" // Order cancelled
)

// ValidStatuses lists every accepted receipt status
var ValidStatuses = []string{
	StatusPending, StatusWashing, StatusDrying,
	StatusReady, StatusCompleted, StatusCancelled,
}

// IsValidStatus reports whether s is a known receipt status
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Now is the clock used for completion timestamps and day counts.
// Overridable in tests.
var Now = time.Now

// Alphabet for receipt numbers
const receiptNumberChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateReceiptNumber produces a receipt number of the form LV-XXXXXXXX
// with 8 characters drawn uniformly from [0-9A-Z]. Collisions are not
// retried; the unique index on receipt_number is the backstop.
func GenerateReceiptNumber() string {
	b := make([]byte, 8)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(receiptNumberChars))))
		if err != nil {
			panic(err) // crypto/rand failure means the host is broken
		}
		b[i] = receiptNumberChars[n.Int64()]
	}
	return "LV-" + string(b)
}

// Receipt Model
type Receipt struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`                        // Primary key
	ReceiptNumber       string     `gorm:"unique;not null" json:"receipt_number"`       // Unique generated number, immutable
	LaundromatID        uint       `gorm:"not null;index" json:"laundromat_id"`         // Owning laundromat
	Laundromat          *Laundromat `gorm:"foreignKey:LaundromatID" json:"-"`           // Owning laundromat record
	CustomerID          uint       `gorm:"not null;index" json:"customer_id"`           // Customer who dropped off
	Customer            *User      `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customer,omitempty"`
	StaffID             *uint      `gorm:"index" json:"staff_id"`                       // Staff who took the order, nulled on staff removal
	Staff               *User      `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"staff,omitempty"`
	Status              string     `gorm:"default:pending;index" json:"status"`         // Lifecycle status
	DropOffDate         time.Time  `gorm:"autoCreateTime" json:"drop_off_date"`         // Set at creation, immutable
	ExpectedPickupDate  time.Time  `gorm:"not null" json:"expected_pickup_date"`        // Promised pickup time
	ActualPickupDate    *time.Time `json:"actual_pickup_date"`                          // Set only on completion
	ItemsDescription    string     `gorm:"type:text;not null" json:"items_description"` // Description of items
	ItemsCount          int        `gorm:"default:0" json:"items_count"`                // Number of items
	SpecialInstructions string     `gorm:"type:text" json:"special_instructions"`       // Optional instructions
	Price               float64    `gorm:"type:decimal(10,2);default:0" json:"price"`   // Order price
	QRCode              string     `json:"qr_code"`                                     // Blob store key of the QR image, set once
	Videos              []Video    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"videos,omitempty"`
	CreatedAt           time.Time  `json:"created_at"` // Timestamp of creation
	UpdatedAt           time.Time  `json:"updated_at"` // Timestamp of last update
}

// IsActive reports whether the receipt is still in a non-terminal status
func (r *Receipt) IsActive() bool {
	return r.Status != StatusCompleted && r.Status != StatusCancelled
}

// DaysSinceDropoff returns the whole days elapsed since drop-off (floored)
func (r *Receipt) DaysSinceDropoff() int {
	return int(Now().Sub(r.DropOffDate) / (24 * time.Hour))
}
