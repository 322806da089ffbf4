package policy

import (
	"laundry_system/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// ScopeReceipts narrows a receipt query to what the caller may see:
// customers see their own receipts, staff see their laundromat's
// receipts, admins see everything. Staff without an affiliation see
// nothing (matches the source system).
func ScopeReceipts(db *gorm.DB, user *domain.User) *gorm.DB {
	switch {
	case user.IsCustomer():
		return db.Where("receipts.customer_id = ?", user.ID)
	case user.IsStaffMember():
		if user.LaundromatID == nil {
			return db.Where("1 = 0") // No affiliation, empty scope
		}
		return db.Where("receipts.laundromat_id = ?", *user.LaundromatID)
	default:
		return db // Admins are unrestricted
	}
}

// ScopeVideos narrows a video query through the owning receipt using
// the same role rules as ScopeReceipts.
func ScopeVideos(db *gorm.DB, user *domain.User) *gorm.DB {
	switch {
	case user.IsCustomer():
		return db.Joins("JOIN receipts ON receipts.id = videos.receipt_id").
			Where("receipts.customer_id = ?", user.ID)
	case user.IsStaffMember():
		if user.LaundromatID == nil {
			return db.Where("1 = 0") // No affiliation, empty scope
		}
		return db.Joins("JOIN receipts ON receipts.id = videos.receipt_id").
			Where("receipts.laundromat_id = ?", *user.LaundromatID)
	default:
		return db // Admins are unrestricted
	}
}
