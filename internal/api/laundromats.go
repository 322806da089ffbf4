package api

import (
	"context"                            // Context for Redis operations
	"laundry_system/internal/domain"     // Importing domain models
	"laundry_system/internal/middleware" // Current user lookup
	"laundry_system/internal/policy"     // Role-based access scopes
	"laundry_system/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes
	"strconv"                            // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// LaundromatListItem is the lightweight laundromat shape used by listings
type LaundromatListItem struct {
	ID       uint    `json:"id"`        // Laundromat ID
	Name     string  `json:"name"`      // Location name
	Address  string  `json:"address"`   // Street address
	Phone    string  `json:"phone"`     // Contact phone
	Email    *string `json:"email"`     // Optional contact email
	IsActive bool    `json:"is_active"` // Active flag
}

// LaundromatResponse is the detail shape with derived counts
type LaundromatResponse struct {
	LaundromatListItem       // Base fields
	StaffCount          int64 `json:"staff_count"`           // Derived: affiliated staff
	ActiveReceiptsCount int64 `json:"active_receipts_count"` // Derived: non-terminal receipts
}

// newLaundromatListItem maps a laundromat to its listing shape
func newLaundromatListItem(l *domain.Laundromat) LaundromatListItem {
	return LaundromatListItem{
		ID:       l.ID,       // Laundromat ID
		Name:     l.Name,     // Location name
		Address:  l.Address,  // Street address
		Phone:    l.Phone,    // Contact phone
		Email:    l.Email,    // Optional contact email
		IsActive: l.IsActive, // Active flag
	}
}

// laundromatCounts computes the derived staff and active-receipt counts
func laundromatCounts(db *gorm.DB, id uint) (staff, activeReceipts int64, err error) {
	// Count affiliated staff members
	if err = db.Model(&domain.User{}).
		Where("role = ? AND laundromat_id = ?", domain.RoleStaff, id).
		Count(&staff).Error; err != nil {
		return 0, 0, err
	}
	// Count receipts still in a non-terminal status
	err = db.Model(&domain.Receipt{}).
		Where("laundromat_id = ? AND status NOT IN ?", id, []string{domain.StatusCompleted, domain.StatusCancelled}).
		Count(&activeReceipts).Error
	return staff, activeReceipts, err
}

// ListLaundromatsHandler returns all laundromats, paginated and cached
func ListLaundromatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		page, pageSize, offset := pagination(c)
		// Create a cache key based on pagination parameters
		cacheKey := "laundromats:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Laundromats []LaundromatListItem `json:"laundromats"` // List of laundromats
			Page        int                  `json:"page"`        // Current page
			PageSize    int                  `json:"page_size"`   // Page size
			Total       int64                `json:"total"`       // Total count
			TotalPages  int                  `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"laundromats": cached.Laundromats, // List of laundromats
				"page":        cached.Page,        // Current page
				"page_size":   cached.PageSize,    // Page size
				"total":       cached.Total,       // Total count
				"total_pages": cached.TotalPages,  // Total pages
				"cached":      true,               // Indicate response is from cache
			})
			return
		}
		var total int64 // Total laundromat count
		if err := db.Model(&domain.Laundromat{}).Count(&total).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to count laundromats")
			return
		}
		var laundromats []domain.Laundromat // Slice to hold laundromats
		// Order by name, apply offset and limit for pagination
		if err := db.Order("name").Offset(offset).Limit(pageSize).Find(&laundromats).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch laundromats")
			return
		}
		// Map laundromats to the listing shape
		resp := make([]LaundromatListItem, len(laundromats))
		for i := range laundromats {
			resp[i] = newLaundromatListItem(&laundromats[i])
		}
		respData := gin.H{
			"laundromats": resp,                        // List of laundromats
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total count
			"total_pages": totalPages(total, pageSize), // Total pages
			"cached":      false,                       // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, utils.CacheTTL)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

// GetLaundromatHandler returns one laundromat with its derived counts
func GetLaundromatHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var laundromat domain.Laundromat // Fetch laundromat by path ID
		if err := db.First(&laundromat, c.Param("id")).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Laundromat not found")
			return
		}
		staff, activeReceipts, err := laundromatCounts(db, laundromat.ID) // Derived counts
		if err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to compute counts")
			return
		}
		c.JSON(http.StatusOK, LaundromatResponse{
			LaundromatListItem:  newLaundromatListItem(&laundromat), // Base fields
			StaffCount:          staff,                              // Affiliated staff
			ActiveReceiptsCount: activeReceipts,                     // Non-terminal receipts
		})
	}
}

// LaundromatRequest is the payload for laundromat create/update
type LaundromatRequest struct {
	Name     string  `json:"name" binding:"required"`    // Location name
	Address  string  `json:"address" binding:"required"` // Street address
	Phone    string  `json:"phone" binding:"required"`   // Contact phone
	Email    *string `json:"email"`                      // Optional contact email
	IsActive *bool   `json:"is_active"`                  // Optional active flag
}

// CreateLaundromatHandler creates a laundromat (admin only)
func CreateLaundromatHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LaundromatRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		laundromat := domain.Laundromat{
			Name:     req.Name,    // Location name
			Address:  req.Address, // Street address
			Phone:    req.Phone,   // Contact phone
			Email:    req.Email,   // Optional contact email
			IsActive: true,        // New locations start active
		}
		if req.IsActive != nil {
			laundromat.IsActive = *req.IsActive
		}
		// Save the new laundromat
		if err := db.Create(&laundromat).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to create laundromat")
			return
		}
		// Invalidate the cached laundromat listing
		utils.InvalidatePages(context.Background(), rdb, "laundromats")
		c.JSON(http.StatusCreated, newLaundromatListItem(&laundromat)) // Return the created record
	}
}

// UpdateLaundromatHandler updates a laundromat (admin only)
func UpdateLaundromatHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var laundromat domain.Laundromat // Fetch laundromat by path ID
		if err := db.First(&laundromat, c.Param("id")).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Laundromat not found")
			return
		}
		var req LaundromatRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		laundromat.Name = req.Name       // Location name
		laundromat.Address = req.Address // Street address
		laundromat.Phone = req.Phone     // Contact phone
		laundromat.Email = req.Email     // Optional contact email
		if req.IsActive != nil {
			laundromat.IsActive = *req.IsActive
		}
		// Save the update
		if err := db.Save(&laundromat).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to update laundromat")
			return
		}
		// Invalidate the cached laundromat listing
		utils.InvalidatePages(context.Background(), rdb, "laundromats")
		c.JSON(http.StatusOK, newLaundromatListItem(&laundromat)) // Return the updated record
	}
}

// DeleteLaundromatHandler deletes a laundromat and cascades to its
// receipts (admin only)
func DeleteLaundromatHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var laundromat domain.Laundromat // Fetch laundromat by path ID
		if err := db.First(&laundromat, c.Param("id")).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Laundromat not found")
			return
		}
		// Delete the record; receipts cascade at the storage layer
		if err := db.Delete(&laundromat).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to delete laundromat")
			return
		}
		// Invalidate the cached laundromat listing
		utils.InvalidatePages(context.Background(), rdb, "laundromats")
		c.JSON(http.StatusOK, gin.H{"message": "Laundromat deleted"}) // Return success
	}
}

// LaundromatReceiptsHandler lists a laundromat's receipts, narrowed by
// the caller's access scope
func LaundromatReceiptsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var laundromat domain.Laundromat // Fetch laundromat by path ID
		if err := db.First(&laundromat, c.Param("id")).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Laundromat not found")
			return
		}
		var receipts []domain.Receipt // Slice to hold receipts
		// Apply the access scope on top of the laundromat filter
		if err := policy.ScopeReceipts(db, user).
			Where("receipts.laundromat_id = ?", laundromat.ID).
			Preload("Customer").Preload("Laundromat").
			Order("created_at desc").Find(&receipts).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch receipts")
			return
		}
		// Map receipts to the listing shape
		resp := make([]ReceiptListItem, len(receipts))
		for i := range receipts {
			resp[i] = newReceiptListItem(&receipts[i])
		}
		c.JSON(http.StatusOK, gin.H{"receipts": resp}) // Return the listing
	}
}

// LaundromatStaffHandler lists a laundromat's affiliated staff
func LaundromatStaffHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var laundromat domain.Laundromat // Fetch laundromat by path ID
		if err := db.First(&laundromat, c.Param("id")).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Laundromat not found")
			return
		}
		var staff []domain.User // Slice to hold staff members
		if err := db.Where("role = ? AND laundromat_id = ?", domain.RoleStaff, laundromat.ID).
			Find(&staff).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch staff")
			return
		}
		// Map staff to the response shape
		resp := make([]UserResponse, len(staff))
		for i := range staff {
			resp[i] = *newUserResponse(&staff[i])
		}
		c.JSON(http.StatusOK, gin.H{"staff": resp}) // Return the listing
	}
}
