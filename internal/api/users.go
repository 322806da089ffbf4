package api

import (
	"context"                            // Context for Redis operations
	"laundry_system/internal/domain"     // Importing domain models
	"laundry_system/internal/middleware" // Current user lookup
	"laundry_system/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes
	"strconv"                            // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// MeHandler returns the authenticated user's profile
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user)) // Return the profile
	}
}

// UpdateProfileRequest is the payload for a profile update
type UpdateProfileRequest struct {
	Username string `json:"username"` // Optional new username
	Phone    string `json:"phone"`    // Optional new phone
}

// UpdateProfileHandler updates the authenticated user's own profile
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var req UpdateProfileRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		// Only touch supplied fields
		if req.Username == "" && req.Phone == "" {
			fail(c, http.StatusBadRequest, codeValidation, "Nothing to update")
			return
		}
		if req.Username != "" {
			user.Username = req.Username
		}
		if req.Phone != "" {
			user.Phone = req.Phone
		}
		// Apply the update; unique indexes guard username/phone collisions
		if err := db.Save(user).Error; err != nil {
			fail(c, http.StatusConflict, codeDuplicate, "Username or phone already exists")
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user)) // Return the updated profile
	}
}

// listUsersByRole returns a paginated, cached listing of users with the
// given role (admin only, enforced by middleware)
func listUsersByRole(db *gorm.DB, rdb *redis.Client, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		page, pageSize, offset := pagination(c)
		// Create a cache key based on role and pagination parameters
		cacheKey := "admin:users:" + role + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Users      []UserResponse `json:"users"`       // List of users
			Page       int            `json:"page"`        // Current page
			PageSize   int            `json:"page_size"`   // Page size
			Total      int64          `json:"total"`       // Total number of users
			TotalPages int            `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"users":       cached.Users,      // List of users
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		var total int64 // Total user count for this role
		if err := db.Model(&domain.User{}).Where("role = ?", role).Count(&total).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to count users")
			return
		}
		var users []domain.User // Slice to hold users
		// Apply offset and limit for pagination
		if err := db.Where("role = ?", role).Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch users")
			return
		}
		// Map users to response format
		resp := make([]UserResponse, len(users))
		for i := range users {
			resp[i] = *newUserResponse(&users[i])
		}
		// Prepare final response data
		respData := gin.H{
			"users":       resp,                         // List of users
			"page":        page,                         // Current page
			"page_size":   pageSize,                     // Page size
			"total":       total,                        // Total number of users
			"total_pages": totalPages(total, pageSize),  // Total pages
			"cached":      false,                        // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, utils.CacheTTL)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

// ListCustomersHandler returns all customer accounts (admin only)
func ListCustomersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return listUsersByRole(db, rdb, domain.RoleCustomer)
}

// ListStaffHandler returns all staff accounts (admin only)
func ListStaffHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return listUsersByRole(db, rdb, domain.RoleStaff)
}
