package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware allows only admin users through
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c) // Get the authenticated user from context
		if !ok {
			// No authenticated user, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Authentication required"})
			return
		}
		// Check if user role is admin
		if !user.IsAdminUser() {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Admin access required"})
			return
		}
		c.Next() // If admin, proceed to the next handler
	}
}

// StaffOrAdminMiddleware allows staff and admin users through; customers
// are rejected with a forbidden status
func StaffOrAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c) // Get the authenticated user from context
		if !ok {
			// No authenticated user, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Authentication required"})
			return
		}
		// Check if user role is staff or admin
		if !user.IsStaffMember() && !user.IsAdminUser() {
			// If customer, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Staff access required"})
			return
		}
		c.Next() // Proceed to the next handler
	}
}
