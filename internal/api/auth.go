package api

import (
	"laundry_system/internal/domain"     // Importing domain models
	"laundry_system/internal/middleware" // Current user lookup
	"laundry_system/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes
	"strings"                            // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest is the payload for user registration
type RegisterRequest struct {
	Username     string `json:"username" binding:"required"` // Username must be provided
	Password     string `json:"password" binding:"required"` // Password must be provided
	Phone        string `json:"phone" binding:"required"`    // Phone must be provided
	Role         string `json:"role"`                        // Optional role, defaults to customer
	LaundromatID *uint  `json:"laundromat_id"`               // Affiliation, staff role only
}

// LoginRequest is the payload for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AuthResponse carries the issued JWT token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// RegisterHandler creates a new user account
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		role := req.Role // Default role is customer
		if role == "" {
			role = domain.RoleCustomer
		}
		// Validate the role tag
		if role != domain.RoleCustomer && role != domain.RoleStaff && role != domain.RoleAdmin {
			fail(c, http.StatusBadRequest, codeValidation, "Role must be customer, staff or admin")
			return
		}
		// Affiliation is meaningful only for staff
		if req.LaundromatID != nil && role != domain.RoleStaff {
			fail(c, http.StatusBadRequest, codeValidation, "Only staff can have a laundromat affiliation")
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to hash password")
			return
		}
		// Create user with lowercase username to ensure uniqueness
		user := domain.User{
			Username:     strings.ToLower(req.Username), // Lowercased username
			Password:     string(hash),                  // Bcrypt hash
			Phone:        req.Phone,                     // Phone number
			Role:         role,                          // Role tag
			LaundromatID: req.LaundromatID,              // Staff affiliation
			IsActive:     true,                          // New accounts start active
		}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			// Duplicate username or phone violates a unique index
			fail(c, http.StatusConflict, codeDuplicate, "Username or phone already exists")
			return
		}
		// Return the created user
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": newUserResponse(&user)})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("username = ?", strings.ToLower(req.Username)).First(&user).Error; err != nil {
			// If user not found, return unauthorized
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Invalid credentials")
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Invalid credentials")
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to generate token")
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token})
	}
}

// ChangePasswordRequest is the payload for a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"` // Existing secret
	NewPassword string `json:"new_password" binding:"required"` // Replacement secret
}

// ChangePasswordHandler changes the caller's password after verifying
// the existing one. No strength policy is enforced here.
func ChangePasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var req ChangePasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		// Verify the existing password before accepting the new one
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
			fail(c, http.StatusBadRequest, codeInvalidCredentials, "Wrong password")
			return
		}
		// Hash and store the new password
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to hash password")
			return
		}
		if err := db.Model(user).Update("password", string(hash)).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to update password")
			return
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}
