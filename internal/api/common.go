package api

import (
	"laundry_system/internal/domain"  // Importing domain models
	"laundry_system/internal/storage" // Blob store URL generation
	"strconv"                         // String conversion
	"time"                            // Timestamps in responses

	"github.com/gin-gonic/gin" // Gin web framework
)

// Error codes returned to callers alongside a human-readable message
const (
	codeValidation         = "validation_error"
	codeDuplicate          = "duplicate"
	codeNotFound           = "not_found"
	codeForbidden          = "forbidden"
	codeAlreadyCompleted   = "already_completed"
	codeInvalidCredentials = "invalid_credentials"
	codeBadRequest         = "bad_request"
	codeStorageUnavailable = "storage_unavailable"
	codeInternal           = "internal_error"
)

// fail writes a machine-readable error code and human message
func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}

// pagination reads page/page_size query params with the usual defaults
// and cap, returning the offset to use
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	offset = (page - 1) * pageSize // Calculate offset for pagination
	return page, pageSize, offset
}

// totalPages computes the page count for a total row count
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}

// UserResponse is the user shape embedded in receipt responses
type UserResponse struct {
	ID           uint   `json:"id"`            // User ID
	Username     string `json:"username"`      // Username
	Phone        string `json:"phone"`         // Phone number
	Role         string `json:"role"`          // User role
	LaundromatID *uint  `json:"laundromat_id"` // Staff affiliation
	IsActive     bool   `json:"is_active"`     // Active flag
}

// newUserResponse maps a user to its response shape
func newUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:           u.ID,           // User ID
		Username:     u.Username,     // Username
		Phone:        u.Phone,        // Phone number
		Role:         u.Role,         // User role
		LaundromatID: u.LaundromatID, // Staff affiliation
		IsActive:     u.IsActive,     // Active flag
	}
}

// VideoResponse is the full video shape with blob URLs and derived size
type VideoResponse struct {
	ID           uint      `json:"id"`            // Video ID
	ReceiptID    uint      `json:"receipt_id"`    // Owning receipt
	VideoType    string    `json:"video_type"`    // intake or completion
	VideoURL     string    `json:"video_url"`     // Full URL of the video file
	ThumbnailURL *string   `json:"thumbnail_url"` // Full URL of the thumbnail, if any
	Duration     *int      `json:"duration"`      // Duration in seconds
	FileSize     int64     `json:"file_size"`     // Size in bytes
	FileSizeMB   float64   `json:"file_size_mb"`  // Size in megabytes, 2 decimal places
	UploadedAt   time.Time `json:"uploaded_at"`   // Upload timestamp
}

// newVideoResponse maps a video to its response shape
func newVideoResponse(store storage.Store, v *domain.Video) VideoResponse {
	resp := VideoResponse{
		ID:         v.ID,           // Video ID
		ReceiptID:  v.ReceiptID,    // Owning receipt
		VideoType:  v.VideoType,    // Video type
		VideoURL:   store.URL(v.VideoFile), // Full URL from the blob store
		Duration:   v.Duration,     // Duration in seconds
		FileSize:   v.FileSize,     // Size in bytes
		FileSizeMB: v.FileSizeMB(), // Derived megabyte value
		UploadedAt: v.UploadedAt,   // Upload timestamp
	}
	if v.Thumbnail != nil {
		url := store.URL(*v.Thumbnail) // Thumbnail URL, only when stored
		resp.ThumbnailURL = &url
	}
	return resp
}

// ReceiptResponse is the full receipt shape with relations and derived values
type ReceiptResponse struct {
	ID                  uint            `json:"id"`                   // Receipt ID
	ReceiptNumber       string          `json:"receipt_number"`       // Generated number
	LaundromatID        uint            `json:"laundromat_id"`        // Owning laundromat
	Customer            *UserResponse   `json:"customer"`             // Customer details
	Staff               *UserResponse   `json:"staff"`                // Staff details, if assigned
	Status              string          `json:"status"`               // Lifecycle status
	DropOffDate         time.Time       `json:"drop_off_date"`        // Drop-off timestamp
	ExpectedPickupDate  time.Time       `json:"expected_pickup_date"` // Promised pickup
	ActualPickupDate    *time.Time      `json:"actual_pickup_date"`   // Set on completion
	ItemsDescription    string          `json:"items_description"`    // Item description
	ItemsCount          int             `json:"items_count"`          // Number of items
	SpecialInstructions string          `json:"special_instructions"` // Optional instructions
	Price               float64         `json:"price"`                // Order price
	QRCodeURL           string          `json:"qr_code_url"`          // Full URL of the QR image
	Videos              []VideoResponse `json:"videos"`               // Attached videos
	IsActive            bool            `json:"is_active"`            // Derived: not completed/cancelled
	DaysSinceDropoff    int             `json:"days_since_dropoff"`   // Derived: whole days since drop-off
	CreatedAt           time.Time       `json:"created_at"`           // Creation timestamp
	UpdatedAt           time.Time       `json:"updated_at"`           // Update timestamp
}

// newReceiptResponse maps a receipt (with preloaded relations) to the
// full response shape
func newReceiptResponse(store storage.Store, r *domain.Receipt) ReceiptResponse {
	videos := make([]VideoResponse, len(r.Videos))
	for i := range r.Videos {
		videos[i] = newVideoResponse(store, &r.Videos[i]) // Map each attached video
	}
	return ReceiptResponse{
		ID:                  r.ID,                  // Receipt ID
		ReceiptNumber:       r.ReceiptNumber,       // Generated number
		LaundromatID:        r.LaundromatID,        // Owning laundromat
		Customer:            newUserResponse(r.Customer), // Customer details
		Staff:               newUserResponse(r.Staff),    // Staff details
		Status:              r.Status,              // Lifecycle status
		DropOffDate:         r.DropOffDate,         // Drop-off timestamp
		ExpectedPickupDate:  r.ExpectedPickupDate,  // Promised pickup
		ActualPickupDate:    r.ActualPickupDate,    // Set on completion
		ItemsDescription:    r.ItemsDescription,    // Item description
		ItemsCount:          r.ItemsCount,          // Number of items
		SpecialInstructions: r.SpecialInstructions, // Optional instructions
		Price:               r.Price,               // Order price
		QRCodeURL:           store.URL(r.QRCode),   // Full QR image URL
		Videos:              videos,                // Attached videos
		IsActive:            r.IsActive(),          // Derived active flag
		DaysSinceDropoff:    r.DaysSinceDropoff(),  // Derived day count
		CreatedAt:           r.CreatedAt,           // Creation timestamp
		UpdatedAt:           r.UpdatedAt,           // Update timestamp
	}
}

// ReceiptListItem is the lightweight receipt shape used by listings
type ReceiptListItem struct {
	ID                 uint      `json:"id"`                   // Receipt ID
	ReceiptNumber      string    `json:"receipt_number"`       // Generated number
	CustomerName       string    `json:"customer_name"`        // Customer username
	LaundromatName     string    `json:"laundromat_name"`      // Laundromat name
	Status             string    `json:"status"`               // Lifecycle status
	DropOffDate        time.Time `json:"drop_off_date"`        // Drop-off timestamp
	ExpectedPickupDate time.Time `json:"expected_pickup_date"` // Promised pickup
	Price              float64   `json:"price"`                // Order price
	ItemsCount         int       `json:"items_count"`          // Number of items
	ItemsDescription   string    `json:"items_description"`    // Item description
}

// newReceiptListItem maps a receipt (with customer and laundromat
// preloaded) to the lightweight listing shape
func newReceiptListItem(r *domain.Receipt) ReceiptListItem {
	item := ReceiptListItem{
		ID:                 r.ID,                 // Receipt ID
		ReceiptNumber:      r.ReceiptNumber,      // Generated number
		Status:             r.Status,             // Lifecycle status
		DropOffDate:        r.DropOffDate,        // Drop-off timestamp
		ExpectedPickupDate: r.ExpectedPickupDate, // Promised pickup
		Price:              r.Price,              // Order price
		ItemsCount:         r.ItemsCount,         // Number of items
		ItemsDescription:   r.ItemsDescription,   // Item description
	}
	if r.Customer != nil {
		item.CustomerName = r.Customer.Username // Customer username
	}
	if r.Laundromat != nil {
		item.LaundromatName = r.Laundromat.Name // Laundromat name
	}
	return item
}
