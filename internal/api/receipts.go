package api

import (
	"context"                            // Context for Redis operations
	"errors"                             // Error inspection
	"laundry_system/internal/domain"     // Importing domain models
	"laundry_system/internal/middleware" // Current user lookup
	"laundry_system/internal/policy"     // Role-based access scopes
	"laundry_system/internal/storage"    // Blob store
	"laundry_system/internal/utils"      // Utility functions
	"net/http"                           // HTTP status codes
	"strconv"                            // String conversion
	"time"                               // Timestamps

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateReceiptRequest is the payload for receipt creation
type CreateReceiptRequest struct {
	LaundromatID        uint      `json:"laundromat_id" binding:"required"`        // Owning laundromat
	CustomerID          uint      `json:"customer_id" binding:"required"`          // Customer dropping off
	StaffID             *uint     `json:"staff_id"`                                // Optional staff taking the order
	ExpectedPickupDate  time.Time `json:"expected_pickup_date" binding:"required"` // Promised pickup time
	ItemsDescription    string    `json:"items_description" binding:"required"`    // Description of items
	ItemsCount          int       `json:"items_count"`                             // Number of items
	SpecialInstructions string    `json:"special_instructions"`                    // Optional instructions
	Price               float64   `json:"price"`                                   // Order price
}

// scopedReceipt fetches one receipt by path ID within the caller's
// access scope; records outside the scope are simply absent
func scopedReceipt(db *gorm.DB, c *gin.Context, user *domain.User) (*domain.Receipt, bool) {
	var receipt domain.Receipt
	err := policy.ScopeReceipts(db, user).
		Preload("Customer").Preload("Staff").Preload("Laundromat").Preload("Videos").
		First(&receipt, c.Param("id")).Error
	if err != nil {
		fail(c, http.StatusNotFound, codeNotFound, "Receipt not found")
		return nil, false
	}
	return &receipt, true
}

// invalidateReceiptCaches drops cached receipt listings for the users a
// write affects (simple version, first 5 pages each)
func invalidateReceiptCaches(rdb *redis.Client, userIDs ...uint) {
	ctx := context.Background() // Context for Redis operations
	for _, id := range userIDs {
		utils.InvalidatePages(ctx, rdb, "receipts:active:user:"+strconv.Itoa(int(id)))
	}
}

// CreateReceiptHandler creates a receipt: generates the receipt number,
// encodes and uploads the QR image, then commits the row. Any
// attachment failure aborts the whole create.
func CreateReceiptHandler(db *gorm.DB, store storage.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var req CreateReceiptRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		// The referenced laundromat and customer must exist
		var laundromat domain.Laundromat
		if err := db.First(&laundromat, req.LaundromatID).Error; err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Laundromat not found")
			return
		}
		var customer domain.User
		if err := db.First(&customer, req.CustomerID).Error; err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Customer not found")
			return
		}
		// Generate the receipt number; DB uniqueness is the backstop
		number := domain.GenerateReceiptNumber()
		// Encode the QR image with the number as payload
		png, err := utils.EncodeReceiptQR(number)
		if err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to encode QR code")
			return
		}
		// Upload the QR image before committing the row
		qrKey := "qr_codes/qr_" + number + ".png"
		if _, err := store.Upload(c.Request.Context(), qrKey, png, "image/png"); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				fail(c, http.StatusServiceUnavailable, codeStorageUnavailable, "Blob storage unavailable")
				return
			}
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to store QR code")
			return
		}
		receipt := domain.Receipt{
			ReceiptNumber:       number,                  // Generated number
			LaundromatID:        req.LaundromatID,        // Owning laundromat
			CustomerID:          req.CustomerID,          // Customer reference
			StaffID:             req.StaffID,             // Optional staff reference
			Status:              domain.StatusPending,    // Lifecycle starts at pending
			DropOffDate:         domain.Now(),            // Set at creation, immutable
			ExpectedPickupDate:  req.ExpectedPickupDate,  // Promised pickup
			ItemsDescription:    req.ItemsDescription,    // Item description
			ItemsCount:          req.ItemsCount,          // Number of items
			SpecialInstructions: req.SpecialInstructions, // Optional instructions
			Price:               req.Price,               // Order price
			QRCode:              qrKey,                   // QR image key, set once
		}
		// Attempt to create the receipt in the database
		if err := db.Create(&receipt).Error; err != nil {
			// A number collision violates the unique index (extremely rare)
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				fail(c, http.StatusConflict, codeDuplicate, "Receipt number collision")
				return
			}
			logrus.WithFields(logrus.Fields{
				"receipt_number": number,      // Generated number
				"error":          err.Error(), // Error message
			}).Error("Receipt creation failed") // Log creation failure
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to create receipt")
			return
		}
		// Log successful creation
		logrus.WithFields(logrus.Fields{
			"receipt_number": receipt.ReceiptNumber, // Generated number
			"laundromat_id":  receipt.LaundromatID,  // Owning laundromat
			"customer_id":    receipt.CustomerID,    // Customer reference
			"created_by":     user.ID,               // Staff or admin who created it
		}).Info("Receipt created")
		// Invalidate cached listings for the writer and the customer
		invalidateReceiptCaches(rdb, user.ID, receipt.CustomerID)
		// Attach relations for the response without a second query
		receipt.Customer = &customer
		receipt.Laundromat = &laundromat
		c.JSON(http.StatusCreated, newReceiptResponse(store, &receipt)) // Return the full representation
	}
}

// ListReceiptsHandler returns receipts visible to the caller, with
// optional status and laundromat filters, paginated
func ListReceiptsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		page, pageSize, offset := pagination(c)
		// Start from the caller's access scope
		query := policy.ScopeReceipts(db.Model(&domain.Receipt{}), user)
		if status := c.Query("status"); status != "" {
			query = query.Where("receipts.status = ?", status) // Filter by status
		}
		if lid := c.Query("laundromat_id"); lid != "" {
			query = query.Where("receipts.laundromat_id = ?", lid) // Filter by laundromat
		}
		var total int64 // Total receipt count
		if err := query.Count(&total).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to count receipts")
			return
		}
		var receipts []domain.Receipt // Slice to hold receipts
		if err := query.Preload("Customer").Preload("Laundromat").
			Order("created_at desc").Offset(offset).Limit(pageSize).
			Find(&receipts).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch receipts")
			return
		}
		// Map receipts to the listing shape
		resp := make([]ReceiptListItem, len(receipts))
		for i := range receipts {
			resp[i] = newReceiptListItem(&receipts[i])
		}
		c.JSON(http.StatusOK, gin.H{
			"receipts":    resp,                        // List of receipts
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total count
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// GetReceiptHandler returns one receipt within the caller's scope
func GetReceiptHandler(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		receipt, ok := scopedReceipt(db, c, user) // Scoped detail lookup
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newReceiptResponse(store, receipt)) // Return the full representation
	}
}

// ActiveReceiptsHandler returns receipts in a non-terminal status
// within the caller's scope, paginated and cached per user
func ActiveReceiptsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		ctx := context.Background() // Use background context for Redis
		page, pageSize, offset := pagination(c)
		// Cache key is per user: scopes differ between callers
		cacheKey := "receipts:active:user:" + strconv.Itoa(int(user.ID)) +
			":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Receipts   []ReceiptListItem `json:"receipts"`    // List of receipts
			Page       int               `json:"page"`        // Current page
			PageSize   int               `json:"page_size"`   // Page size
			Total      int64             `json:"total"`       // Total count
			TotalPages int               `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"receipts":    cached.Receipts,   // List of receipts
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total count
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		// Scope plus the non-terminal status filter
		query := policy.ScopeReceipts(db.Model(&domain.Receipt{}), user).
			Where("receipts.status NOT IN ?", []string{domain.StatusCompleted, domain.StatusCancelled})
		var total int64 // Total active receipt count
		if err := query.Count(&total).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to count receipts")
			return
		}
		var receipts []domain.Receipt // Slice to hold receipts
		if err := query.Preload("Customer").Preload("Laundromat").
			Order("created_at desc").Offset(offset).Limit(pageSize).
			Find(&receipts).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch receipts")
			return
		}
		// Map receipts to the listing shape
		resp := make([]ReceiptListItem, len(receipts))
		for i := range receipts {
			resp[i] = newReceiptListItem(&receipts[i])
		}
		respData := gin.H{
			"receipts":    resp,                        // List of receipts
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

// MyReceiptsHandler returns receipts where the caller is the customer
func MyReceiptsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var receipts []domain.Receipt // Slice to hold receipts
		if err := db.Where("customer_id = ?", user.ID).
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

// UpdateStatusRequest is the payload for a status update
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"` // New status value
}

// UpdateStatusHandler sets a receipt's status. Any known status value
// is accepted; there is deliberately no transition graph.
func UpdateStatusHandler(db *gorm.DB, store storage.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var req UpdateStatusRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "Invalid request")
			return
		}
		// Unknown status strings are rejected
		if !domain.IsValidStatus(req.Status) {
			fail(c, http.StatusBadRequest, codeValidation, "Unknown status value")
			return
		}
		receipt, ok := scopedReceipt(db, c, user) // Scoped detail lookup
		if !ok {
			return
		}
		// Apply the status change
		if err := db.Model(receipt).Update("status", req.Status).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to update status")
			return
		}
		// Log the transition
		logrus.WithFields(logrus.Fields{
			"receipt_number": receipt.ReceiptNumber, // Receipt number
			"status":         req.Status,            // New status
			"updated_by":     user.ID,               // Caller
		}).Info("Receipt status updated")
		// Invalidate cached listings for the writer and the customer
		invalidateReceiptCaches(rdb, user.ID, receipt.CustomerID)
		c.JSON(http.StatusOK, newReceiptResponse(store, receipt)) // Return the full representation
	}
}

// CompleteReceiptHandler marks a receipt as picked up: sets status to
// completed and stamps the actual pickup time with the server clock.
// Completing twice fails without changing the stored timestamp.
func CompleteReceiptHandler(db *gorm.DB, store storage.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		receipt, ok := scopedReceipt(db, c, user) // Scoped detail lookup
		if !ok {
			return
		}
		// A completed receipt cannot be completed again
		if receipt.Status == domain.StatusCompleted {
			fail(c, http.StatusBadRequest, codeAlreadyCompleted, "Receipt already completed")
			return
		}
		pickedUpAt := domain.Now() // Server clock, not caller input
		// Apply both fields atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Model(receipt).Updates(map[string]any{
				"status":             domain.StatusCompleted, // Terminal status
				"actual_pickup_date": pickedUpAt,             // Completion timestamp
			}).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"receipt_number": receipt.ReceiptNumber, // Receipt number
				"error":          err.Error(),           // Error message
			}).Error("Receipt completion failed") // Log completion failure
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to complete receipt")
			return
		}
		// Log successful completion
		logrus.WithFields(logrus.Fields{
			"receipt_number": receipt.ReceiptNumber, // Receipt number
			"completed_by":   user.ID,               // Caller
			"picked_up_at":   pickedUpAt.Format(time.RFC3339),
		}).Info("Receipt completed")
		// Invalidate cached listings for the writer and the customer
		invalidateReceiptCaches(rdb, user.ID, receipt.CustomerID)
		receipt.Status = domain.StatusCompleted // Reflect the update in the response
		receipt.ActualPickupDate = &pickedUpAt
		c.JSON(http.StatusOK, newReceiptResponse(store, receipt)) // Return the full representation
	}
}

// ReceiptQRHandler returns the QR code URL for a receipt in scope
func ReceiptQRHandler(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		receipt, ok := scopedReceipt(db, c, user) // Scoped detail lookup
		if !ok {
			return
		}
		// A receipt without its QR attachment is reported as absent
		if receipt.QRCode == "" {
			fail(c, http.StatusNotFound, codeNotFound, "QR code not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"qr_code_url":    store.URL(receipt.QRCode), // Full URL of the QR image
			"receipt_number": receipt.ReceiptNumber,     // Receipt number
		})
	}
}
