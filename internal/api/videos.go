package api

import (
	"errors"                             // Error inspection
	"io"                                 // Reading multipart payloads
	"laundry_system/internal/domain"     // Importing domain models
	"laundry_system/internal/middleware" // Current user lookup
	"laundry_system/internal/policy"     // Role-based access scopes
	"laundry_system/internal/storage"    // Blob store
	"net/http"                           // HTTP status codes
	"path/filepath"                      // File extension handling
	"strconv"                            // String conversion
	"strings"                            // String manipulation

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Unique object keys
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// readFormFile reads a named multipart file into memory, returning the
// payload and the original file name
func readFormFile(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field) // Look up the multipart part
	if err != nil {
		return nil, "", err
	}
	f, err := header.Open() // Open the uploaded file
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f) // Read the full payload
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// UploadVideoHandler attaches a video to a receipt. The file extension
// is validated, the (receipt, video_type) pair must be unused, and the
// file size is computed from the payload, never trusted from input.
func UploadVideoHandler(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		// Required form fields
		receiptID, err := strconv.Atoi(c.PostForm("receipt_id"))
		if err != nil || receiptID <= 0 {
			fail(c, http.StatusBadRequest, codeValidation, "receipt_id is required")
			return
		}
		videoType := c.PostForm("video_type")
		if !domain.IsValidVideoType(videoType) {
			fail(c, http.StatusBadRequest, codeValidation, "video_type must be intake or completion")
			return
		}
		// The receipt must exist within the caller's scope
		var receipt domain.Receipt
		if err := policy.ScopeReceipts(db, user).First(&receipt, receiptID).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Receipt not found")
			return
		}
		// Read the video payload
		data, fileName, err := readFormFile(c, "video_file")
		if err != nil {
			fail(c, http.StatusBadRequest, codeValidation, "video_file is required")
			return
		}
		// Validate the file extension against the accepted set
		if !domain.IsValidVideoExtension(fileName) {
			fail(c, http.StatusBadRequest, codeValidation,
				"Unsupported file extension. Allowed: "+strings.Join(domain.VideoExtensions, ", "))
			return
		}
		// One video per (receipt, type); no overwrite semantics
		var existing domain.Video
		if err := db.Where("receipt_id = ? AND video_type = ?", receipt.ID, videoType).
			First(&existing).Error; err == nil {
			fail(c, http.StatusConflict, codeDuplicate, "A "+videoType+" video already exists for this receipt")
			return
		}
		// Upload the video under a unique key
		ext := strings.ToLower(filepath.Ext(fileName))
		videoKey := "videos/" + uuid.New().String() + ext
		if _, err := store.Upload(c.Request.Context(), videoKey, data, "video/"+strings.TrimPrefix(ext, ".")); err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) {
				fail(c, http.StatusServiceUnavailable, codeStorageUnavailable, "Blob storage unavailable")
				return
			}
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to store video")
			return
		}
		video := domain.Video{
			ReceiptID: receipt.ID,        // Owning receipt
			VideoType: videoType,         // intake or completion
			VideoFile: videoKey,          // Blob store key
			FileSize:  int64(len(data)),  // Computed from the payload
		}
		// Optional duration in seconds
		if d := c.PostForm("duration"); d != "" {
			if v, err := strconv.Atoi(d); err == nil && v > 0 {
				video.Duration = &v
			}
		}
		// Optional thumbnail upload
		if thumbData, thumbName, err := readFormFile(c, "thumbnail"); err == nil {
			thumbKey := "thumbnails/" + uuid.New().String() + strings.ToLower(filepath.Ext(thumbName))
			if _, err := store.Upload(c.Request.Context(), thumbKey, thumbData, "image/jpeg"); err != nil {
				if errors.Is(err, domain.ErrStorageUnavailable) {
					fail(c, http.StatusServiceUnavailable, codeStorageUnavailable, "Blob storage unavailable")
					return
				}
				fail(c, http.StatusInternalServerError, codeInternal, "Failed to store thumbnail")
				return
			}
			video.Thumbnail = &thumbKey
		}
		// Attempt to create the video record
		if err := db.Create(&video).Error; err != nil {
			// The unique (receipt, type) index is the backstop
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				fail(c, http.StatusConflict, codeDuplicate, "A "+videoType+" video already exists for this receipt")
				return
			}
			logrus.WithFields(logrus.Fields{
				"receipt_id": receipt.ID,  // Owning receipt
				"video_type": videoType,   // Video type
				"error":      err.Error(), // Error message
			}).Error("Video creation failed") // Log creation failure
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to save video")
			return
		}
		// Log successful upload
		logrus.WithFields(logrus.Fields{
			"receipt_id":  receipt.ID,     // Owning receipt
			"video_type":  videoType,      // Video type
			"file_size":   video.FileSize, // Size in bytes
			"uploaded_by": user.ID,        // Caller
		}).Info("Video uploaded")
		c.JSON(http.StatusCreated, newVideoResponse(store, &video)) // Return the created record
	}
}

// ListVideosHandler returns videos visible to the caller, paginated
func ListVideosHandler(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		page, pageSize, offset := pagination(c)
		// Start from the caller's access scope
		query := policy.ScopeVideos(db.Model(&domain.Video{}), user)
		if vt := c.Query("video_type"); vt != "" {
			query = query.Where("videos.video_type = ?", vt) // Filter by type
		}
		var total int64 // Total video count
		if err := query.Count(&total).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to count videos")
			return
		}
		var videos []domain.Video // Slice to hold videos
		if err := query.Order("uploaded_at desc").Offset(offset).Limit(pageSize).
			Find(&videos).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch videos")
			return
		}
		// Map videos to the response shape
		resp := make([]VideoResponse, len(videos))
		for i := range videos {
			resp[i] = newVideoResponse(store, &videos[i])
		}
		c.JSON(http.StatusOK, gin.H{
			"videos":      resp,                        // List of videos
			"page":        page,                        // Current page
			"page_size":   pageSize,                    // Page size
			"total":       total,                       // Total count
			"total_pages": totalPages(total, pageSize), // Total pages
		})
	}
}

// GetVideoHandler returns one video within the caller's scope
func GetVideoHandler(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		var video domain.Video // Scoped detail lookup
		if err := policy.ScopeVideos(db, user).First(&video, c.Param("id")).Error; err != nil {
			fail(c, http.StatusNotFound, codeNotFound, "Video not found")
			return
		}
		c.JSON(http.StatusOK, newVideoResponse(store, &video)) // Return the record
	}
}

// VideosByReceiptHandler lists a receipt's videos; the receipt_id query
// parameter is required
func VideosByReceiptHandler(db *gorm.DB, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c) // Get the authenticated user
		if !ok {
			fail(c, http.StatusUnauthorized, codeInvalidCredentials, "Unauthorized")
			return
		}
		receiptID := c.Query("receipt_id") // Required query parameter
		if receiptID == "" {
			fail(c, http.StatusBadRequest, codeBadRequest, "receipt_id parameter is required")
			return
		}
		var videos []domain.Video // Slice to hold videos
		if err := policy.ScopeVideos(db, user).
			Where("videos.receipt_id = ?", receiptID).
			Order("uploaded_at desc").Find(&videos).Error; err != nil {
			fail(c, http.StatusInternalServerError, codeInternal, "Failed to fetch videos")
			return
		}
		// Map videos to the response shape
		resp := make([]VideoResponse, len(videos))
		for i := range videos {
			resp[i] = newVideoResponse(store, &videos[i])
		}
		c.JSON(http.StatusOK, gin.H{"videos": resp}) // Return the listing
	}
}
