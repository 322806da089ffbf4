package domain

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// Video types
const (
	VideoTypeIntake     = "intake"     // Recorded at drop-off
	VideoTypeCompletion = "completion" // Recorded at pickup
)

// VideoExtensions lists accepted video file extensions
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}

// IsValidVideoType reports whether t is a known video type
func IsValidVideoType(t string) bool {
	return t == VideoTypeIntake || t == VideoTypeCompletion
}

// IsValidVideoExtension checks the file name's extension against the
// accepted set, case-insensitively
func IsValidVideoExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, v := range VideoExtensions {
		if v == ext {
			return true
		}
	}
	return false
}

// Video Model
type Video struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                                            // Primary key
	ReceiptID  uint      `gorm:"not null;uniqueIndex:idx_receipt_video_type" json:"receipt_id"`   // Owning receipt
	Receipt    *Receipt  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`          // Cascade on receipt delete
	VideoType  string    `gorm:"not null;uniqueIndex:idx_receipt_video_type" json:"video_type"`   // intake or completion, one each per receipt
	VideoFile  string    `gorm:"not null" json:"video_file"`                                      // Blob store key of the video
	Thumbnail  *string   `json:"thumbnail"`                                                       // Optional blob store key of the thumbnail
	Duration   *int      `json:"duration"`                                                        // Optional duration in seconds
	FileSize   int64     `json:"file_size"`                                                       // Size in bytes, recomputed from the payload
	UploadedAt time.Time `gorm:"autoCreateTime;index" json:"uploaded_at"`                         // Timestamp of upload
	UpdatedAt  time.Time `json:"updated_at"`                                                      // Timestamp of last update
}

// FileSizeMB returns the file size in megabytes rounded to 2 decimal
// places, 0 when there is no file
func (v *Video) FileSizeMB() float64 {
	if v.FileSize == 0 {
		return 0
	}
	return math.Round(float64(v.FileSize)/(1024*1024)*100) / 100
}
