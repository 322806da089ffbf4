package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidVideoExtension(t *testing.T) {
	valid := []string{"clip.mp4", "clip.avi", "clip.mov", "clip.mkv", "clip.webm", "CLIP.MP4", "clip.MoV"}
	for _, name := range valid {
		assert.True(t, IsValidVideoExtension(name), name)
	}
	invalid := []string{"notes.txt", "clip.gif", "clip.mp3", "clip", "clip.mp4.exe"}
	for _, name := range invalid {
		assert.False(t, IsValidVideoExtension(name), name)
	}
}

func TestIsValidVideoType(t *testing.T) {
	assert.True(t, IsValidVideoType(VideoTypeIntake))
	assert.True(t, IsValidVideoType(VideoTypeCompletion))
	assert.False(t, IsValidVideoType("outtake"))
	assert.False(t, IsValidVideoType(""))
}

func TestFileSizeMB(t *testing.T) {
	v := Video{FileSize: 0}
	assert.Equal(t, 0.0, v.FileSizeMB()) // no file, no size

	v.FileSize = 1048576 // exactly 1 MB
	assert.Equal(t, 1.0, v.FileSizeMB())

	v.FileSize = 1572864 // 1.5 MB
	assert.Equal(t, 1.5, v.FileSizeMB())

	v.FileSize = 1234567 // rounds to 2 decimal places
	assert.Equal(t, 1.18, v.FileSizeMB())
}
