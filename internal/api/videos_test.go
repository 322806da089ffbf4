package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"laundry_system/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadVideo posts a multipart upload and returns the recorder
func uploadVideo(t *testing.T, r http.Handler, receiptID uint, videoType, fileName string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("receipt_id", fmt.Sprint(receiptID)))
	require.NoError(t, mw.WriteField("video_type", videoType))
	fw, err := mw.CreateFormFile("video_file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/videos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)
	return w
}

func TestUploadVideo(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	receipt := seedReceipt(t, db, laundromat.ID, customer.ID, domain.StatusPending)

	r := newRouter(staff)
	r.POST("/videos", UploadVideoHandler(db, store))

	payload := bytes.Repeat([]byte{0xAB}, 2048)
	w := uploadVideo(t, r, receipt.ID, domain.VideoTypeIntake, "dropoff.mp4", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp VideoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.VideoTypeIntake, resp.VideoType)
	// File size is computed from the payload, never trusted from input
	assert.Equal(t, int64(len(payload)), resp.FileSize)
	assert.NotEmpty(t, resp.VideoURL)

	// A second upload for the same (receipt, type) pair is rejected
	w = uploadVideo(t, r, receipt.ID, domain.VideoTypeIntake, "again.mp4", payload)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate")

	// A different type for the same receipt is fine
	w = uploadVideo(t, r, receipt.ID, domain.VideoTypeCompletion, "pickup.mov", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestUploadVideoRejectsUnsupportedExtension(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	receipt := seedReceipt(t, db, laundromat.ID, customer.ID, domain.StatusPending)

	r := newRouter(staff)
	r.POST("/videos", UploadVideoHandler(db, store))

	w := uploadVideo(t, r, receipt.ID, domain.VideoTypeIntake, "notes.txt", []byte("not a video"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ".mp4") // error names the allowed set
	assert.Empty(t, store.objects)              // nothing reached the blob store
}

func TestUploadVideoOutsideStaffScope(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromatA := seedLaundromat(t, db, "Suds Central")
	laundromatB := seedLaundromat(t, db, "Spin City")
	staffA := seedUser(t, db, "sam", domain.RoleStaff, &laundromatA.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	receiptB := seedReceipt(t, db, laundromatB.ID, customer.ID, domain.StatusPending)

	r := newRouter(staffA)
	r.POST("/videos", UploadVideoHandler(db, store))

	// The other laundromat's receipt is absent from staff A's scope
	w := uploadVideo(t, r, receiptB.ID, domain.VideoTypeIntake, "dropoff.mp4", []byte{1, 2, 3})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestVideosByReceiptRequiresParam(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)

	r := newRouter(staff)
	r.GET("/videos/by-receipt", VideosByReceiptHandler(db, store))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/videos/by-receipt", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "receipt_id")
}

func TestListVideosCustomerScope(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	carla := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	omar := seedUser(t, db, "omar", domain.RoleCustomer, nil)
	mine := seedReceipt(t, db, laundromat.ID, carla.ID, domain.StatusPending)
	theirs := seedReceipt(t, db, laundromat.ID, omar.ID, domain.StatusPending)
	require.NoError(t, db.Create(&domain.Video{ReceiptID: mine.ID, VideoType: domain.VideoTypeIntake, VideoFile: "videos/a.mp4", FileSize: 10}).Error)
	require.NoError(t, db.Create(&domain.Video{ReceiptID: theirs.ID, VideoType: domain.VideoTypeIntake, VideoFile: "videos/b.mp4", FileSize: 10}).Error)

	r := newRouter(carla)
	r.GET("/videos", ListVideosHandler(db, store))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Videos []VideoResponse `json:"videos"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Videos, 1)
	assert.Equal(t, mine.ID, resp.Videos[0].ReceiptID)
}
