package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"laundry_system/internal/domain"
	"laundry_system/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReceipt(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)

	r := newRouter(staff)
	r.POST("/receipts", CreateReceiptHandler(db, store, nil))

	body, _ := json.Marshal(map[string]any{
		"laundromat_id":        laundromat.ID,
		"customer_id":          customer.ID,
		"expected_pickup_date": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"items_description":    "3 shirts, 1 coat",
		"items_count":          4,
		"price":                24.50,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/receipts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp ReceiptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Receipt number matches the generated format
	assert.Regexp(t, regexp.MustCompile(`^LV-[0-9A-Z]{8}$`), resp.ReceiptNumber)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.True(t, resp.IsActive)
	assert.Nil(t, resp.ActualPickupDate)

	// The QR attachment was uploaded and encodes the receipt number
	qrKey := "qr_codes/qr_" + resp.ReceiptNumber + ".png"
	stored, ok := store.objects[qrKey]
	require.True(t, ok, "QR image missing from blob store")
	require.NotEmpty(t, stored)
	want, err := utils.EncodeReceiptQR(resp.ReceiptNumber)
	require.NoError(t, err)
	assert.Equal(t, want, stored)
	assert.Equal(t, store.URL(qrKey), resp.QRCodeURL)
}

func TestCreateReceiptStorageFailureAborts(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	store.fail = domain.ErrStorageUnavailable
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)

	r := newRouter(staff)
	r.POST("/receipts", CreateReceiptHandler(db, store, nil))

	body, _ := json.Marshal(map[string]any{
		"laundromat_id":        laundromat.ID,
		"customer_id":          customer.ID,
		"expected_pickup_date": time.Now().Add(time.Hour).Format(time.RFC3339),
		"items_description":    "towels",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/receipts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	// No partial record committed
	var count int64
	require.NoError(t, db.Model(&domain.Receipt{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteReceipt(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	receipt := seedReceipt(t, db, laundromat.ID, customer.ID, domain.StatusReady)

	completedAt := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	orig := domain.Now
	domain.Now = func() time.Time { return completedAt }
	defer func() { domain.Now = orig }()

	r := newRouter(staff)
	r.POST("/receipts/:id/complete", CompleteReceiptHandler(db, store, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/receipts/%d/complete", receipt.ID), nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored domain.Receipt
	require.NoError(t, db.First(&stored, receipt.ID).Error)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	require.NotNil(t, stored.ActualPickupDate)
	assert.Equal(t, completedAt.Unix(), stored.ActualPickupDate.Unix())

	// Completing again fails and leaves the timestamp untouched
	domain.Now = func() time.Time { return completedAt.Add(2 * time.Hour) }
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/receipts/%d/complete", receipt.ID), nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already_completed")

	require.NoError(t, db.First(&stored, receipt.ID).Error)
	require.NotNil(t, stored.ActualPickupDate)
	assert.Equal(t, completedAt.Unix(), stored.ActualPickupDate.Unix())
}

func TestUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	staff := seedUser(t, db, "sam", domain.RoleStaff, &laundromat.ID)
	customer := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	receipt := seedReceipt(t, db, laundromat.ID, customer.ID, domain.StatusPending)

	r := newRouter(staff)
	r.PATCH("/receipts/:id/status", UpdateStatusHandler(db, store, nil))

	// Any known status is accepted, no transition graph
	body, _ := json.Marshal(map[string]string{"status": domain.StatusDrying})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/receipts/%d/status", receipt.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored domain.Receipt
	require.NoError(t, db.First(&stored, receipt.ID).Error)
	assert.Equal(t, domain.StatusDrying, stored.Status)

	// Unknown status values are rejected
	body, _ = json.Marshal(map[string]string{"status": "ironing"})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/receipts/%d/status", receipt.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListReceiptsScoping(t *testing.T) {
	db := newTestDB(t)
	laundromatA := seedLaundromat(t, db, "Suds Central")
	laundromatB := seedLaundromat(t, db, "Spin City")
	staffA := seedUser(t, db, "sam", domain.RoleStaff, &laundromatA.ID)
	carla := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	omar := seedUser(t, db, "omar", domain.RoleCustomer, nil)
	seedReceipt(t, db, laundromatA.ID, carla.ID, domain.StatusPending)
	seedReceipt(t, db, laundromatA.ID, omar.ID, domain.StatusWashing)
	seedReceipt(t, db, laundromatB.ID, carla.ID, domain.StatusReady)

	list := func(user *domain.User) []ReceiptListItem {
		r := newRouter(user)
		r.GET("/receipts", ListReceiptsHandler(db))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/receipts", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Receipts []ReceiptListItem `json:"receipts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Receipts
	}

	// A customer only ever sees their own receipts
	for _, item := range list(carla) {
		assert.Equal(t, "carla", item.CustomerName)
	}
	assert.Len(t, list(carla), 2)

	// Staff only ever see their laundromat's receipts
	for _, item := range list(staffA) {
		assert.Equal(t, "Suds Central", item.LaundromatName)
	}
	assert.Len(t, list(staffA), 2)
}

func TestGetReceiptOutsideScopeIsAbsent(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	carla := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	omar := seedUser(t, db, "omar", domain.RoleCustomer, nil)
	receipt := seedReceipt(t, db, laundromat.ID, omar.ID, domain.StatusPending)

	r := newRouter(carla)
	r.GET("/receipts/:id", GetReceiptHandler(db, store))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/receipts/%d", receipt.ID), nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code) // absent, not leaked
}

func TestReceiptQR(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	laundromat := seedLaundromat(t, db, "Suds Central")
	carla := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	receipt := seedReceipt(t, db, laundromat.ID, carla.ID, domain.StatusPending)

	r := newRouter(carla)
	r.GET("/receipts/:id/qr", ReceiptQRHandler(db, store))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/receipts/%d/qr", receipt.ID), nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), receipt.ReceiptNumber)
	assert.Contains(t, w.Body.String(), store.URL(receipt.QRCode))
}

func TestLaundromatActiveReceiptsCount(t *testing.T) {
	db := newTestDB(t)
	laundromat := seedLaundromat(t, db, "Suds Central")
	carla := seedUser(t, db, "carla", domain.RoleCustomer, nil)
	seedReceipt(t, db, laundromat.ID, carla.ID, domain.StatusPending)
	active := seedReceipt(t, db, laundromat.ID, carla.ID, domain.StatusReady)
	seedReceipt(t, db, laundromat.ID, carla.ID, domain.StatusCancelled)

	_, count, err := laundromatCounts(db, laundromat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Completing one active receipt decreases the count by exactly one
	require.NoError(t, db.Model(active).Update("status", domain.StatusCompleted).Error)
	_, count, err = laundromatCounts(db, laundromat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
