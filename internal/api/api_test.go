package api

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"laundry_system/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// newTestDB opens a fresh in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:api%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Laundromat{}, &domain.User{}, &domain.Receipt{}, &domain.Video{}))
	return db
}

// fakeStore is an in-memory blob store for handler tests
type fakeStore struct {
	objects map[string][]byte
	fail    error // When set, every upload fails with this error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Upload(_ context.Context, objectKey string, data []byte, _ string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	s.objects[objectKey] = data
	return objectKey, nil
}

func (s *fakeStore) URL(objectKey string) string {
	return "http://blob.test/laundry/" + objectKey
}

// newRouter builds a gin engine that authenticates every request as the
// given user, bypassing the JWT layer
func newRouter(user *domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Set("currentUser", user)
		c.Next()
	})
	return r
}

// seedLaundromat creates a laundromat for tests
func seedLaundromat(t *testing.T, db *gorm.DB, name string) *domain.Laundromat {
	t.Helper()
	l := domain.Laundromat{Name: name, Address: "1 Wash St", Phone: "555-0000", IsActive: true}
	require.NoError(t, db.Create(&l).Error)
	return &l
}

// seedUser creates a user with the given role and optional affiliation
func seedUser(t *testing.T, db *gorm.DB, username, role string, laundromatID *uint) *domain.User {
	t.Helper()
	u := domain.User{
		Username:     username,
		Password:     "hash",
		Phone:        "555-" + username,
		Role:         role,
		LaundromatID: laundromatID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// seedReceipt creates a receipt in the given status
func seedReceipt(t *testing.T, db *gorm.DB, laundromatID, customerID uint, status string) *domain.Receipt {
	t.Helper()
	r := domain.Receipt{
		ReceiptNumber:      domain.GenerateReceiptNumber(),
		LaundromatID:       laundromatID,
		CustomerID:         customerID,
		Status:             status,
		DropOffDate:        time.Now(),
		ExpectedPickupDate: time.Now().Add(48 * time.Hour),
		ItemsDescription:   "assorted laundry",
		ItemsCount:         4,
		Price:              19.99,
		QRCode:             "qr_codes/qr_test.png",
	}
	require.NoError(t, db.Create(&r).Error)
	return &r
}
