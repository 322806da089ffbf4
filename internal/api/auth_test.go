package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"laundry_system/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &domain.User{Username: "carla", Password: string(hash), Phone: "555-1111", Role: domain.RoleCustomer, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	r := newRouter(user)
	r.POST("/users/change-password", ChangePasswordHandler(db))

	post := func(body map[string]string) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/users/change-password", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	// Wrong existing password is rejected, nothing changes
	w := post(map[string]string{"old_password": "guess", "new_password": "fresh-secret"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")

	var stored domain.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("old-secret")))

	// Correct existing password is accepted
	w = post(map[string]string{"old_password": "old-secret", "new_password": "fresh-secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("fresh-secret")))
}

func TestRegisterAffiliationOnlyForStaff(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(&domain.User{})
	r.POST("/auth/register", RegisterHandler(db))

	laundromatID := uint(1)
	body, _ := json.Marshal(map[string]any{
		"username":      "carla",
		"password":      "secret",
		"phone":         "555-1111",
		"role":          domain.RoleCustomer,
		"laundromat_id": laundromatID,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "staff")
}
