package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/controllers"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

func setupTestDBForRentals(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Estate{},
		&models.Room{},
		&models.Tenant{},
		&models.Rental{},
		&models.ElectricRecord{},
		&models.Accounting{},
		&models.CheckoutRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupRentalRouter(db *gorm.DB, store cache.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	rentalCtrl := controllers.NewRentalController(db, store, time.UTC)
	router.GET("/rentals/room/:room_id/status/:status", rentalCtrl.GetRentalsByRoomStatus)
	router.POST("/rentals", rentalCtrl.CreateRental)
	router.GET("/rentals/payment_info/:rental_id", rentalCtrl.GetPaymentInfo)
	router.GET("/rentals/:rental_id", rentalCtrl.GetRental)
	router.PUT("/rentals/:rental_id", rentalCtrl.UpdateRental)
	router.DELETE("/rentals/:rental_id", rentalCtrl.DeleteRental)
	return router
}

func seedRental(t *testing.T, db *gorm.DB, roomID uint, status string) models.Rental {
	t.Helper()
	end := time.Date(2099, time.June, 15, 0, 0, 0, 0, time.UTC)
	rental := models.Rental{
		RoomID:     roomID,
		TenantID:   1,
		StartDate:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		EndDate:    &end,
		Deposit:    decimal.NewFromInt(5000),
		RentalInfo: models.RentalTerms{PaymentFrequency: models.FreqMonthly}.Encode(),
		Status:     status,
		CreatedAt:  time.Now(),
	}
	if err := db.Create(&rental).Error; err != nil {
		t.Fatalf("seed rental: %v", err)
	}
	return rental
}

func TestCreateRentalWithTenant(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	router := setupRentalRouter(db, cache.NewMemoryStore())

	body := map[string]interface{}{
		"rental": map[string]interface{}{
			"room_id":     10,
			"start_date":  "2024-06-15",
			"end_date":    "2025-06-15",
			"deposit":     8000,
			"rental_info": `{"money":"月繳","early_checkin":false,"initial_electric_reading":120.5}`,
		},
		"tenant": map[string]interface{}{
			"name":         "王小明",
			"contact_info": "0912-345-678",
			"id_number":    "A123456789",
		},
	}
	payload, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/rentals", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var rentals []models.Rental
	db.Where("room_id = ? AND status = ?", 10, models.RentalStatusActive).Find(&rentals)
	assert.Len(t, rentals, 1)

	var tenant models.Tenant
	assert.NoError(t, db.First(&tenant, rentals[0].TenantID).Error)
	assert.Equal(t, "王小明", tenant.Name)

	// A second active rental for the same room must be rejected.
	req, _ = http.NewRequest("POST", "/rentals", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "已有成立的租約")

	db.Where("room_id = ? AND status = ?", 10, models.RentalStatusActive).Find(&rentals)
	assert.Len(t, rentals, 1)

	// The losing request must not leave an orphan tenant behind.
	var tenantCount int64
	db.Model(&models.Tenant{}).Count(&tenantCount)
	assert.EqualValues(t, 1, tenantCount)
}

func TestCreateRentalMalformedTerms(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	router := setupRentalRouter(db, cache.NewMemoryStore())

	body := map[string]interface{}{
		"rental": map[string]interface{}{
			"room_id":     3,
			"start_date":  "2024-06-15",
			"rental_info": "{broken",
		},
		"tenant": map[string]interface{}{"name": "王小明"},
	}
	payload, _ := json.Marshal(body)

	req, _ := http.NewRequest("POST", "/rentals", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Cache hits must be field-equivalent to cache misses for the same state.
func TestGetRentalsByRoomStatusCacheEquivalence(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	store := cache.NewMemoryStore()
	router := setupRentalRouter(db, store)

	seedRental(t, db, 7, models.RentalStatusActive)
	seedRental(t, db, 7, models.RentalStatusInactive)

	req, _ := http.NewRequest("GET", "/rentals/room/7/status/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	missBody := w.Body.String()

	_, cached := store.Get(req.Context(), cache.RoomStatusKey(7, 1))
	assert.True(t, cached)

	req, _ = http.NewRequest("GET", "/rentals/room/7/status/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	hitBody := w.Body.String()

	assert.JSONEq(t, missBody, hitBody)

	var resp struct {
		Data []models.Rental `json:"data"`
	}
	assert.NoError(t, json.Unmarshal([]byte(hitBody), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, models.RentalStatusActive, resp.Data[0].Status)
}

func TestGetRentalsByRoomStatusRejectsBadStatus(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	router := setupRentalRouter(db, cache.NewMemoryStore())

	req, _ := http.NewRequest("GET", "/rentals/room/7/status/2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRentalInvalidatesCache(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	store := cache.NewMemoryStore()
	router := setupRentalRouter(db, store)

	rental := seedRental(t, db, 5, models.RentalStatusActive)

	// Prime both cache classes.
	req, _ := http.NewRequest("GET", "/rentals/room/5/status/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	req, _ = http.NewRequest("GET", fmt.Sprintf("/rentals/payment_info/%d", rental.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	_, ok := store.Get(req.Context(), cache.RoomStatusKey(5, 1))
	assert.True(t, ok)
	_, ok = store.Get(req.Context(), cache.PaymentInfoKey(rental.ID))
	assert.True(t, ok)

	payload := []byte(`{"deposit": 9999}`)
	req, _ = http.NewRequest("PUT", fmt.Sprintf("/rentals/%d", rental.ID), bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The pre-mutation snapshots must be gone.
	_, ok = store.Get(req.Context(), cache.RoomStatusKey(5, 1))
	assert.False(t, ok)
	_, ok = store.Get(req.Context(), cache.PaymentInfoKey(rental.ID))
	assert.False(t, ok)

	// A fresh read reflects the mutation.
	req, _ = http.NewRequest("GET", "/rentals/room/5/status/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp struct {
		Data []models.Rental `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.True(t, resp.Data[0].Deposit.Equal(decimal.NewFromInt(9999)))
}

func TestDeleteRentalInvalidatesCache(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	store := cache.NewMemoryStore()
	router := setupRentalRouter(db, store)

	rental := seedRental(t, db, 8, models.RentalStatusActive)

	req, _ := http.NewRequest("GET", "/rentals/room/8/status/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_, ok := store.Get(req.Context(), cache.RoomStatusKey(8, 1))
	assert.True(t, ok)

	req, _ = http.NewRequest("DELETE", fmt.Sprintf("/rentals/%d", rental.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok = store.Get(req.Context(), cache.RoomStatusKey(8, 1))
	assert.False(t, ok)

	req, _ = http.NewRequest("GET", fmt.Sprintf("/rentals/%d", rental.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPaymentInfo(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForRentals(t)
	router := setupRentalRouter(db, cache.NewMemoryStore())

	rental := seedRental(t, db, 2, models.RentalStatusActive)

	req, _ := http.NewRequest("GET", fmt.Sprintf("/rentals/payment_info/%d", rental.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data)
	today := time.Now().UTC().Format(time.DateOnly)
	for _, d := range resp.Data {
		assert.GreaterOrEqual(t, d, today)
	}

	// Unknown frequency projects an empty schedule, not an error.
	unknown := seedRental(t, db, 3, models.RentalStatusActive)
	db.Model(&models.Rental{}).Where("id = ?", unknown.ID).
		Update("rental_info", models.RentalTerms{PaymentFrequency: "週繳"}.Encode())

	req, _ = http.NewRequest("GET", fmt.Sprintf("/rentals/payment_info/%d", unknown.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)

	req, _ = http.NewRequest("GET", "/rentals/payment_info/99999", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
