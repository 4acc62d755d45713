package Controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/controllers"
	"github.com/yuchialin/estate-app/middlewares"
	"github.com/yuchialin/estate-app/utils"
)

func setupCacheRouter(store cache.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	cacheCtrl := controllers.NewCacheController(store)
	group := router.Group("/cache")
	group.Use(middlewares.AuthMiddleware())
	{
		group.GET("/stats", cacheCtrl.GetCacheStats)
		group.DELETE("/clear", cacheCtrl.ClearAllCache)
		group.DELETE("/rentals", cacheCtrl.ClearRentalsCache)
		group.DELETE("/rentals/room/:room_id", cacheCtrl.ClearRoomCache)
	}
	return router
}

func authedRequest(t *testing.T, method, url, role string) *http.Request {
	t.Helper()
	token, err := utils.GenerateToken(42, "管理員", role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req, _ := http.NewRequest(method, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestClearAllCacheRequiresAdmin(t *testing.T) {
	utils.InitLogger()
	store := cache.NewMemoryStore()
	router := setupCacheRouter(store)

	ctx := context.Background()
	assert.NoError(t, store.Set(ctx, cache.RoomStatusKey(1, 1), "[]", time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "DELETE", "/cache/clear", "staff"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, ok := store.Get(ctx, cache.RoomStatusKey(1, 1))
	assert.True(t, ok)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "DELETE", "/cache/clear", "admin"))
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok = store.Get(ctx, cache.RoomStatusKey(1, 1))
	assert.False(t, ok)
}

func TestClearRentalsCacheDeletesOnlyRentalKeys(t *testing.T) {
	utils.InitLogger()
	store := cache.NewMemoryStore()
	router := setupCacheRouter(store)

	ctx := context.Background()
	assert.NoError(t, store.Set(ctx, cache.RoomStatusKey(1, 1), "[]", time.Hour))
	assert.NoError(t, store.Set(ctx, cache.PaymentInfoKey(2), `["2024-12-15"]`, time.Hour))
	assert.NoError(t, store.Set(ctx, "sessions:abc", "x", time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "DELETE", "/cache/rentals", "admin"))
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := store.Get(ctx, cache.RoomStatusKey(1, 1))
	assert.False(t, ok)
	_, ok = store.Get(ctx, cache.PaymentInfoKey(2))
	assert.False(t, ok)
	_, ok = store.Get(ctx, "sessions:abc")
	assert.True(t, ok)
}

func TestClearRoomCacheOpenToAllUsers(t *testing.T) {
	utils.InitLogger()
	store := cache.NewMemoryStore()
	router := setupCacheRouter(store)

	ctx := context.Background()
	assert.NoError(t, store.Set(ctx, cache.RoomStatusKey(9, 0), "[]", time.Hour))
	assert.NoError(t, store.Set(ctx, cache.RoomStatusKey(9, 1), "[]", time.Hour))
	assert.NoError(t, store.Set(ctx, cache.RoomStatusKey(10, 1), "[]", time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "DELETE", "/cache/rentals/room/9", "staff"))
	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := store.Get(ctx, cache.RoomStatusKey(9, 0))
	assert.False(t, ok)
	_, ok = store.Get(ctx, cache.RoomStatusKey(9, 1))
	assert.False(t, ok)
	_, ok = store.Get(ctx, cache.RoomStatusKey(10, 1))
	assert.True(t, ok)
}

func TestCacheStatsCountsRentalKeys(t *testing.T) {
	utils.InitLogger()
	store := cache.NewMemoryStore()
	router := setupCacheRouter(store)

	ctx := context.Background()
	assert.NoError(t, store.Set(ctx, cache.RoomStatusKey(1, 1), "[]", time.Hour))
	assert.NoError(t, store.Set(ctx, "sessions:abc", "x", time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/cache/stats", "staff"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(t, "GET", "/cache/stats", "admin"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_keys":2`)
	assert.Contains(t, w.Body.String(), `"rental_keys":1`)
}

func TestCacheEndpointsRejectMissingToken(t *testing.T) {
	utils.InitLogger()
	router := setupCacheRouter(cache.NewMemoryStore())

	req, _ := http.NewRequest("GET", "/cache/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
