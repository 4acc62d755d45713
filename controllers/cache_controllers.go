package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/utils"
)

// CacheController exposes the admin cache-management surface.
type CacheController struct {
	Cache cache.Store
}

func NewCacheController(store cache.Store) *CacheController {
	return &CacheController{Cache: store}
}

// ClearAllCache -> flush the whole cache (admin only)
func (cc *CacheController) ClearAllCache(c *gin.Context) {
	if !isAdmin(c) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	if err := cc.Cache.FlushAll(c.Request.Context()); err != nil {
		utils.ErrorLogger.Printf("Cache flush failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("All cache cleared by user %v", c.GetUint("userID"))
	utils.RespondJSON(c, http.StatusOK, "All cache cleared successfully", nil)
}

// ClearRentalsCache -> drop every rental-related key (admin only)
func (cc *CacheController) ClearRentalsCache(c *gin.Context) {
	if !isAdmin(c) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	deleted, err := cc.Cache.DeletePattern(c.Request.Context(), cache.RentalPattern)
	if err != nil {
		utils.ErrorLogger.Printf("Clearing rentals cache failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("Cleared %d cache entries", deleted), nil)
}

// ClearRoomCache -> drop cached rental lists for one room
func (cc *CacheController) ClearRoomCache(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("room_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid room id"))
		return
	}

	deleted, err := cc.Cache.DeletePattern(c.Request.Context(), cache.RoomPattern(uint(roomID)))
	if err != nil {
		utils.ErrorLogger.Printf("Clearing cache for room %d failed: %v", roomID, err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK,
		fmt.Sprintf("Cleared %d cache entries for room %d", deleted, roomID), nil)
}

// GetCacheStats -> keyspace statistics (admin only)
func (cc *CacheController) GetCacheStats(c *gin.Context) {
	if !isAdmin(c) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	stats, err := cc.Cache.Stats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cache stats", stats)
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	return role == "admin"
}
