package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/services"
	"github.com/yuchialin/estate-app/utils"
)

type RentalController struct {
	DB        *gorm.DB
	Cache     cache.Store
	Loc       *time.Location
	Schedules *services.ScheduleService
}

func NewRentalController(db *gorm.DB, store cache.Store, loc *time.Location) *RentalController {
	return &RentalController{
		DB:        db,
		Cache:     store,
		Loc:       loc,
		Schedules: services.NewScheduleService(db, store, loc),
	}
}

type rentalCreateReq struct {
	OldID      *int            `json:"old_id"`
	RoomID     uint            `json:"room_id" binding:"required"`
	StartDate  string          `json:"start_date" binding:"required"`
	EndDate    *string         `json:"end_date"`
	Deposit    decimal.Decimal `json:"deposit"`
	RentalInfo string          `json:"rental_info"`
	Status     string          `json:"status"`
}

type tenantCreateReq struct {
	Name        string `json:"name" binding:"required"`
	ContactInfo string `json:"contact_info"`
	IDNumber    string `json:"id_number"`
}

// GetRentalsByRoomStatus -> cached rental list for a room and status flag
// (1=active, 0=inactive).
func (rc *RentalController) GetRentalsByRoomStatus(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("room_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid room id"))
		return
	}
	status, err := strconv.Atoi(c.Param("status"))
	if err != nil || (status != 0 && status != 1) {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("status must be 0 or 1"))
		return
	}

	key := cache.RoomStatusKey(uint(roomID), status)
	if raw, ok := rc.Cache.Get(c.Request.Context(), key); ok {
		var rentals []models.Rental
		if err := json.Unmarshal([]byte(raw), &rentals); err == nil {
			utils.InfoLogger.Printf("Cache hit for %s", key)
			utils.RespondJSON(c, http.StatusOK, "List of rentals", rentals)
			return
		}
		utils.ErrorLogger.Printf("Discarding corrupt cache entry %s", key)
	}
	utils.InfoLogger.Printf("Cache miss for %s, querying database", key)

	statusStr := models.RentalStatusInactive
	if status == 1 {
		statusStr = models.RentalStatusActive
	}

	var rentals []models.Rental
	if err := rc.DB.Where("room_id = ? AND status = ?", roomID, statusStr).Find(&rentals).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if snapshot, err := json.Marshal(rentals); err == nil {
		if err := rc.Cache.Set(c.Request.Context(), key, string(snapshot), cache.RoomStatusTTL); err != nil {
			utils.ErrorLogger.Printf("Failed to cache %s: %v", key, err)
		}
	}

	utils.RespondJSON(c, http.StatusOK, "List of rentals", rentals)
}

// CreateRental -> create a rental together with its tenant in one
// transaction. Rejected when the room already has an active rental.
func (rc *RentalController) CreateRental(c *gin.Context) {
	var body struct {
		Rental rentalCreateReq `json:"rental" binding:"required"`
		Tenant tenantCreateReq `json:"tenant" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	startDate, err := time.ParseInLocation(time.DateOnly, body.Rental.StartDate, rc.Loc)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid start_date: %v", err))
		return
	}
	var endDate *time.Time
	if body.Rental.EndDate != nil {
		d, err := time.ParseInLocation(time.DateOnly, *body.Rental.EndDate, rc.Loc)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid end_date: %v", err))
			return
		}
		if d.Before(startDate) {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("end_date before start_date"))
			return
		}
		endDate = &d
	}
	if _, err := models.ParseTerms(body.Rental.RentalInfo); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	status := models.RentalStatusActive
	if body.Rental.Status != "" {
		status = body.Rental.Status
	}

	rental := models.Rental{
		OldID:      body.Rental.OldID,
		RoomID:     body.Rental.RoomID,
		StartDate:  startDate,
		EndDate:    endDate,
		Deposit:    body.Rental.Deposit,
		RentalInfo: body.Rental.RentalInfo,
		Status:     status,
		CreatedAt:  time.Now().In(rc.Loc),
	}
	tenant := models.Tenant{
		Name:        body.Tenant.Name,
		ContactInfo: body.Tenant.ContactInfo,
		IDNumber:    body.Tenant.IDNumber,
		CreatedAt:   time.Now().In(rc.Loc),
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the room row first; the locking count below pins no rows
		// when the room has no rentals yet.
		var room models.Room
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&room, rental.RoomID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var active int64
		if err := services.ActiveRentals(tx, rental.RoomID).Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("room %d already has an active rental: %w", rental.RoomID, ErrActiveRental)
		}

		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		rental.TenantID = tenant.ID
		return tx.Create(&rental).Error
	})
	if err != nil {
		utils.ErrorLogger.Printf("Create rental for room %d failed: %v", rental.RoomID, err)
		if errors.Is(err, ErrActiveRental) {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("%d 已有成立的租約", rental.RoomID))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if _, err := rc.Cache.DeletePattern(c.Request.Context(), cache.RoomPattern(rental.RoomID)); err != nil {
		utils.ErrorLogger.Printf("Failed to invalidate cache for room %d: %v", rental.RoomID, err)
	}

	utils.InfoLogger.Printf("Rental %d created for room %d (tenant %d)", rental.ID, rental.RoomID, tenant.ID)
	utils.RespondJSON(c, http.StatusCreated, "Rental created", gin.H{
		"rental": rental,
		"tenant": tenant,
	})
}

// GetRental -> detail of one rental
func (rc *RentalController) GetRental(c *gin.Context) {
	var rental models.Rental
	if err := rc.DB.First(&rental, c.Param("rental_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("rental not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Rental detail", rental)
}

// rentalPatch lists the fields eligible for partial update; absent fields
// are left untouched.
type rentalPatch struct {
	OldID      *int             `json:"old_id"`
	RoomID     *uint            `json:"room_id"`
	TenantID   *uint            `json:"tenant_id"`
	StartDate  *string          `json:"start_date"`
	EndDate    *string          `json:"end_date"`
	Deposit    *decimal.Decimal `json:"deposit"`
	RentalInfo *string          `json:"rental_info"`
	Status     *string          `json:"status"`
}

// UpdateRental -> partial update; cache invalidation happens after the
// commit so readers never see a stale-then-missing window.
func (rc *RentalController) UpdateRental(c *gin.Context) {
	var rental models.Rental
	if err := rc.DB.First(&rental, c.Param("rental_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("rental not found"))
		return
	}
	oldRoomID := rental.RoomID

	var patch rentalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if patch.OldID != nil {
		rental.OldID = patch.OldID
	}
	if patch.RoomID != nil {
		rental.RoomID = *patch.RoomID
	}
	if patch.TenantID != nil {
		rental.TenantID = *patch.TenantID
	}
	if patch.StartDate != nil {
		d, err := time.ParseInLocation(time.DateOnly, *patch.StartDate, rc.Loc)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid start_date: %v", err))
			return
		}
		rental.StartDate = d
	}
	if patch.EndDate != nil {
		d, err := time.ParseInLocation(time.DateOnly, *patch.EndDate, rc.Loc)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid end_date: %v", err))
			return
		}
		rental.EndDate = &d
	}
	if patch.Deposit != nil {
		rental.Deposit = *patch.Deposit
	}
	if patch.RentalInfo != nil {
		if _, err := models.ParseTerms(*patch.RentalInfo); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		rental.RentalInfo = *patch.RentalInfo
	}
	if patch.Status != nil {
		rental.Status = *patch.Status
	}

	if err := rc.DB.Save(&rental).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rc.invalidateRental(c, oldRoomID, rental.ID)
	if rental.RoomID != oldRoomID {
		if _, err := rc.Cache.DeletePattern(c.Request.Context(), cache.RoomPattern(rental.RoomID)); err != nil {
			utils.ErrorLogger.Printf("Failed to invalidate cache for room %d: %v", rental.RoomID, err)
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Rental updated", rental)
}

// DeleteRental -> hard delete, independent of checkout
func (rc *RentalController) DeleteRental(c *gin.Context) {
	var rental models.Rental
	if err := rc.DB.First(&rental, c.Param("rental_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("rental not found"))
		return
	}

	roomID := rental.RoomID
	if err := rc.DB.Delete(&rental).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rc.invalidateRental(c, roomID, rental.ID)

	utils.InfoLogger.Printf("Rental %d deleted", rental.ID)
	utils.RespondJSON(c, http.StatusOK, "Rental deleted", gin.H{"id": rental.ID})
}

// GetPaymentInfo -> upcoming payment due dates, cached up to 24h
func (rc *RentalController) GetPaymentInfo(c *gin.Context) {
	rentalID, err := strconv.ParseUint(c.Param("rental_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid rental id"))
		return
	}

	dates, err := rc.Schedules.UpcomingPaymentDates(c.Request.Context(), uint(rentalID))
	if err != nil {
		if errors.Is(err, services.ErrRentalNotFound) {
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("rental not found"))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	utils.RespondJSON(c, http.StatusOK, "Upcoming payment dates", dates)
}

func (rc *RentalController) invalidateRental(c *gin.Context, roomID, rentalID uint) {
	ctx := c.Request.Context()
	if _, err := rc.Cache.DeletePattern(ctx, cache.RoomPattern(roomID)); err != nil {
		utils.ErrorLogger.Printf("Failed to invalidate cache for room %d: %v", roomID, err)
	}
	if err := rc.Cache.Delete(ctx, cache.PaymentInfoKey(rentalID)); err != nil {
		utils.ErrorLogger.Printf("Failed to invalidate payment cache for rental %d: %v", rentalID, err)
	}
}
