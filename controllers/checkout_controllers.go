package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/services"
	"github.com/yuchialin/estate-app/utils"
)

type CheckoutController struct {
	DB      *gorm.DB
	Service *services.CheckoutService
}

func NewCheckoutController(db *gorm.DB, store cache.Store, loc *time.Location) *CheckoutController {
	return &CheckoutController{
		DB:      db,
		Service: services.NewCheckoutService(db, store, loc),
	}
}

type checkoutReq struct {
	CheckoutReason        string          `json:"checkout_reason" binding:"required"`
	CheckoutDate          time.Time       `json:"checkout_date" binding:"required"`
	FinalElectricReading  *float64        `json:"final_electric_reading"`
	TotalSettlementAmount decimal.Decimal `json:"total_settlement_amount"`
	Notes                 string          `json:"notes"`
}

// Checkout -> settle and close an active rental
func (cc *CheckoutController) Checkout(c *gin.Context) {
	rentalID, err := strconv.ParseUint(c.Param("rental_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid rental id"))
		return
	}

	var body checkoutReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	actor := actorFromContext(c)
	result, err := cc.Service.Checkout(c.Request.Context(), uint(rentalID), services.CheckoutRequest{
		Reason:               body.CheckoutReason,
		Date:                 body.CheckoutDate,
		FinalElectricReading: body.FinalElectricReading,
		SettlementAmount:     body.TotalSettlementAmount,
		Notes:                body.Notes,
	}, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRentalNotFound):
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("no active rental found"))
		case errors.Is(err, services.ErrRoomNotFound):
			utils.RespondError(c, http.StatusNotFound, fmt.Errorf("room not found"))
		default:
			utils.ErrorLogger.Printf("Checkout of rental %d failed: %v", rentalID, err)
			utils.RespondError(c, http.StatusInternalServerError, err)
		}
		return
	}

	utils.InfoLogger.Printf("Rental %d checked out by %s (settlement %s)",
		result.RentalID, actor.Name, result.SettlementAmount.StringFixed(2))
	utils.RespondJSON(c, http.StatusOK, "Rental checked out", result)
}

// CheckoutPreview -> read-only settlement preview, always computed live
func (cc *CheckoutController) CheckoutPreview(c *gin.Context) {
	rentalID, err := strconv.ParseUint(c.Param("rental_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid rental id"))
		return
	}

	preview, err := cc.Service.Preview(c.Request.Context(), uint(rentalID))
	if err != nil {
		if errors.Is(err, services.ErrRentalNotFound) || errors.Is(err, services.ErrRoomNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout preview", preview)
}

// GetAllCheckoutRecords -> historical records, optional date range filter
func (cc *CheckoutController) GetAllCheckoutRecords(c *gin.Context) {
	query := cc.DB.Order("checkout_date DESC")

	if from := c.Query("start_date"); from != "" {
		d, err := time.Parse(time.DateOnly, from)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid start_date: %v", err))
			return
		}
		query = query.Where("checkout_date >= ?", d)
	}
	if to := c.Query("end_date"); to != "" {
		d, err := time.Parse(time.DateOnly, to)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid end_date: %v", err))
			return
		}
		query = query.Where("checkout_date < ?", d.AddDate(0, 0, 1))
	}

	var records []models.CheckoutRecord
	if err := query.Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of checkout records", records)
}

// GetCheckoutRecordsByRoom -> records for one room
func (cc *CheckoutController) GetCheckoutRecordsByRoom(c *gin.Context) {
	var records []models.CheckoutRecord
	if err := cc.DB.
		Where("room_id = ?", c.Param("room_id")).
		Order("checkout_date DESC").
		Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout records for room", records)
}

// GetCheckoutRecordsByRental -> records for one rental
func (cc *CheckoutController) GetCheckoutRecordsByRental(c *gin.Context) {
	var records []models.CheckoutRecord
	if err := cc.DB.
		Where("rental_id = ?", c.Param("rental_id")).
		Order("checkout_date DESC").
		Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout records for rental", records)
}

// actorFromContext reads the verified identity set by the auth middleware.
func actorFromContext(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if id, ok := c.Get("userID"); ok {
		if uid, ok := id.(uint); ok {
			actor.ID = uid
		}
	}
	if name, ok := c.Get("userName"); ok {
		if s, ok := name.(string); ok {
			actor.Name = s
		}
	}
	return actor
}
