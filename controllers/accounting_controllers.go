package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

type AccountingController struct {
	DB *gorm.DB
}

func NewAccountingController(db *gorm.DB) *AccountingController {
	return &AccountingController{DB: db}
}

type accountingReq struct {
	OldID         *int            `json:"old_id"`
	Title         string          `json:"title" binding:"required"`
	Income        decimal.Decimal `json:"income"`
	Date          time.Time       `json:"date" binding:"required"`
	EstateID      *uint           `json:"estate_id"`
	RentalID      *uint           `json:"rental_id"`
	AccountingTag string          `json:"accounting_tag"`
	PaymentMethod string          `json:"payment_method"`
}

// CreateAccounting -> append one ledger entry
func (ac *AccountingController) CreateAccounting(c *gin.Context) {
	var body accountingReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entry := models.Accounting{
		OldID:         body.OldID,
		Title:         body.Title,
		Income:        body.Income,
		Date:          body.Date,
		EstateID:      body.EstateID,
		RentalID:      body.RentalID,
		AccountingTag: body.AccountingTag,
		PaymentMethod: body.PaymentMethod,
	}
	if id, ok := c.Get("userID"); ok {
		if uid, ok := id.(uint); ok {
			entry.RecorderID = &uid
		}
	}
	if name, ok := c.Get("userName"); ok {
		if s, ok := name.(string); ok {
			entry.RecorderName = s
		}
	}

	if err := ac.DB.Create(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Accounting entry created", entry)
}

// GetAllAccountings -> paged list
func (ac *AccountingController) GetAllAccountings(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	var entries []models.Accounting
	if err := ac.DB.Offset(skip).Limit(limit).Find(&entries).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of accounting entries", entries)
}

// GetAccountingByID -> detail of one entry
func (ac *AccountingController) GetAccountingByID(c *gin.Context) {
	var entry models.Accounting
	if err := ac.DB.First(&entry, c.Param("accounting_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("accounting entry not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Accounting detail", entry)
}

type accountingPatch struct {
	Title         *string          `json:"title"`
	Income        *decimal.Decimal `json:"income"`
	Date          *time.Time       `json:"date"`
	EstateID      *uint            `json:"estate_id"`
	RentalID      *uint            `json:"rental_id"`
	AccountingTag *string          `json:"accounting_tag"`
	PaymentMethod *string          `json:"payment_method"`
}

// UpdateAccounting -> partial update of one entry
func (ac *AccountingController) UpdateAccounting(c *gin.Context) {
	var entry models.Accounting
	if err := ac.DB.First(&entry, c.Param("accounting_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("accounting entry not found"))
		return
	}

	var patch accountingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if patch.Title != nil {
		entry.Title = *patch.Title
	}
	if patch.Income != nil {
		entry.Income = *patch.Income
	}
	if patch.Date != nil {
		entry.Date = *patch.Date
	}
	if patch.EstateID != nil {
		entry.EstateID = patch.EstateID
	}
	if patch.RentalID != nil {
		entry.RentalID = patch.RentalID
	}
	if patch.AccountingTag != nil {
		entry.AccountingTag = *patch.AccountingTag
	}
	if patch.PaymentMethod != nil {
		entry.PaymentMethod = *patch.PaymentMethod
	}

	if err := ac.DB.Save(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Accounting entry updated", entry)
}

// DeleteAccounting -> remove one entry
func (ac *AccountingController) DeleteAccounting(c *gin.Context) {
	var entry models.Accounting
	if err := ac.DB.First(&entry, c.Param("accounting_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("accounting entry not found"))
		return
	}
	if err := ac.DB.Delete(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Accounting entry deleted", gin.H{"id": entry.ID})
}

// GetAccountingsByEstate -> entries for an estate, optional year/month filter
func (ac *AccountingController) GetAccountingsByEstate(c *gin.Context) {
	query := ac.DB.Where("estate_id = ?", c.Param("estate_id"))
	query, err := applyPeriodFilter(query, c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var entries []models.Accounting
	if err := query.Order("date DESC").Find(&entries).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Accounting entries for estate", entries)
}

// GetAccountingsByRental -> entries for a rental, optional year/month filter
func (ac *AccountingController) GetAccountingsByRental(c *gin.Context) {
	query := ac.DB.Where("rental_id = ?", c.Param("rental_id"))
	query, err := applyPeriodFilter(query, c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var entries []models.Accounting
	if err := query.Order("date DESC").Find(&entries).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Accounting entries for rental", entries)
}

// applyPeriodFilter narrows a ledger query to a year or a month. Date-range
// comparison keeps the filter portable across the supported drivers.
func applyPeriodFilter(query *gorm.DB, c *gin.Context) (*gorm.DB, error) {
	yearStr := c.Query("year")
	if yearStr == "" {
		return query, nil
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, fmt.Errorf("invalid year: %v", err)
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	if monthStr := c.Query("month"); monthStr != "" {
		month, err := strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			return nil, fmt.Errorf("invalid month")
		}
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}
	return query.Where("date >= ? AND date < ?", from, to), nil
}
