package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/services"
	"github.com/yuchialin/estate-app/utils"
)

type ElectricRecordController struct {
	DB      *gorm.DB
	Service *services.ElectricService
	Loc     *time.Location
}

func NewElectricRecordController(db *gorm.DB, loc *time.Location) *ElectricRecordController {
	return &ElectricRecordController{
		DB:      db,
		Service: services.NewElectricService(db),
		Loc:     loc,
	}
}

// GetAllElectricRecords -> paged list
func (ec *ElectricRecordController) GetAllElectricRecords(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	var records []models.ElectricRecord
	if err := ec.DB.Offset(skip).Limit(limit).Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of electric records", records)
}

// SearchElectricRecords -> readings for one room and year
func (ec *ElectricRecordController) SearchElectricRecords(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Query("room_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid room_id"))
		return
	}
	year, err := strconv.Atoi(c.Query("record_year"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid record_year"))
		return
	}

	var records []models.ElectricRecord
	if err := ec.DB.
		Where("room_id = ? AND record_year = ?", roomID, year).
		Order("record_month").
		Find(&records).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Electric records", records)
}

// GetUsage -> consumption delta between two recorded periods
func (ec *ElectricRecordController) GetUsage(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Query("room_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid room_id"))
		return
	}
	fromYear, err1 := strconv.Atoi(c.Query("from_year"))
	fromMonth, err2 := strconv.Atoi(c.Query("from_month"))
	toYear, err3 := strconv.Atoi(c.Query("to_year"))
	toMonth, err4 := strconv.Atoi(c.Query("to_month"))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("from_year, from_month, to_year and to_month are required"))
		return
	}

	usage, err := ec.Service.UsageBetween(c.Request.Context(), uint(roomID), fromYear, fromMonth, toYear, toMonth)
	if err != nil {
		if errors.Is(err, services.ErrMeterData) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Electric usage", usage)
}

type electricRecordReq struct {
	RoomID      uint    `json:"room_id" binding:"required"`
	Reading     float64 `json:"reading"`
	RecordYear  int     `json:"record_year" binding:"required"`
	RecordMonth int     `json:"record_month" binding:"required"`
}

// CreateElectricRecord -> one reading per room and period; duplicates for
// the same (room, year, month) are rejected.
func (ec *ElectricRecordController) CreateElectricRecord(c *gin.Context) {
	var body electricRecordReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.RecordMonth < 1 || body.RecordMonth > 12 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("record_month must be 1-12"))
		return
	}

	exists, err := ec.Service.HasRecordForPeriod(c.Request.Context(), body.RoomID, body.RecordYear, body.RecordMonth)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if exists {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("room %d already has a reading for %d-%02d", body.RoomID, body.RecordYear, body.RecordMonth))
		return
	}

	record := models.ElectricRecord{
		RoomID:      body.RoomID,
		Reading:     body.Reading,
		RecordYear:  body.RecordYear,
		RecordMonth: body.RecordMonth,
		UpdatedAt:   time.Now().In(ec.Loc),
	}
	if id, ok := c.Get("userID"); ok {
		if uid, ok := id.(uint); ok {
			record.RecorderID = &uid
		}
	}

	if err := ec.DB.Create(&record).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Electric record created", record)
}

// GetElectricRecordByID -> detail of one reading
func (ec *ElectricRecordController) GetElectricRecordByID(c *gin.Context) {
	var record models.ElectricRecord
	if err := ec.DB.First(&record, c.Param("record_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("electric record not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Electric record detail", record)
}

type electricRecordPatch struct {
	Reading     *float64 `json:"reading"`
	RecordYear  *int     `json:"record_year"`
	RecordMonth *int     `json:"record_month"`
}

// UpdateElectricRecord -> correct a reading
func (ec *ElectricRecordController) UpdateElectricRecord(c *gin.Context) {
	var record models.ElectricRecord
	if err := ec.DB.First(&record, c.Param("record_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("electric record not found"))
		return
	}

	var patch electricRecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if patch.Reading != nil {
		record.Reading = *patch.Reading
	}
	if patch.RecordYear != nil {
		record.RecordYear = *patch.RecordYear
	}
	if patch.RecordMonth != nil {
		if *patch.RecordMonth < 1 || *patch.RecordMonth > 12 {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("record_month must be 1-12"))
			return
		}
		record.RecordMonth = *patch.RecordMonth
	}
	if id, ok := c.Get("userID"); ok {
		if uid, ok := id.(uint); ok {
			record.RecorderID = &uid
		}
	}
	record.UpdatedAt = time.Now().In(ec.Loc)

	if err := ec.DB.Save(&record).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Electric record updated", record)
}

// DeleteElectricRecord -> remove a reading
func (ec *ElectricRecordController) DeleteElectricRecord(c *gin.Context) {
	var record models.ElectricRecord
	if err := ec.DB.First(&record, c.Param("record_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("electric record not found"))
		return
	}
	if err := ec.DB.Delete(&record).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Electric record deleted", gin.H{"id": record.ID})
}
