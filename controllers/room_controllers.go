package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

type RoomController struct {
	DB  *gorm.DB
	Loc *time.Location
}

func NewRoomController(db *gorm.DB, loc *time.Location) *RoomController {
	return &RoomController{DB: db, Loc: loc}
}

type roomReq struct {
	EstateID   uint            `json:"estate_id" binding:"required"`
	RoomNumber string          `json:"room_number" binding:"required"`
	Floor      string          `json:"floor"`
	Size       decimal.Decimal `json:"size"`
	Facilities string          `json:"facilities"`
	PriceInfo  string          `json:"price_info"`
	Zone       string          `json:"zone"`
}

// CreateRoom -> add a room to an estate
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var body roomReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	room := models.Room{
		EstateID:   body.EstateID,
		RoomNumber: body.RoomNumber,
		Floor:      body.Floor,
		Size:       body.Size,
		Facilities: body.Facilities,
		PriceInfo:  body.PriceInfo,
		Zone:       body.Zone,
		CreatedAt:  time.Now().In(rc.Loc),
	}
	if err := rc.DB.Create(&room).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Room created", room)
}

// GetAllRooms -> list, optionally filtered by estate
func (rc *RoomController) GetAllRooms(c *gin.Context) {
	query := rc.DB.Where("deleted_at IS NULL")
	if estateID := c.Query("estate_id"); estateID != "" {
		query = query.Where("estate_id = ?", estateID)
	}

	var rooms []models.Room
	if err := query.Find(&rooms).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of rooms", rooms)
}

// GetRoomByID -> detail of one room
func (rc *RoomController) GetRoomByID(c *gin.Context) {
	var room models.Room
	if err := rc.DB.First(&room, c.Param("room_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("room not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Room detail", room)
}

type roomPatch struct {
	EstateID   *uint            `json:"estate_id"`
	RoomNumber *string          `json:"room_number"`
	Floor      *string          `json:"floor"`
	Size       *decimal.Decimal `json:"size"`
	Facilities *string          `json:"facilities"`
	PriceInfo  *string          `json:"price_info"`
	Zone       *string          `json:"zone"`
}

// UpdateRoom -> partial update
func (rc *RoomController) UpdateRoom(c *gin.Context) {
	var room models.Room
	if err := rc.DB.First(&room, c.Param("room_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("room not found"))
		return
	}

	var patch roomPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if patch.EstateID != nil {
		room.EstateID = *patch.EstateID
	}
	if patch.RoomNumber != nil {
		room.RoomNumber = *patch.RoomNumber
	}
	if patch.Floor != nil {
		room.Floor = *patch.Floor
	}
	if patch.Size != nil {
		room.Size = *patch.Size
	}
	if patch.Facilities != nil {
		room.Facilities = *patch.Facilities
	}
	if patch.PriceInfo != nil {
		room.PriceInfo = *patch.PriceInfo
	}
	if patch.Zone != nil {
		room.Zone = *patch.Zone
	}

	if err := rc.DB.Save(&room).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Room updated", room)
}

// DeleteRoom -> soft delete, historical rentals keep pointing at the row
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	var room models.Room
	if err := rc.DB.First(&room, c.Param("room_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("room not found"))
		return
	}

	now := time.Now().In(rc.Loc)
	room.DeletedAt = &now
	if err := rc.DB.Save(&room).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Room deleted", gin.H{"id": room.ID})
}
