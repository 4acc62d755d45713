package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

type EstateController struct {
	DB  *gorm.DB
	Loc *time.Location
}

func NewEstateController(db *gorm.DB, loc *time.Location) *EstateController {
	return &EstateController{DB: db, Loc: loc}
}

// CreateEstate -> add an estate
func (ec *EstateController) CreateEstate(c *gin.Context) {
	var body struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	estate := models.Estate{
		Name:      body.Name,
		Address:   body.Address,
		CreatedAt: time.Now().In(ec.Loc),
	}
	if err := ec.DB.Create(&estate).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Estate created", estate)
}

// GetAllEstates -> list all estates
func (ec *EstateController) GetAllEstates(c *gin.Context) {
	var estates []models.Estate
	if err := ec.DB.Find(&estates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of estates", estates)
}

// GetEstateByID -> detail of one estate
func (ec *EstateController) GetEstateByID(c *gin.Context) {
	var estate models.Estate
	if err := ec.DB.First(&estate, c.Param("estate_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("estate not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Estate detail", estate)
}

// UpdateEstate -> partial update
func (ec *EstateController) UpdateEstate(c *gin.Context) {
	var estate models.Estate
	if err := ec.DB.First(&estate, c.Param("estate_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("estate not found"))
		return
	}

	var patch struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if patch.Name != nil {
		estate.Name = *patch.Name
	}
	if patch.Address != nil {
		estate.Address = *patch.Address
	}

	if err := ec.DB.Save(&estate).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Estate updated", estate)
}

// DeleteEstate -> remove an estate
func (ec *EstateController) DeleteEstate(c *gin.Context) {
	var estate models.Estate
	if err := ec.DB.First(&estate, c.Param("estate_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("estate not found"))
		return
	}
	if err := ec.DB.Delete(&estate).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Estate deleted", gin.H{"id": estate.ID})
}
