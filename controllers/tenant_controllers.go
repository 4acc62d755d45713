package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

// TenantController exposes the read/update surface for tenants. Creation
// happens only through rental creation.
type TenantController struct {
	DB *gorm.DB
}

func NewTenantController(db *gorm.DB) *TenantController {
	return &TenantController{DB: db}
}

// GetAllTenants -> paged list
func (tc *TenantController) GetAllTenants(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	var tenants []models.Tenant
	if err := tc.DB.Offset(skip).Limit(limit).Find(&tenants).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tenants", tenants)
}

// GetTenantByID -> detail of one tenant
func (tc *TenantController) GetTenantByID(c *gin.Context) {
	var tenant models.Tenant
	if err := tc.DB.First(&tenant, c.Param("tenant_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("tenant not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tenant detail", tenant)
}

// UpdateTenant -> partial update of contact data
func (tc *TenantController) UpdateTenant(c *gin.Context) {
	var tenant models.Tenant
	if err := tc.DB.First(&tenant, c.Param("tenant_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("tenant not found"))
		return
	}

	var patch struct {
		Name        *string `json:"name"`
		ContactInfo *string `json:"contact_info"`
		IDNumber    *string `json:"id_number"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if patch.Name != nil {
		tenant.Name = *patch.Name
	}
	if patch.ContactInfo != nil {
		tenant.ContactInfo = *patch.ContactInfo
	}
	if patch.IDNumber != nil {
		tenant.IDNumber = *patch.IDNumber
	}

	if err := tc.DB.Save(&tenant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tenant updated", tenant)
}
