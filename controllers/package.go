// controllers/package.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"salonlink-backend/config"
	"salonlink-backend/models"
	"salonlink-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePackageInput defines the expected JSON structure for selling a package
type CreatePackageInput struct {
	CustomerID    uuid.UUID  `json:"customerId" binding:"required"`
	Name          string     `json:"name" binding:"required"`
	TotalSessions int        `json:"totalSessions" binding:"required,min=1"`
	Price         float64    `json:"price" binding:"required,min=0"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

// CreatePackage sells a session bundle to a customer
func CreatePackage(c *gin.Context) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return
	}

	salonUUID, err := uuid.Parse(salonID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid salon ID format")
		return
	}

	var input CreatePackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var customer models.Customer
	if err := config.DB.Where("salon_id = ? AND id = ?", salonUUID, input.CustomerID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Customer not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	pkg := models.CustomerPackage{
		ID:            uuid.New(),
		SalonID:       salonUUID,
		CustomerID:    input.CustomerID,
		Name:          input.Name,
		TotalSessions: input.TotalSessions,
		Price:         input.Price,
		ExpiresAt:     input.ExpiresAt,
		IsActive:      true,
	}

	if err := config.DB.Create(&pkg).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create package")
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// GetPackages lists the salon's packages, optionally for one customer
func GetPackages(c *gin.Context) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return
	}

	salonUUID, err := uuid.Parse(salonID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid salon ID format")
		return
	}

	query := config.DB.Where("salon_id = ?", salonUUID)
	if customerID := c.Query("customerId"); customerID != "" {
		customerUUID, err := uuid.Parse(customerID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
			return
		}
		query = query.Where("customer_id = ?", customerUUID)
	}

	var packages []models.CustomerPackage
	if err := query.Find(&packages).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve packages")
		return
	}

	c.JSON(http.StatusOK, packages)
}
