// controllers/appointment.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"salonlink-backend/config"
	"salonlink-backend/models"
	"salonlink-backend/services"
	"salonlink-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateAppointmentInput defines the expected JSON structure for booking
type CreateAppointmentInput struct {
	CustomerID  uuid.UUID  `json:"customerId" binding:"required"`
	ServiceID   *uuid.UUID `json:"serviceId"`
	StartTime   time.Time  `json:"startTime" binding:"required"`
	Price       *float64   `json:"price"`
	PaymentType string     `json:"paymentType" binding:"omitempty,oneof=cash card"`
	PackageID   *uuid.UUID `json:"packageId"`
	Notes       string     `json:"notes"`
}

// UpdateAppointmentStatusInput drives the lifecycle transition endpoint
type UpdateAppointmentStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
	NoShow bool   `json:"noShow"`
}

// CreateAppointment books an appointment for the salon
func CreateAppointment(c *gin.Context) {
	salonID, exists := c.Get("salonId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Salon ID not found in context")
		return
	}
	userID, _ := c.Get("userId")

	salonUUID, err := uuid.Parse(salonID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid salon ID format")
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Validate customer exists in the same salon
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

	if customer.IsBlacklisted {
		utils.RespondWithError(c, http.StatusForbidden, "Customer is blacklisted")
		return
	}

	appointment := models.Appointment{
		ID:          uuid.New(),
		SalonID:     salonUUID,
		CustomerID:  input.CustomerID,
		StartTime:   input.StartTime,
		PaymentType: input.PaymentType,
		Status:      models.AppointmentStatusPending,
		Notes:       input.Notes,
	}
	if appointment.PaymentType == "" {
		appointment.PaymentType = models.PaymentTypeCash
	}
	if userStr, ok := userID.(string); ok {
		if uid, err := uuid.Parse(userStr); err == nil {
			appointment.CreatedByUserID = uid
		}
	}

	if input.ServiceID != nil {
		var service models.Service
		if err := config.DB.Where("salon_id = ? AND id = ?", salonUUID, *input.ServiceID).
			First(&service).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Service not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		appointment.ServiceID = service.ID
		appointment.Duration = service.Duration
		appointment.Price = service.Price
	}

	if input.Price != nil {
		appointment.Price = *input.Price
	}

	if input.PackageID != nil {
		var pkg models.CustomerPackage
		if err := config.DB.Where("salon_id = ? AND id = ? AND customer_id = ?",
			salonUUID, *input.PackageID, input.CustomerID).
			First(&pkg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Package not found for this customer")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		if pkg.RemainingSessions() == 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Package has no remaining sessions")
			return
		}
		appointment.PackageID = input.PackageID
		// Package-funded visits never enter the ledger; the session
		// decrement on confirmation is the whole accounting.
		appointment.Price = 0
	}

	if err := config.DB.Create(&appointment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments retrieves the salon's appointments with optional filters
func GetAppointments(c *gin.Context) {
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

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("start_time >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("start_time <= ?", t)
		}
	}

	var appointments []models.Appointment
	if err := query.Preload("Customer").Preload("Service").
		Order("start_time DESC").
		Find(&appointments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// GetAppointment retrieves a specific appointment by ID
func GetAppointment(c *gin.Context) {
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

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var appointment models.Appointment
	if err := config.DB.Preload("Customer").Preload("Service").
		Where("salon_id = ? AND id = ?", salonUUID, appointmentUUID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// allowedTransitions encodes the appointment lifecycle: completed and
// cancelled are terminal.
var allowedTransitions = map[string][]string{
	models.AppointmentStatusPending:   {models.AppointmentStatusConfirmed, models.AppointmentStatusCompleted, models.AppointmentStatusCancelled},
	models.AppointmentStatusConfirmed: {models.AppointmentStatusCompleted, models.AppointmentStatusCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateAppointmentStatus moves an appointment through its lifecycle. This
// is one of the two call sites that funnel into the ledger writer; the
// other is the payment callback. Racing against a concurrent callback or a
// reconciler pass is safe because the ledger's unique index, not this
// handler, enforces exactly-once.
func UpdateAppointmentStatus(c *gin.Context) {
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

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	var input UpdateAppointmentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var appointment models.Appointment
	if err := config.DB.Where("salon_id = ? AND id = ?", salonUUID, appointmentUUID).
		First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Status == appointment.Status {
		// Same response shape as a real transition; for eligible
		// appointments this also surfaces (or heals) the ledger row.
		var transaction *models.Transaction
		if appointment.LedgerEligible() {
			ledger := services.NewLedgerService(config.DB)
			transaction, _, err = ledger.EnsureTransactionForAppointment(&appointment)
			if err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Ledger lookup failed")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"appointment": appointment,
			"transaction": transaction,
		})
		return
	}

	if !transitionAllowed(appointment.Status, input.Status) {
		utils.RespondWithError(c, http.StatusConflict,
			"Cannot transition from "+appointment.Status+" to "+input.Status)
		return
	}

	leavingPending := appointment.Status == models.AppointmentStatusPending

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	appointment.Status = input.Status
	if err := tx.Save(&appointment).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		return
	}

	// Consume a package session the first time the booking leaves pending
	// into a kept state.
	if appointment.PackageID != nil && leavingPending &&
		(input.Status == models.AppointmentStatusConfirmed || input.Status == models.AppointmentStatusCompleted) {
		res := tx.Model(&models.CustomerPackage{}).
			Where("id = ? AND used_sessions < total_sessions", *appointment.PackageID).
			Update("used_sessions", gorm.Expr("used_sessions + ?", 1))
		if res.Error != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to consume package session")
			return
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusConflict, "Package has no remaining sessions")
			return
		}
	}

	if input.Status == models.AppointmentStatusCancelled && input.NoShow {
		if err := tx.Model(&models.Customer{}).Where("id = ?", appointment.CustomerID).
			Update("no_show_count", gorm.Expr("no_show_count + ?", 1)).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update no-show count")
			return
		}
	}

	tx.Commit()

	// Ledger write happens after the status commit. If it fails here the
	// reconciler backfills the gap on its next pass.
	var transaction *models.Transaction
	if appointment.LedgerEligible() {
		ledger := services.NewLedgerService(config.DB)
		transaction, _, err = ledger.EnsureTransactionForAppointment(&appointment)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Appointment updated but ledger write failed")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"appointment": appointment,
		"transaction": transaction,
	})
}

// DeleteAppointment removes a booking that never happened. Kept and
// completed appointments stay for the audit trail.
func DeleteAppointment(c *gin.Context) {
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

	appointmentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
		return
	}

	result := config.DB.
		Where("salon_id = ? AND id = ? AND status IN ?", salonUUID, appointmentUUID,
			[]string{models.AppointmentStatusPending, models.AppointmentStatusCancelled}).
		Delete(&models.Appointment{})

	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete appointment")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Appointment not found or not deletable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
