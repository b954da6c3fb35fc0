// controllers/payment.go
package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"salonlink-backend/config"
	"salonlink-backend/models"
	"salonlink-backend/services"
	"salonlink-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InitiatePaymentInput defines the expected JSON structure for starting a
// gateway charge. Either an appointment id (amount and customer come from
// the booking) or an explicit amount with a description (package purchase).
type InitiatePaymentInput struct {
	AppointmentID *uuid.UUID `json:"appointmentId"`
	Amount        float64    `json:"amount" binding:"min=0"`
	Description   string     `json:"description"`
	Currency      string     `json:"currency"`
	Email         string     `json:"email" binding:"required,email"`
	SuccessURL    string     `json:"successUrl" binding:"required"`
	FailURL       string     `json:"failUrl" binding:"required"`
}

// InitiatePayment creates a pending Payment and asks the gateway for a
// charge token. The merchant order id is generated here, before the gateway
// sees anything, and anchors the rest of the pipeline.
func InitiatePayment(c *gin.Context) {
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

	var input InitiatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	amount := input.Amount
	description := input.Description
	var customerID *uuid.UUID
	var customer models.Customer
	basket := models.JSONB{}

	if input.AppointmentID != nil {
		var appointment models.Appointment
		if err := config.DB.Preload("Service").
			Where("salon_id = ? AND id = ?", salonUUID, *input.AppointmentID).
			First(&appointment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Appointment not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		if appointment.Price <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Appointment has no payable amount")
			return
		}

		amount = appointment.Price
		if description == "" {
			description = appointment.Service.Name
		}
		customerID = &appointment.CustomerID
		basket["appointmentId"] = appointment.ID.String()

		// best effort, only feeds the gateway's contact fields
		config.DB.First(&customer, "id = ?", appointment.CustomerID)
	}

	if amount <= 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if description == "" {
		description = "Salon services"
	}
	basket["items"] = []map[string]interface{}{
		{"name": description, "price": amount, "quantity": 1},
	}

	paymentService := services.NewPaymentService(config.DB)
	payment, err := paymentService.Create(services.CreatePaymentInput{
		SalonID:    salonUUID,
		CustomerID: customerID,
		Amount:     amount,
		Currency:   input.Currency,
		Basket:     basket,
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	basketJSON, _ := json.Marshal([][]interface{}{{description, amount, 1}})

	gateway := services.NewGatewayClientFromEnv()
	token, err := gateway.InitiateCharge(c.Request.Context(), services.ChargeRequest{
		MerchantOrderID: payment.MerchantOrderID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Basket:          string(basketJSON),
		SuccessURL:      input.SuccessURL,
		FailURL:         input.FailURL,
		CustomerIP:      c.ClientIP(),
		CustomerEmail:   input.Email,
		CustomerName:    customer.FullName(),
		CustomerAddress: "-",
		CustomerPhone:   customer.Phone,
	})
	if err != nil {
		var gatewayErr *services.GatewayError
		if errors.As(err, &gatewayErr) {
			// The processor refused the charge outright; record why.
			if _, ferr := paymentService.MarkFailed(payment.MerchantOrderID, gatewayErr.Reason); ferr != nil && !errors.Is(ferr, services.ErrAlreadyTerminal) {
				log.Printf("Payment %s: failed to record gateway rejection: %v", payment.MerchantOrderID, ferr)
			}
		} else {
			// Network trouble: the payment stays pending and is
			// recoverable via the status probe or reconciler.
			log.Printf("Payment %s: gateway unreachable: %v", payment.MerchantOrderID, err)
		}
		utils.RespondWithError(c, http.StatusBadGateway, "Payment could not be started")
		return
	}

	if err := paymentService.AttachGatewayToken(payment.MerchantOrderID, token); err != nil {
		log.Printf("Payment %s: failed to store gateway token: %v", payment.MerchantOrderID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"merchantOrderId": payment.MerchantOrderID,
		"token":           token,
		"amount":          payment.Amount,
		"currency":        payment.Currency,
	})
}

// PaymentCallback handles the gateway's server-to-server notification.
// Delivery may be delayed or duplicated, so everything downstream is
// idempotent. The gateway expects a literal "OK" body once the
// notification is accepted; anything else makes it retry.
func PaymentCallback(c *gin.Context) {
	merchantOrderID := c.PostForm("merchant_oid")
	status := c.PostForm("status")
	totalAmount := c.PostForm("total_amount")
	hash := c.PostForm("hash")

	if merchantOrderID == "" || status == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Missing callback fields")
		return
	}

	gateway := services.NewGatewayClientFromEnv()
	if !gateway.VerifyCallback(merchantOrderID, status, totalAmount, hash) {
		// Authentication failure, not a payment failure: nothing is
		// mutated and the sender gets no detail.
		log.Printf("Payment callback for %s rejected: bad signature", merchantOrderID)
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid signature")
		return
	}

	paymentService := services.NewPaymentService(config.DB)

	if status != "success" {
		reason := c.PostForm("failed_reason_msg")
		if reason == "" {
			reason = "declined by gateway"
		}
		if _, err := paymentService.MarkFailed(merchantOrderID, reason); err != nil && !errors.Is(err, services.ErrAlreadyTerminal) {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusNotFound, "Unknown payment")
				return
			}
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record payment failure")
			return
		}
		c.String(http.StatusOK, "OK")
		return
	}

	payment, err := paymentService.MarkSettled(merchantOrderID, "")
	if err != nil {
		if errors.Is(err, services.ErrAlreadyTerminal) {
			// Duplicate webhook delivery; the first one did the work.
			c.String(http.StatusOK, "OK")
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Unknown payment")
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to settle payment")
		return
	}

	// The hash already covers total_amount; a mismatch against the stored
	// amount means gateway-side drift worth surfacing to the reconciler's
	// operators.
	if minor := services.MinorUnits(payment.Amount); totalAmount != "" && totalAmount != strconv.FormatInt(minor, 10) {
		log.Printf("Payment %s: gateway reported amount %s, stored %d minor units", merchantOrderID, totalAmount, minor)
	}

	settlePaidAppointment(payment)

	services.NewNotifierService(config.DB).SendPaymentReceipt(payment)

	c.String(http.StatusOK, "OK")
}

// settlePaidAppointment confirms the booking a settled payment was for and
// funnels it into the ledger writer.
func settlePaidAppointment(payment *models.Payment) {
	raw, ok := payment.RawBasket["appointmentId"].(string)
	if !ok || raw == "" {
		return
	}
	appointmentID, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("Payment %s: malformed appointment reference %q", payment.MerchantOrderID, raw)
		return
	}

	var appointment models.Appointment
	if err := config.DB.Where("salon_id = ? AND id = ?", payment.SalonID, appointmentID).
		First(&appointment).Error; err != nil {
		log.Printf("Payment %s: appointment %s not found: %v", payment.MerchantOrderID, appointmentID, err)
		return
	}

	if appointment.Status == models.AppointmentStatusPending {
		appointment.Status = models.AppointmentStatusConfirmed
		appointment.PaymentType = models.PaymentTypeCard
		if err := config.DB.Save(&appointment).Error; err != nil {
			log.Printf("Payment %s: failed to confirm appointment %s: %v", payment.MerchantOrderID, appointmentID, err)
			return
		}
	}

	if !appointment.LedgerEligible() {
		return
	}

	ledger := services.NewLedgerService(config.DB)
	if _, _, err := ledger.EnsureTransactionForAppointment(&appointment); err != nil {
		// The reconciler closes this gap on its next pass.
		log.Printf("Payment %s: ledger write for appointment %s failed: %v", payment.MerchantOrderID, appointmentID, err)
	}
}

// GetPaymentStatus is the status probe: clients re-derive payment state
// from the record store by merchant order id instead of trusting redirect
// query parameters.
func GetPaymentStatus(c *gin.Context) {
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

	merchantOrderID := c.Param("merchantOrderId")

	var payment models.Payment
	if err := config.DB.Where("salon_id = ? AND merchant_order_id = ?", salonUUID, merchantOrderID).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"merchantOrderId": payment.MerchantOrderID,
		"status":          payment.Status,
		"amount":          payment.Amount,
		"currency":        payment.Currency,
		"failureReason":   payment.FailureReason,
		"settledAt":       payment.SettledAt,
	})
}

// PaymentResult backs the success/fail redirect landings. The redirect's
// own query parameters are never trusted; state comes from the store.
func PaymentResult(c *gin.Context) {
	merchantOrderID := c.Param("merchantOrderId")

	paymentService := services.NewPaymentService(config.DB)
	payment, err := paymentService.GetByMerchantOrderID(merchantOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"merchantOrderId": payment.MerchantOrderID,
		"status":          payment.Status,
	})
}
