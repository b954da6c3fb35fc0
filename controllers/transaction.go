// controllers/transaction.go
package controllers

import (
	"net/http"

	"salonlink-backend/config"
	"salonlink-backend/models"
	"salonlink-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionSummary aggregates the ledger for the requested range
type TransactionSummary struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
	TotalProfit float64 `json:"totalProfit"`
	CashAmount  float64 `json:"cashAmount"`
	CardAmount  float64 `json:"cardAmount"`
}

// GetTransactions lists the salon's ledger entries with range totals
func GetTransactions(c *gin.Context) {
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

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonUUID)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}

	var transactions []models.Transaction
	if err := query.Order("date DESC").Find(&transactions).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	summary := TransactionSummary{Count: len(transactions)}
	for _, t := range transactions {
		summary.TotalAmount += t.Amount
		summary.TotalProfit += t.Profit
		switch t.PaymentType {
		case models.PaymentTypeCash:
			summary.CashAmount += t.Amount
		case models.PaymentTypeCard:
			summary.CardAmount += t.Amount
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"summary":      summary,
	})
}
