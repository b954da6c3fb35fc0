package services

import (
	"errors"
	"time"

	"salonlink-backend/models"
	"salonlink-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAlreadyTerminal means the payment was already paid or failed when a
// transition was attempted. Duplicate webhook deliveries hit this path; it
// is a benign no-op, and the stored record is returned next to it.
var ErrAlreadyTerminal = errors.New("payment is already in a terminal state")

type PaymentService struct {
	db *gorm.DB
}

func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

type CreatePaymentInput struct {
	SalonID    uuid.UUID
	CustomerID *uuid.UUID
	Amount     float64
	Currency   string
	Basket     models.JSONB
}

// Create persists a pending payment with a freshly generated merchant order
// id. The id is immutable from here on; every later mutation is keyed by it.
func (s *PaymentService) Create(input CreatePaymentInput) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, errors.New("payment amount must be positive")
	}

	currency := input.Currency
	if currency == "" {
		currency = "TRY"
	}
	basket := input.Basket
	if basket == nil {
		basket = models.JSONB{}
	}

	payment := models.Payment{
		ID:              uuid.New(),
		SalonID:         input.SalonID,
		CustomerID:      input.CustomerID,
		MerchantOrderID: utils.NewMerchantOrderID(),
		Amount:          input.Amount,
		Currency:        currency,
		Status:          models.PaymentStatusPending,
		RawBasket:       basket,
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentService) GetByMerchantOrderID(merchantOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("merchant_order_id = ?", merchantOrderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// AttachGatewayToken records the charge token handed out by the gateway.
// The token is written once; a token already present is left untouched.
func (s *PaymentService) AttachGatewayToken(merchantOrderID, token string) error {
	return s.db.Model(&models.Payment{}).
		Where("merchant_order_id = ? AND (gateway_token IS NULL OR gateway_token = '')", merchantOrderID).
		Update("gateway_token", token).Error
}

// MarkSettled moves a pending payment to paid. The guarded UPDATE on
// (merchant_order_id, status='pending') is the linearization point:
// concurrent or duplicate callbacks for the same order id serialize on it,
// and only one of them flips the row. When the payment is already terminal
// the stored record is returned together with ErrAlreadyTerminal so the
// caller can treat the duplicate as a no-op rather than a failure.
func (s *PaymentService) MarkSettled(merchantOrderID, gatewayToken string) (*models.Payment, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     models.PaymentStatusPaid,
		"settled_at": &now,
	}
	if gatewayToken != "" {
		updates["gateway_token"] = gatewayToken
	}
	return s.transition(merchantOrderID, updates)
}

// MarkFailed moves a pending payment to failed, recording the gateway's
// reason. Same terminal-state guard as MarkSettled.
func (s *PaymentService) MarkFailed(merchantOrderID, reason string) (*models.Payment, error) {
	updates := map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"failure_reason": reason,
	}
	return s.transition(merchantOrderID, updates)
}

func (s *PaymentService) transition(merchantOrderID string, updates map[string]interface{}) (*models.Payment, error) {
	res := s.db.Model(&models.Payment{}).
		Where("merchant_order_id = ? AND status = ?", merchantOrderID, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	payment, err := s.GetByMerchantOrderID(merchantOrderID)
	if err != nil {
		// Zero rows and no stored record: a callback for a payment we
		// never created. Rejected, not upserted.
		return nil, err
	}

	if res.RowsAffected == 0 {
		return payment, ErrAlreadyTerminal
	}
	return payment, nil
}
