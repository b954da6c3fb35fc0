package services

import (
	"errors"
	"time"

	"salonlink-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService is the single place allowed to create appointment
// transactions. Both the status-transition handler and the reconciler
// funnel through EnsureTransactionForAppointment so the idempotency key is
// enforced in exactly one spot.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// EnsureTransactionForAppointment creates the ledger transaction for a
// ledger-eligible appointment, exactly once. Package-funded and unpriced
// appointments are skipped (nil, false, nil). If a transaction already
// exists - including one created by a concurrent writer between our
// existence check and insert - it is returned unchanged with created=false.
// The unique index on (appointment_id, type) is the authoritative exclusion
// mechanism; the read before insert is only a fast path.
func (s *LedgerService) EnsureTransactionForAppointment(appt *models.Appointment) (*models.Transaction, bool, error) {
	if appt.PackageID != nil {
		// Package consumption is accounted for on the package itself,
		// never as a cash transaction.
		return nil, false, nil
	}
	if appt.Price <= 0 {
		return nil, false, nil
	}

	existing, err := s.findForAppointment(appt.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	customerName := appt.Customer.FullName()
	if customerName == "" && appt.CustomerID != uuid.Nil {
		var customer models.Customer
		if err := s.db.First(&customer, "id = ?", appt.CustomerID).Error; err == nil {
			customerName = customer.FullName()
		}
	}

	date := appt.StartTime
	if date.IsZero() {
		date = time.Now()
	}

	appointmentID := appt.ID
	customerID := appt.CustomerID

	// paymentType comes from the appointment, not a Payment row: cash
	// appointments never have one.
	transaction := models.Transaction{
		ID:            uuid.New(),
		SalonID:       appt.SalonID,
		Type:          models.TransactionTypeAppointment,
		Amount:        appt.Price,
		Profit:        0, // service transactions carry no cost basis
		PaymentType:   appt.PaymentType,
		AppointmentID: &appointmentID,
		CustomerID:    &customerID,
		CustomerName:  customerName,
		Date:          date,
	}

	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&transaction)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent writer won the race. That is the idempotency
		// contract working, not an error: re-read the winning row.
		winner, err := s.findForAppointment(appt.ID)
		if err != nil {
			return nil, false, err
		}
		return winner, false, nil
	}

	return &transaction, true, nil
}

func (s *LedgerService) findForAppointment(appointmentID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.
		Where("appointment_id = ? AND type = ?", appointmentID, models.TransactionTypeAppointment).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
