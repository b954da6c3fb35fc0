package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const TransactionTypeAppointment = "appointment"

// Transaction is the financial ledger entry. Appointment transactions are
// append-only: a correction is a new row with a note, never a mutation.
//
// The composite unique index on (appointment_id, type) is the authoritative
// exclusion mechanism for the ledger writer; application-level existence
// checks alone would race.
type Transaction struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID uuid.UUID `gorm:"type:uuid;index;not null"`

	Type   string  `gorm:"type:varchar(20);not null;default:'appointment';uniqueIndex:idx_appointment_type,priority:2"`
	Amount float64 `gorm:"type:decimal(10,2);not null"`
	Profit float64 `gorm:"type:decimal(10,2);default:0.0"`

	PaymentType string `gorm:"type:varchar(20)"` // cash or card

	AppointmentID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_appointment_type,priority:1"`

	// Denormalized for reporting
	CustomerID   *uuid.UUID `gorm:"type:uuid;index"`
	CustomerName string

	Date time.Time `gorm:"index;not null"`
	Note string

	gorm.Model
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
