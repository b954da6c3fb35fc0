package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
)

const (
	PaymentTypeCash = "cash"
	PaymentTypeCard = "card"
)

type Appointment struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID         uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	ServiceID       uuid.UUID `gorm:"type:uuid;index"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index"`

	StartTime time.Time `gorm:"index;not null"`
	Duration  int       // in minutes

	Price       float64 `gorm:"type:decimal(10,2);default:0.0"`
	PaymentType string  `gorm:"type:varchar(20);default:'cash'"` // cash or card
	Status      string  `gorm:"type:varchar(20);default:'pending';index"`

	// Set when the visit is funded by a pre-purchased package. Such
	// appointments never produce a ledger transaction; consumption is
	// tracked on the package itself.
	PackageID *uuid.UUID `gorm:"type:uuid;index"`

	Notes string

	Customer Customer `gorm:"foreignKey:CustomerID"`
	Service  Service  `gorm:"foreignKey:ServiceID"`

	gorm.Model
}

// LedgerEligible reports whether this appointment should have exactly one
// ledger transaction: completed or confirmed, priced, and not package-funded.
func (a Appointment) LedgerEligible() bool {
	if a.Status != AppointmentStatusCompleted && a.Status != AppointmentStatusConfirmed {
		return false
	}
	if a.Price <= 0 {
		return false
	}
	return a.PackageID == nil
}
