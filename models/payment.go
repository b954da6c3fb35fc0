package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment is one attempted charge against the gateway. Rows are never
// deleted and never leave a terminal state: the only allowed transitions
// are pending->paid and pending->failed.
type Payment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	SalonID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`

	// Gateway-visible order id, generated once at create time and immutable.
	// This is the idempotency anchor for the whole charge pipeline.
	MerchantOrderID string `gorm:"type:varchar(64);uniqueIndex;not null"`

	Amount   float64 `gorm:"type:decimal(10,2);not null"`
	Currency string  `gorm:"type:varchar(8);default:'TRY'"`
	Status   string  `gorm:"type:varchar(20);default:'pending';index"`

	GatewayToken  string `gorm:"type:varchar(128)"`
	RawBasket     JSONB  `gorm:"type:jsonb;default:'{}'"`
	FailureReason string `gorm:"type:text"`

	SettledAt *time.Time

	gorm.Model
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p Payment) IsTerminal() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusFailed
}
