package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerPackage is a pre-purchased bundle of sessions. Visits funded by a
// package decrement UsedSessions instead of writing a ledger transaction.
type CustomerPackage struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name          string  `gorm:"not null"`
	TotalSessions int     `gorm:"not null"`
	UsedSessions  int     `gorm:"default:0"`
	Price         float64 `gorm:"type:decimal(10,2);not null"`
	ExpiresAt     *time.Time
	IsActive      bool `gorm:"default:true"`

	gorm.Model
}

func (p CustomerPackage) RemainingSessions() int {
	remaining := p.TotalSessions - p.UsedSessions
	if remaining < 0 {
		return 0
	}
	return remaining
}
