package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	SalonID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_salon_phone,priority:1"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index"`

	FirstName string `gorm:"not null"`
	LastName  string
	// Stored as entered; cross-salon correlation always goes through the
	// normalized last-10-digits form (see utils.NormalizePhone).
	Phone         string `gorm:"not null;index;uniqueIndex:idx_salon_phone,priority:2"`
	Email         string
	Notes         string
	IsBlacklisted bool `gorm:"default:false"`
	NoShowCount   int  `gorm:"default:0"`
	LastVisit     *time.Time
	IsActive      bool `gorm:"default:true"`

	Appointments []Appointment     `gorm:"foreignKey:CustomerID"`
	Packages     []CustomerPackage `gorm:"foreignKey:CustomerID"`

	gorm.Model
}

func (c Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
