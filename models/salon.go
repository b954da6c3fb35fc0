package models

import (
	"github.com/google/uuid"
)

type Salon struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Name         string    `gorm:"not null"`
	Address      string
	Phone        string
	WorkingHours JSONB `gorm:"type:jsonb;default:'{}'"`
	IsActive     bool  `gorm:"default:true;index"`

	Users        []User            `gorm:"foreignKey:SalonID"`
	Customers    []Customer        `gorm:"foreignKey:SalonID"`
	Services     []Service         `gorm:"foreignKey:SalonID"`
	Appointments []Appointment     `gorm:"foreignKey:SalonID"`
	Payments     []Payment         `gorm:"foreignKey:SalonID"`
	Transactions []Transaction     `gorm:"foreignKey:SalonID"`
	Packages     []CustomerPackage `gorm:"foreignKey:SalonID"`
}
