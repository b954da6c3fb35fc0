package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"salonlink-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database per test with real unique
// indexes, so the idempotency tests exercise the same constraint the
// production schema relies on.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps concurrent test goroutines queued instead
	// of tripping SQLite busy errors.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Salon{},
		&models.Customer{},
		&models.Service{},
		&models.Appointment{},
		&models.CustomerPackage{},
		&models.Payment{},
		&models.Transaction{},
	))

	return db
}

func seedSalon(t *testing.T, db *gorm.DB, name string, active bool) models.Salon {
	t.Helper()
	salon := models.Salon{
		ID:       uuid.New(),
		Name:     name,
		IsActive: active,
	}
	require.NoError(t, db.Create(&salon).Error)
	return salon
}

func seedCustomer(t *testing.T, db *gorm.DB, salonID uuid.UUID, firstName, phone string) models.Customer {
	t.Helper()
	customer := models.Customer{
		ID:        uuid.New(),
		SalonID:   salonID,
		FirstName: firstName,
		Phone:     phone,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func seedAppointment(t *testing.T, db *gorm.DB, salonID, customerID uuid.UUID, status string, price float64, paymentType string, packageID *uuid.UUID) models.Appointment {
	t.Helper()
	appointment := models.Appointment{
		ID:          uuid.New(),
		SalonID:     salonID,
		CustomerID:  customerID,
		StartTime:   time.Now().Add(-time.Hour),
		Price:       price,
		PaymentType: paymentType,
		Status:      status,
		PackageID:   packageID,
	}
	require.NoError(t, db.Create(&appointment).Error)
	return appointment
}
