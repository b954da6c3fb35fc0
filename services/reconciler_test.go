package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"salonlink-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// seeds one salon with a mix of appointments: two ledger-eligible without a
// transaction, one eligible with a transaction already written, and three
// that must never enter the ledger.
func seedDriftedSalon(t *testing.T, db *gorm.DB) (models.Salon, []models.Appointment) {
	t.Helper()

	salon := seedSalon(t, db, "Studio One", true)
	customer := seedCustomer(t, db, salon.ID, "Jane", "5551234567")

	missing1 := seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCompleted, 150, models.PaymentTypeCard, nil)
	missing2 := seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusConfirmed, 80, models.PaymentTypeCash, nil)

	recorded := seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCompleted, 100, models.PaymentTypeCash, nil)
	ledger := NewLedgerService(db)
	_, created, err := ledger.EnsureTransactionForAppointment(&recorded)
	require.NoError(t, err)
	require.True(t, created)

	// Never eligible: cancelled, unpriced, package-funded.
	seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCancelled, 50, models.PaymentTypeCash, nil)
	seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCompleted, 0, models.PaymentTypeCash, nil)
	packageID := uuid.New()
	seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCompleted, 70, models.PaymentTypeCash, &packageID)

	return salon, []models.Appointment{missing1, missing2}
}

func TestFindMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon, missing := seedDriftedSalon(t, db)

	reconciler := NewReconcilerService(db)
	found, err := reconciler.FindMissing(salon.ID, nil, nil)
	require.NoError(t, err)

	require.Len(t, found, 2)
	ids := map[uuid.UUID]bool{found[0].ID: true, found[1].ID: true}
	assert.True(t, ids[missing[0].ID])
	assert.True(t, ids[missing[1].ID])
}

func TestPreview(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon, _ := seedDriftedSalon(t, db)

	reconciler := NewReconcilerService(db)
	preview, err := reconciler.Preview(salon.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, preview.Total, "three eligible appointments in total")
	assert.Equal(t, 2, preview.Missing)
	assert.Equal(t, 230.0, preview.MissingAmount)

	// Preview is read-only: a second look sees the same drift.
	again, err := reconciler.Preview(salon.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, preview, again)
}

func TestBackfill_ThenIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon, missing := seedDriftedSalon(t, db)

	reconciler := NewReconcilerService(db)

	result, err := reconciler.Backfill(salon.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Fixed)
	assert.Equal(t, 0, result.AlreadyExists)
	assert.Equal(t, 0, result.Errors)

	for _, appt := range missing {
		var count int64
		require.NoError(t, db.Model(&models.Transaction{}).
			Where("appointment_id = ? AND type = ?", appt.ID, models.TransactionTypeAppointment).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	}

	// Running it again right away must repair nothing.
	second, err := reconciler.Backfill(salon.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Fixed)
	assert.Equal(t, 0, second.Errors)

	var total int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("salon_id = ? AND type = ?", salon.ID, models.TransactionTypeAppointment).
		Count(&total).Error)
	assert.Equal(t, int64(3), total)
}

func TestBackfill_ScopedToSalon(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon, _ := seedDriftedSalon(t, db)

	other := seedSalon(t, db, "Studio Two", true)
	otherCustomer := seedCustomer(t, db, other.ID, "Mia", "5559876543")
	seedAppointment(t, db, other.ID, otherCustomer.ID, models.AppointmentStatusCompleted, 40, models.PaymentTypeCash, nil)

	reconciler := NewReconcilerService(db)
	result, err := reconciler.Backfill(salon.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fixed)

	var otherCount int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("salon_id = ?", other.ID).Count(&otherCount).Error)
	assert.Equal(t, int64(0), otherCount, "other salons are untouched")
}

func TestFindMissing_DateFilter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon := seedSalon(t, db, "Studio One", true)
	customer := seedCustomer(t, db, salon.ID, "Jane", "5551234567")

	old := seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCompleted, 90, models.PaymentTypeCash, nil)
	old.StartTime = time.Now().AddDate(0, -2, 0)
	require.NoError(t, db.Save(&old).Error)

	recent := seedAppointment(t, db, salon.ID, customer.ID, models.AppointmentStatusCompleted, 120, models.PaymentTypeCard, nil)

	reconciler := NewReconcilerService(db)
	from := time.Now().AddDate(0, -1, 0)
	found, err := reconciler.FindMissing(salon.ID, &from, nil)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, recent.ID, found[0].ID)
}

func TestBackfill_CountsItemErrorsAndContinues(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon, _ := seedDriftedSalon(t, db)

	// A ledger pointed at a database with no transactions table: every
	// write fails, but the batch must keep going and count each failure.
	brokenDSN := fmt.Sprintf("file:%s_broken?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	brokenDB, err := gorm.Open(sqlite.Open(brokenDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	reconciler := &ReconcilerService{db: db, ledger: NewLedgerService(brokenDB)}

	result, err := reconciler.Backfill(salon.ID, nil, nil)
	require.NoError(t, err, "item failures never abort the run")
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, 0, result.Fixed)

	// A healthy run afterwards repairs everything the broken one missed.
	repaired, err := NewReconcilerService(db).Backfill(salon.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, repaired.Fixed)
	assert.Equal(t, 0, repaired.Errors)
}

func TestBackfillAllSalons_SkipsInactive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	salon, _ := seedDriftedSalon(t, db)

	inactive := seedSalon(t, db, "Closed Studio", false)
	closedCustomer := seedCustomer(t, db, inactive.ID, "Ken", "5550001122")
	seedAppointment(t, db, inactive.ID, closedCustomer.ID, models.AppointmentStatusCompleted, 30, models.PaymentTypeCash, nil)

	reconciler := NewReconcilerService(db)
	reconciler.BackfillAllSalons()

	var activeCount, inactiveCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("salon_id = ?", salon.ID).Count(&activeCount).Error)
	require.NoError(t, db.Model(&models.Transaction{}).Where("salon_id = ?", inactive.ID).Count(&inactiveCount).Error)

	assert.Equal(t, int64(3), activeCount)
	assert.Equal(t, int64(0), inactiveCount)
}
