package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salonlink-backend/config"
	"salonlink-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupControllerDB swaps the package-global DB for a per-test in-memory
// database. Tests using it must not run in parallel.
func setupControllerDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
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

	previous := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = previous })
	return db
}

func statusUpdateContext(t *testing.T, salonID, appointmentID uuid.UUID, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut,
		"/api/appointments/"+appointmentID.String()+"/status", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: appointmentID.String()}}
	c.Set("salonId", salonID.String())
	c.Set("userId", uuid.New().String())
	return c, w
}

func TestUpdateAppointmentStatus_SameStatusKeepsResponseShape(t *testing.T) {
	db := setupControllerDB(t)

	salon := models.Salon{ID: uuid.New(), Name: "Studio One", IsActive: true}
	require.NoError(t, db.Create(&salon).Error)
	customer := models.Customer{ID: uuid.New(), SalonID: salon.ID, FirstName: "Jane", Phone: "5551234567", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	appointment := models.Appointment{
		ID:          uuid.New(),
		SalonID:     salon.ID,
		CustomerID:  customer.ID,
		StartTime:   time.Now().Add(-time.Hour),
		Price:       120,
		PaymentType: models.PaymentTypeCard,
		Status:      models.AppointmentStatusCompleted,
	}
	require.NoError(t, db.Create(&appointment).Error)

	c, w := statusUpdateContext(t, salon.ID, appointment.ID, `{"status":"completed"}`)
	UpdateAppointmentStatus(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp, "appointment")
	require.Contains(t, resp, "transaction")

	var transaction models.Transaction
	require.NoError(t, json.Unmarshal(resp["transaction"], &transaction))
	require.NotNil(t, transaction.AppointmentID)
	assert.Equal(t, appointment.ID, *transaction.AppointmentID)
}

func TestUpdateAppointmentStatus_SameStatusPendingHasNullTransaction(t *testing.T) {
	db := setupControllerDB(t)

	salon := models.Salon{ID: uuid.New(), Name: "Studio One", IsActive: true}
	require.NoError(t, db.Create(&salon).Error)
	customer := models.Customer{ID: uuid.New(), SalonID: salon.ID, FirstName: "Jane", Phone: "5551234567", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	appointment := models.Appointment{
		ID:         uuid.New(),
		SalonID:    salon.ID,
		CustomerID: customer.ID,
		StartTime:  time.Now().Add(time.Hour),
		Price:      80,
		Status:     models.AppointmentStatusPending,
	}
	require.NoError(t, db.Create(&appointment).Error)

	c, w := statusUpdateContext(t, salon.ID, appointment.ID, `{"status":"pending"}`)
	UpdateAppointmentStatus(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp, "appointment")
	require.Contains(t, resp, "transaction")
	assert.Equal(t, "null", string(resp["transaction"]))

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("appointment_id = ?", appointment.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
