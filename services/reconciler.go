package services

import (
	"log"
	"time"

	"salonlink-backend/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReconcilerService detects and repairs drift between appointments that
// should have produced a ledger transaction and transactions that exist.
// It is a best-effort batch job: safe to re-run, safe to overlap (the
// ledger's unique index absorbs races as alreadyExists, never duplicates).
type ReconcilerService struct {
	db     *gorm.DB
	ledger *LedgerService
}

func NewReconcilerService(db *gorm.DB) *ReconcilerService {
	return &ReconcilerService{db: db, ledger: NewLedgerService(db)}
}

type ReconcilePreview struct {
	Total         int     `json:"total"`
	Missing       int     `json:"missing"`
	MissingAmount float64 `json:"missingAmount"`
}

type ReconcileResult struct {
	Total         int `json:"total"`
	Fixed         int `json:"fixed"`
	AlreadyExists int `json:"alreadyExists"`
	Errors        int `json:"errors"`
}

// FindMissing returns the ledger-eligible appointments of a salon that have
// no transaction yet. Subtraction is done by id-set membership, not by
// count, so appointments that already have entries are never re-charged.
func (s *ReconcilerService) FindMissing(salonID uuid.UUID, from, to *time.Time) ([]models.Appointment, error) {
	eligible, err := s.findEligible(salonID, from, to)
	if err != nil {
		return nil, err
	}
	return s.subtractRecorded(salonID, eligible)
}

// Preview is the read-only variant of FindMissing, summing the amount that
// a backfill run would write. Run it before Backfill.
func (s *ReconcilerService) Preview(salonID uuid.UUID, from, to *time.Time) (*ReconcilePreview, error) {
	eligible, err := s.findEligible(salonID, from, to)
	if err != nil {
		return nil, err
	}
	missing, err := s.subtractRecorded(salonID, eligible)
	if err != nil {
		return nil, err
	}

	preview := &ReconcilePreview{
		Total:   len(eligible),
		Missing: len(missing),
	}
	for _, appt := range missing {
		preview.MissingAmount += appt.Price
	}
	return preview, nil
}

// Backfill creates the missing transactions through the ledger writer. One
// appointment's failure never aborts the batch; failures are counted and
// the run continues. A second run immediately after reports fixed=0.
func (s *ReconcilerService) Backfill(salonID uuid.UUID, from, to *time.Time) (*ReconcileResult, error) {
	eligible, err := s.findEligible(salonID, from, to)
	if err != nil {
		return nil, err
	}
	missing, err := s.subtractRecorded(salonID, eligible)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Total: len(eligible)}
	for i := range missing {
		_, created, err := s.ledger.EnsureTransactionForAppointment(&missing[i])
		switch {
		case err != nil:
			log.Printf("[RECONCILE] salon %s: appointment %s failed: %v", salonID, missing[i].ID, err)
			result.Errors++
		case created:
			result.Fixed++
		default:
			// A concurrent writer created it mid-run.
			result.AlreadyExists++
		}
	}
	return result, nil
}

func (s *ReconcilerService) findEligible(salonID uuid.UUID, from, to *time.Time) ([]models.Appointment, error) {
	query := s.db.
		Where("salon_id = ?", salonID).
		Where("status IN ?", []string{models.AppointmentStatusCompleted, models.AppointmentStatusConfirmed}).
		Where("price > 0").
		Where("package_id IS NULL")

	if from != nil {
		query = query.Where("start_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("start_time <= ?", *to)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (s *ReconcilerService) subtractRecorded(salonID uuid.UUID, eligible []models.Appointment) ([]models.Appointment, error) {
	var recordedIDs []uuid.UUID
	if err := s.db.Model(&models.Transaction{}).
		Where("salon_id = ? AND type = ? AND appointment_id IS NOT NULL", salonID, models.TransactionTypeAppointment).
		Pluck("appointment_id", &recordedIDs).Error; err != nil {
		return nil, err
	}

	recorded := make(map[uuid.UUID]struct{}, len(recordedIDs))
	for _, id := range recordedIDs {
		recorded[id] = struct{}{}
	}

	var missing []models.Appointment
	for _, appt := range eligible {
		if _, ok := recorded[appt.ID]; !ok {
			missing = append(missing, appt)
		}
	}
	return missing, nil
}

// StartScheduler runs a nightly backfill across all active salons.
// Overlapping runs are safe but wasteful, so a single daily slot is enough.
func (s *ReconcilerService) StartScheduler() {
	c := cron.New()

	c.AddFunc("0 3 * * *", func() {
		s.BackfillAllSalons()
	})

	c.Start()
	log.Println("Reconciler scheduler started")
}

// BackfillAllSalons reconciles every active salon, continuing past
// per-salon failures.
func (s *ReconcilerService) BackfillAllSalons() {
	log.Println("Starting nightly ledger reconciliation...")

	var salons []models.Salon
	if err := s.db.Find(&salons, "is_active = ?", true).Error; err != nil {
		log.Printf("Failed to fetch salons: %v", err)
		return
	}

	for _, salon := range salons {
		result, err := s.Backfill(salon.ID, nil, nil)
		if err != nil {
			log.Printf("Salon %s: reconciliation failed: %v", salon.ID, err)
			continue
		}
		if result.Fixed > 0 || result.Errors > 0 {
			log.Printf("Salon %s: reconciled %d missing transactions (%d already existed, %d errors)",
				salon.ID, result.Fixed, result.AlreadyExists, result.Errors)
		}
	}

	log.Println("Nightly ledger reconciliation completed")
}
