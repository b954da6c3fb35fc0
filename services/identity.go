package services

import (
	"log"
	"sync"

	"salonlink-backend/models"
	"salonlink-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerRef points at one tenant-scoped customer row. A single person who
// has visited N salons resolves to N refs; there is no shared primary key
// across salons, the normalized phone is the only correlation attribute.
type CustomerRef struct {
	CustomerID uuid.UUID `json:"customerId"`
	SalonID    uuid.UUID `json:"salonId"`
	SalonName  string    `json:"salonName"`
}

type SalonAppointments struct {
	SalonID      uuid.UUID            `json:"salonId"`
	SalonName    string               `json:"salonName"`
	Appointments []models.Appointment `json:"appointments"`
}

type SalonPackages struct {
	SalonID   uuid.UUID                `json:"salonId"`
	SalonName string                   `json:"salonName"`
	Packages  []models.CustomerPackage `json:"packages"`
}

type IdentityService struct {
	db *gorm.DB
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db}
}

// Resolve expands normalized phone digits into every customer row whose
// stored phone contains them. Substring match on purpose: historical rows
// store phones in inconsistent formats (leading zero, country code, spaces).
// Rows whose salon is gone or inactive are dropped so orphaned records
// never surface. An empty result means "no known identity", not an error.
func (s *IdentityService) Resolve(digits string) ([]CustomerRef, error) {
	if digits == "" {
		return nil, nil
	}

	var customers []models.Customer
	if err := s.db.Where("phone LIKE ?", "%"+digits+"%").Find(&customers).Error; err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, nil
	}

	salonIDs := make([]uuid.UUID, 0, len(customers))
	seen := make(map[uuid.UUID]struct{}, len(customers))
	for _, customer := range customers {
		if _, ok := seen[customer.SalonID]; !ok {
			seen[customer.SalonID] = struct{}{}
			salonIDs = append(salonIDs, customer.SalonID)
		}
	}

	var salons []models.Salon
	if err := s.db.Where("id IN ? AND is_active = ?", salonIDs, true).Find(&salons).Error; err != nil {
		return nil, err
	}
	active := make(map[uuid.UUID]string, len(salons))
	for _, salon := range salons {
		active[salon.ID] = salon.Name
	}

	var refs []CustomerRef
	for _, customer := range customers {
		name, ok := active[customer.SalonID]
		if !ok {
			continue
		}
		refs = append(refs, CustomerRef{
			CustomerID: customer.ID,
			SalonID:    customer.SalonID,
			SalonName:  name,
		})
	}
	return refs, nil
}

// ResolvePhone is Resolve over a raw phone string in any common format.
func (s *IdentityService) ResolvePhone(phone string) (string, []CustomerRef, error) {
	digits := utils.NormalizePhone(phone)
	refs, err := s.Resolve(digits)
	return digits, refs, err
}

// AppointmentsAcrossSalons aggregates one person's appointments over every
// salon their phone resolves to. Per-salon fetches run concurrently; a
// failing salon is logged and omitted from the aggregate so one struggling
// tenant never breaks the whole read.
func (s *IdentityService) AppointmentsAcrossSalons(phone string) ([]SalonAppointments, error) {
	_, refs, err := s.ResolvePhone(phone)
	if err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []SalonAppointments
	)

	for _, ref := range refs {
		wg.Add(1)
		go func(ref CustomerRef) {
			defer wg.Done()

			var appointments []models.Appointment
			err := s.db.
				Where("salon_id = ? AND customer_id = ?", ref.SalonID, ref.CustomerID).
				Order("start_time DESC").
				Find(&appointments).Error
			if err != nil {
				log.Printf("[IDENTITY] salon %s: appointment fetch failed: %v", ref.SalonID, err)
				return
			}

			mu.Lock()
			results = append(results, SalonAppointments{
				SalonID:      ref.SalonID,
				SalonName:    ref.SalonName,
				Appointments: appointments,
			})
			mu.Unlock()
		}(ref)
	}
	wg.Wait()

	return results, nil
}

// PackagesAcrossSalons aggregates one person's packages over every salon
// their phone resolves to, with the same partial-failure policy as
// AppointmentsAcrossSalons.
func (s *IdentityService) PackagesAcrossSalons(phone string) ([]SalonPackages, error) {
	_, refs, err := s.ResolvePhone(phone)
	if err != nil {
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []SalonPackages
	)

	for _, ref := range refs {
		wg.Add(1)
		go func(ref CustomerRef) {
			defer wg.Done()

			var packages []models.CustomerPackage
			err := s.db.
				Where("salon_id = ? AND customer_id = ? AND is_active = ?", ref.SalonID, ref.CustomerID, true).
				Find(&packages).Error
			if err != nil {
				log.Printf("[IDENTITY] salon %s: package fetch failed: %v", ref.SalonID, err)
				return
			}

			mu.Lock()
			results = append(results, SalonPackages{
				SalonID:   ref.SalonID,
				SalonName: ref.SalonName,
				Packages:  packages,
			})
			mu.Unlock()
		}(ref)
	}
	wg.Wait()

	return results, nil
}
