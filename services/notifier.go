package services

import (
	"fmt"
	"log"
	"os"
	"strings"

	"salonlink-backend/models"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

// NotifierService sends payment receipt messages. Delivery is strictly
// best-effort: a send failure is logged and never affects payment state.
type NotifierService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewNotifierService(db *gorm.DB) *NotifierService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &NotifierService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

// SendPaymentReceipt texts a settlement confirmation to the paying
// customer, if the payment is linked to one with a phone on file.
func (s *NotifierService) SendPaymentReceipt(payment *models.Payment) {
	if payment.CustomerID == nil {
		return
	}

	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", *payment.CustomerID).Error; err != nil {
		log.Printf("Receipt for payment %s: customer lookup failed: %v", payment.MerchantOrderID, err)
		return
	}
	if customer.Phone == "" {
		return
	}

	var salon models.Salon
	salonName := "your salon"
	if err := s.db.First(&salon, "id = ?", payment.SalonID).Error; err == nil {
		salonName = salon.Name
	}

	message := fmt.Sprintf("Hi %s, your payment of %.2f %s to %s was received. Ref: %s",
		customer.FirstName, payment.Amount, payment.Currency, salonName, payment.MerchantOrderID)

	// WhatsApp if the phone is in E.164 form, SMS otherwise
	channel := "sms"
	to := customer.Phone
	if strings.HasPrefix(customer.Phone, "+") {
		to = "whatsapp:" + customer.Phone
		channel = "whatsapp"
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(message)

	if channel == "whatsapp" {
		params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	} else {
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	}

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send receipt to %s: %v", customer.Phone, err)
		return
	}
	if resp.Sid != nil {
		log.Printf("Receipt sent to %s, SID: %s", customer.Phone, *resp.Sid)
	}
}
