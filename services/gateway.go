package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultGatewayTokenURL = "https://www.paytr.com/odeme/api/get-token"

// GatewayError is a rejection from the payment processor: bad signature,
// bad config, or the processor refusing the charge. The Payment stays
// pending (or is marked failed with the reason) - it is never guessed into
// a terminal state by the caller.
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string {
	return "gateway rejected charge: " + e.Reason
}

// ChargeRequest carries everything the gateway needs to issue a charge
// token. MerchantOrderID must be pre-generated by the caller; it doubles as
// the idempotency anchor for the whole payment pipeline, so the client
// never invents one.
type ChargeRequest struct {
	MerchantOrderID string
	Amount          float64
	Currency        string
	Basket          string // JSON description of what is being purchased
	SuccessURL      string
	FailURL         string
	CustomerIP      string
	CustomerEmail   string
	CustomerName    string
	CustomerAddress string
	CustomerPhone   string
}

type GatewayClient struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string

	TokenURL       string
	TestMode       bool
	NoInstallment  int
	MaxInstallment int
	TimeoutLimit   int // minutes the user has to complete the charge

	HTTPClient *http.Client
}

func NewGatewayClientFromEnv() *GatewayClient {
	tokenURL := strings.TrimSpace(os.Getenv("PAYTR_TOKEN_URL"))
	if tokenURL == "" {
		tokenURL = defaultGatewayTokenURL
	}

	return &GatewayClient{
		MerchantID:     strings.TrimSpace(os.Getenv("PAYTR_MERCHANT_ID")),
		MerchantKey:    strings.TrimSpace(os.Getenv("PAYTR_MERCHANT_KEY")),
		MerchantSalt:   strings.TrimSpace(os.Getenv("PAYTR_MERCHANT_SALT")),
		TokenURL:       tokenURL,
		TestMode:       os.Getenv("PAYTR_TEST_MODE") == "1",
		NoInstallment:  1,
		MaxInstallment: 0,
		TimeoutLimit:   30,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// MinorUnits converts a decimal amount to the integer minor-unit form the
// gateway expects (150.00 -> 15000).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *GatewayClient) testModeFlag() string {
	if g.TestMode {
		return "1"
	}
	return "0"
}

func (g *GatewayClient) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(g.MerchantKey))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ChargeToken computes the request signature over the canonical field
// concatenation. Pure function of the request and the merchant credentials,
// no network involved.
func (g *GatewayClient) ChargeToken(req ChargeRequest) string {
	payload := g.MerchantID +
		req.CustomerIP +
		req.MerchantOrderID +
		req.CustomerEmail +
		strconv.FormatInt(MinorUnits(req.Amount), 10) +
		req.Basket +
		strconv.Itoa(g.NoInstallment) +
		strconv.Itoa(g.MaxInstallment) +
		req.Currency +
		g.testModeFlag()
	// The token request appends the salt to the field concatenation; the
	// callback hash instead embeds it after the order id (see VerifyCallback).
	return g.sign(payload + g.MerchantSalt)
}

// InitiateCharge requests a charge token from the processor. On any
// non-success answer it returns a *GatewayError with the processor's
// reason; network errors come back as-is so the caller can leave the
// Payment pending.
func (g *GatewayClient) InitiateCharge(ctx context.Context, req ChargeRequest) (string, error) {
	if g.MerchantID == "" || g.MerchantKey == "" || g.MerchantSalt == "" {
		return "", &GatewayError{Reason: "merchant credentials are not configured"}
	}

	form := url.Values{}
	form.Set("merchant_id", g.MerchantID)
	form.Set("user_ip", req.CustomerIP)
	form.Set("merchant_oid", req.MerchantOrderID)
	form.Set("email", req.CustomerEmail)
	form.Set("payment_amount", strconv.FormatInt(MinorUnits(req.Amount), 10))
	form.Set("paytr_token", g.ChargeToken(req))
	form.Set("user_basket", req.Basket)
	form.Set("no_installment", strconv.Itoa(g.NoInstallment))
	form.Set("max_installment", strconv.Itoa(g.MaxInstallment))
	form.Set("user_name", req.CustomerName)
	form.Set("user_address", req.CustomerAddress)
	form.Set("user_phone", req.CustomerPhone)
	form.Set("merchant_ok_url", req.SuccessURL)
	form.Set("merchant_fail_url", req.FailURL)
	form.Set("timeout_limit", strconv.Itoa(g.TimeoutLimit))
	form.Set("currency", req.Currency)
	form.Set("test_mode", g.testModeFlag())
	form.Set("lang", "tr")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Status string `json:"status"`
		Token  string `json:"token"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unexpected gateway response: %w", err)
	}

	if parsed.Status != "success" {
		reason := parsed.Reason
		if reason == "" {
			reason = "unknown"
		}
		return "", &GatewayError{Reason: reason}
	}

	return parsed.Token, nil
}

// VerifyCallback recomputes the callback signature and compares it in
// constant time. A mismatch is an authentication failure, not a payment
// failure: the caller must reject the request without touching any Payment.
func (g *GatewayClient) VerifyCallback(merchantOrderID, status, totalAmount, providedHash string) bool {
	if providedHash == "" {
		return false
	}
	expected := g.sign(merchantOrderID + g.MerchantSalt + status + totalAmount)
	return hmac.Equal([]byte(expected), []byte(providedHash))
}
