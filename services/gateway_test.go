package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGatewayClient() *GatewayClient {
	return &GatewayClient{
		MerchantID:     "123456",
		MerchantKey:    "test-key",
		MerchantSalt:   "test-salt",
		TestMode:       true,
		NoInstallment:  1,
		MaxInstallment: 0,
		TimeoutLimit:   30,
		HTTPClient:     http.DefaultClient,
	}
}

func testChargeRequest() ChargeRequest {
	return ChargeRequest{
		MerchantOrderID: "20240101120000ABCD1234",
		Amount:          150.00,
		Currency:        "TL",
		Basket:          `[["Haircut",150,1]]`,
		SuccessURL:      "https://example.com/ok",
		FailURL:         "https://example.com/fail",
		CustomerIP:      "203.0.113.7",
		CustomerEmail:   "jane@example.com",
	}
}

func TestChargeToken_MatchesManualHMAC(t *testing.T) {
	t.Parallel()

	g := testGatewayClient()
	req := testChargeRequest()

	payload := "123456" + "203.0.113.7" + "20240101120000ABCD1234" + "jane@example.com" +
		"15000" + `[["Haircut",150,1]]` + "1" + "0" + "TL" + "1" + "test-salt"
	mac := hmac.New(sha256.New, []byte("test-key"))
	mac.Write([]byte(payload))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, g.ChargeToken(req))
}

func TestChargeToken_Deterministic(t *testing.T) {
	t.Parallel()

	g := testGatewayClient()
	req := testChargeRequest()

	assert.Equal(t, g.ChargeToken(req), g.ChargeToken(req))

	other := req
	other.Amount = 150.01
	assert.NotEqual(t, g.ChargeToken(req), g.ChargeToken(other))
}

func TestMinorUnits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(15000), MinorUnits(150.00))
	assert.Equal(t, int64(15099), MinorUnits(150.99))
	assert.Equal(t, int64(10), MinorUnits(0.1))
}

func TestVerifyCallback(t *testing.T) {
	t.Parallel()

	g := testGatewayClient()

	payload := "ORDER1" + g.MerchantSalt + "success" + "15000"
	mac := hmac.New(sha256.New, []byte(g.MerchantKey))
	mac.Write([]byte(payload))
	good := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, g.VerifyCallback("ORDER1", "success", "15000", good))
	assert.False(t, g.VerifyCallback("ORDER1", "success", "15000", "tampered"))
	assert.False(t, g.VerifyCallback("ORDER1", "failed", "15000", good), "status is covered by the hash")
	assert.False(t, g.VerifyCallback("ORDER2", "success", "15000", good), "order id is covered by the hash")
	assert.False(t, g.VerifyCallback("ORDER1", "success", "15000", ""))
}

func TestInitiateCharge_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "123456", r.PostFormValue("merchant_id"))
		assert.Equal(t, "20240101120000ABCD1234", r.PostFormValue("merchant_oid"))
		assert.Equal(t, "15000", r.PostFormValue("payment_amount"))
		assert.NotEmpty(t, r.PostFormValue("paytr_token"))
		assert.Equal(t, "1", r.PostFormValue("test_mode"))

		w.Write([]byte(`{"status":"success","token":"tok-abc"}`))
	}))
	defer srv.Close()

	g := testGatewayClient()
	g.TokenURL = srv.URL

	token, err := g.InitiateCharge(context.Background(), testChargeRequest())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestInitiateCharge_Rejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failed","reason":"invalid hash"}`))
	}))
	defer srv.Close()

	g := testGatewayClient()
	g.TokenURL = srv.URL

	_, err := g.InitiateCharge(context.Background(), testChargeRequest())
	var gatewayErr *GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, "invalid hash", gatewayErr.Reason)
}

func TestInitiateCharge_MissingCredentials(t *testing.T) {
	t.Parallel()

	g := testGatewayClient()
	g.MerchantKey = ""

	_, err := g.InitiateCharge(context.Background(), testChargeRequest())
	var gatewayErr *GatewayError
	require.True(t, errors.As(err, &gatewayErr))
}

func TestInitiateCharge_NetworkErrorIsNotGatewayError(t *testing.T) {
	t.Parallel()

	g := testGatewayClient()
	// A closed server: connection refused, the payment must stay pending
	// so the error must not look like a processor rejection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	g.TokenURL = srv.URL
	srv.Close()

	_, err := g.InitiateCharge(context.Background(), testChargeRequest())
	require.Error(t, err)
	var gatewayErr *GatewayError
	assert.False(t, errors.As(err, &gatewayErr))
}
