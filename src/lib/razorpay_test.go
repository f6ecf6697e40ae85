package lib

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hmacHex(payload string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := NewRazorpayClient(config.RazorpayConfig{KeyID: "rzp_test", KeySecret: "s3cret"})
	good := hmacHex("order_1|pay_1", "s3cret")

	assert.True(t, c.VerifyPaymentSignature("order_1", "pay_1", good))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_2", good))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", hmacHex("order_1|pay_1", "other")))
	tampered := []byte(good)
	tampered[len(tampered)-1] ^= 1
	assert.NotEqual(t, good, string(tampered))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", string(tampered)))
	assert.False(t, c.VerifyPaymentSignature("order_1", "pay_1", ""))

	unconfigured := NewRazorpayClient(config.RazorpayConfig{})
	assert.False(t, unconfigured.VerifyPaymentSignature("order_1", "pay_1", good))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := hmacHex(string(body), "whsec")
	assert.True(t, VerifySignature(body, sig, "whsec"))
	assert.False(t, VerifySignature(body, sig, "other"))
	assert.False(t, VerifySignature(body, sig, ""))
}

func TestCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test", user)
		assert.Equal(t, "s3cret", pass)
		assert.Equal(t, "/orders", r.URL.Path)

		var req RazorpayOrderRequest
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(24600), req.Amount)
		assert.Equal(t, "INR", req.Currency)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RazorpayOrder{ID: "order_abc", Entity: "order", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Status: "created"})
	}))
	defer server.Close()

	c := NewRazorpayClient(config.RazorpayConfig{KeyID: "rzp_test", KeySecret: "s3cret", APIURL: server.URL, Timeout: time.Second})
	order, err := c.CreateOrder(context.Background(), RazorpayOrderRequest{Amount: 24600, Currency: "INR", Receipt: "bk_1"})
	require.Nil(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "bk_1", order.Receipt)
}

func TestCreateOrderGatewayFailures(t *testing.T) {
	t.Run("unconfigured client fails closed", func(t *testing.T) {
		c := NewRazorpayClient(config.RazorpayConfig{})
		_, err := c.CreateOrder(context.Background(), RazorpayOrderRequest{Amount: 100, Currency: "INR"})
		assert.Equal(t, types.GatewayError, types.KindOf(err))
	})

	t.Run("error response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount exceeds maximum"}}`))
		}))
		defer server.Close()

		c := NewRazorpayClient(config.RazorpayConfig{KeyID: "k", KeySecret: "s", APIURL: server.URL})
		_, err := c.CreateOrder(context.Background(), RazorpayOrderRequest{Amount: 100, Currency: "INR"})
		assert.Equal(t, types.GatewayError, types.KindOf(err))
		assert.Contains(t, err.Error(), "amount exceeds maximum")
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		c := NewRazorpayClient(config.RazorpayConfig{KeyID: "k", KeySecret: "s", APIURL: server.URL, Timeout: 20 * time.Millisecond})
		_, err := c.CreateOrder(context.Background(), RazorpayOrderRequest{Amount: 100, Currency: "INR"})
		assert.Equal(t, types.GatewayError, types.KindOf(err))
	})
}

func TestParseRazorpayWebhook(t *testing.T) {
	captured := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","status":"captured"}}}}`)
	event, err := ParseRazorpayWebhook(captured)
	require.Nil(t, err)
	assert.Equal(t, "payment.captured", event.Event)
	assert.Equal(t, "order_9", event.OrderID)
	assert.Equal(t, "pay_9", event.PaymentID)

	failed := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_8","order_id":"order_8","error_description":"card declined"}}}}`)
	event, err = ParseRazorpayWebhook(failed)
	require.Nil(t, err)
	assert.Equal(t, "card declined", event.ErrorReason)

	_, err = ParseRazorpayWebhook([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)
	_, err = ParseRazorpayWebhook([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)
}

func TestRazorpayClientSingleton(t *testing.T) {
	defer SetRazorpayClient(nil)
	c := SetRazorpayClient(NewRazorpayClient(config.RazorpayConfig{KeyID: "rzp_test", KeySecret: "s3cret"}))
	assert.Same(t, c, GetRazorpayClient())
	assert.Equal(t, "rzp_test", GetRazorpayClient().KeyID())

	SetRazorpayClient(nil)
	t.Setenv("RAZORPAY_KEY_ID", "rzp_env")
	t.Setenv("RAZORPAY_KEY_SECRET", "env_secret")
	assert.Equal(t, "rzp_env", GetRazorpayClient().KeyID())
	assert.True(t, GetRazorpayClient().Configured())
}
