package lib

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/tidwall/gjson"
)

type RazorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type RazorpayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// RazorpayClient talks to the Orders API. Signatures are checked locally.
// A client built without credentials fails every call with a GatewayError.
type RazorpayClient struct {
	keyID      string
	keySecret  string
	apiBase    string
	httpClient *http.Client
}

var razorpayClient *RazorpayClient

func NewRazorpayClient(cfg config.RazorpayConfig) *RazorpayClient {
	apiBase := cfg.APIURL
	if apiBase == "" {
		apiBase = config.DEFAULT_RAZORPAY_API_URL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DEFAULT_GATEWAY_TIMEOUT
	}
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		log.Println("[razorpay] credentials are not set. Payment orders will fail")
	}
	return &RazorpayClient{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func GetRazorpayClient() *RazorpayClient {
	if razorpayClient != nil {
		return razorpayClient
	}
	razorpayClient = NewRazorpayClient(config.Load().Razorpay)
	return razorpayClient
}

// SetRazorpayClient replaces the shared client with a custom one
func SetRazorpayClient(c *RazorpayClient) *RazorpayClient {
	razorpayClient = c
	return razorpayClient
}

func (c *RazorpayClient) Configured() bool {
	return c != nil && c.keyID != "" && c.keySecret != ""
}

func (c *RazorpayClient) KeyID() string {
	return c.keyID
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, orderReq RazorpayOrderRequest) (*RazorpayOrder, error) {
	if !c.Configured() {
		return nil, types.GatewayErr("Payment gateway is not configured", nil)
	}
	payload, err := json.Marshal(&orderReq)
	if err != nil {
		return nil, types.InternalErr(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/orders", c.apiBase), bytes.NewReader(payload))
	if err != nil {
		return nil, types.InternalErr(err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, types.GatewayErr("Failed to create payment order", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.GatewayErr("Failed to read payment order response", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		reason := gjson.GetBytes(body, "error.description").String()
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return nil, types.GatewayErr("Failed to create payment order", fmt.Errorf("razorpay responded %d: %s", resp.StatusCode, reason))
	}

	var order RazorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, types.GatewayErr("Invalid payment order response", err)
	}
	if order.ID == "" {
		return nil, types.GatewayErr("Invalid payment order response", errors.New("missing order id"))
	}
	return &order, nil
}

// VerifyPaymentSignature checks the checkout signature, HMAC-SHA256 of "orderId|paymentId".
func (c *RazorpayClient) VerifyPaymentSignature(orderID string, paymentID string, signature string) bool {
	if c == nil || c.keySecret == "" {
		return false
	}
	return VerifySignature([]byte(orderID+"|"+paymentID), signature, c.keySecret)
}

func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(payload []byte, signature string, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

type RazorpayWebhookEvent struct {
	Event       string
	OrderID     string
	PaymentID   string
	ErrorReason string
}

var ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

func ParseRazorpayWebhook(body []byte) (*RazorpayWebhookEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidWebhookPayload
	}
	entity := gjson.GetBytes(body, "payload.payment.entity")
	reason := entity.Get("error_reason").String()
	if reason == "" {
		reason = entity.Get("error_description").String()
	}
	event := &RazorpayWebhookEvent{
		Event:       gjson.GetBytes(body, "event").String(),
		OrderID:     entity.Get("order_id").String(),
		PaymentID:   entity.Get("id").String(),
		ErrorReason: reason,
	}
	if event.Event == "" {
		return nil, ErrInvalidWebhookPayload
	}
	return event, nil
}
