package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/santupramanik23/my-guide-backend/src/utils"
)

const (
	WEBHOOK_PAYMENT_CAPTURED = "payment.captured"
	WEBHOOK_PAYMENT_FAILED   = "payment.failed"

	RECONCILE_BATCH_SIZE = 100
)

// Payments reconciles gateway orders with bookings. Payment is written
// before Booking, and Reconcile repairs bookings left behind by a crash in between.
type Payments struct {
	Bookings BookingStore
	Payments PaymentStore
	Items    ItemLookup
	Notifier Notifier
	Gateway  PaymentGateway
	Deduper  Deduper
	Config   *config.Config
	Now      func() time.Time
}

func NewPayments(bookings BookingStore, payments PaymentStore, items ItemLookup, notifier Notifier, gateway PaymentGateway, deduper Deduper, cfg *config.Config) *Payments {
	return &Payments{
		Bookings: bookings,
		Payments: payments,
		Items:    items,
		Notifier: notifier,
		Gateway:  gateway,
		Deduper:  deduper,
		Config:   cfg,
		Now:      time.Now,
	}
}

func (c *Payments) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

type OrderResult struct {
	Payment  *models.Payment `json:"payment"`
	OrderID  string          `json:"orderId"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	KeyID    string          `json:"keyId"`
}

func (c *Payments) CreateOrder(ctx context.Context, actor types.Actor, body types.CreateOrderRequestBody) (*OrderResult, error) {
	bookingID, err := uuid.Parse(body.BookingID)
	if err != nil {
		return nil, types.ValidationErr("Invalid booking_id")
	}
	b, err := c.Bookings.FindByID(ctx, bookingID, false)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.ID {
		return nil, types.ForbiddenErr("You can only pay for your own bookings")
	}
	if b.PaymentStatus == types.PAYMENT_PAID {
		return nil, types.InvalidStateErr("Booking is already paid")
	}

	receipt := utils.ReceiptToken(b.ID, c.now())
	currency := c.Config.Razorpay.Currency
	gctx, cancel := context.WithTimeout(ctx, c.Config.Razorpay.Timeout)
	defer cancel()
	order, err := c.Gateway.CreateOrder(gctx, lib.RazorpayOrderRequest{
		Amount:   utils.ToMinorUnits(body.Amount),
		Currency: currency,
		Receipt:  receipt,
		Notes:    map[string]string{types.META_BOOKING_ID: b.ID.String()},
	})
	if err != nil {
		log.Printf("Error creating payment order for booking [%s]: %s\n", b.ID.String(), err.Error())
		if _, ok := types.As(err); !ok {
			err = types.GatewayErr("Failed to create payment order", err)
		}
		return nil, err
	}

	// The gateway call can be slow. Check the paid flag again before recording the attempt.
	b, err = c.Bookings.FindByID(ctx, bookingID, false)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == types.PAYMENT_PAID {
		return nil, types.InvalidStateErr("Booking is already paid")
	}

	payment := &models.Payment{
		Amount:      body.Amount,
		Currency:    currency,
		Provider:    types.PROVIDER_RAZORPAY,
		Status:      types.TRANSACTION_CREATED,
		ProviderRef: order.ID,
		Meta: types.JSONB{
			types.META_BOOKING_ID: b.ID.String(),
			types.META_RECEIPT:    receipt,
			types.META_ORDER_ID:   order.ID,
		},
	}
	if err := c.Payments.Create(ctx, payment); err != nil {
		log.Printf("Error saving payment for order [%s]: %s\n", order.ID, err.Error())
		return nil, err
	}
	return &OrderResult{
		Payment:  payment,
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    c.Gateway.KeyID(),
	}, nil
}

// VerifyPayment applies a checkout result reported by the client. Replaying
// it after the payment is already paid changes nothing.
func (c *Payments) VerifyPayment(ctx context.Context, body types.VerifyPaymentRequestBody) (*models.Booking, *models.Payment, error) {
	if !c.Gateway.VerifyPaymentSignature(body.OrderID, body.PaymentID, body.Signature) {
		log.Printf("Invalid payment signature for order [%s]\n", body.OrderID)
		return nil, nil, types.ValidationErr("Invalid payment signature")
	}
	bookingID, err := uuid.Parse(body.BookingID)
	if err != nil {
		return nil, nil, types.ValidationErr("Invalid booking_id")
	}

	payment, err := c.Payments.FindByProviderRef(ctx, body.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if linked := payment.BookingID(); linked != "" && linked != bookingID.String() {
		return nil, nil, types.ValidationErr("Payment does not belong to this booking")
	}
	transitioned := false
	if !payment.IsPaid() {
		payment.Record(types.TRANSACTION_PAID, types.JSONB{
			types.META_PAYMENT_ID: body.PaymentID,
			types.META_SIGNATURE:  body.Signature,
			types.META_PAID_AT:    c.now().UTC().Format(time.RFC3339),
		})
		if err := c.Payments.Save(ctx, payment); err != nil {
			return nil, nil, err
		}
		transitioned = true
	}

	booking, err := c.Bookings.FindByID(ctx, bookingID, false)
	if err != nil {
		return nil, nil, err
	}
	if booking.PaymentStatus != types.PAYMENT_PAID {
		booking.MarkPaid(body.PaymentID)
		if err := c.Bookings.Save(ctx, booking); err != nil {
			return nil, nil, err
		}
	}
	if transitioned {
		dispatchNotification(c.Notifier, c.Items, c.Config.NotifyTimeout, types.NOTIFY_PAYMENT_CONFIRMATION, *booking, recipient(booking, nil))
	}
	return booking, payment, nil
}

// HandleWebhook applies a gateway event. The returned error is for logging;
// the gateway is acknowledged whatever happens here.
func (c *Payments) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	secret := c.Config.Razorpay.WebhookSecret
	if secret == "" {
		log.Println("[razorpay] RAZORPAY_WEBHOOK_SECRET is not set. Event acknowledged without processing")
		return nil
	}
	if !lib.VerifySignature(body, signature, secret) {
		log.Println("[razorpay] Invalid webhook signature. Event ignored")
		return types.ValidationErr("Invalid webhook signature")
	}
	event, err := lib.ParseRazorpayWebhook(body)
	if err != nil {
		log.Printf("[razorpay] Error parsing webhook: %s\n", err.Error())
		return types.ValidationErr(err.Error())
	}
	if event.Event != WEBHOOK_PAYMENT_CAPTURED && event.Event != WEBHOOK_PAYMENT_FAILED {
		log.Printf("[razorpay] Ignoring event %s for order [%s]\n", event.Event, event.OrderID)
		return nil
	}
	if event.OrderID == "" {
		log.Printf("[razorpay] Event %s has no order id. Ignored\n", event.Event)
		return types.ValidationErr("Webhook event has no order id")
	}

	key := fmt.Sprintf("%s:%s", event.Event, event.PaymentID)
	if event.PaymentID == "" {
		key = fmt.Sprintf("%s:%s", event.Event, event.OrderID)
	}
	if c.Deduper != nil {
		first, err := c.Deduper.Claim(ctx, key)
		if err != nil {
			log.Printf("[redis] Error claiming webhook %s: %s\n", key, err.Error())
		}
		if !first {
			log.Printf("[razorpay] Duplicate event %s for order [%s]. Skipped\n", event.Event, event.OrderID)
			return nil
		}
	}

	switch event.Event {
	case WEBHOOK_PAYMENT_CAPTURED:
		err = c.applyCaptured(ctx, event)
	case WEBHOOK_PAYMENT_FAILED:
		err = c.applyFailed(ctx, event)
	}
	if err != nil {
		log.Printf("[razorpay] Error processing %s for order [%s]: %s\n", event.Event, event.OrderID, err.Error())
		if c.Deduper != nil {
			if rerr := c.Deduper.Release(ctx, key); rerr != nil {
				log.Printf("[redis] Error releasing webhook %s: %s\n", key, rerr.Error())
			}
		}
		return err
	}
	return nil
}

func (c *Payments) applyCaptured(ctx context.Context, event *lib.RazorpayWebhookEvent) error {
	payment, err := c.Payments.FindByProviderRef(ctx, event.OrderID)
	if types.IsNotFound(err) {
		log.Printf("[razorpay] %s: no payment for order [%s]\n", event.Event, event.OrderID)
		return nil
	}
	if err != nil {
		return err
	}
	if payment.IsPaid() {
		log.Printf("[razorpay] %s: order [%s] is already paid\n", event.Event, event.OrderID)
		return nil
	}
	payment.Record(types.TRANSACTION_PAID, types.JSONB{
		types.META_PAYMENT_ID:        event.PaymentID,
		types.META_WEBHOOK_PROCESSED: c.now().UTC().Format(time.RFC3339),
	})
	if err := c.Payments.Save(ctx, payment); err != nil {
		return err
	}
	booking, err := c.settleBooking(ctx, payment, event.PaymentID)
	if err != nil {
		return err
	}
	if booking != nil {
		dispatchNotification(c.Notifier, c.Items, c.Config.NotifyTimeout, types.NOTIFY_PAYMENT_CONFIRMATION, *booking, recipient(booking, nil))
	}
	log.Printf("[razorpay] %s: order [%s] marked paid\n", event.Event, event.OrderID)
	return nil
}

func (c *Payments) applyFailed(ctx context.Context, event *lib.RazorpayWebhookEvent) error {
	payment, err := c.Payments.FindByProviderRef(ctx, event.OrderID)
	if types.IsNotFound(err) {
		log.Printf("[razorpay] %s: no payment for order [%s]\n", event.Event, event.OrderID)
		return nil
	}
	if err != nil {
		return err
	}
	// A failed attempt never overrides a captured one.
	if payment.IsPaid() || payment.Status == types.TRANSACTION_FAILED {
		log.Printf("[razorpay] %s: order [%s] is already %s\n", event.Event, event.OrderID, payment.Status)
		return nil
	}
	payment.Record(types.TRANSACTION_FAILED, types.JSONB{
		types.META_FAILURE_REASON:    event.ErrorReason,
		types.META_WEBHOOK_PROCESSED: c.now().UTC().Format(time.RFC3339),
	})
	if err := c.Payments.Save(ctx, payment); err != nil {
		return err
	}
	log.Printf("[razorpay] %s: order [%s] marked failed\n", event.Event, event.OrderID)
	return nil
}

// settleBooking marks the linked booking paid. It returns nil when there is
// no linked booking or it was already paid.
func (c *Payments) settleBooking(ctx context.Context, payment *models.Payment, paymentID string) (*models.Booking, error) {
	linked := payment.BookingID()
	if linked == "" {
		return nil, nil
	}
	bookingID, err := uuid.Parse(linked)
	if err != nil {
		log.Printf("Payment [%s] links to an invalid booking id %q\n", payment.ID.String(), linked)
		return nil, nil
	}
	booking, err := c.Bookings.FindByID(ctx, bookingID, false)
	if types.IsNotFound(err) {
		log.Printf("Booking [%s] linked to payment [%s] was not found\n", linked, payment.ID.String())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if booking.PaymentStatus == types.PAYMENT_PAID {
		return nil, nil
	}
	booking.MarkPaid(paymentID)
	if err := c.Bookings.Save(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// MarkPaid is the admin override for payments confirmed outside the gateway flow.
func (c *Payments) MarkPaid(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Payment, *models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, nil, types.ForbiddenErr("Admin access required")
	}
	payment, err := c.Payments.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !payment.IsPaid() {
		payment.Record(types.TRANSACTION_PAID, types.JSONB{
			types.META_MANUALLY_MARKED_BY: actor.ID,
			types.META_MANUALLY_MARKED_AT: c.now().UTC().Format(time.RFC3339),
		})
		if err := c.Payments.Save(ctx, payment); err != nil {
			return nil, nil, err
		}
	}
	if _, err := c.settleBooking(ctx, payment, payment.Meta.String(types.META_PAYMENT_ID)); err != nil {
		return nil, nil, err
	}
	var booking *models.Booking
	if linked, err := uuid.Parse(payment.BookingID()); err == nil {
		booking, err = c.Bookings.FindByID(ctx, linked, false)
		if err != nil && !types.IsNotFound(err) {
			return nil, nil, err
		}
	}
	return payment, booking, nil
}

func (c *Payments) GetPayment(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Payment, error) {
	payment, err := c.Payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return payment, nil
	}
	bookingID, err := uuid.Parse(payment.BookingID())
	if err != nil {
		return nil, types.ForbiddenErr("You are not allowed to view this payment")
	}
	booking, err := c.Bookings.FindByID(ctx, bookingID, true)
	if err != nil {
		if types.IsNotFound(err) {
			return nil, types.ForbiddenErr("You are not allowed to view this payment")
		}
		return nil, err
	}
	if booking.UserID != actor.ID {
		return nil, types.ForbiddenErr("You are not allowed to view this payment")
	}
	return payment, nil
}

func (c *Payments) ListPayments(ctx context.Context, actor types.Actor) ([]models.Payment, error) {
	if actor.IsAdmin() {
		return c.Payments.ListAll(ctx)
	}
	bookings, err := c.Bookings.ListByUser(ctx, actor.ID, true)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID.String())
	}
	return c.Payments.ListByBookingIDs(ctx, ids)
}

// Reconcile marks bookings paid whose payment was captured but whose own
// update never landed. It returns the number of bookings repaired.
func (c *Payments) Reconcile(ctx context.Context) (int, error) {
	payments, err := c.Payments.ListUnreconciled(ctx, RECONCILE_BATCH_SIZE)
	if err != nil {
		return 0, err
	}
	var errs []error
	repaired := 0
	for i := range payments {
		payment := &payments[i]
		booking, err := c.settleBooking(ctx, payment, payment.Meta.String(types.META_PAYMENT_ID))
		if err != nil {
			log.Printf("Error reconciling payment [%s]: %s\n", payment.ID.String(), err.Error())
			errs = append(errs, err)
			continue
		}
		if booking == nil {
			continue
		}
		payment.Record(payment.Status, types.JSONB{
			types.META_RECONCILED_AT: c.now().UTC().Format(time.RFC3339),
		})
		if err := c.Payments.Save(ctx, payment); err != nil {
			log.Printf("Error recording reconciliation on payment [%s]: %s\n", payment.ID.String(), err.Error())
		}
		repaired++
		log.Printf("Reconciled booking [%s] with payment [%s]\n", booking.ID.String(), payment.ID.String())
	}
	return repaired, errors.Join(errs...)
}
