package controllers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyBody(b *models.Booking, orderID string, paymentID string) types.VerifyPaymentRequestBody {
	return types.VerifyPaymentRequestBody{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: lib.SignPayload([]byte(orderID+"|"+paymentID), testSecret),
		BookingID: b.ID.String(),
	}
}

func webhookBody(event string, orderID string, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{
		"entity": "event",
		"event": %q,
		"payload": {"payment": {"entity": {"id": %q, "order_id": %q, "status": "captured", "error_reason": "card_declined"}}}
	}`, event, paymentID, orderID))
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)

	res, err := f.payments.CreateOrder(ctx, traveller, types.CreateOrderRequestBody{BookingID: b.ID.String(), Amount: 246})
	require.NoError(t, err)
	assert.Equal(t, "order_1", res.OrderID)
	assert.Equal(t, int64(24600), res.Amount)
	assert.Equal(t, "INR", res.Currency)
	assert.Equal(t, "rzp_test_key", res.KeyID)

	require.Len(t, f.gateway.requests, 1)
	receipt := f.gateway.requests[0].Receipt
	assert.LessOrEqual(t, len(receipt), 40)
	assert.Contains(t, receipt, fmt.Sprint(f.now.Unix()))

	p, err := f.store.Payments.FindByProviderRef(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, types.TRANSACTION_CREATED, p.Status)
	assert.Equal(t, types.PROVIDER_RAZORPAY, p.Provider)
	assert.Equal(t, 246.0, p.Amount)
	assert.Equal(t, b.ID.String(), p.BookingID())
	assert.Equal(t, receipt, p.Meta.String(types.META_RECEIPT))
	assert.Equal(t, "order_1", p.Meta.String(types.META_ORDER_ID))
}

func TestCreateOrderGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	paid := f.seedBooking(t, func(b *models.Booking) { b.PaymentStatus = types.PAYMENT_PAID })

	_, err := f.payments.CreateOrder(ctx, stranger, types.CreateOrderRequestBody{BookingID: b.ID.String(), Amount: 10})
	assert.Equal(t, types.Forbidden, types.KindOf(err))

	_, err = f.payments.CreateOrder(ctx, traveller, types.CreateOrderRequestBody{BookingID: paid.ID.String(), Amount: 10})
	assert.Equal(t, types.InvalidState, types.KindOf(err))
	assert.Equal(t, "Booking is already paid", types.PublicMessage(err))

	_, err = f.payments.CreateOrder(ctx, traveller, types.CreateOrderRequestBody{BookingID: uuid.NewString(), Amount: 10})
	assert.Equal(t, types.NotFound, types.KindOf(err))
	assert.Empty(t, f.gateway.requests)

	f.gateway.err = fmt.Errorf("connection reset")
	_, err = f.payments.CreateOrder(ctx, traveller, types.CreateOrderRequestBody{BookingID: b.ID.String(), Amount: 10})
	assert.Equal(t, types.GatewayError, types.KindOf(err))

	payments, _ := f.store.Payments.ListAll(ctx)
	assert.Empty(t, payments)
}

func TestCreateOrderFailsClosedWithoutCredentials(t *testing.T) {
	f := newFixture()
	f.payments.Gateway = lib.NewRazorpayClient(config.RazorpayConfig{})
	b := f.seedBooking(t, nil)

	_, err := f.payments.CreateOrder(context.Background(), traveller, types.CreateOrderRequestBody{BookingID: b.ID.String(), Amount: 10})
	assert.Equal(t, types.GatewayError, types.KindOf(err))
	payments, _ := f.store.Payments.ListAll(context.Background())
	assert.Empty(t, payments)
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	f := newFixture()
	f.payments.Gateway = lib.NewRazorpayClient(config.RazorpayConfig{KeyID: "rzp_test_key", KeySecret: testSecret})
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")
	body := verifyBody(b, "order_1", "pay_1")

	booking, payment, err := f.payments.VerifyPayment(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)
	assert.Equal(t, types.PAYMENT_PAID, booking.PaymentStatus)
	assert.Equal(t, "pay_1", *booking.PaymentID)
	assert.Equal(t, types.TRANSACTION_PAID, payment.Status)
	assert.Equal(t, body.Signature, payment.Meta.String(types.META_SIGNATURE))

	afterFirst := f.payment(t, p.ID)
	bookingAfterFirst := f.booking(t, b.ID)

	f.now = f.now.Add(time.Minute)
	_, _, err = f.payments.VerifyPayment(ctx, body)
	require.NoError(t, err)

	assert.Equal(t, afterFirst.Meta, f.payment(t, p.ID).Meta)
	assert.Equal(t, afterFirst.Status, f.payment(t, p.ID).Status)
	assert.Equal(t, bookingAfterFirst.UpdatedAt, f.booking(t, b.ID).UpdatedAt)

	assert.Eventually(t, func() bool {
		return f.notifier.Count(types.NOTIFY_PAYMENT_CONFIRMATION) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool {
		return f.notifier.Count(types.NOTIFY_PAYMENT_CONFIRMATION) > 1
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestVerifyPaymentRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	other := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")

	body := verifyBody(b, "order_1", "pay_1")
	body.Signature = lib.SignPayload([]byte("order_1|pay_1"), "wrong")
	_, _, err := f.payments.VerifyPayment(ctx, body)
	assert.Equal(t, types.ValidationFailed, types.KindOf(err))
	assert.Equal(t, "Invalid payment signature", types.PublicMessage(err))
	assert.Equal(t, types.TRANSACTION_CREATED, f.payment(t, p.ID).Status)
	assert.Equal(t, types.PAYMENT_PENDING, f.booking(t, b.ID).PaymentStatus)

	_, _, err = f.payments.VerifyPayment(ctx, verifyBody(b, "order_missing", "pay_1"))
	assert.Equal(t, types.NotFound, types.KindOf(err))

	_, _, err = f.payments.VerifyPayment(ctx, verifyBody(other, "order_1", "pay_1"))
	assert.Equal(t, types.ValidationFailed, types.KindOf(err))
	assert.Equal(t, types.TRANSACTION_CREATED, f.payment(t, p.ID).Status)
}

func TestSignatureVector(t *testing.T) {
	client := lib.NewRazorpayClient(config.RazorpayConfig{KeyID: "rzp_test_key", KeySecret: "s3cret"})
	expected := lib.SignPayload([]byte("order_1|pay_1"), "s3cret")

	assert.True(t, client.VerifyPaymentSignature("order_1", "pay_1", expected))
	assert.False(t, client.VerifyPaymentSignature("order_1", "pay_1", lib.SignPayload([]byte("order_1|pay_1"), "other")))
	assert.False(t, client.VerifyPaymentSignature("order_1", "pay_2", expected))
	assert.False(t, client.VerifyPaymentSignature("order_1", "pay_1", ""))
}

func TestWebhookCapturedIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")
	body := webhookBody(WEBHOOK_PAYMENT_CAPTURED, "order_1", "pay_1")
	signature := lib.SignPayload(body, testSecret)

	require.NoError(t, f.payments.HandleWebhook(ctx, body, signature))
	afterFirst := f.payment(t, p.ID)
	assert.Equal(t, types.TRANSACTION_PAID, afterFirst.Status)
	assert.Equal(t, "pay_1", afterFirst.Meta.String(types.META_PAYMENT_ID))
	assert.NotEmpty(t, afterFirst.Meta.String(types.META_WEBHOOK_PROCESSED))

	booking := f.booking(t, b.ID)
	assert.Equal(t, types.PAYMENT_PAID, booking.PaymentStatus)
	assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)

	f.now = f.now.Add(time.Minute)
	require.NoError(t, f.payments.HandleWebhook(ctx, body, signature))
	assert.Equal(t, afterFirst.Meta, f.payment(t, p.ID).Meta)
	assert.Equal(t, afterFirst.UpdatedAt, f.payment(t, p.ID).UpdatedAt)

	assert.Eventually(t, func() bool {
		return f.notifier.Count(types.NOTIFY_PAYMENT_CONFIRMATION) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool {
		return f.notifier.Count(types.NOTIFY_PAYMENT_CONFIRMATION) > 1
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestWebhookAndVerifyInEitherOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")

	body := webhookBody(WEBHOOK_PAYMENT_CAPTURED, "order_1", "pay_1")
	require.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))
	afterWebhook := f.payment(t, p.ID)

	_, _, err := f.payments.VerifyPayment(ctx, verifyBody(b, "order_1", "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, afterWebhook.Meta, f.payment(t, p.ID).Meta)
	assert.Equal(t, types.PAYMENT_PAID, f.booking(t, b.ID).PaymentStatus)
}

func TestWebhookFailed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")
	bookingBefore := f.booking(t, b.ID)

	body := webhookBody(WEBHOOK_PAYMENT_FAILED, "order_1", "pay_1")
	require.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))
	failed := f.payment(t, p.ID)
	assert.Equal(t, types.TRANSACTION_FAILED, failed.Status)
	assert.Equal(t, "card_declined", failed.Meta.String(types.META_FAILURE_REASON))
	assert.Equal(t, bookingBefore, f.booking(t, b.ID))

	// A late failure for an order that was captured is ignored.
	paid := f.seedPayment(t, b, "order_2")
	captured := webhookBody(WEBHOOK_PAYMENT_CAPTURED, "order_2", "pay_2")
	require.NoError(t, f.payments.HandleWebhook(ctx, captured, lib.SignPayload(captured, testSecret)))
	late := webhookBody(WEBHOOK_PAYMENT_FAILED, "order_2", "pay_3")
	require.NoError(t, f.payments.HandleWebhook(ctx, late, lib.SignPayload(late, testSecret)))
	assert.Equal(t, types.TRANSACTION_PAID, f.payment(t, paid.ID).Status)
	assert.Equal(t, types.PAYMENT_PAID, f.booking(t, b.ID).PaymentStatus)
}

func TestWebhookIgnoredWithoutValidSignature(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")
	body := webhookBody(WEBHOOK_PAYMENT_CAPTURED, "order_1", "pay_1")

	err := f.payments.HandleWebhook(ctx, body, "deadbeef")
	assert.Equal(t, types.ValidationFailed, types.KindOf(err))
	assert.Equal(t, types.TRANSACTION_CREATED, f.payment(t, p.ID).Status)

	f.cfg.Razorpay.WebhookSecret = ""
	assert.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))
	assert.Equal(t, types.TRANSACTION_CREATED, f.payment(t, p.ID).Status)
}

func TestWebhookUnknownOrderAndEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	body := webhookBody(WEBHOOK_PAYMENT_CAPTURED, "order_unknown", "pay_1")
	assert.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))

	body = webhookBody("order.paid", "order_unknown", "pay_1")
	assert.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))

	body = []byte("not json")
	assert.Error(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))
}

type memoryDeduper struct {
	seen     map[string]bool
	released []string
}

func (d *memoryDeduper) Claim(ctx context.Context, key string) (bool, error) {
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memoryDeduper) Release(ctx context.Context, key string) error {
	delete(d.seen, key)
	d.released = append(d.released, key)
	return nil
}

func TestWebhookDeduplicatesDeliveries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	deduper := &memoryDeduper{seen: map[string]bool{}}
	f.payments.Deduper = deduper
	b := f.seedBooking(t, nil)
	f.seedPayment(t, b, "order_1")

	body := webhookBody(WEBHOOK_PAYMENT_CAPTURED, "order_1", "pay_1")
	require.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))
	assert.True(t, deduper.seen["payment.captured:pay_1"])
	require.NoError(t, f.payments.HandleWebhook(ctx, body, lib.SignPayload(body, testSecret)))
	assert.Empty(t, deduper.released)
}

func TestMarkPaid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, func(b *models.Booking) { b.Status = types.BOOKING_PENDING })
	p := f.seedPayment(t, b, "order_1")

	_, _, err := f.payments.MarkPaid(ctx, traveller, p.ID)
	assert.Equal(t, types.Forbidden, types.KindOf(err))

	payment, booking, err := f.payments.MarkPaid(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TRANSACTION_PAID, payment.Status)
	assert.Equal(t, admin.ID, payment.Meta[types.META_MANUALLY_MARKED_BY])
	assert.NotEmpty(t, payment.Meta.String(types.META_MANUALLY_MARKED_AT))
	require.NotNil(t, booking)
	assert.Equal(t, types.PAYMENT_PAID, booking.PaymentStatus)
	assert.Equal(t, types.BOOKING_CONFIRMED, booking.Status)

	markedAt := payment.Meta.String(types.META_MANUALLY_MARKED_AT)
	f.now = f.now.Add(time.Hour)
	again, _, err := f.payments.MarkPaid(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, markedAt, again.Meta.String(types.META_MANUALLY_MARKED_AT))

	_, _, err = f.payments.MarkPaid(ctx, admin, uuid.New())
	assert.Equal(t, types.NotFound, types.KindOf(err))
}

func TestReconcileRepairsBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.seedBooking(t, nil)
	p := f.seedPayment(t, b, "order_1")

	// Payment written, booking write lost.
	p.Record(types.TRANSACTION_PAID, types.JSONB{types.META_PAYMENT_ID: "pay_1"})
	require.NoError(t, f.store.Payments.Save(ctx, p))

	repaired, err := f.payments.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	booking := f.booking(t, b.ID)
	assert.Equal(t, types.PAYMENT_PAID, booking.PaymentStatus)
	assert.Equal(t, "pay_1", *booking.PaymentID)
	assert.NotEmpty(t, f.payment(t, p.ID).Meta.String(types.META_RECONCILED_AT))

	repaired, err = f.payments.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestPaymentReads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	mine := f.seedBooking(t, nil)
	theirs := f.seedBooking(t, func(b *models.Booking) { b.UserID = stranger.ID })
	p1 := f.seedPayment(t, mine, "order_1")
	p2 := f.seedPayment(t, theirs, "order_2")

	got, err := f.payments.GetPayment(ctx, traveller, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)

	_, err = f.payments.GetPayment(ctx, traveller, p2.ID)
	assert.Equal(t, types.Forbidden, types.KindOf(err))
	_, err = f.payments.GetPayment(ctx, admin, p2.ID)
	assert.NoError(t, err)

	list, err := f.payments.ListPayments(ctx, traveller)
	require.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, p1.ID, list[0].ID)
	}
	list, _ = f.payments.ListPayments(ctx, admin)
	assert.Len(t, list, 2)
}
