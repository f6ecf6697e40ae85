package controllers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/repositories"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

var (
	traveller = types.Actor{ID: 1, Role: types.ROLE_TRAVELLER, Name: "Asha", Email: "asha@example.com"}
	stranger  = types.Actor{ID: 2, Role: types.ROLE_TRAVELLER, Name: "Ravi", Email: "ravi@example.com"}
	admin     = types.Actor{ID: 99, Role: types.ROLE_ADMIN, Name: "Ops", Email: "ops@example.com"}
)

type sentNotification struct {
	Kind      types.NotificationKind
	BookingID uuid.UUID
	To        string
	Item      string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, kind types.NotificationKind, booking *models.Booking, to types.Person, item *types.BookableItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := sentNotification{Kind: kind, BookingID: booking.ID, To: to.Email}
	if item != nil {
		n.Item = item.Title
	}
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) Sent() []sentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentNotification(nil), f.sent...)
}

func (f *fakeNotifier) Count(kind types.NotificationKind) int {
	count := 0
	for _, n := range f.Sent() {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

type fakeGateway struct {
	mu       sync.Mutex
	seq      int
	requests []lib.RazorpayOrderRequest
	err      error
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req lib.RazorpayOrderRequest) (*lib.RazorpayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	return &lib.RazorpayOrder{
		ID:       fmt.Sprintf("order_%d", g.seq),
		Entity:   "order",
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID string, paymentID string, signature string) bool {
	return lib.VerifySignature([]byte(orderID+"|"+paymentID), signature, testSecret)
}

func (g *fakeGateway) KeyID() string {
	return "rzp_test_key"
}

type fakeRenderer struct {
	in  lib.ReceiptInput
	err error
}

func (r *fakeRenderer) Render(in lib.ReceiptInput) ([]byte, error) {
	r.in = in
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

type fixture struct {
	store    *repositories.MemoryStore
	notifier *fakeNotifier
	gateway  *fakeGateway
	renderer *fakeRenderer
	cfg      *config.Config
	now      time.Time
	bookings *Bookings
	payments *Payments
}

func newFixture() *fixture {
	f := &fixture{
		store:    repositories.NewMemoryStore(),
		notifier: &fakeNotifier{},
		gateway:  &fakeGateway{},
		renderer: &fakeRenderer{},
		cfg:      config.Default(),
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.cfg.Razorpay.WebhookSecret = testSecret
	clock := func() time.Time { return f.now }

	f.bookings = NewBookings(f.store.Bookings, f.store.Items, f.notifier, f.renderer, f.cfg)
	f.bookings.Now = clock
	f.payments = NewPayments(f.store.Bookings, f.store.Payments, f.store.Items, f.notifier, f.gateway, nil, f.cfg)
	f.payments.Now = clock
	return f
}

// seedBooking stores a confirmed, unpaid booking owned by traveller three days out.
func (f *fixture) seedBooking(t *testing.T, mutate func(b *models.Booking)) *models.Booking {
	t.Helper()
	activity := f.store.Items.AddActivity(models.Activity{Title: "Sunrise Trek", Price: 100})
	b := &models.Booking{
		UserID:        traveller.ID,
		ActivityID:    &activity.ID,
		Date:          f.now.Add(72 * time.Hour),
		Contact:       types.SnapshotContact(types.Person{Name: traveller.Name, Email: traveller.Email}),
		TotalAmount:   246,
		Status:        types.BOOKING_CONFIRMED,
		PaymentStatus: types.PAYMENT_PENDING,
	}
	b.SetParticipants(2)
	if mutate != nil {
		mutate(b)
	}
	require.NoError(t, f.store.Bookings.Create(context.Background(), b))
	return b
}

// seedPayment stores a created payment for b with provider ref orderID.
func (f *fixture) seedPayment(t *testing.T, b *models.Booking, orderID string) *models.Payment {
	t.Helper()
	p := &models.Payment{
		Amount:      b.TotalAmount,
		Currency:    "INR",
		Provider:    types.PROVIDER_RAZORPAY,
		Status:      types.TRANSACTION_CREATED,
		ProviderRef: orderID,
		Meta: types.JSONB{
			types.META_BOOKING_ID: b.ID.String(),
			types.META_ORDER_ID:   orderID,
		},
	}
	require.NoError(t, f.store.Payments.Create(context.Background(), p))
	return p
}

func (f *fixture) booking(t *testing.T, id uuid.UUID) *models.Booking {
	t.Helper()
	b, err := f.store.Bookings.FindByID(context.Background(), id, true)
	require.NoError(t, err)
	return b
}

func (f *fixture) payment(t *testing.T, id uuid.UUID) *models.Payment {
	t.Helper()
	p, err := f.store.Payments.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}
