package controllers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/lib/mailer"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/repositories"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Booking, error)
	ListByUser(ctx context.Context, userID uint, includeDeleted bool) ([]models.Booking, error)
	ListAll(ctx context.Context, includeDeleted bool) ([]models.Booking, error)
	Save(ctx context.Context, b *models.Booking) error
	ListReminderDue(ctx context.Context, from time.Time, to time.Time) ([]models.Booking, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByProviderRef(ctx context.Context, ref string) (*models.Payment, error)
	Save(ctx context.Context, p *models.Payment) error
	ListAll(ctx context.Context) ([]models.Payment, error)
	ListByBookingIDs(ctx context.Context, ids []string) ([]models.Payment, error)
	ListUnreconciled(ctx context.Context, limit int) ([]models.Payment, error)
}

type ItemLookup interface {
	FindItem(ctx context.Context, kind types.ItemKind, id uuid.UUID) (*types.BookableItem, error)
}

// Notifier sends one booking notification. Callers log failures and move on.
type Notifier interface {
	Notify(ctx context.Context, kind types.NotificationKind, booking *models.Booking, to types.Person, item *types.BookableItem) error
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req lib.RazorpayOrderRequest) (*lib.RazorpayOrder, error)
	VerifyPaymentSignature(orderID string, paymentID string, signature string) bool
	KeyID() string
}

type ReceiptRenderer interface {
	Render(in lib.ReceiptInput) ([]byte, error)
}

// Deduper drops webhook deliveries that were already seen.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

var (
	_ BookingStore    = (*repositories.BookingRepository)(nil)
	_ BookingStore    = (*repositories.MemoryBookings)(nil)
	_ PaymentStore    = (*repositories.PaymentRepository)(nil)
	_ PaymentStore    = (*repositories.MemoryPayments)(nil)
	_ ItemLookup      = (*repositories.ItemRepository)(nil)
	_ ItemLookup      = (*repositories.MemoryItems)(nil)
	_ Notifier        = (*mailer.Dispatcher)(nil)
	_ PaymentGateway  = (*lib.RazorpayClient)(nil)
	_ ReceiptRenderer = (*lib.PDFReceiptRenderer)(nil)
	_ Deduper         = (*lib.WebhookDeduper)(nil)
)
