package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

// MemoryStore keeps bookings, payments and listings in process memory.
// It backs STORE_DRIVER=memory and the controller tests.
type MemoryStore struct {
	Bookings *MemoryBookings
	Payments *MemoryPayments
	Items    *MemoryItems
}

func NewMemoryStore() *MemoryStore {
	bookings := &MemoryBookings{rows: map[uuid.UUID]*memoryRow[models.Booking]{}}
	return &MemoryStore{
		Bookings: bookings,
		Payments: &MemoryPayments{rows: map[uuid.UUID]*memoryRow[models.Payment]{}, bookings: bookings},
		Items:    &MemoryItems{activities: map[uuid.UUID]models.Activity{}, places: map[uuid.UUID]models.Place{}},
	}
}

type memoryRow[T any] struct {
	seq   int64
	value T
}

type MemoryBookings struct {
	mu   sync.RWMutex
	seq  int64
	rows map[uuid.UUID]*memoryRow[models.Booking]
}

func (m *MemoryBookings) Create(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if _, exists := m.rows[b.ID]; exists {
		return types.InternalErr(fmt.Errorf("duplicate booking id %s", b.ID))
	}
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	m.seq++
	m.rows[b.ID] = &memoryRow[models.Booking]{seq: m.seq, value: *b}
	return nil
}

func visible(b *models.Booking, includeDeleted bool) bool {
	return includeDeleted || !b.DeletedAt.Valid
}

func (m *MemoryBookings) FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[id]
	if !ok || !visible(&row.value, includeDeleted) {
		return nil, types.NotFoundErr("Booking not found")
	}
	b := row.value
	return &b, nil
}

func (m *MemoryBookings) list(match func(b *models.Booking) bool) []models.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]*memoryRow[models.Booking], 0, len(m.rows))
	for _, row := range m.rows {
		if match(&row.value) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].value.CreatedAt, rows[j].value.CreatedAt
		if a.Equal(b) {
			return rows[i].seq > rows[j].seq
		}
		return a.After(b)
	})
	out := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.value)
	}
	return out
}

func (m *MemoryBookings) ListByUser(ctx context.Context, userID uint, includeDeleted bool) ([]models.Booking, error) {
	return m.list(func(b *models.Booking) bool {
		return b.UserID == userID && visible(b, includeDeleted)
	}), nil
}

func (m *MemoryBookings) ListAll(ctx context.Context, includeDeleted bool) ([]models.Booking, error) {
	return m.list(func(b *models.Booking) bool {
		return visible(b, includeDeleted)
	}), nil
}

func (m *MemoryBookings) Save(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[b.ID]
	if !ok {
		return types.NotFoundErr("Booking not found")
	}
	b.CreatedAt = row.value.CreatedAt
	b.UpdatedAt = time.Now()
	row.value = *b
	return nil
}

func (m *MemoryBookings) ListReminderDue(ctx context.Context, from time.Time, to time.Time) ([]models.Booking, error) {
	return m.list(func(b *models.Booking) bool {
		return b.Status == types.BOOKING_CONFIRMED &&
			!b.Deleted &&
			!b.DeletedAt.Valid &&
			!b.ReminderSent &&
			!b.Date.Before(from) &&
			!b.Date.After(to)
	}), nil
}

func (m *MemoryBookings) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[id]; ok {
		row.value.ReminderSent = true
	}
	return nil
}

type MemoryPayments struct {
	mu       sync.RWMutex
	seq      int64
	rows     map[uuid.UUID]*memoryRow[models.Payment]
	bookings *MemoryBookings
}

func clonePayment(p models.Payment) models.Payment {
	p.Meta = p.Meta.Merge(nil)
	return p
}

func (m *MemoryPayments) Create(ctx context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for _, row := range m.rows {
		if p.ProviderRef != "" && row.value.ProviderRef == p.ProviderRef {
			return types.InternalErr(fmt.Errorf("duplicate provider ref %s", p.ProviderRef))
		}
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.seq++
	m.rows[p.ID] = &memoryRow[models.Payment]{seq: m.seq, value: clonePayment(*p)}
	return nil
}

func (m *MemoryPayments) find(match func(p *models.Payment) bool) (*models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.rows {
		if match(&row.value) {
			p := clonePayment(row.value)
			return &p, nil
		}
	}
	return nil, types.NotFoundErr("Payment not found")
}

func (m *MemoryPayments) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return m.find(func(p *models.Payment) bool { return p.ID == id })
}

func (m *MemoryPayments) FindByProviderRef(ctx context.Context, ref string) (*models.Payment, error) {
	return m.find(func(p *models.Payment) bool { return p.ProviderRef == ref })
}

func (m *MemoryPayments) Save(ctx context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[p.ID]
	if !ok {
		return types.NotFoundErr("Payment not found")
	}
	p.CreatedAt = row.value.CreatedAt
	p.UpdatedAt = time.Now()
	row.value = clonePayment(*p)
	return nil
}

func (m *MemoryPayments) list(match func(p *models.Payment) bool) []models.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]*memoryRow[models.Payment], 0, len(m.rows))
	for _, row := range m.rows {
		if match(&row.value) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]models.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, clonePayment(row.value))
	}
	return out
}

func (m *MemoryPayments) ListAll(ctx context.Context) ([]models.Payment, error) {
	return m.list(func(p *models.Payment) bool { return true }), nil
}

func (m *MemoryPayments) ListByBookingIDs(ctx context.Context, ids []string) ([]models.Payment, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return m.list(func(p *models.Payment) bool { return wanted[p.BookingID()] }), nil
}

func (m *MemoryPayments) ListUnreconciled(ctx context.Context, limit int) ([]models.Payment, error) {
	paid := m.list(func(p *models.Payment) bool { return p.IsPaid() })
	out := []models.Payment{}
	for _, p := range paid {
		id, err := uuid.Parse(p.BookingID())
		if err != nil {
			continue
		}
		b, err := m.bookings.FindByID(ctx, id, false)
		if err != nil || b.PaymentStatus == types.PAYMENT_PAID {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type MemoryItems struct {
	mu         sync.RWMutex
	activities map[uuid.UUID]models.Activity
	places     map[uuid.UUID]models.Place
}

func (m *MemoryItems) AddActivity(a models.Activity) models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.activities[a.ID] = a
	return a
}

func (m *MemoryItems) AddPlace(p models.Place) models.Place {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.places[p.ID] = p
	return p
}

func (m *MemoryItems) FindItem(ctx context.Context, kind types.ItemKind, id uuid.UUID) (*types.BookableItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch kind {
	case types.ITEM_ACTIVITY:
		if a, ok := m.activities[id]; ok {
			return a.AsItem(), nil
		}
	case types.ITEM_PLACE:
		if p, ok := m.places[id]; ok {
			return p.AsItem(), nil
		}
	default:
		return nil, types.ValidationErr(fmt.Sprintf("unknown item kind: %s", kind))
	}
	return nil, types.NotFoundErr(fmt.Sprintf("%s not found", kind))
}
