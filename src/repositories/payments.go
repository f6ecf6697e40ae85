package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/models/scopes"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return types.InternalErr(err)
	}
	return nil
}

func (r *PaymentRepository) first(ctx context.Context, query any, args ...any) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where(query, args...).
		First(&payment).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundErr("Payment not found")
	}
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PaymentRepository) FindByProviderRef(ctx context.Context, ref string) (*models.Payment, error) {
	return r.first(ctx, "provider_ref = ?", ref)
}

func (r *PaymentRepository) Save(ctx context.Context, p *models.Payment) error {
	res := r.db.WithContext(ctx).
		Model(p).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return types.InternalErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFoundErr("Payment not found")
	}
	return nil
}

func (r *PaymentRepository) ListAll(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Scopes(scopes.NewestFirst).
		Find(&payments).
		Error
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return payments, nil
}

func (r *PaymentRepository) ListByBookingIDs(ctx context.Context, ids []string) ([]models.Payment, error) {
	if len(ids) == 0 {
		return []models.Payment{}, nil
	}
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Scopes(scopes.LinkedToBookings(ids...), scopes.NewestFirst).
		Find(&payments).
		Error
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return payments, nil
}

// ListUnreconciled returns paid payments whose linked booking is not marked paid.
func (r *PaymentRepository) ListUnreconciled(ctx context.Context, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Joins(`JOIN bookings ON bookings.id::text = payments.meta ->> 'bookingId'`).
		Where("payments.status = ?", types.TRANSACTION_PAID).
		Where("bookings.payment_status <> ?", types.PAYMENT_PAID).
		Where("bookings.deleted_at IS NULL").
		Order("payments.updated_at asc").
		Limit(limit).
		Find(&payments).
		Error
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return payments, nil
}
