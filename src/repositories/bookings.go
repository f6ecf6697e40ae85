package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/models/scopes"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) query(ctx context.Context, includeDeleted bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if includeDeleted {
		q = q.Unscoped()
	}
	return q
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return types.InternalErr(err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Booking, error) {
	var booking models.Booking
	err := r.query(ctx, includeDeleted).
		Scopes(scopes.WithID(id)).
		First(&booking).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundErr("Booking not found")
	}
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return &booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uint, includeDeleted bool) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.query(ctx, includeDeleted).
		Scopes(scopes.OwnedBy(userID), scopes.NewestFirst).
		Find(&bookings).
		Error
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return bookings, nil
}

func (r *BookingRepository) ListAll(ctx context.Context, includeDeleted bool) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.query(ctx, includeDeleted).
		Scopes(scopes.NewestFirst).
		Find(&bookings).
		Error
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return bookings, nil
}

// Save writes every column of b. Concurrent saves of the same booking are last-write-wins.
func (r *BookingRepository) Save(ctx context.Context, b *models.Booking) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(b).
		Select("*").
		Omit("id", "created_at").
		Updates(b)
	if res.Error != nil {
		return types.InternalErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return types.NotFoundErr("Booking not found")
	}
	return nil
}

func (r *BookingRepository) ListReminderDue(ctx context.Context, from time.Time, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.query(ctx, false).
		Scopes(scopes.ReminderDue(from, to)).
		Order("date asc").
		Find(&bookings).
		Error
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return bookings, nil
}

func (r *BookingRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithID(id)).
		Update("reminder_sent", true).
		Error
	if err != nil {
		return types.InternalErr(err)
	}
	return nil
}
